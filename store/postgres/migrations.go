package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the deposit store.
var Migrations = migrate.NewGroup("deposit")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_deposit_accounts",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS deposit_accounts (
    id         TEXT PRIMARY KEY,
    free       TEXT NOT NULL DEFAULT '0',
    reserved   TEXT NOT NULL DEFAULT '0',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS deposit_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_deposit_records",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS deposit_records (
    account_id    TEXT PRIMARY KEY,
    code_hash     TEXT NOT NULL DEFAULT '',
    storage_bytes BIGINT NOT NULL DEFAULT 0,
    storage_items BIGINT NOT NULL DEFAULT 0,
    byte_deposit  TEXT NOT NULL DEFAULT '0',
    item_deposit  TEXT NOT NULL DEFAULT '0',
    base_deposit  TEXT NOT NULL DEFAULT '0',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deposit_records_code_hash ON deposit_records (code_hash);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS deposit_records`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_deposit_settlements",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS deposit_settlements (
    id            TEXT PRIMARY KEY,
    origin        TEXT NOT NULL,
    deposit_limit TEXT NOT NULL DEFAULT '0',
    total_kind    TEXT NOT NULL DEFAULT 'charge',
    total_amount  TEXT NOT NULL DEFAULT '0',
    entries       JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deposit_settlements_origin ON deposit_settlements (origin, created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS deposit_settlements`)
				return err
			},
		},
	)
}
