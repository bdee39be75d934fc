package record

import (
	"context"

	"github.com/xraph/deposit/id"
)

type Store interface {
	GetRecord(ctx context.Context, accountID id.AccountID) (*Info, error)
	// PutRecord creates or replaces the record keyed by its AccountID.
	PutRecord(ctx context.Context, info *Info) error
	DeleteRecord(ctx context.Context, accountID id.AccountID) error
}
