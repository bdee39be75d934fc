// Package store defines the unified persistence interface for accounts,
// storage records and settlements.
package store

import (
	"context"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
)

// Store is the unified storage interface for all deposit entities.
// Methods are declared explicitly rather than by embedding the per-entity
// interfaces so that drivers can be checked against one list.
type Store interface {
	// Account methods
	GetAccount(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	PutAccount(ctx context.Context, a *account.Account) error
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)

	// Record methods
	GetRecord(ctx context.Context, accountID id.AccountID) (*record.Info, error)
	PutRecord(ctx context.Context, info *record.Info) error
	DeleteRecord(ctx context.Context, accountID id.AccountID) error

	// Settlement methods
	CreateSettlement(ctx context.Context, s *settlement.Settlement) error
	GetSettlement(ctx context.Context, settlementID id.SettlementID) (*settlement.Settlement, error)
	ListSettlements(ctx context.Context, origin id.AccountID, opts settlement.ListOpts) ([]*settlement.Settlement, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ account.Store    = Store(nil)
	_ record.Store     = Store(nil)
	_ settlement.Store = Store(nil)
)
