package account

import (
	"context"

	"github.com/xraph/deposit/id"
)

type Store interface {
	GetAccount(ctx context.Context, accountID id.AccountID) (*Account, error)
	// PutAccount creates or replaces the account.
	PutAccount(ctx context.Context, a *Account) error
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
