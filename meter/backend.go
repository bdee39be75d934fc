package meter

import (
	"context"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/types"
)

// Backend moves the balances a meter settles.
type Backend interface {
	// CheckLimit verifies that origin can pay limit while keeping
	// minLeftover spendable, and returns the effective limit. A nil limit
	// asks for everything origin can spare. It returns ErrInsufficientFunds
	// when the limit is not affordable.
	CheckLimit(ctx context.Context, origin id.AccountID, limit *types.Balance, minLeftover types.Balance) (types.Balance, error)

	// Charge transfers amount from origin to account for a charge, or back
	// from account to origin for a refund. A terminated refund is paid in
	// full. Failures cannot be undone at this point; implementations log them.
	Charge(ctx context.Context, origin, account id.AccountID, amount types.Deposit, terminated bool)
}
