package settlement

import (
	"context"

	"github.com/xraph/deposit/id"
)

type Store interface {
	CreateSettlement(ctx context.Context, s *Settlement) error
	GetSettlement(ctx context.Context, settlementID id.SettlementID) (*Settlement, error)
	// ListSettlements returns the settlements paid by origin, newest first.
	ListSettlements(ctx context.Context, origin id.AccountID, opts ListOpts) ([]*Settlement, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
