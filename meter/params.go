package meter

import (
	"fmt"

	"github.com/xraph/deposit/types"
)

// Params are the prices the meter settles storage against.
type Params struct {
	// DepositPerByte is charged for every byte of storage added.
	DepositPerByte types.Balance `json:"deposit_per_byte" yaml:"deposit_per_byte" mapstructure:"deposit_per_byte"`
	// DepositPerItem is charged for every storage item added.
	DepositPerItem types.Balance `json:"deposit_per_item" yaml:"deposit_per_item" mapstructure:"deposit_per_item"`
	// MinBalance is the existence minimum an account must hold. An
	// instantiation charges at least this much.
	MinBalance types.Balance `json:"min_balance" yaml:"min_balance" mapstructure:"min_balance"`
}

// DefaultParams returns unit prices: one per byte, two per item and an
// existence minimum of one.
func DefaultParams() Params {
	return Params{
		DepositPerByte: 1,
		DepositPerItem: 2,
		MinBalance:     1,
	}
}

// Validate reports params that can never settle a deposit sensibly.
func (p Params) Validate() error {
	if p.MinBalance == 0 {
		return fmt.Errorf("meter: min balance must be positive")
	}
	return nil
}
