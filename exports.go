package deposit

import (
	"github.com/xraph/deposit/meter"
	"github.com/xraph/deposit/types"
)

// Re-export common types for convenience so users don't have to import the
// types and meter packages.

// Balance is re-exported from types package.
type Balance = types.Balance

// Deposit is re-exported from types package.
type Deposit = types.Deposit

// Entity is re-exported from types package.
type Entity = types.Entity

// Diff is re-exported from meter package.
type Diff = meter.Diff

// Params is re-exported from meter package.
type Params = meter.Params

// Root is re-exported from meter package.
type Root = meter.Root

// Nested is re-exported from meter package.
type Nested = meter.Nested

// Re-export Deposit constructors
var (
	Charge = types.Charge
	Refund = types.Refund
)

// Re-export constructors
var (
	NewEntity     = types.NewEntity
	DefaultParams = meter.DefaultParams
)
