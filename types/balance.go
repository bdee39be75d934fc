// Package types provides the value types shared across the deposit engine.
package types

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/shopspring/decimal"
)

// Balance is an amount in the smallest unit of the native currency.
// All arithmetic on Balance saturates at the type bounds instead of wrapping.
type Balance uint64

// MaxBalance is the largest representable Balance.
const MaxBalance = Balance(math.MaxUint64)

// SaturatingAdd returns b+other, clamped to MaxBalance.
func (b Balance) SaturatingAdd(other Balance) Balance {
	sum, carry := bits.Add64(uint64(b), uint64(other), 0)
	if carry != 0 {
		return MaxBalance
	}
	return Balance(sum)
}

// SaturatingSub returns b-other, clamped to zero.
func (b Balance) SaturatingSub(other Balance) Balance {
	if other > b {
		return 0
	}
	return b - other
}

// SaturatingMul returns b*qty, clamped to MaxBalance.
func (b Balance) SaturatingMul(qty uint64) Balance {
	hi, lo := bits.Mul64(uint64(b), qty)
	if hi != 0 {
		return MaxBalance
	}
	return Balance(lo)
}

// Min returns the smaller of two balances.
func (b Balance) Min(other Balance) Balance {
	if b < other {
		return b
	}
	return other
}

// Max returns the larger of two balances.
func (b Balance) Max(other Balance) Balance {
	if b > other {
		return b
	}
	return other
}

// IsZero returns true if the balance is zero.
func (b Balance) IsZero() bool { return b == 0 }

// ProRata returns the share part/whole of b, rounded down.
// A ratio above one is capped at one, so the result never exceeds b.
// A zero whole yields zero.
func (b Balance) ProRata(part, whole uint32) Balance {
	if whole == 0 || b == 0 {
		return 0
	}
	if part >= whole {
		return b
	}

	amount := decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(b)), 0)
	share := amount.
		Mul(decimal.NewFromInt(int64(part))).
		Div(decimal.NewFromInt(int64(whole))).
		Floor().
		BigInt()

	if !share.IsUint64() {
		return b
	}
	return Balance(share.Uint64()).Min(b)
}

// String returns the balance in base units.
func (b Balance) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// ParseBalance parses a base-unit decimal string.
func ParseBalance(s string) (Balance, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("types: parse balance %q: %w", s, err)
	}
	return Balance(v), nil
}
