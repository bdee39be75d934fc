package meter

import (
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/types"
)

// Diff is the storage change of one account during one call frame.
// Diffs combine by saturating field-wise addition, so their order never
// matters.
type Diff struct {
	BytesAdded   uint32 `json:"bytes_added,omitempty" yaml:"bytes_added"`
	BytesRemoved uint32 `json:"bytes_removed,omitempty" yaml:"bytes_removed"`
	ItemsAdded   uint32 `json:"items_added,omitempty" yaml:"items_added"`
	ItemsRemoved uint32 `json:"items_removed,omitempty" yaml:"items_removed"`
}

// SaturatingAdd combines two diffs.
func (d Diff) SaturatingAdd(other Diff) Diff {
	return Diff{
		BytesAdded:   satAdd32(d.BytesAdded, other.BytesAdded),
		BytesRemoved: satAdd32(d.BytesRemoved, other.BytesRemoved),
		ItemsAdded:   satAdd32(d.ItemsAdded, other.ItemsAdded),
		ItemsRemoved: satAdd32(d.ItemsRemoved, other.ItemsRemoved),
	}
}

// IsZero reports whether the diff changes nothing.
func (d Diff) IsZero() bool {
	return d == Diff{}
}

// Settle converts the diff into a deposit at the given prices.
//
// Added storage is charged at price. Removed storage is refunded pro rata to
// what the record holds: removing a fifth of the stored items returns a fifth
// of the item deposit. The record is updated in place so its deposits keep
// matching its counters.
//
// Without a record only additions can be priced; a diff that removes
// storage from an untracked account panics.
func (d Diff) Settle(p Params, info *record.Info) types.Deposit {
	bytesAdded := satSub32(d.BytesAdded, d.BytesRemoved)
	itemsAdded := satSub32(d.ItemsAdded, d.ItemsRemoved)
	bytesDeposit := types.Charge(p.DepositPerByte.SaturatingMul(uint64(bytesAdded)))
	itemsDeposit := types.Charge(p.DepositPerItem.SaturatingMul(uint64(itemsAdded)))

	if info == nil {
		if d.BytesRemoved != 0 || d.ItemsRemoved != 0 {
			panic("meter: cannot settle removed storage without a record")
		}
		return bytesDeposit.SaturatingAdd(itemsDeposit)
	}

	bytesRemoved := satSub32(d.BytesRemoved, d.BytesAdded)
	itemsRemoved := satSub32(d.ItemsRemoved, d.ItemsAdded)
	bytesDeposit = bytesDeposit.SaturatingAdd(
		types.Refund(info.ByteDeposit.ProRata(bytesRemoved, info.StorageBytes)))
	itemsDeposit = itemsDeposit.SaturatingAdd(
		types.Refund(info.ItemDeposit.ProRata(itemsRemoved, info.StorageItems)))

	info.StorageBytes = satSub32(satAdd32(info.StorageBytes, bytesAdded), bytesRemoved)
	info.StorageItems = satSub32(satAdd32(info.StorageItems, itemsAdded), itemsRemoved)
	info.ByteDeposit = applyDeposit(info.ByteDeposit, bytesDeposit)
	info.ItemDeposit = applyDeposit(info.ItemDeposit, itemsDeposit)

	return bytesDeposit.SaturatingAdd(itemsDeposit)
}

func applyDeposit(held types.Balance, d types.Deposit) types.Balance {
	if d.IsRefund() {
		return held.SaturatingSub(d.Amount)
	}
	return held.SaturatingAdd(d.Amount)
}

func satAdd32(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint32(0)
}

func satSub32(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
