// Package settlement models the outcome of draining a root meter: the
// ordered list of deposits moved between the origin and each account.
package settlement

import (
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/types"
)

// Entry is one deferred deposit owed to or by an account. Terminated marks
// a refund caused by the account being removed; it is paid in full.
type Entry struct {
	Account    id.AccountID  `json:"account"`
	Amount     types.Deposit `json:"amount"`
	Terminated bool          `json:"terminated"`
}

// Settlement is the persisted result of one top-level call.
type Settlement struct {
	types.Entity
	ID      id.SettlementID `json:"id"`
	Origin  id.AccountID    `json:"origin"`
	Limit   types.Balance   `json:"limit"`
	Total   types.Deposit   `json:"total"`
	Entries []Entry         `json:"entries"`
}

// Charged sums the charge entries.
func (s *Settlement) Charged() types.Balance {
	var sum types.Balance
	for _, e := range s.Entries {
		if e.Amount.IsCharge() {
			sum = sum.SaturatingAdd(e.Amount.Amount)
		}
	}
	return sum
}

// Refunded sums the refund entries.
func (s *Settlement) Refunded() types.Balance {
	var sum types.Balance
	for _, e := range s.Entries {
		if e.Amount.IsRefund() {
			sum = sum.SaturatingAdd(e.Amount.Amount)
		}
	}
	return sum
}
