// Package meter implements hierarchical storage deposit metering.
//
// A Root meter is opened once per top-level call and a Nested meter is
// spawned for every sub-call. Nested meters collect storage diffs; when a
// sub-call returns successfully its meter is absorbed into the parent, and
// when it reverts the meter is simply dropped. Nothing reaches the Backend
// until the root is drained with IntoDeposit, which pays every refund before
// any charge so that freed storage can fund new storage within the same call.
//
// A meter tree belongs to a single goroutine and carries no locks.
// Violating a documented precondition is a programming error and panics.
package meter

import (
	"context"
	"slices"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// raw is the state shared by root and nested meters.
type raw struct {
	params  Params
	backend Backend

	// limit is fixed at construction.
	limit types.Balance
	// total sums everything absorbed from children.
	total types.Deposit
	own   contribution
	// charges is the deferred ledger, in absorption order.
	charges  []settlement.Entry
	consumed bool
}

// Root is the meter of a top-level call.
type Root struct {
	raw
}

// Nested is the meter of a sub-call.
type Nested struct {
	raw
}

// NewRoot opens a root meter for origin. The effective limit is whatever
// the backend grants for the requested limit; a nil limit takes everything
// origin can spare above minLeftover.
func NewRoot(
	ctx context.Context,
	backend Backend,
	params Params,
	origin id.AccountID,
	limit *types.Balance,
	minLeftover types.Balance,
) (*Root, error) {
	granted, err := backend.CheckLimit(ctx, origin, limit, minLeftover)
	if err != nil {
		return nil, err
	}
	return &Root{raw: raw{params: params, backend: backend, limit: granted}}, nil
}

// Nested spawns a meter for a sub-call. Its limit is whatever is still
// available in this meter.
func (m *raw) Nested() *Nested {
	m.mustBeLive()
	if m.own.state != alive {
		panic("meter: cannot nest below a checked or terminated meter")
	}
	return &Nested{raw: raw{params: m.params, backend: m.backend, limit: m.Available()}}
}

// Absorb folds a successfully returned child into this meter. account is
// the account the child executed for and info its storage record, or nil if
// the account has none.
//
// The child's ledger is kept only when its own contribution is non-zero.
func (m *raw) Absorb(child *Nested, account id.AccountID, info *record.Info) {
	m.mustBeLive()
	child.mustBeLive()
	child.consumed = true

	own := child.own.settle(m.params, info)
	m.total = m.total.SaturatingAdd(child.total).SaturatingAdd(own)
	if own.IsZero() {
		return
	}
	m.charges = append(m.charges, child.charges...)
	m.charges = append(m.charges, settlement.Entry{
		Account:    account,
		Amount:     own,
		Terminated: child.own.state == terminated,
	})
}

// Available is how much can still be charged under the limit.
func (m *raw) Available() types.Balance {
	return m.total.Available(m.limit)
}

// Limit returns the limit fixed at construction.
func (m *raw) Limit() types.Balance { return m.limit }

// TotalDeposit returns the deposit absorbed from children so far.
func (m *raw) TotalDeposit() types.Deposit { return m.total }

// Charges returns a copy of the deferred ledger in absorption order.
func (m *raw) Charges() []settlement.Entry {
	return slices.Clone(m.charges)
}

// IsTerminated reports whether the meter's account was terminated.
func (m *raw) IsTerminated() bool { return m.own.state == terminated }

func (m *raw) mustBeLive() {
	if m.consumed {
		panic("meter: meter already consumed")
	}
}

// SettlementOrder returns the ledger in the order IntoDeposit pays it:
// refunds first, then charges, each in absorption order.
func (r *Root) SettlementOrder() []settlement.Entry {
	return settlementOrder(r.charges)
}

// IntoDeposit drains the root: every deferred refund and then every
// deferred charge is handed to the backend. It returns the net deposit of
// the whole call tree. The root cannot be used afterwards.
func (r *Root) IntoDeposit(ctx context.Context, origin id.AccountID) types.Deposit {
	r.mustBeLive()
	r.consumed = true
	for _, e := range settlementOrder(r.charges) {
		r.backend.Charge(ctx, origin, e.Account, e.Amount, e.Terminated)
	}
	return r.total
}

func settlementOrder(entries []settlement.Entry) []settlement.Entry {
	ordered := make([]settlement.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Amount.IsRefund() {
			ordered = append(ordered, e)
		}
	}
	for _, e := range entries {
		if e.Amount.IsCharge() {
			ordered = append(ordered, e)
		}
	}
	return ordered
}

// Charge records a storage diff for this frame. The limit is not checked
// here; see EnforceLimit.
func (n *Nested) Charge(diff Diff) {
	n.mustBeLive()
	if n.own.state != alive {
		panic("meter: charge on a checked or terminated meter")
	}
	n.own.diff = n.own.diff.SaturatingAdd(diff)
}

// ChargeInstantiate charges the deposit for creating account's record and
// settles it with the backend straight away, so the account exists before
// any value reaches it. The deposit covers the encoded record plus one item
// and is at least the existence minimum. It is stored as info's base deposit
// and becomes this meter's total, not its own contribution, so it is not
// charged a second time on absorption.
func (n *Nested) ChargeInstantiate(
	ctx context.Context,
	origin, account id.AccountID,
	info *record.Info,
) (types.Deposit, error) {
	n.mustBeLive()
	if n.own.state != alive {
		panic("meter: instantiate on a checked or terminated meter")
	}

	deposit := Diff{BytesAdded: info.EncodedSize(), ItemsAdded: 1}.Settle(n.params, nil)
	deposit = deposit.Max(types.Charge(n.params.MinBalance))
	if deposit.ChargeOrZero() > n.limit {
		return types.Deposit{}, ErrLimitExceeded
	}

	n.total = deposit
	info.BaseDeposit = deposit.ChargeOrZero()
	if !deposit.IsZero() {
		n.backend.Charge(ctx, origin, account, deposit, false)
	}
	return deposit, nil
}

// Terminate marks the frame's account as removed. Its whole deposit is
// refunded on settlement, regardless of any diffs charged before.
func (n *Nested) Terminate(info *record.Info) {
	n.mustBeLive()
	if n.own.state != alive {
		panic("meter: terminate on a checked or terminated meter")
	}
	n.own = contribution{state: terminated, deposit: types.Refund(info.TotalDeposit())}
}

// EnforceLimit settles the frame's own contribution against info and fails
// with ErrLimitExceeded if the frame's total would charge more than the
// limit. A terminated contribution stays terminated.
//
// Charges are not checked as they happen so that later refunds within the
// call tree can offset earlier charges. Call it once, when the outermost
// frame returns.
func (n *Nested) EnforceLimit(info *record.Info) error {
	n.mustBeLive()
	deposit := n.own.settle(n.params, info)
	total := n.total.SaturatingAdd(deposit)
	if n.own.state == alive {
		n.own = contribution{state: checked, deposit: deposit}
	}
	if total.IsCharge() && total.Amount > n.limit {
		return ErrLimitExceeded
	}
	return nil
}
