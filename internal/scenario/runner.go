package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/meter"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/store/memory"
)

// ErrReverted is returned by a frame marked to revert.
var ErrReverted = errors.New("scenario: call reverted")

// Result is the state after a scenario ran.
type Result struct {
	Settlement *settlement.Settlement
	Names      map[string]id.AccountID
	Accounts   map[string]*account.Account
	Records    map[string]*record.Info

	// Reverted lists the accounts of frames dropped by their caller, in the
	// order they reverted.
	Reverted []string
}

// Name returns the scenario name of accountID, or its ID string.
func (r *Result) Name(accountID id.AccountID) string {
	for name, aid := range r.Names {
		if aid.String() == accountID.String() {
			return name
		}
	}
	return accountID.String()
}

// SortedNames returns the account names in lexical order.
func (r *Result) SortedNames() []string {
	names := make([]string, 0, len(r.Names))
	for name := range r.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parent is the part of a root or nested meter a frame needs from its
// caller.
type parent interface {
	Nested() *meter.Nested
	Absorb(child *meter.Nested, account id.AccountID, info *record.Info)
}

type runner struct {
	engine *deposit.Engine
	store  *memory.Store
	origin id.AccountID
	names  map[string]id.AccountID

	// records is the working copy of every storage record the call tree
	// touched. Terminated accounts map to nil.
	records  map[string]*record.Info
	reverted []string
}

// Run executes sc against a fresh in-memory engine. opts are applied after
// the scenario's params.
//
// If the outermost call fails, every balance is rolled back and the
// returned Result, which has no Settlement, shows the starting state
// alongside the error.
func Run(ctx context.Context, sc *Scenario, opts ...deposit.Option) (*Result, error) {
	params := meter.DefaultParams()
	if sc.Params != nil {
		params = *sc.Params
	}

	s := memory.New()
	e := deposit.New(s, append([]deposit.Option{deposit.WithParams(params)}, opts...)...)
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	defer e.Stop() //nolint:errcheck // memory store close cannot fail

	r := &runner{
		engine:  e,
		store:   s,
		names:   make(map[string]id.AccountID),
		records: make(map[string]*record.Info),
	}
	r.origin = r.id(sc.Origin)

	for name, spec := range sc.Accounts {
		acct := account.New(r.id(name))
		acct.Free = spec.Free
		acct.Reserved = spec.Reserved
		if err := s.PutAccount(ctx, acct); err != nil {
			return nil, err
		}
	}
	for name, spec := range sc.Records {
		info := record.New(r.id(name), spec.CodeHash)
		info.StorageBytes = spec.StorageBytes
		info.StorageItems = spec.StorageItems
		info.ByteDeposit = spec.ByteDeposit
		info.ItemDeposit = spec.ItemDeposit
		info.BaseDeposit = spec.BaseDeposit
		if err := e.SaveRecord(ctx, info); err != nil {
			return nil, err
		}
	}

	start, err := r.checkpoint(ctx)
	if err != nil {
		return nil, err
	}
	st, err := e.Execute(ctx, r.origin, sc.Limit, sc.MinLeftover, func(ctx context.Context, root *meter.Root) error {
		if err := r.frame(ctx, root, &sc.Call, true); err != nil {
			return err
		}
		return r.commit(ctx)
	})
	if err != nil {
		if rbErr := r.rollback(ctx, start); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}
		res, resErr := r.result(ctx, nil)
		if resErr != nil {
			return nil, errors.Join(err, resErr)
		}
		return res, err
	}

	return r.result(ctx, st)
}

func (r *runner) id(name string) id.AccountID {
	if aid, ok := r.names[name]; ok {
		return aid
	}
	aid := id.NewAccountID()
	r.names[name] = aid
	return aid
}

// record returns the working record of name, loading it on first use.
func (r *runner) record(ctx context.Context, name string) (*record.Info, error) {
	if info, ok := r.records[name]; ok {
		return info, nil
	}
	info, err := r.engine.Record(ctx, r.id(name))
	if err != nil {
		return nil, err
	}
	r.records[name] = info
	return info, nil
}

// frame runs one call. An error from a nested frame reverts only that
// frame; the caller carries on without absorbing it.
func (r *runner) frame(ctx context.Context, p parent, c *Call, outermost bool) error {
	acct := r.id(c.Account)
	child := p.Nested()

	info, err := r.record(ctx, c.Account)
	if err != nil {
		return err
	}

	if c.Instantiate {
		if info != nil {
			return fmt.Errorf("scenario: %s is already instantiated", c.Account)
		}
		info = record.New(acct, c.CodeHash)
		if _, err := child.ChargeInstantiate(ctx, r.origin, acct, info); err != nil {
			return fmt.Errorf("scenario: instantiate %s: %w", c.Account, err)
		}
		r.records[c.Account] = info
	}

	child.Charge(c.Diff)

	for i := range c.Calls {
		cp, err := r.checkpoint(ctx)
		if err != nil {
			return err
		}
		if err := r.frame(ctx, child, &c.Calls[i], false); err != nil {
			if !errors.Is(err, ErrReverted) && !deposit.IsDepositError(err) {
				return err
			}
			if err := r.rollback(ctx, cp); err != nil {
				return err
			}
			r.reverted = append(r.reverted, c.Calls[i].Account)
		}
	}
	// A reverted sub-call may have replaced this frame's record.
	info = r.records[c.Account]

	if c.Terminate {
		if info == nil {
			return fmt.Errorf("scenario: cannot terminate %s without a record", c.Account)
		}
		child.Terminate(info)
	}
	if c.Revert {
		return ErrReverted
	}

	if outermost {
		if err := child.EnforceLimit(info); err != nil {
			return err
		}
	}
	p.Absorb(child, acct, info)

	if c.Terminate {
		r.records[c.Account] = nil
	}
	return nil
}

// checkpoint is the state a reverted call is rolled back to. Deposits
// charged on instantiation reach the balances immediately, so balances are
// captured along with the working records.
type checkpoint struct {
	records  map[string]*record.Info
	accounts []*account.Account
}

func (r *runner) checkpoint(ctx context.Context) (checkpoint, error) {
	accounts, err := r.store.ListAccounts(ctx, account.ListOpts{})
	if err != nil {
		return checkpoint{}, err
	}

	records := make(map[string]*record.Info, len(r.records))
	for name, info := range r.records {
		if info != nil {
			info = info.Clone()
		}
		records[name] = info
	}
	return checkpoint{records: records, accounts: accounts}, nil
}

// rollback restores the records and balances of cp. Accounts created after
// cp was taken are removed.
func (r *runner) rollback(ctx context.Context, cp checkpoint) error {
	current, err := r.store.ListAccounts(ctx, account.ListOpts{})
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(cp.accounts))
	for _, acct := range cp.accounts {
		keep[acct.ID.String()] = true
		if err := r.store.PutAccount(ctx, acct); err != nil {
			return err
		}
	}
	for _, acct := range current {
		if keep[acct.ID.String()] {
			continue
		}
		if err := r.store.DeleteAccount(ctx, acct.ID); err != nil {
			return err
		}
	}

	r.records = cp.records
	return nil
}

// commit persists every record the call tree touched.
func (r *runner) commit(ctx context.Context) error {
	for name, info := range r.records {
		if info == nil {
			if err := r.engine.RemoveRecord(ctx, r.id(name)); err != nil && !deposit.IsNotFound(err) {
				return err
			}
			continue
		}
		if err := r.engine.SaveRecord(ctx, info); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) result(ctx context.Context, st *settlement.Settlement) (*Result, error) {
	res := &Result{
		Settlement: st,
		Names:      r.names,
		Accounts:   make(map[string]*account.Account, len(r.names)),
		Records:    make(map[string]*record.Info, len(r.names)),
		Reverted:   r.reverted,
	}
	for name, aid := range r.names {
		acct, err := r.engine.Account(ctx, aid)
		switch {
		case err == nil:
			res.Accounts[name] = acct
		case !deposit.IsNotFound(err):
			return nil, err
		}

		info, err := r.engine.Record(ctx, aid)
		if err != nil {
			return nil, err
		}
		if info != nil {
			res.Records[name] = info
		}
	}
	return res, nil
}
