// Package backend provides the reference meter.Backend: storage deposits
// are moved between account balances and held as reserved balance on the
// account whose storage they pay for.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/meter"
	"github.com/xraph/deposit/store"
	"github.com/xraph/deposit/types"
)

var (
	ErrWouldReap           = errors.New("backend: transfer would leave origin below the existence minimum")
	ErrBelowMinimum        = errors.New("backend: transfer too small to create the receiving account")
	ErrInsufficientReserve = errors.New("backend: reserved balance too low to refund")
)

// compile-time interface check
var _ meter.Backend = (*Reserving)(nil)

// Reserving settles deposits against an account.Store.
//
// A charge transfers the amount from the origin, which must stay above the
// existence minimum, and reserves it on the receiving account. A refund
// moves reserved balance back to the origin's free balance; unless the
// account was terminated it never takes the account's reserve below the
// existence minimum.
type Reserving struct {
	mu         sync.Mutex
	accounts   account.Store
	minBalance types.Balance
	logger     *slog.Logger
	strict     bool
	onSettled  SettledFunc
}

// SettledFunc receives a deposit that has moved between balances.
type SettledFunc func(ctx context.Context, origin, acct id.AccountID, amount types.Deposit, terminated bool)

// Option configures a Reserving backend.
type Option func(*Reserving)

// WithLogger sets the logger settlement failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reserving) { r.logger = l }
}

// WithStrict makes settlement failures panic after being logged.
func WithStrict(strict bool) Option {
	return func(r *Reserving) { r.strict = strict }
}

// WithSettledHook calls fn after every deposit that settled. Failed
// settlements never reach fn.
func WithSettledHook(fn SettledFunc) Option {
	return func(r *Reserving) { r.onSettled = fn }
}

// NewReserving creates a backend over accounts with the given existence
// minimum.
func NewReserving(accounts account.Store, minBalance types.Balance, opts ...Option) *Reserving {
	r := &Reserving{
		accounts:   accounts,
		minBalance: minBalance,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckLimit grants limit if origin can pay it while keeping minLeftover
// and the existence minimum free. A nil limit grants everything above that.
func (r *Reserving) CheckLimit(ctx context.Context, origin id.AccountID, limit *types.Balance, minLeftover types.Balance) (types.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, err := r.load(ctx, origin)
	if err != nil {
		return 0, err
	}
	maxLimit := acct.Free.SaturatingSub(r.minBalance).SaturatingSub(minLeftover)
	granted := maxLimit
	if limit != nil {
		granted = *limit
	}
	if granted > maxLimit {
		return 0, meter.ErrInsufficientFunds
	}
	return granted, nil
}

// Charge settles one deposit. It never returns an error: a failure here
// means balances and records disagree, which is logged and, in strict mode,
// panics.
func (r *Reserving) Charge(ctx context.Context, origin, acct id.AccountID, amount types.Deposit, terminated bool) {
	if amount.IsZero() {
		return
	}

	err := r.settle(ctx, origin, acct, amount, terminated)
	if err == nil {
		r.logger.Debug("storage deposit settled",
			"origin", origin.String(),
			"account", acct.String(),
			"amount", amount.String(),
			"terminated", terminated,
		)
		if r.onSettled != nil {
			r.onSettled(ctx, origin, acct, amount, terminated)
		}
		return
	}

	r.logger.Error("storage deposit settlement failed",
		"origin", origin.String(),
		"account", acct.String(),
		"amount", amount.String(),
		"terminated", terminated,
		"error", err,
	)
	if r.strict {
		panic(fmt.Sprintf("backend: unable to settle storage deposit %s: %v", amount, err))
	}
}

func (r *Reserving) settle(ctx context.Context, origin, acct id.AccountID, amount types.Deposit, terminated bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount.IsCharge() {
		return r.collect(ctx, origin, acct, amount.Amount)
	}
	return r.refund(ctx, origin, acct, amount.Amount, terminated)
}

// collect transfers amount from origin to acct keeping origin alive, then
// reserves it on acct.
func (r *Reserving) collect(ctx context.Context, origin, acct id.AccountID, amount types.Balance) error {
	from, err := r.load(ctx, origin)
	if err != nil {
		return err
	}
	if from.Free.SaturatingSub(amount) < r.minBalance || from.Free < amount {
		return ErrWouldReap
	}
	to, err := r.loadOther(ctx, from, acct)
	if err != nil {
		return err
	}
	if to.Total().IsZero() && amount < r.minBalance {
		return ErrBelowMinimum
	}

	from.Free -= amount
	to.Reserved = to.Reserved.SaturatingAdd(amount)
	return r.save(ctx, from, to)
}

// refund repatriates reserved balance from acct to origin's free balance.
func (r *Reserving) refund(ctx context.Context, origin, acct id.AccountID, amount types.Balance, terminated bool) error {
	from, err := r.load(ctx, acct)
	if err != nil {
		return err
	}
	if !terminated {
		amount = amount.Min(from.Reserved.SaturatingSub(r.minBalance))
	}
	to, err := r.loadOther(ctx, from, origin)
	if err != nil {
		return err
	}

	moved := amount.Min(from.Reserved)
	from.Reserved -= moved
	to.Free = to.Free.SaturatingAdd(moved)
	if err := r.save(ctx, from, to); err != nil {
		return err
	}
	if moved < amount {
		return fmt.Errorf("%w: %s short", ErrInsufficientReserve, amount-moved)
	}
	return nil
}

// Account returns the balances of accountID; a missing account is empty.
func (r *Reserving) Account(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx, accountID)
}

func (r *Reserving) load(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	acct, err := r.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrAccountNotFound) {
		return account.New(accountID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("backend: load account %s: %w", accountID, err)
	}
	return acct, nil
}

// loadOther returns loaded when it is accountID, so a self-transfer
// updates a single value.
func (r *Reserving) loadOther(ctx context.Context, loaded *account.Account, accountID id.AccountID) (*account.Account, error) {
	if loaded.ID.String() == accountID.String() {
		return loaded, nil
	}
	return r.load(ctx, accountID)
}

func (r *Reserving) save(ctx context.Context, accts ...*account.Account) error {
	for _, a := range accts {
		if err := r.accounts.PutAccount(ctx, a); err != nil {
			return fmt.Errorf("backend: save account %s: %w", a.ID, err)
		}
	}
	return nil
}
