package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/deposit/account"
	"github.com/xraph/deposit/backend"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/meter"
	"github.com/xraph/deposit/plugin"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/store"
	"github.com/xraph/deposit/types"
)

// Engine opens root meters, settles them and keeps the settlement history.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	params  meter.Params
	backend meter.Backend
	strict  bool
}

// New creates a new Engine. Unless WithBackend is given, deposits are
// settled by a backend.Reserving over the store's accounts.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		params:  meter.DefaultParams(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.backend == nil {
		e.backend = backend.NewReserving(s, e.params.MinBalance,
			backend.WithLogger(e.logger),
			backend.WithStrict(e.strict),
			backend.WithSettledHook(e.emitSettled),
		)
	} else {
		e.backend = &observedBackend{inner: e.backend, plugins: e.plugins}
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithParams sets the deposit prices.
func WithParams(p meter.Params) Option {
	return func(e *Engine) {
		e.params = p
	}
}

// WithBackend replaces the default reserving backend.
func WithBackend(b meter.Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithStrictSettlement makes the default backend panic on settlement
// failures instead of only logging them.
func WithStrictSettlement(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// Start validates the configuration, migrates the store and initializes
// plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.params.Validate(); err != nil {
		return ValidationError{Field: "params", Message: err.Error()}
	}

	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("deposit engine started",
		"deposit_per_byte", e.params.DepositPerByte.String(),
		"deposit_per_item", e.params.DepositPerItem.String(),
		"min_balance", e.params.MinBalance.String(),
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Params returns the deposit prices in effect.
func (e *Engine) Params() meter.Params { return e.params }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Metering
// ──────────────────────────────────────────────────

// NewMeter opens a root meter for a top-level call paid by origin. A nil
// limit grants everything origin can spare above minLeftover.
func (e *Engine) NewMeter(ctx context.Context, origin id.AccountID, limit *types.Balance, minLeftover types.Balance) (*meter.Root, error) {
	root, err := meter.NewRoot(ctx, e.backend, e.params, origin, limit, minLeftover)
	if err != nil {
		if errors.Is(err, meter.ErrInsufficientFunds) {
			e.plugins.EmitFundsInsufficient(ctx, origin, minLeftover)
		}
		return nil, err
	}

	e.plugins.EmitMeterOpened(ctx, origin, root.Limit())
	return root, nil
}

// Finalize drains root, paying refunds before charges, and records the
// outcome as a settlement. Balances have moved even when persisting the
// settlement fails; the settlement is returned in both cases.
func (e *Engine) Finalize(ctx context.Context, root *meter.Root, origin id.AccountID) (*settlement.Settlement, error) {
	start := time.Now()

	entries := root.SettlementOrder()
	limit := root.Limit()
	total := root.IntoDeposit(ctx, origin)

	st := &settlement.Settlement{
		Entity:  types.NewEntity(),
		ID:      id.NewSettlementID(),
		Origin:  origin,
		Limit:   limit,
		Total:   total,
		Entries: entries,
	}

	if err := e.store.CreateSettlement(ctx, st); err != nil {
		e.logger.Error("failed to persist settlement",
			"settlement", st.ID.String(),
			"origin", origin.String(),
			"error", err,
		)
		return st, fmt.Errorf("deposit: persist settlement: %w", err)
	}

	elapsed := time.Since(start)
	e.logger.Debug("settlement finalized",
		"settlement", st.ID.String(),
		"origin", origin.String(),
		"total", total.String(),
		"entries", len(entries),
		"elapsed", elapsed,
	)
	e.plugins.EmitSettlementFinalized(ctx, st, elapsed)

	return st, nil
}

// Execute runs one top-level call. fn receives the root meter and drives
// the call tree. If fn fails the whole tree is discarded and nothing is
// settled; otherwise the root is finalized.
//
// Instantiation deposits are handed to the backend as soon as they are
// charged. A failed fn does not undo them: the caller owns rolling back
// balances along with the rest of its state.
func (e *Engine) Execute(
	ctx context.Context,
	origin id.AccountID,
	limit *types.Balance,
	minLeftover types.Balance,
	fn func(ctx context.Context, root *meter.Root) error,
) (*settlement.Settlement, error) {
	root, err := e.NewMeter(ctx, origin, limit, minLeftover)
	if err != nil {
		return nil, err
	}

	if err := fn(ctx, root); err != nil {
		if errors.Is(err, meter.ErrLimitExceeded) {
			e.plugins.EmitLimitExceeded(ctx, origin, root.Limit())
		}
		e.logger.Debug("call reverted",
			"origin", origin.String(),
			"error", err,
		)
		return nil, err
	}

	return e.Finalize(ctx, root, origin)
}

// ──────────────────────────────────────────────────
// Records, accounts and history
// ──────────────────────────────────────────────────

// Record returns the storage record of accountID, or nil if the account
// has none.
func (e *Engine) Record(ctx context.Context, accountID id.AccountID) (*record.Info, error) {
	info, err := e.store.GetRecord(ctx, accountID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil // an untracked account has no record
	}
	return info, err
}

// SaveRecord persists a storage record.
func (e *Engine) SaveRecord(ctx context.Context, info *record.Info) error {
	return e.store.PutRecord(ctx, info)
}

// RemoveRecord deletes the storage record of a terminated account.
func (e *Engine) RemoveRecord(ctx context.Context, accountID id.AccountID) error {
	return e.store.DeleteRecord(ctx, accountID)
}

// Account returns the balances of accountID.
func (e *Engine) Account(ctx context.Context, accountID id.AccountID) (*account.Account, error) {
	return e.store.GetAccount(ctx, accountID)
}

// Endow credits free balance to accountID, creating the account if needed.
func (e *Engine) Endow(ctx context.Context, accountID id.AccountID, amount types.Balance) error {
	acct, err := e.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrAccountNotFound) {
		acct, err = account.New(accountID), nil
	}
	if err != nil {
		return err
	}
	acct.Free = acct.Free.SaturatingAdd(amount)
	return e.store.PutAccount(ctx, acct)
}

// Settlement returns a settlement by ID.
func (e *Engine) Settlement(ctx context.Context, settlementID id.SettlementID) (*settlement.Settlement, error) {
	return e.store.GetSettlement(ctx, settlementID)
}

// Settlements lists the settlements paid by origin, newest first.
func (e *Engine) Settlements(ctx context.Context, origin id.AccountID, opts settlement.ListOpts) ([]*settlement.Settlement, error) {
	return e.store.ListSettlements(ctx, origin, opts)
}

// emitSettled reports a deposit the default backend settled.
func (e *Engine) emitSettled(ctx context.Context, origin, acct id.AccountID, amount types.Deposit, terminated bool) {
	if amount.IsCharge() {
		e.plugins.EmitDepositCharged(ctx, origin, acct, amount.Amount)
	} else {
		e.plugins.EmitDepositRefunded(ctx, origin, acct, amount.Amount, terminated)
	}
}

// observedBackend reports the deposits handed to a backend given with
// WithBackend. meter.Backend.Charge cannot report failure, so a deposit the
// backend failed to settle is reported as well.
type observedBackend struct {
	inner   meter.Backend
	plugins *plugin.Registry
}

func (b *observedBackend) CheckLimit(ctx context.Context, origin id.AccountID, limit *types.Balance, minLeftover types.Balance) (types.Balance, error) {
	return b.inner.CheckLimit(ctx, origin, limit, minLeftover)
}

func (b *observedBackend) Charge(ctx context.Context, origin, acct id.AccountID, amount types.Deposit, terminated bool) {
	b.inner.Charge(ctx, origin, acct, amount, terminated)
	if amount.IsZero() {
		return
	}
	if amount.IsCharge() {
		b.plugins.EmitDepositCharged(ctx, origin, acct, amount.Amount)
	} else {
		b.plugins.EmitDepositRefunded(ctx, origin, acct, amount.Amount, terminated)
	}
}
