package deposit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/record"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/store/memory"
	"github.com/xraph/deposit/types"
)

type eventPlugin struct {
	mu     sync.Mutex
	events []string
}

func (p *eventPlugin) Name() string { return "events" }

func (p *eventPlugin) add(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *eventPlugin) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *eventPlugin) OnInit(context.Context, interface{}) error { p.add("init"); return nil }
func (p *eventPlugin) OnShutdown(context.Context) error          { p.add("shutdown"); return nil }

func (p *eventPlugin) OnMeterOpened(context.Context, id.AccountID, types.Balance) error {
	p.add("opened")
	return nil
}

func (p *eventPlugin) OnFundsInsufficient(context.Context, id.AccountID, types.Balance) error {
	p.add("insufficient")
	return nil
}

func (p *eventPlugin) OnLimitExceeded(context.Context, id.AccountID, types.Balance) error {
	p.add("exceeded")
	return nil
}

func (p *eventPlugin) OnDepositCharged(context.Context, id.AccountID, id.AccountID, types.Balance) error {
	p.add("charged")
	return nil
}

func (p *eventPlugin) OnDepositRefunded(_ context.Context, _, _ id.AccountID, _ types.Balance, terminated bool) error {
	if terminated {
		p.add("refunded-terminated")
	} else {
		p.add("refunded")
	}
	return nil
}

func (p *eventPlugin) OnSettlementFinalized(context.Context, *settlement.Settlement, time.Duration) error {
	p.add("finalized")
	return nil
}

func newEngine(t *testing.T, opts ...deposit.Option) (*deposit.Engine, *eventPlugin) {
	t.Helper()
	events := &eventPlugin{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	opts = append([]deposit.Option{
		deposit.WithLogger(logger),
		deposit.WithPlugin(events),
		deposit.WithParams(deposit.Params{DepositPerByte: 1, DepositPerItem: 2, MinBalance: 1}),
	}, opts...)

	e := deposit.New(memory.New(), opts...)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })
	return e, events
}

func TestContractLifecycle(t *testing.T) {
	ctx := context.Background()
	e, events := newEngine(t)
	origin := id.NewAccountID()
	contract := id.NewAccountID()
	require.NoError(t, e.Endow(ctx, origin, 1000))

	// Instantiate and write 10 bytes in one item.
	var instantiate deposit.Deposit
	st, err := e.Execute(ctx, origin, nil, 0, func(ctx context.Context, root *deposit.Root) error {
		info := record.New(contract, "0xc0de")
		child := root.Nested()
		var err error
		instantiate, err = child.ChargeInstantiate(ctx, origin, contract, info)
		if err != nil {
			return err
		}
		child.Charge(deposit.Diff{BytesAdded: 10, ItemsAdded: 1})
		if err := child.EnforceLimit(info); err != nil {
			return err
		}
		root.Absorb(child, contract, info)
		return e.SaveRecord(ctx, info)
	})
	require.NoError(t, err)
	require.True(t, instantiate.IsCharge())
	assert.Equal(t, deposit.Charge(instantiate.Amount+12), st.Total)
	assert.Equal(t, types.Balance(999), st.Limit)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, deposit.Charge(12), st.Entries[0].Amount)

	acct, err := e.Account(ctx, contract)
	require.NoError(t, err)
	assert.Equal(t, instantiate.Amount+12, acct.Reserved)
	payer, err := e.Account(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, 1000-instantiate.Amount-12, payer.Free)

	// Free half of the bytes.
	st, err = e.Execute(ctx, origin, nil, 0, func(ctx context.Context, root *deposit.Root) error {
		info, err := e.Record(ctx, contract)
		if err != nil {
			return err
		}
		child := root.Nested()
		child.Charge(deposit.Diff{BytesRemoved: 5})
		root.Absorb(child, contract, info)
		return e.SaveRecord(ctx, info)
	})
	require.NoError(t, err)
	assert.Equal(t, deposit.Refund(5), st.Total)

	info, err := e.Record(ctx, contract)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), info.StorageBytes)
	assert.Equal(t, instantiate.Amount+7, info.TotalDeposit())

	// Terminate: everything comes back.
	st, err = e.Execute(ctx, origin, nil, 0, func(ctx context.Context, root *deposit.Root) error {
		child := root.Nested()
		child.Terminate(info)
		root.Absorb(child, contract, info)
		return e.RemoveRecord(ctx, contract)
	})
	require.NoError(t, err)
	assert.Equal(t, deposit.Refund(instantiate.Amount+7), st.Total)
	assert.True(t, st.Entries[0].Terminated)

	payer, err = e.Account(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(1000), payer.Free)

	info, err = e.Record(ctx, contract)
	require.NoError(t, err)
	assert.Nil(t, info)

	history, err := e.Settlements(ctx, origin, settlement.ListOpts{})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Total.IsRefund())

	got, err := e.Settlement(ctx, history[0].ID)
	require.NoError(t, err)
	assert.Equal(t, history[0].Total, got.Total)

	assert.Equal(t, []string{
		"init",
		"opened", "charged", "charged", "finalized",
		"opened", "refunded", "finalized",
		"opened", "refunded-terminated", "finalized",
	}, events.seen())
}

func TestExecuteRevertsOnLimitExceeded(t *testing.T) {
	ctx := context.Background()
	e, events := newEngine(t)
	origin := id.NewAccountID()
	require.NoError(t, e.Endow(ctx, origin, 100))

	limit := types.Balance(5)
	st, err := e.Execute(ctx, origin, &limit, 0, func(_ context.Context, root *deposit.Root) error {
		child := root.Nested()
		child.Charge(deposit.Diff{BytesAdded: 10})
		return child.EnforceLimit(nil)
	})
	require.ErrorIs(t, err, deposit.ErrLimitExceeded)
	assert.True(t, deposit.IsDepositError(err))
	assert.Nil(t, st)

	payer, err := e.Account(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(100), payer.Free)
	assert.Equal(t, []string{"init", "opened", "exceeded"}, events.seen())

	history, err := e.Settlements(ctx, origin, settlement.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecuteRejectsUnfundedLimit(t *testing.T) {
	ctx := context.Background()
	e, events := newEngine(t)
	origin := id.NewAccountID()
	require.NoError(t, e.Endow(ctx, origin, 10))

	limit := types.Balance(10)
	called := false
	_, err := e.Execute(ctx, origin, &limit, 0, func(context.Context, *deposit.Root) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, deposit.ErrInsufficientFunds)
	assert.True(t, deposit.IsDepositError(err))
	assert.False(t, called)
	assert.Equal(t, []string{"init", "insufficient"}, events.seen())
}

func TestExecutePropagatesCallErrors(t *testing.T) {
	ctx := context.Background()
	e, events := newEngine(t)
	origin := id.NewAccountID()
	require.NoError(t, e.Endow(ctx, origin, 10))

	boom := errors.New("trapped")
	_, err := e.Execute(ctx, origin, nil, 0, func(context.Context, *deposit.Root) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, deposit.IsDepositError(err))
	assert.Equal(t, []string{"init", "opened"}, events.seen())
}

func TestStartRejectsInvalidParams(t *testing.T) {
	e := deposit.New(memory.New(),
		deposit.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		deposit.WithParams(deposit.Params{DepositPerByte: 1}),
	)

	err := e.Start(context.Background())
	var verr deposit.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "params", verr.Field)
}

func TestStrictSettlementPanics(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e := deposit.New(s,
		deposit.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		deposit.WithStrictSettlement(true),
	)
	require.NoError(t, e.Start(ctx))
	origin := id.NewAccountID()
	contract := id.NewAccountID()

	// The limit is granted but origin is emptied before settlement.
	require.NoError(t, e.Endow(ctx, origin, 50))
	root, err := e.NewMeter(ctx, origin, nil, 0)
	require.NoError(t, err)
	child := root.Nested()
	child.Charge(deposit.Diff{BytesAdded: 10})
	root.Absorb(child, contract, nil)

	acct, err := e.Account(ctx, origin)
	require.NoError(t, err)
	acct.Free = 0
	require.NoError(t, s.PutAccount(ctx, acct))

	assert.Panics(t, func() { _, _ = e.Finalize(ctx, root, origin) })
}

func TestFailedSettlementIsNotReported(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	events := &eventPlugin{}
	e := deposit.New(s,
		deposit.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		deposit.WithPlugin(events),
	)
	require.NoError(t, e.Start(ctx))
	origin := id.NewAccountID()
	contract := id.NewAccountID()

	require.NoError(t, e.Endow(ctx, origin, 50))
	root, err := e.NewMeter(ctx, origin, nil, 0)
	require.NoError(t, err)
	child := root.Nested()
	child.Charge(deposit.Diff{BytesAdded: 10})
	root.Absorb(child, contract, nil)

	acct, err := e.Account(ctx, origin)
	require.NoError(t, err)
	acct.Free = 0
	require.NoError(t, s.PutAccount(ctx, acct))

	_, err = e.Finalize(ctx, root, origin)
	require.NoError(t, err)
	assert.NotContains(t, events.seen(), "charged")
	assert.Contains(t, events.seen(), "finalized")
}

type countingBackend struct{ charges int }

func (b *countingBackend) CheckLimit(_ context.Context, _ id.AccountID, limit *types.Balance, _ types.Balance) (types.Balance, error) {
	if limit == nil {
		return 1000, nil
	}
	return *limit, nil
}

func (b *countingBackend) Charge(context.Context, id.AccountID, id.AccountID, types.Deposit, bool) {
	b.charges++
}

func TestCustomBackendIsReported(t *testing.T) {
	ctx := context.Background()
	b := &countingBackend{}
	e, events := newEngine(t, deposit.WithBackend(b))
	origin := id.NewAccountID()

	root, err := e.NewMeter(ctx, origin, nil, 0)
	require.NoError(t, err)
	child := root.Nested()
	child.Charge(deposit.Diff{BytesAdded: 10})
	root.Absorb(child, id.NewAccountID(), nil)

	_, err = e.Finalize(ctx, root, origin)
	require.NoError(t, err)
	assert.Equal(t, 1, b.charges)
	assert.Contains(t, events.seen(), "charged")
}

func TestEndowAccumulates(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	a := id.NewAccountID()

	_, err := e.Account(ctx, a)
	assert.True(t, deposit.IsNotFound(err))

	require.NoError(t, e.Endow(ctx, a, 3))
	require.NoError(t, e.Endow(ctx, a, 4))
	acct, err := e.Account(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, types.Balance(7), acct.Free)
}

func TestErrorHelpers(t *testing.T) {
	var m deposit.MultiError
	assert.False(t, m.HasErrors())
	m.Add(nil)
	m.Add(deposit.ErrRecordNotFound)
	assert.True(t, m.HasErrors())
	assert.True(t, deposit.IsNotFound(m.First()))
	assert.True(t, deposit.IsRetryable(deposit.ErrStoreClosed))
}
