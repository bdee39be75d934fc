package audithook

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

type captured struct {
	events []*AuditEvent
}

func (c *captured) recorder() RecorderFunc {
	return func(_ context.Context, evt *AuditEvent) error {
		c.events = append(c.events, evt)
		return nil
	}
}

func TestRefundActions(t *testing.T) {
	ctx := context.Background()
	c := &captured{}
	e := New(c.recorder())
	origin, contract := id.NewAccountID(), id.NewAccountID()

	require.NoError(t, e.OnDepositRefunded(ctx, origin, contract, 5, false))
	require.NoError(t, e.OnDepositRefunded(ctx, origin, contract, 9, true))

	require.Len(t, c.events, 2)
	assert.Equal(t, ActionDepositRefunded, c.events[0].Action)
	assert.Equal(t, ActionAccountReaped, c.events[1].Action)
	assert.Equal(t, contract.String(), c.events[1].ResourceID)
	assert.Equal(t, "9", c.events[1].Metadata["amount"])
	assert.Equal(t, CategoryDeposit, c.events[1].Category)
}

func TestFailureSeverity(t *testing.T) {
	ctx := context.Background()
	c := &captured{}
	e := New(c.recorder())
	origin := id.NewAccountID()

	require.NoError(t, e.OnLimitExceeded(ctx, origin, 10))
	require.NoError(t, e.OnFundsInsufficient(ctx, origin, 3))

	require.Len(t, c.events, 2)
	for _, evt := range c.events {
		assert.Equal(t, SeverityWarning, evt.Severity)
		assert.Equal(t, OutcomeFailure, evt.Outcome)
		assert.Equal(t, ResourceMeter, evt.Resource)
	}
}

func TestSettlementEvent(t *testing.T) {
	c := &captured{}
	e := New(c.recorder())
	st := &settlement.Settlement{
		ID:     id.NewSettlementID(),
		Origin: id.NewAccountID(),
		Total:  types.Refund(28),
		Entries: []settlement.Entry{
			{Account: id.NewAccountID(), Amount: types.Refund(30)},
			{Account: id.NewAccountID(), Amount: types.Charge(2)},
		},
	}

	require.NoError(t, e.OnSettlementFinalized(context.Background(), st, 4*time.Millisecond))
	require.Len(t, c.events, 1)
	assert.Equal(t, st.ID.String(), c.events[0].ResourceID)
	assert.Equal(t, "refund(28)", c.events[0].Metadata["total"])
	assert.Equal(t, 2, c.events[0].Metadata["entries"])
}

func TestActionFiltering(t *testing.T) {
	ctx := context.Background()
	origin := id.NewAccountID()

	c := &captured{}
	only := New(c.recorder(), WithEnabledActions(ActionLimitExceeded))
	require.NoError(t, only.OnMeterOpened(ctx, origin, 10))
	require.NoError(t, only.OnLimitExceeded(ctx, origin, 10))
	require.Len(t, c.events, 1)
	assert.Equal(t, ActionLimitExceeded, c.events[0].Action)

	c = &captured{}
	skip := New(c.recorder(), WithDisabledActions(ActionMeterOpened))
	require.NoError(t, skip.OnMeterOpened(ctx, origin, 10))
	require.NoError(t, skip.OnDepositCharged(ctx, origin, id.NewAccountID(), 1))
	require.Len(t, c.events, 1)
	assert.Equal(t, ActionDepositCharged, c.events[0].Action)
}

func TestRecorderFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	e := New(
		RecorderFunc(func(context.Context, *AuditEvent) error { return errors.New("down") }),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	require.NoError(t, e.OnMeterOpened(context.Background(), id.NewAccountID(), 1))
	assert.Contains(t, buf.String(), "failed to record audit event")
}
