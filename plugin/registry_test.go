package plugin

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

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/types"
)

type chargeRecorder struct {
	mu      sync.Mutex
	charged []types.Balance
	fail    bool
}

func (c *chargeRecorder) Name() string { return "charge-recorder" }

func (c *chargeRecorder) OnDepositCharged(_ context.Context, _, _ id.AccountID, amount types.Balance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.charged = append(c.charged, amount)
	if c.fail {
		return errors.New("boom")
	}
	return nil
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnShutdown(ctx context.Context) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func quietRegistry(buf *bytes.Buffer) *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(buf, nil)))
}

func TestRegisterAndDispatch(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf)
	rec := &chargeRecorder{}
	require.NoError(t, r.Register(rec))

	r.EmitDepositCharged(context.Background(), id.NewAccountID(), id.NewAccountID(), 7)
	r.EmitDepositRefunded(context.Background(), id.NewAccountID(), id.NewAccountID(), 3, false)

	assert.Equal(t, []types.Balance{7}, rec.charged)
	assert.Equal(t, 1, r.Count())
	assert.Same(t, rec, r.Get("charge-recorder"))
	assert.Nil(t, r.Get("missing"))
	assert.Contains(t, buf.String(), "OnDepositCharged")
}

func TestDuplicateRegistration(t *testing.T) {
	r := quietRegistry(&bytes.Buffer{})
	require.NoError(t, r.Register(&chargeRecorder{}))
	assert.Error(t, r.Register(&chargeRecorder{}))
	assert.Len(t, r.List(), 1)
}

func TestFailingPluginIsLogged(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf)
	require.NoError(t, r.Register(&chargeRecorder{fail: true}))

	r.EmitDepositCharged(context.Background(), id.NewAccountID(), id.NewAccountID(), 1)
	assert.Contains(t, buf.String(), "plugin OnDepositCharged failed")
}

func TestSlowPluginTimesOut(t *testing.T) {
	var buf bytes.Buffer
	r := quietRegistry(&buf).WithTimeout(10 * time.Millisecond)
	require.NoError(t, r.Register(slowPlugin{}))

	r.EmitShutdown(context.Background())
	assert.Contains(t, buf.String(), "plugin timeout: slow")
}
