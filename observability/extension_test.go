package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[mf.GetName()] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				out[mf.GetName()] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsExtensionCountsHooks(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetricsExtension(NewPrometheusFactory(reg))
	origin, contract := id.NewAccountID(), id.NewAccountID()

	require.NoError(t, m.OnMeterOpened(ctx, origin, 100))
	require.NoError(t, m.OnFundsInsufficient(ctx, origin, 0))
	require.NoError(t, m.OnLimitExceeded(ctx, origin, 100))
	require.NoError(t, m.OnDepositCharged(ctx, origin, contract, 12))
	require.NoError(t, m.OnDepositRefunded(ctx, origin, contract, 5, false))
	require.NoError(t, m.OnDepositRefunded(ctx, origin, contract, 7, true))
	require.NoError(t, m.OnSettlementFinalized(ctx, &settlement.Settlement{
		Entries: []settlement.Entry{{Account: contract, Amount: types.Charge(12)}},
	}, 3*time.Millisecond))

	got := gathered(t, reg)
	assert.Equal(t, 1.0, got["deposit_meter_opened_total"])
	assert.Equal(t, 1.0, got["deposit_meter_funds_insufficient_total"])
	assert.Equal(t, 1.0, got["deposit_meter_limit_exceeded_total"])
	assert.Equal(t, 1.0, got["deposit_deposit_charged_total"])
	assert.Equal(t, 12.0, got["deposit_deposit_charged_amount_total"])
	assert.Equal(t, 2.0, got["deposit_deposit_refunded_total"])
	assert.Equal(t, 12.0, got["deposit_deposit_refunded_amount_total"])
	assert.Equal(t, 1.0, got["deposit_deposit_terminated_total"])
	assert.Equal(t, 1.0, got["deposit_settlement_finalized_total"])
	assert.Equal(t, 1.0, got["deposit_settlement_latency_ms"])
	assert.Equal(t, 1.0, got["deposit_meter_limit"])
}

func TestPrometheusFactoryReusesMetrics(t *testing.T) {
	f := NewPrometheusFactory(prometheus.NewRegistry())

	assert.Same(t, f.Counter("deposit.x"), f.Counter("deposit.x"))
	assert.Same(t, f.Histogram("deposit.y"), f.Histogram("deposit.y"))
	assert.Equal(t, "deposit_meter_opened", metricName("deposit.meter.opened"))
}
