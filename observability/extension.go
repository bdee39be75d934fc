// Package observability provides a metrics extension for the deposit engine
// that records meter and settlement event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/plugin"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnMeterOpened         = (*MetricsExtension)(nil)
	_ plugin.OnFundsInsufficient   = (*MetricsExtension)(nil)
	_ plugin.OnLimitExceeded       = (*MetricsExtension)(nil)
	_ plugin.OnDepositCharged      = (*MetricsExtension)(nil)
	_ plugin.OnDepositRefunded     = (*MetricsExtension)(nil)
	_ plugin.OnSettlementFinalized = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide deposit metrics.
// Register it as a deposit plugin to automatically track meters and settlements.
type MetricsExtension struct {
	factory MetricFactory

	// Meter metrics
	MetersOpened      Counter
	FundsInsufficient Counter
	LimitExceeded     Counter
	MeterLimit        Histogram

	// Deposit metrics
	DepositsCharged     Counter
	DepositsRefunded    Counter
	Terminations        Counter
	ChargedAmount       Counter
	RefundedAmount      Counter
	DepositChargeSize   Histogram
	DepositRefundSize   Histogram
	SettlementsFinished Counter
	SettlementEntries   Histogram
	SettlementLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory elsewhere.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Meter metrics
		MetersOpened:      factory.Counter("deposit.meter.opened"),
		FundsInsufficient: factory.Counter("deposit.meter.funds_insufficient"),
		LimitExceeded:     factory.Counter("deposit.meter.limit_exceeded"),
		MeterLimit:        factory.Histogram("deposit.meter.limit"),

		// Deposit metrics
		DepositsCharged:     factory.Counter("deposit.deposit.charged"),
		DepositsRefunded:    factory.Counter("deposit.deposit.refunded"),
		Terminations:        factory.Counter("deposit.deposit.terminated"),
		ChargedAmount:       factory.Counter("deposit.deposit.charged_amount"),
		RefundedAmount:      factory.Counter("deposit.deposit.refunded_amount"),
		DepositChargeSize:   factory.Histogram("deposit.deposit.charge_size"),
		DepositRefundSize:   factory.Histogram("deposit.deposit.refund_size"),
		SettlementsFinished: factory.Counter("deposit.settlement.finalized"),
		SettlementEntries:   factory.Histogram("deposit.settlement.entries"),
		SettlementLatency:   factory.Histogram("deposit.settlement.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Meter hooks
// ──────────────────────────────────────────────────

// OnMeterOpened implements plugin.OnMeterOpened.
func (m *MetricsExtension) OnMeterOpened(_ context.Context, _ id.AccountID, limit types.Balance) error {
	m.MetersOpened.Inc()
	m.MeterLimit.Observe(float64(limit))
	return nil
}

// OnFundsInsufficient implements plugin.OnFundsInsufficient.
func (m *MetricsExtension) OnFundsInsufficient(_ context.Context, _ id.AccountID, _ types.Balance) error {
	m.FundsInsufficient.Inc()
	return nil
}

// OnLimitExceeded implements plugin.OnLimitExceeded.
func (m *MetricsExtension) OnLimitExceeded(_ context.Context, _ id.AccountID, _ types.Balance) error {
	m.LimitExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Deposit hooks
// ──────────────────────────────────────────────────

// OnDepositCharged implements plugin.OnDepositCharged.
func (m *MetricsExtension) OnDepositCharged(_ context.Context, _, _ id.AccountID, amount types.Balance) error {
	m.DepositsCharged.Inc()
	m.ChargedAmount.Add(float64(amount))
	m.DepositChargeSize.Observe(float64(amount))
	return nil
}

// OnDepositRefunded implements plugin.OnDepositRefunded.
func (m *MetricsExtension) OnDepositRefunded(_ context.Context, _, _ id.AccountID, amount types.Balance, terminated bool) error {
	m.DepositsRefunded.Inc()
	m.RefundedAmount.Add(float64(amount))
	m.DepositRefundSize.Observe(float64(amount))
	if terminated {
		m.Terminations.Inc()
	}
	return nil
}

// OnSettlementFinalized implements plugin.OnSettlementFinalized.
func (m *MetricsExtension) OnSettlementFinalized(_ context.Context, s *settlement.Settlement, elapsed time.Duration) error {
	m.SettlementsFinished.Inc()
	m.SettlementEntries.Observe(float64(len(s.Entries)))
	m.SettlementLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
