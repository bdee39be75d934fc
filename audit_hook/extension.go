// Package audithook bridges deposit engine events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/plugin"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnMeterOpened         = (*Extension)(nil)
	_ plugin.OnFundsInsufficient   = (*Extension)(nil)
	_ plugin.OnLimitExceeded       = (*Extension)(nil)
	_ plugin.OnDepositCharged      = (*Extension)(nil)
	_ plugin.OnDepositRefunded     = (*Extension)(nil)
	_ plugin.OnSettlementFinalized = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly. Callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges deposit engine events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Meter hooks
// ──────────────────────────────────────────────────

// OnMeterOpened implements plugin.OnMeterOpened.
func (e *Extension) OnMeterOpened(ctx context.Context, origin id.AccountID, limit types.Balance) error {
	return e.record(ctx, ActionMeterOpened, SeverityInfo, OutcomeSuccess,
		ResourceMeter, origin.String(), CategoryMetering, nil,
		"origin", origin.String(),
		"limit", limit.String(),
	)
}

// OnFundsInsufficient implements plugin.OnFundsInsufficient.
func (e *Extension) OnFundsInsufficient(ctx context.Context, origin id.AccountID, minLeftover types.Balance) error {
	return e.record(ctx, ActionFundsInsufficient, SeverityWarning, OutcomeFailure,
		ResourceMeter, origin.String(), CategoryMetering, nil,
		"origin", origin.String(),
		"min_leftover", minLeftover.String(),
	)
}

// OnLimitExceeded implements plugin.OnLimitExceeded.
func (e *Extension) OnLimitExceeded(ctx context.Context, origin id.AccountID, limit types.Balance) error {
	return e.record(ctx, ActionLimitExceeded, SeverityWarning, OutcomeFailure,
		ResourceMeter, origin.String(), CategoryMetering, nil,
		"origin", origin.String(),
		"limit", limit.String(),
	)
}

// ──────────────────────────────────────────────────
// Deposit hooks
// ──────────────────────────────────────────────────

// OnDepositCharged implements plugin.OnDepositCharged.
func (e *Extension) OnDepositCharged(ctx context.Context, origin, account id.AccountID, amount types.Balance) error {
	return e.record(ctx, ActionDepositCharged, SeverityInfo, OutcomeSuccess,
		ResourceAccount, account.String(), CategoryDeposit, nil,
		"origin", origin.String(),
		"amount", amount.String(),
	)
}

// OnDepositRefunded implements plugin.OnDepositRefunded. Refunds of a
// terminated account are audited as terminations.
func (e *Extension) OnDepositRefunded(ctx context.Context, origin, account id.AccountID, amount types.Balance, terminated bool) error {
	action := ActionDepositRefunded
	if terminated {
		action = ActionAccountReaped
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceAccount, account.String(), CategoryDeposit, nil,
		"origin", origin.String(),
		"amount", amount.String(),
		"terminated", terminated,
	)
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnSettlementFinalized implements plugin.OnSettlementFinalized.
func (e *Extension) OnSettlementFinalized(ctx context.Context, s *settlement.Settlement, elapsed time.Duration) error {
	return e.record(ctx, ActionSettlementFinalized, SeverityInfo, OutcomeSuccess,
		ResourceSettlement, s.ID.String(), CategorySettlement, nil,
		"origin", s.Origin.String(),
		"total", s.Total.String(),
		"entries", len(s.Entries),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
