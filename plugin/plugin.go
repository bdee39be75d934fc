// Package plugin provides an extensible plugin system for the deposit
// engine. Plugins hook into meter and settlement events to extend
// functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Meter hooks
// ──────────────────────────────────────────────────

// OnMeterOpened is called when a root meter is opened for a top-level call.
type OnMeterOpened interface {
	Plugin
	OnMeterOpened(ctx context.Context, origin id.AccountID, limit types.Balance) error
}

// OnFundsInsufficient is called when an origin cannot afford the limit it
// asked for.
type OnFundsInsufficient interface {
	Plugin
	OnFundsInsufficient(ctx context.Context, origin id.AccountID, minLeftover types.Balance) error
}

// OnLimitExceeded is called when a call tree is discarded for exceeding its
// storage deposit limit.
type OnLimitExceeded interface {
	Plugin
	OnLimitExceeded(ctx context.Context, origin id.AccountID, limit types.Balance) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnDepositCharged is called after a charge is settled. With the default
// backend a charge that failed to settle is logged and never reported here.
// A backend given with deposit.WithBackend reports every charge handed to
// it, settled or not.
type OnDepositCharged interface {
	Plugin
	OnDepositCharged(ctx context.Context, origin, account id.AccountID, amount types.Balance) error
}

// OnDepositRefunded is called after a refund is settled. Failed refunds are
// reported under the same rules as OnDepositCharged.
type OnDepositRefunded interface {
	Plugin
	OnDepositRefunded(ctx context.Context, origin, account id.AccountID, amount types.Balance, terminated bool) error
}

// OnSettlementFinalized is called once a root meter is drained and its
// settlement persisted.
type OnSettlementFinalized interface {
	Plugin
	OnSettlementFinalized(ctx context.Context, s *settlement.Settlement, elapsed time.Duration) error
}
