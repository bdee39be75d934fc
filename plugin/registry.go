package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/deposit/id"
	"github.com/xraph/deposit/settlement"
	"github.com/xraph/deposit/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onMeterOpened         []OnMeterOpened
	onFundsInsufficient   []OnFundsInsufficient
	onLimitExceeded       []OnLimitExceeded
	onDepositCharged      []OnDepositCharged
	onDepositRefunded     []OnDepositRefunded
	onSettlementFinalized []OnSettlementFinalized
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: 5 * time.Second,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets how long a single hook may run.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnMeterOpened); ok {
		r.onMeterOpened = append(r.onMeterOpened, v)
		hooks = append(hooks, "OnMeterOpened")
	}
	if v, ok := p.(OnFundsInsufficient); ok {
		r.onFundsInsufficient = append(r.onFundsInsufficient, v)
		hooks = append(hooks, "OnFundsInsufficient")
	}
	if v, ok := p.(OnLimitExceeded); ok {
		r.onLimitExceeded = append(r.onLimitExceeded, v)
		hooks = append(hooks, "OnLimitExceeded")
	}
	if v, ok := p.(OnDepositCharged); ok {
		r.onDepositCharged = append(r.onDepositCharged, v)
		hooks = append(hooks, "OnDepositCharged")
	}
	if v, ok := p.(OnDepositRefunded); ok {
		r.onDepositRefunded = append(r.onDepositRefunded, v)
		hooks = append(hooks, "OnDepositRefunded")
	}
	if v, ok := p.(OnSettlementFinalized); ok {
		r.onSettlementFinalized = append(r.onSettlementFinalized, v)
		hooks = append(hooks, "OnSettlementFinalized")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitMeterOpened emits a meter opened event.
func (r *Registry) EmitMeterOpened(ctx context.Context, origin id.AccountID, limit types.Balance) {
	r.mu.RLock()
	plugins := r.onMeterOpened
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMeterOpened", p.Name(), func() error {
			return p.OnMeterOpened(ctx, origin, limit)
		})
	}
}

// EmitFundsInsufficient emits an insufficient funds event.
func (r *Registry) EmitFundsInsufficient(ctx context.Context, origin id.AccountID, minLeftover types.Balance) {
	r.mu.RLock()
	plugins := r.onFundsInsufficient
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnFundsInsufficient", p.Name(), func() error {
			return p.OnFundsInsufficient(ctx, origin, minLeftover)
		})
	}
}

// EmitLimitExceeded emits a limit exceeded event.
func (r *Registry) EmitLimitExceeded(ctx context.Context, origin id.AccountID, limit types.Balance) {
	r.mu.RLock()
	plugins := r.onLimitExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnLimitExceeded", p.Name(), func() error {
			return p.OnLimitExceeded(ctx, origin, limit)
		})
	}
}

// EmitDepositCharged emits a deposit charged event.
func (r *Registry) EmitDepositCharged(ctx context.Context, origin, account id.AccountID, amount types.Balance) {
	r.mu.RLock()
	plugins := r.onDepositCharged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnDepositCharged", p.Name(), func() error {
			return p.OnDepositCharged(ctx, origin, account, amount)
		})
	}
}

// EmitDepositRefunded emits a deposit refunded event.
func (r *Registry) EmitDepositRefunded(ctx context.Context, origin, account id.AccountID, amount types.Balance, terminated bool) {
	r.mu.RLock()
	plugins := r.onDepositRefunded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnDepositRefunded", p.Name(), func() error {
			return p.OnDepositRefunded(ctx, origin, account, amount, terminated)
		})
	}
}

// EmitSettlementFinalized emits a settlement finalized event.
func (r *Registry) EmitSettlementFinalized(ctx context.Context, s *settlement.Settlement, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onSettlementFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSettlementFinalized", p.Name(), func() error {
			return p.OnSettlementFinalized(ctx, s, elapsed)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block settlement.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
