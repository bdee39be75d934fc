package extension

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xraph/grove"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/plugin"
	"github.com/xraph/deposit/store"
)

// Option configures the deposit Forge extension.
type Option func(*Extension)

// WithStore sets the store for the deposit engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store over db. The driver is taken from
// Config.Driver.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.Driver = driver
	}
}

// WithEngineOption passes a deposit.Option through to the underlying engine.
func WithEngineOption(opt deposit.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a deposit plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, deposit.WithPlugin(p))
	}
}

// WithMetrics registers Prometheus metrics for the engine with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Extension) { e.metrics = reg }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithParams sets the deposit prices.
func WithParams(p deposit.Params) Option {
	return func(e *Extension) {
		e.config.DepositPerByte = Price(uint64(p.DepositPerByte))
		e.config.DepositPerItem = Price(uint64(p.DepositPerItem))
		e.config.MinBalance = uint64(p.MinBalance)
	}
}

// WithStrictSettlement makes settlement failures panic.
func WithStrictSettlement() Option {
	return func(e *Extension) { e.config.StrictSettlement = true }
}
