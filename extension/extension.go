// Package extension provides the Forge extension adapter for the deposit
// engine.
//
// It implements the forge.Extension interface to integrate the engine
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.deposit" or "deposit" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/deposit"
	"github.com/xraph/deposit/observability"
	"github.com/xraph/deposit/store"
	"github.com/xraph/deposit/store/memory"
	"github.com/xraph/deposit/store/mongo"
	"github.com/xraph/deposit/store/postgres"
	"github.com/xraph/deposit/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "deposit"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Hierarchical storage deposit metering"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the deposit engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *deposit.Engine
	store      store.Store
	groveDB    *grove.DB
	metrics    prometheus.Registerer
	engineOpts []deposit.Option
}

// New creates a new deposit Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying deposit engine.
// This is nil until Register is called.
func (e *Extension) Engine() *deposit.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the deposit engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	s, err := e.buildStore()
	if err != nil {
		return err
	}
	e.store = s

	e.engine = deposit.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*deposit.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("deposit: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("deposit: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore returns the programmatic store, a grove-backed store for the
// configured driver, or a memory store.
func (e *Extension) buildStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.groveDB == nil {
		return memory.New(), nil
	}

	switch e.config.Driver {
	case "postgres", "pg":
		return postgres.New(e.groveDB), nil
	case "sqlite":
		return sqlite.New(e.groveDB), nil
	case "mongo", "mongodb":
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("deposit: unknown store driver %q", e.config.Driver)
	}
}

// params converts the resolved config into engine prices.
func (e *Extension) params() deposit.Params {
	cfg := mergeWithDefaults(e.config)
	return deposit.Params{
		DepositPerByte: deposit.Balance(*cfg.DepositPerByte),
		DepositPerItem: deposit.Balance(*cfg.DepositPerItem),
		MinBalance:     deposit.Balance(cfg.MinBalance),
	}
}

// buildEngineOpts constructs deposit.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []deposit.Option {
	opts := make([]deposit.Option, 0, len(e.engineOpts)+3)

	opts = append(opts,
		deposit.WithParams(e.params()),
		deposit.WithStrictSettlement(e.config.StrictSettlement),
	)

	if e.metrics != nil {
		factory := observability.NewPrometheusFactory(e.metrics)
		opts = append(opts, deposit.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("deposit: configuration is required but not found in config files; " +
				"ensure 'extensions.deposit' or 'deposit' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("deposit: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("driver", e.config.Driver),
		forge.F("deposit_per_byte", *e.config.DepositPerByte),
		forge.F("deposit_per_item", *e.config.DepositPerItem),
		forge.F("min_balance", e.config.MinBalance),
		forge.F("strict_settlement", e.config.StrictSettlement),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.deposit" first (namespaced pattern).
	if cm.IsSet("extensions.deposit") {
		if err := cm.Bind("extensions.deposit", &cfg); err == nil {
			e.Logger().Debug("deposit: loaded config from file",
				forge.F("key", "extensions.deposit"),
			)
			return cfg, true
		}
		e.Logger().Warn("deposit: failed to bind extensions.deposit config",
			forge.F("error", "bind failed"),
		)
	}

	// Try top-level "deposit" key.
	if cm.IsSet("deposit") {
		if err := cm.Bind("deposit", &cfg); err == nil {
			e.Logger().Debug("deposit: loaded config from file",
				forge.F("key", "deposit"),
			)
			return cfg, true
		}
		e.Logger().Warn("deposit: failed to bind deposit config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills unset fields with defaults. A zero price is a
// setting, not a gap.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.DepositPerByte == nil {
		cfg.DepositPerByte = defaults.DepositPerByte
	}
	if cfg.DepositPerItem == nil {
		cfg.DepositPerItem = defaults.DepositPerItem
	}
	if cfg.MinBalance == 0 {
		cfg.MinBalance = defaults.MinBalance
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.StrictSettlement {
		yamlConfig.StrictSettlement = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}

	// Prices: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.DepositPerByte == nil {
		yamlConfig.DepositPerByte = programmaticConfig.DepositPerByte
	}
	if yamlConfig.DepositPerItem == nil {
		yamlConfig.DepositPerItem = programmaticConfig.DepositPerItem
	}
	if yamlConfig.MinBalance == 0 && programmaticConfig.MinBalance != 0 {
		yamlConfig.MinBalance = programmaticConfig.MinBalance
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
