package extension

// Config holds the deposit extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.deposit" or "deposit" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store built over a grove.DB given with WithGroveDB:
	// "postgres", "sqlite" or "mongo". Without a grove.DB the memory store
	// is used.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// DepositPerByte is the price of one byte of storage (default: 1).
	// Unset means the default; an explicit 0 makes bytes free.
	DepositPerByte *uint64 `json:"deposit_per_byte" mapstructure:"deposit_per_byte" yaml:"deposit_per_byte"`

	// DepositPerItem is the price of one storage item (default: 2).
	// Unset means the default; an explicit 0 makes items free.
	DepositPerItem *uint64 `json:"deposit_per_item" mapstructure:"deposit_per_item" yaml:"deposit_per_item"`

	// MinBalance is the existence minimum every account keeps and the
	// floor of every instantiation deposit (default: 1).
	MinBalance uint64 `json:"min_balance" mapstructure:"min_balance" yaml:"min_balance"`

	// StrictSettlement panics when a deposit cannot be settled instead of
	// only logging it.
	StrictSettlement bool `json:"strict_settlement" mapstructure:"strict_settlement" yaml:"strict_settlement"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DepositPerByte: Price(1),
		DepositPerItem: Price(2),
		MinBalance:     1,
	}
}

// Price returns a pointer to v for the optional price fields of Config.
func Price(v uint64) *uint64 { return &v }
