package extension

import "time"

// Config holds the fundme extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.fundme" or "fundme" keys).
type Config struct {
	// DisableMigrate prevents journal migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Owner is the address allowed to withdraw (required).
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// Network selects the price feed from the network registry
	// (default: "hardhat", which uses a mock feed).
	Network string `json:"network" mapstructure:"network" yaml:"network"`

	// NetworksFile is an optional YAML network registry merged over the
	// built-in one.
	NetworksFile string `json:"networks_file" mapstructure:"networks_file" yaml:"networks_file"`

	// MinimumUSD is the smallest accepted contribution in whole dollars,
	// as a decimal string (default: "50").
	MinimumUSD string `json:"minimum_usd" mapstructure:"minimum_usd" yaml:"minimum_usd"`

	// MaxPriceAge rejects oracle readings older than this. Zero disables
	// the staleness check.
	MaxPriceAge time.Duration `json:"max_price_age" mapstructure:"max_price_age" yaml:"max_price_age"`

	// Journal names the receipt journal backend: memory, leveldb, redis,
	// postgres, sqlite or mongo (default: memory).
	Journal string `json:"journal" mapstructure:"journal" yaml:"journal"`

	// JournalDSN locates the journal: a LevelDB directory, a Redis address
	// or a database connection string.
	JournalDSN string `json:"journal_dsn" mapstructure:"journal_dsn" yaml:"journal_dsn"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When WithGroveDatabase was called the journal is built on that
	// database, picking the postgres, sqlite or mongo store by its driver.
	// Empty selects the default (unnamed) DB.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Network:    "hardhat",
		MinimumUSD: "50",
	}
}
