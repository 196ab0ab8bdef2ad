package extension

import (
	"time"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/network"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/plugin"
	"github.com/xraph/fundme/store"
)

// Option configures the fundme Forge extension.
type Option func(*Extension)

// WithStore sets the receipt journal, overriding Journal and GroveDatabase.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPayee sets where withdrawals are paid. Defaults to an in-process
// wallet.Book.
func WithPayee(p fundme.Payee) Option {
	return func(e *Extension) {
		e.payee = p
	}
}

// WithPriceFeed uses feed directly instead of resolving one from the
// network registry.
func WithPriceFeed(feed oracle.PriceFeed) Option {
	return func(e *Extension) {
		e.feed = feed
	}
}

// WithDialer sets how feeds on live networks are reached.
func WithDialer(dial network.Dialer) Option {
	return func(e *Extension) {
		e.dialer = dial
	}
}

// WithLedgerOption passes a fundme.Option through to the underlying ledger.
func WithLedgerOption(opt fundme.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, fundme.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithOwner sets the withdrawal owner address.
func WithOwner(owner string) Option {
	return func(e *Extension) { e.config.Owner = owner }
}

// WithNetwork selects the network whose price feed is used.
func WithNetwork(name string) Option {
	return func(e *Extension) { e.config.Network = name }
}

// WithMinimumUSD sets the contribution threshold in whole dollars.
func WithMinimumUSD(usd string) Option {
	return func(e *Extension) { e.config.MinimumUSD = usd }
}

// WithMaxPriceAge sets the oracle staleness bound.
func WithMaxPriceAge(d time.Duration) Option {
	return func(e *Extension) { e.config.MaxPriceAge = d }
}

// WithJournal selects the journal backend by driver name and DSN.
func WithJournal(driver, dsn string) Option {
	return func(e *Extension) {
		e.config.Journal = driver
		e.config.JournalDSN = dsn
	}
}

// WithGroveDatabase builds the journal on the grove.DB registered under name
// in the DI container. Pass an empty string for the default (unnamed) DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}

// WithDisableMigrate prevents journal migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
