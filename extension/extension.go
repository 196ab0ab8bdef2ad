// Package extension provides the Forge extension adapter for fundme.
//
// It implements the forge.Extension interface to integrate a fundme Ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.fundme" or "fundme" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/network"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/store"
	"github.com/xraph/fundme/store/journal"
	"github.com/xraph/fundme/types"
	"github.com/xraph/fundme/wallet"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "fundme"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Custodial crowdfunding ledger with an oracle-priced minimum"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts a fundme Ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *fundme.Ledger
	store      store.Store
	payee      fundme.Payee
	feed       oracle.PriceFeed
	dialer     network.Dialer
	ledgerOpts []fundme.Option
	useGrove   bool
	groveDB    *grove.DB
}

// New creates a new fundme Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger.
// This is nil until Register is called.
func (e *Extension) Engine() *fundme.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the ledger, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.useGrove && e.store == nil {
		db, err := e.resolveGroveDB(fapp)
		if err != nil {
			return fmt.Errorf("fundme: resolve grove database: %w", err)
		}
		e.groveDB = db
	}

	eng, err := e.buildEngine(context.Background())
	if err != nil {
		return err
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*fundme.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("fundme: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
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
	if e.engine == nil || e.store == nil {
		return errors.New("fundme: extension not initialized")
	}
	if err := e.engine.Audit(); err != nil {
		return err
	}
	return e.store.Ping(ctx)
}

// buildEngine resolves the owner, price feed, journal and payee from the
// loaded config and constructs the ledger.
func (e *Extension) buildEngine(ctx context.Context) (*fundme.Ledger, error) {
	if e.config.Owner == "" {
		return nil, fundme.ValidationError{Field: "owner", Message: "required"}
	}
	owner, err := types.ParseAddress(e.config.Owner)
	if err != nil {
		return nil, fundme.ValidationError{Field: "owner", Message: err.Error()}
	}

	minimum, err := types.ParseEther(e.config.MinimumUSD)
	if err != nil {
		return nil, fundme.ValidationError{Field: "minimum_usd", Message: err.Error()}
	}

	if e.feed == nil {
		registry := network.Default()
		if e.config.NetworksFile != "" {
			if registry, err = network.Load(e.config.NetworksFile); err != nil {
				return nil, err
			}
		}
		if e.feed, _, err = registry.ResolveFeed(e.config.Network, nil, e.dialer); err != nil {
			return nil, err
		}
	}

	receipts, owned, err := e.openJournal(ctx)
	if err != nil {
		return nil, err
	}
	ledgerStore := receipts
	if e.config.DisableMigrate {
		ledgerStore = noMigrate{receipts}
	}

	if e.payee == nil {
		e.payee = wallet.NewBook()
	}

	opts := make([]fundme.Option, 0, len(e.ledgerOpts)+4)
	opts = append(opts,
		fundme.WithPayee(e.payee),
		fundme.WithStore(ledgerStore),
		fundme.WithMinimumUSD(minimum),
		fundme.WithMaxPriceAge(e.config.MaxPriceAge),
	)
	opts = append(opts, e.ledgerOpts...)

	eng, err := fundme.New(owner, e.feed, opts...)
	if err != nil {
		if owned {
			_ = receipts.Close()
		}
		return nil, err
	}
	e.store = receipts
	return eng, nil
}

// openJournal returns the journal to record receipts in and whether the
// extension opened it itself.
func (e *Extension) openJournal(ctx context.Context) (store.Store, bool, error) {
	switch {
	case e.store != nil:
		return e.store, false, nil
	case e.groveDB != nil:
		s, err := journal.FromGrove(e.groveDB)
		return s, false, err
	}
	s, err := journal.Open(ctx, e.config.Journal, e.config.JournalDSN)
	if err != nil {
		return nil, false, fmt.Errorf("fundme: open journal: %w", err)
	}
	return s, true, nil
}

// resolveGroveDB looks up the grove database in the DI container, by name
// when GroveDatabase is set.
func (e *Extension) resolveGroveDB(fapp forge.App) (*grove.DB, error) {
	if e.config.GroveDatabase != "" {
		return vessel.InjectNamed[*grove.DB](fapp.Container(), e.config.GroveDatabase)
	}
	return vessel.Inject[*grove.DB](fapp.Container())
}

// noMigrate skips schema migration for journals managed elsewhere.
type noMigrate struct {
	store.Store
}

func (noMigrate) Migrate(context.Context) error { return nil }

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("fundme: configuration is required but not found in config files; " +
				"ensure 'extensions.fundme' or 'fundme' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("fundme: configuration loaded",
		forge.F("owner", e.config.Owner),
		forge.F("network", e.config.Network),
		forge.F("minimum_usd", e.config.MinimumUSD),
		forge.F("max_price_age", e.config.MaxPriceAge),
		forge.F("journal", e.config.Journal),
		forge.F("grove_database", e.config.GroveDatabase),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.fundme", "fundme"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("fundme: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("fundme: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Network == "" {
		cfg.Network = defaults.Network
	}
	if cfg.MinimumUSD == "" {
		cfg.MinimumUSD = defaults.MinimumUSD
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.Owner == "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.Network == "" {
		yamlConfig.Network = programmaticConfig.Network
	}
	if yamlConfig.NetworksFile == "" {
		yamlConfig.NetworksFile = programmaticConfig.NetworksFile
	}
	if yamlConfig.MinimumUSD == "" {
		yamlConfig.MinimumUSD = programmaticConfig.MinimumUSD
	}
	if yamlConfig.MaxPriceAge == 0 {
		yamlConfig.MaxPriceAge = programmaticConfig.MaxPriceAge
	}
	if yamlConfig.Journal == "" {
		yamlConfig.Journal = programmaticConfig.Journal
	}
	if yamlConfig.JournalDSN == "" {
		yamlConfig.JournalDSN = programmaticConfig.JournalDSN
	}
	if yamlConfig.GroveDatabase == "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	return mergeWithDefaults(yamlConfig)
}
