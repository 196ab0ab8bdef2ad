package fundme

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/plugin"
	"github.com/xraph/fundme/store"
	"github.com/xraph/fundme/types"
)

// DefaultMinimumUSD is the smallest accepted contribution: 50 USD at 18
// decimals.
var DefaultMinimumUSD = types.USD(50)

// Payee moves value out of the ledger. Withdrawals pay the owner through it.
type Payee interface {
	Transfer(ctx context.Context, to types.Address, amount types.Amount) error
}

// Ledger holds pooled contributions for a single owner.
type Ledger struct {
	id      id.LedgerID
	owner   types.Address
	feed    oracle.PriceFeed
	payee   Payee
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	// Configuration, fixed at construction.
	minimumUSD  types.Amount
	maxPriceAge time.Duration

	mu       sync.RWMutex
	funders  []types.Address
	balances map[types.Address]types.Amount
	held     types.Amount

	// Set while a withdrawal is paying out; inFlight is the value being paid.
	withdrawing bool
	inFlight    types.Amount
}

// New creates a Ledger owned by owner that prices contributions with feed.
// A Payee is required; see WithPayee.
func New(owner types.Address, feed oracle.PriceFeed, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		id:         id.NewLedgerID(),
		owner:      owner,
		feed:       feed,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		now:        time.Now,
		minimumUSD: DefaultMinimumUSD,
		balances:   make(map[types.Address]types.Amount),
	}

	for _, opt := range opts {
		opt(l)
	}

	if err := l.validate(); err != nil {
		return nil, err
	}

	return l, nil
}

func (l *Ledger) validate() error {
	var errs MultiError
	if l.owner.IsZero() {
		errs.Add(ValidationError{Field: "owner", Message: "must not be the zero address"})
	}
	if l.feed == nil {
		errs.Add(ValidationError{Field: "price_feed", Message: "is required"})
	}
	if l.payee == nil {
		errs.Add(ValidationError{Field: "payee", Message: "is required"})
	}
	if l.minimumUSD.IsZero() {
		errs.Add(ValidationError{Field: "minimum_usd", Message: "must be positive"})
	}
	if l.maxPriceAge < 0 {
		errs.Add(ValidationError{Field: "max_price_age", Message: "must not be negative"})
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithPayee sets how withdrawals reach the owner.
func WithPayee(p Payee) Option {
	return func(l *Ledger) {
		l.payee = p
	}
}

// WithStore journals receipts of committed operations to s.
func WithStore(s store.Store) Option {
	return func(l *Ledger) {
		l.store = s
	}
}

// WithMinimumUSD overrides the minimum contribution, in 18-decimal USD.
func WithMinimumUSD(threshold types.Amount) Option {
	return func(l *Ledger) {
		l.minimumUSD = threshold
	}
}

// WithMaxPriceAge rejects feed rounds older than d. Zero disables the check.
func WithMaxPriceAge(d time.Duration) Option {
	return func(l *Ledger) {
		l.maxPriceAge = d
	}
}

// WithClock sets the time source used for price staleness and receipts.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithID sets the ledger identifier. Useful when a host restarts a ledger
// and wants its journal entries grouped under the same ID.
func WithID(ledgerID id.LedgerID) Option {
	return func(l *Ledger) {
		if !ledgerID.IsNil() {
			l.id = ledgerID
		}
	}
}

// Start migrates the journal store and initialises plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.store != nil {
		if err := l.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("fundme started",
		"ledger_id", l.id.String(),
		"owner", l.owner.String(),
		"price_feed", l.feed.Address().String(),
		"minimum_usd", l.minimumUSD.FormatEther(),
	)

	return nil
}

// Stop shuts down plugins and closes the journal store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())

	if l.store != nil {
		return l.store.Close()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Accessors
// ──────────────────────────────────────────────────

// ID returns the ledger identifier.
func (l *Ledger) ID() id.LedgerID { return l.id }

// Owner returns the only identity allowed to withdraw.
func (l *Ledger) Owner() types.Address { return l.owner }

// PriceFeed returns the oracle the ledger prices contributions with.
func (l *Ledger) PriceFeed() oracle.PriceFeed { return l.feed }

// MinimumUSD returns the contribution threshold in 18-decimal USD.
func (l *Ledger) MinimumUSD() types.Amount { return l.minimumUSD }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// BalanceOf returns the cumulative amount addr contributed since the last
// withdrawal. Unknown addresses report zero.
func (l *Ledger) BalanceOf(addr types.Address) types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr]
}

// FunderAt returns the contributor recorded at position index. One entry
// is recorded per accepted contribution, so an address may appear several
// times.
func (l *Ledger) FunderAt(index int) (types.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.funders) {
		return types.ZeroAddress, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, len(l.funders))
	}
	return l.funders[index], nil
}

// Funders returns a copy of the contributor sequence in insertion order.
func (l *Ledger) Funders() []types.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Address, len(l.funders))
	copy(out, l.funders)
	return out
}

// FunderCount returns the length of the contributor sequence.
func (l *Ledger) FunderCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.funders)
}

// Held returns the total value held.
func (l *Ledger) Held() types.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.held
}

// Withdrawing reports whether a withdrawal is paying out.
func (l *Ledger) Withdrawing() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.withdrawing
}

// Audit checks the accounting invariants: balances sum to the held value,
// every funder has a balance, and every balance belongs to a funder.
func (l *Ledger) Audit() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var errs MultiError

	seen := make(map[types.Address]struct{}, len(l.balances))
	for i, f := range l.funders {
		if _, ok := l.balances[f]; !ok {
			errs.Add(fmt.Errorf("%w: funder %d (%s) has no balance", ErrInvariantViolated, i, f))
		}
		seen[f] = struct{}{}
	}

	total := types.Zero
	for addr, bal := range l.balances {
		if _, ok := seen[addr]; !ok {
			errs.Add(fmt.Errorf("%w: balance for %s without a funder entry", ErrInvariantViolated, addr))
		}
		next, err := total.Add(bal)
		if err != nil {
			errs.Add(fmt.Errorf("%w: balances overflow", ErrInvariantViolated))
			break
		}
		total = next
	}

	if !total.Equal(l.held) {
		errs.Add(fmt.Errorf("%w: balances sum to %s, held %s", ErrInvariantViolated, total, l.held))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
