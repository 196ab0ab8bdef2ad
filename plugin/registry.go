package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// DefaultTimeout bounds every hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches hooks to the ones
// implementing them. Interfaces are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onContributionAccepted []OnContributionAccepted
	onContributionRejected []OnContributionRejected
	onWithdrawal           []OnWithdrawal
	onWithdrawalFailed     []OnWithdrawalFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
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

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContributionAccepted); ok {
		r.onContributionAccepted = append(r.onContributionAccepted, v)
	}
	if v, ok := p.(OnContributionRejected); ok {
		r.onContributionRejected = append(r.onContributionRejected, v)
	}
	if v, ok := p.(OnWithdrawal); ok {
		r.onWithdrawal = append(r.onWithdrawal, v)
	}
	if v, ok := p.(OnWithdrawalFailed); ok {
		r.onWithdrawalFailed = append(r.onWithdrawalFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnContributionAccepted", reflect.TypeFor[OnContributionAccepted]()},
	{"OnContributionRejected", reflect.TypeFor[OnContributionRejected]()},
	{"OnWithdrawal", reflect.TypeFor[OnWithdrawal]()},
	{"OnWithdrawalFailed", reflect.TypeFor[OnWithdrawalFailed]()},
}

func implementedInterfaces(p Plugin) []string {
	var names []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name, or nil.
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
// Event emission
// ──────────────────────────────────────────────────

// emit runs call for every hook in hooks, logging failures.
func emit[H Plugin](ctx context.Context, r *Registry, hook string, hooks []H, call func(H) error) {
	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error { return call(h) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	emit(ctx, r, "OnInit", hooks, func(p OnInit) error { return p.OnInit(ctx, l) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	emit(ctx, r, "OnShutdown", hooks, func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitContributionAccepted emits an accepted contribution.
func (r *Registry) EmitContributionAccepted(ctx context.Context, c *receipt.Contribution) {
	r.mu.RLock()
	hooks := r.onContributionAccepted
	r.mu.RUnlock()

	emit(ctx, r, "OnContributionAccepted", hooks, func(p OnContributionAccepted) error {
		return p.OnContributionAccepted(ctx, c)
	})
}

// EmitContributionRejected emits a rejected contribution.
func (r *Registry) EmitContributionRejected(ctx context.Context, contributor types.Address, amount types.Amount, reason error) {
	r.mu.RLock()
	hooks := r.onContributionRejected
	r.mu.RUnlock()

	emit(ctx, r, "OnContributionRejected", hooks, func(p OnContributionRejected) error {
		return p.OnContributionRejected(ctx, contributor, amount, reason)
	})
}

// EmitWithdrawal emits a completed withdrawal.
func (r *Registry) EmitWithdrawal(ctx context.Context, w *receipt.Withdrawal) {
	r.mu.RLock()
	hooks := r.onWithdrawal
	r.mu.RUnlock()

	emit(ctx, r, "OnWithdrawal", hooks, func(p OnWithdrawal) error { return p.OnWithdrawal(ctx, w) })
}

// EmitWithdrawalFailed emits a refused or failed withdrawal.
func (r *Registry) EmitWithdrawalFailed(ctx context.Context, caller types.Address, amount types.Amount, reason error) {
	r.mu.RLock()
	hooks := r.onWithdrawalFailed
	r.mu.RUnlock()

	emit(ctx, r, "OnWithdrawalFailed", hooks, func(p OnWithdrawalFailed) error {
		return p.OnWithdrawalFailed(ctx, caller, amount, reason)
	})
}

// callWithTimeout calls a plugin function with a timeout so a slow plugin
// cannot stall the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
