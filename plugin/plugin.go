// Package plugin provides an extensible plugin system for fundme.
// Plugins hook into ledger lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Contribution hooks
// ──────────────────────────────────────────────────

// OnContributionAccepted is called after a contribution is committed.
type OnContributionAccepted interface {
	Plugin
	OnContributionAccepted(ctx context.Context, c *receipt.Contribution) error
}

// OnContributionRejected is called when a contribution is refused. reason
// wraps one of the ledger's sentinel errors.
type OnContributionRejected interface {
	Plugin
	OnContributionRejected(ctx context.Context, contributor types.Address, amount types.Amount, reason error) error
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnWithdrawal is called after the pool has been paid to the owner.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, w *receipt.Withdrawal) error
}

// OnWithdrawalFailed is called when a withdrawal is refused or its payout
// fails. amount is zero when nothing was attempted.
type OnWithdrawalFailed interface {
	Plugin
	OnWithdrawalFailed(ctx context.Context, caller types.Address, amount types.Amount, reason error) error
}
