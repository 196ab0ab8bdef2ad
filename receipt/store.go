package receipt

import (
	"context"
	"time"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/types"
)

// Store persists receipts of committed ledger operations. Receipt IDs are
// write-once: recording an existing ID returns fundme.ErrAlreadyExists.
type Store interface {
	RecordContribution(ctx context.Context, c *Contribution) error
	GetContribution(ctx context.Context, contributionID id.ContributionID) (*Contribution, error)
	ListContributions(ctx context.Context, ledgerID id.LedgerID, opts ListOpts) ([]*Contribution, error)
	RecordWithdrawal(ctx context.Context, w *Withdrawal) error
	ListWithdrawals(ctx context.Context, ledgerID id.LedgerID, opts ListOpts) ([]*Withdrawal, error)
}

// ListOpts filters journal queries. Results are ordered oldest first.
//
// Contributor selects by the acting address: the contributor of a
// contribution, or the owner that received a withdrawal.
type ListOpts struct {
	Contributor types.Address // zero matches every address
	Since       time.Time
	Limit       int
	Offset      int
}

// Match reports whether a receipt for who at t passes the filter.
func (o ListOpts) Match(who types.Address, t time.Time) bool {
	if !o.Contributor.IsZero() && o.Contributor != who {
		return false
	}
	return o.Since.IsZero() || !t.Before(o.Since)
}

// Window returns the [start, end) bounds opts selects from n ordered
// results. A zero Limit selects everything after Offset.
func (o ListOpts) Window(n int) (int, int) {
	start := max(o.Offset, 0)
	if start > n {
		start = n
	}
	end := start + o.Limit
	if o.Limit <= 0 || end > n {
		end = n
	}
	return start, end
}
