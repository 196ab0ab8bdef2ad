package fundme

import (
	"context"
	"fmt"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// snapshot is the pool as it stood when a withdrawal reset it.
type snapshot struct {
	funders  []types.Address
	balances map[types.Address]types.Amount
	held     types.Amount
}

// Withdraw pays the entire pool to the owner and clears every contributor
// record. Only the owner may call it.
//
// State is reset before the payout runs, and the ledger lock is not held
// during the payout, so a recipient that calls back into the ledger sees an
// empty pool. Any withdrawal started before the payout returns, nested or
// from another goroutine, is refused with ErrWithdrawalInProgress;
// contributions are accepted into the fresh pool. If the payout
// fails the pool is restored and ErrTransferFailed is returned.
func (l *Ledger) Withdraw(ctx context.Context, caller types.Address) error {
	return l.withdraw(ctx, caller, receipt.VariantStandard, l.resetStandard)
}

// CheaperWithdraw behaves exactly like Withdraw. It clears balances from a
// locally cached view of the funder sequence instead of re-reading the
// ledger's slice on every step.
func (l *Ledger) CheaperWithdraw(ctx context.Context, caller types.Address) error {
	return l.withdraw(ctx, caller, receipt.VariantCheaper, l.resetCached)
}

func (l *Ledger) withdraw(ctx context.Context, caller types.Address, variant receipt.Variant, reset func() snapshot) error {
	if caller != l.owner {
		err := fmt.Errorf("%w: %s", ErrUnauthorized, caller)
		l.plugins.EmitWithdrawalFailed(ctx, caller, types.Zero, err)
		l.logger.Warn("unauthorized withdrawal", "caller", caller.String())
		return err
	}

	l.mu.Lock()
	if l.withdrawing {
		l.mu.Unlock()
		l.plugins.EmitWithdrawalFailed(ctx, caller, types.Zero, ErrWithdrawalInProgress)
		return ErrWithdrawalInProgress
	}
	snap := reset()
	l.withdrawing = true
	l.inFlight = snap.held
	l.mu.Unlock()

	transferErr := l.payee.Transfer(ctx, l.owner, snap.held)

	l.mu.Lock()
	l.withdrawing = false
	l.inFlight = types.Zero
	if transferErr != nil {
		l.restore(snap)
	}
	l.mu.Unlock()

	if transferErr != nil {
		err := fmt.Errorf("%w: %w", ErrTransferFailed, transferErr)
		l.plugins.EmitWithdrawalFailed(ctx, caller, snap.held, err)
		l.logger.Error("withdrawal payout failed",
			"owner", l.owner.String(),
			"amount", snap.held.FormatEther(),
			"error", transferErr,
		)
		return err
	}

	w := &receipt.Withdrawal{
		Entity:   types.EntityAt(l.now()),
		ID:       id.NewWithdrawalID(),
		LedgerID: l.id,
		Owner:    l.owner,
		Amount:   snap.held,
		Funders:  len(snap.funders),
		Variant:  variant,
	}

	if l.store != nil {
		if err := l.store.RecordWithdrawal(ctx, w); err != nil {
			l.logger.Warn("fundme: journal withdrawal failed",
				"withdrawal_id", w.ID.String(),
				"error", err,
			)
		}
	}
	l.plugins.EmitWithdrawal(ctx, w)

	l.logger.Info("withdrawal completed",
		"owner", l.owner.String(),
		"amount", snap.held.FormatEther(),
		"funders", len(snap.funders),
		"variant", string(variant),
	)

	return nil
}

// resetStandard clears the pool walking the funder slice in place.
// Callers hold l.mu.
func (l *Ledger) resetStandard() snapshot {
	snap := snapshot{
		balances: make(map[types.Address]types.Amount),
		held:     l.held,
	}
	for i := 0; i < len(l.funders); i++ {
		funder := l.funders[i]
		if bal, ok := l.balances[funder]; ok {
			snap.balances[funder] = bal
			delete(l.balances, funder)
		}
	}
	snap.funders = l.funders
	l.funders = nil
	l.held = types.Zero
	return snap
}

// resetCached clears the pool from a local copy of the funder slice and
// its length. Callers hold l.mu.
func (l *Ledger) resetCached() snapshot {
	funders := l.funders
	n := len(funders)

	snap := snapshot{
		funders:  funders,
		balances: make(map[types.Address]types.Amount, n),
		held:     l.held,
	}
	for i := range n {
		funder := funders[i]
		if bal, ok := l.balances[funder]; ok {
			snap.balances[funder] = bal
			delete(l.balances, funder)
		}
	}
	l.funders = nil
	l.held = types.Zero
	return snap
}

// restore merges snap back after a failed payout. Funders recorded while the
// payout ran keep their entries and follow the restored ones. Callers hold
// l.mu.
func (l *Ledger) restore(snap snapshot) {
	funders := make([]types.Address, 0, len(snap.funders)+len(l.funders))
	funders = append(funders, snap.funders...)
	funders = append(funders, l.funders...)
	l.funders = funders

	// commit keeps held+inFlight within bounds, so these sums fit.
	for addr, bal := range snap.balances {
		l.balances[addr], _ = l.balances[addr].Add(bal) //nolint:errcheck // bounded by commit
	}
	l.held, _ = l.held.Add(snap.held) //nolint:errcheck // bounded by commit
}
