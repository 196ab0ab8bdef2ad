package fundme

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// Contribute adds amount from caller to the pool. The amount is priced
// through the oracle and must be worth at least MinimumUSD; otherwise
// nothing changes and ErrInsufficientContribution is returned. A feed that
// cannot be read or reports an unusable price rejects the contribution.
//
// Every accepted call appends caller to the funder sequence, including
// repeat contributions.
func (l *Ledger) Contribute(ctx context.Context, caller types.Address, amount types.Amount) error {
	if caller.IsZero() {
		return l.reject(ctx, caller, amount, fmt.Errorf("%w: contributor is the zero address", ErrInvalidInput))
	}

	price, err := oracle.Read(ctx, l.feed, l.now(), l.maxPriceAge)
	if err != nil {
		if errors.Is(err, oracle.ErrInvalidPrice) {
			return l.reject(ctx, caller, amount, fmt.Errorf("%w: %w", ErrOraclePriceInvalid, err))
		}
		return l.reject(ctx, caller, amount, fmt.Errorf("%w: %w", ErrOracleUnavailable, err))
	}

	usd, err := price.Convert(amount)
	if err != nil {
		return l.reject(ctx, caller, amount, fmt.Errorf("%w: %w", ErrConversionOverflow, err))
	}
	if usd.LessThan(l.minimumUSD) {
		return l.reject(ctx, caller, amount, fmt.Errorf("%w: worth %s USD, minimum %s USD",
			ErrInsufficientContribution, usd.FormatEther(), l.minimumUSD.FormatEther()))
	}

	if err := l.commit(caller, amount); err != nil {
		return l.reject(ctx, caller, amount, err)
	}

	c := &receipt.Contribution{
		Entity:        types.EntityAt(l.now()),
		ID:            id.NewContributionID(),
		LedgerID:      l.id,
		Contributor:   caller,
		Amount:        amount,
		USDValue:      usd,
		PriceDecimals: price.Decimals,
		RoundID:       price.RoundID,
	}
	if p, err := types.NewAmount(price.Answer); err == nil {
		c.Price = p
	}

	if l.store != nil {
		if err := l.store.RecordContribution(ctx, c); err != nil {
			l.logger.Warn("fundme: journal contribution failed",
				"contribution_id", c.ID.String(),
				"error", err,
			)
		}
	}
	l.plugins.EmitContributionAccepted(ctx, c)

	l.logger.Debug("contribution accepted",
		"contributor", caller.String(),
		"amount", amount.FormatEther(),
		"usd", usd.FormatEther(),
		"price", price.String(),
	)

	return nil
}

// commit applies an accepted contribution atomically.
func (l *Ledger) commit(caller types.Address, amount types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held, err := l.held.Add(amount)
	if err != nil {
		return fmt.Errorf("%w: pool total: %w", ErrConversionOverflow, err)
	}
	// Keep room to merge the in-flight pool back if its payout fails.
	if _, err := held.Add(l.inFlight); err != nil {
		return fmt.Errorf("%w: pool total with pending withdrawal: %w", ErrConversionOverflow, err)
	}

	// A balance never exceeds held, so this cannot overflow once held fits.
	balance, _ := l.balances[caller].Add(amount) //nolint:errcheck // bounded by held

	l.funders = append(l.funders, caller)
	l.balances[caller] = balance
	l.held = held
	return nil
}

func (l *Ledger) reject(ctx context.Context, caller types.Address, amount types.Amount, reason error) error {
	l.plugins.EmitContributionRejected(ctx, caller, amount, reason)

	l.logger.Debug("contribution rejected",
		"contributor", caller.String(),
		"amount", amount.String(),
		"error", reason,
	)

	return reason
}
