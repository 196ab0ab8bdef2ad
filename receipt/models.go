// Package receipt defines the append-only journal of committed ledger
// operations. Receipts describe what happened; the ledger never rebuilds
// its balances from them.
package receipt

import (
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/types"
)

// Variant names the withdrawal routine that produced a receipt.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantCheaper  Variant = "cheaper"
)

// Contribution records an accepted contribution together with the price
// reading that admitted it.
type Contribution struct {
	types.Entity
	ID            id.ContributionID `json:"id"`
	LedgerID      id.LedgerID       `json:"ledger_id"`
	Contributor   types.Address     `json:"contributor"`
	Amount        types.Amount      `json:"amount"`
	USDValue      types.Amount      `json:"usd_value"`
	Price         types.Amount      `json:"price"`
	PriceDecimals uint8             `json:"price_decimals"`
	RoundID       uint64            `json:"round_id"`
}

// Withdrawal records a completed payout of the whole pool to the owner.
type Withdrawal struct {
	types.Entity
	ID       id.WithdrawalID `json:"id"`
	LedgerID id.LedgerID     `json:"ledger_id"`
	Owner    types.Address   `json:"owner"`
	Amount   types.Amount    `json:"amount"`
	Funders  int             `json:"funders"`
	Variant  Variant         `json:"variant"`
}
