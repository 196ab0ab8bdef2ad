package sqlite

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/types"
)

// ==================== Contribution models ====================

type contributionModel struct {
	grove.BaseModel `grove:"table:fundme_contributions"`

	ID            string    `grove:"id,pk"`
	LedgerID      string    `grove:"ledger_id"`
	Contributor   string    `grove:"contributor"`
	Amount        string    `grove:"amount"`
	USDValue      string    `grove:"usd_value"`
	Price         string    `grove:"price"`
	PriceDecimals int       `grove:"price_decimals"`
	RoundID       int64     `grove:"round_id"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toContributionModel(c *receipt.Contribution) *contributionModel {
	return &contributionModel{
		ID:            c.ID.String(),
		LedgerID:      c.LedgerID.String(),
		Contributor:   c.Contributor.String(),
		Amount:        c.Amount.String(),
		USDValue:      c.USDValue.String(),
		Price:         c.Price.String(),
		PriceDecimals: int(c.PriceDecimals),
		RoundID:       int64(c.RoundID), //nolint:gosec // round ids fit in int64
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func fromContributionModel(m *contributionModel) (*receipt.Contribution, error) {
	cid, err := id.ParseContributionID(m.ID)
	if err != nil {
		return nil, err
	}
	lid, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	who, err := types.ParseAddress(m.Contributor)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("fundme/sqlite: contribution %s amount: %w", m.ID, err)
	}
	usd, err := types.ParseAmount(m.USDValue)
	if err != nil {
		return nil, fmt.Errorf("fundme/sqlite: contribution %s usd_value: %w", m.ID, err)
	}
	price, err := types.ParseAmount(m.Price)
	if err != nil {
		return nil, fmt.Errorf("fundme/sqlite: contribution %s price: %w", m.ID, err)
	}

	return &receipt.Contribution{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            cid,
		LedgerID:      lid,
		Contributor:   who,
		Amount:        amount,
		USDValue:      usd,
		Price:         price,
		PriceDecimals: uint8(m.PriceDecimals), //nolint:gosec // written from a uint8
		RoundID:       uint64(m.RoundID),      //nolint:gosec // written from a uint64
	}, nil
}

// ==================== Withdrawal models ====================

type withdrawalModel struct {
	grove.BaseModel `grove:"table:fundme_withdrawals"`

	ID        string    `grove:"id,pk"`
	LedgerID  string    `grove:"ledger_id"`
	Owner     string    `grove:"owner"`
	Amount    string    `grove:"amount"`
	Funders   int       `grove:"funders"`
	Variant   string    `grove:"variant"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toWithdrawalModel(w *receipt.Withdrawal) *withdrawalModel {
	return &withdrawalModel{
		ID:        w.ID.String(),
		LedgerID:  w.LedgerID.String(),
		Owner:     w.Owner.String(),
		Amount:    w.Amount.String(),
		Funders:   w.Funders,
		Variant:   string(w.Variant),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*receipt.Withdrawal, error) {
	wid, err := id.ParseWithdrawalID(m.ID)
	if err != nil {
		return nil, err
	}
	lid, err := id.ParseLedgerID(m.LedgerID)
	if err != nil {
		return nil, err
	}
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("fundme/sqlite: withdrawal %s amount: %w", m.ID, err)
	}

	return &receipt.Withdrawal{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       wid,
		LedgerID: lid,
		Owner:    owner,
		Amount:   amount,
		Funders:  m.Funders,
		Variant:  receipt.Variant(m.Variant),
	}, nil
}
