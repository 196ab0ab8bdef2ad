package mongo

import (
	"testing"
	"time"

	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/store/storetest"
	"github.com/xraph/fundme/types"
)

func TestContributionModel(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := storetest.Contribution(id.NewLedgerID(), storetest.FunderA, types.MaxAmount(), at)

	got, err := fromContributionModel(toContributionModel(c))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Amount.Equal(types.MaxAmount()) {
		t.Errorf("Amount: got %s", got.Amount)
	}
	if got.ID.String() != c.ID.String() || got.Contributor != c.Contributor || !got.CreatedAt.Equal(at) {
		t.Errorf("unexpected contribution: %+v", got)
	}

	m := toContributionModel(c)
	m.Amount = "-1"
	if _, err := fromContributionModel(m); err == nil {
		t.Error("expected an error for a negative amount")
	}
}

func TestWithdrawalModel(t *testing.T) {
	w := &receipt.Withdrawal{
		Entity:   types.NewEntity(),
		ID:       id.NewWithdrawalID(),
		LedgerID: id.NewLedgerID(),
		Owner:    storetest.Owner,
		Amount:   types.Ether(5),
		Funders:  5,
		Variant:  receipt.VariantCheaper,
	}

	got, err := fromWithdrawalModel(toWithdrawalModel(w))
	if err != nil {
		t.Fatal(err)
	}
	if got.Variant != receipt.VariantCheaper || got.Funders != 5 || !got.Amount.Equal(types.Ether(5)) {
		t.Errorf("unexpected withdrawal: %+v", got)
	}

	m := toWithdrawalModel(w)
	m.ID = id.NewContributionID().String()
	if _, err := fromWithdrawalModel(m); err == nil {
		t.Error("expected an error for a contribution id")
	}
}
