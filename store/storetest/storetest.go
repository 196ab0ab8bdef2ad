// Package storetest holds the behaviour every journal backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/store"
	"github.com/xraph/fundme/types"
)

var (
	Owner   = types.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	FunderA = types.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	FunderB = types.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

// Run exercises s. newStore must return an empty, migrated store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("ContributionRoundTrip", func(t *testing.T) { testContributionRoundTrip(t, newStore(t)) })
	t.Run("ListContributions", func(t *testing.T) { testListContributions(t, newStore(t)) })
	t.Run("Withdrawals", func(t *testing.T) { testWithdrawals(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
}

// Contribution builds a contribution receipt stamped at.
func Contribution(ledgerID id.LedgerID, who types.Address, amount types.Amount, at time.Time) *receipt.Contribution {
	usd, _ := amount.Mul(types.Wei(2000).BigInt()) //nolint:errcheck // test amounts are small
	return &receipt.Contribution{
		Entity:        types.EntityAt(at),
		ID:            id.NewContributionID(),
		LedgerID:      ledgerID,
		Contributor:   who,
		Amount:        amount,
		USDValue:      usd,
		Price:         types.Wei(2000_00000000),
		PriceDecimals: 8,
		RoundID:       1,
	}
}

func testContributionRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	ledgerID := id.NewLedgerID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c := Contribution(ledgerID, FunderA, types.Ether(1), at)
	if err := s.RecordContribution(ctx, c); err != nil {
		t.Fatalf("RecordContribution: %v", err)
	}

	got, err := s.GetContribution(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContribution: %v", err)
	}
	if got.ID.String() != c.ID.String() || got.LedgerID.String() != ledgerID.String() {
		t.Errorf("ids: got %s/%s", got.ID, got.LedgerID)
	}
	if got.Contributor != FunderA {
		t.Errorf("Contributor: got %s, want %s", got.Contributor, FunderA)
	}
	if !got.Amount.Equal(c.Amount) || !got.USDValue.Equal(c.USDValue) || !got.Price.Equal(c.Price) {
		t.Errorf("amounts: got %s/%s/%s", got.Amount, got.USDValue, got.Price)
	}
	if got.PriceDecimals != 8 || got.RoundID != 1 {
		t.Errorf("price meta: got %d decimals, round %d", got.PriceDecimals, got.RoundID)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt: got %s, want %s", got.CreatedAt, at)
	}

	if err := s.RecordContribution(ctx, c); !errors.Is(err, fundme.ErrAlreadyExists) {
		t.Errorf("duplicate RecordContribution: got %v, want ErrAlreadyExists", err)
	}
}

func testListContributions(t *testing.T, s store.Store) {
	ctx := context.Background()
	ledgerID := id.NewLedgerID()
	other := id.NewLedgerID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, who := range []types.Address{FunderA, FunderB, FunderA, FunderB} {
		c := Contribution(ledgerID, who, types.Ether(int64(i+1)), base.Add(time.Duration(i)*time.Minute))
		if err := s.RecordContribution(ctx, c); err != nil {
			t.Fatalf("RecordContribution %d: %v", i, err)
		}
	}
	if err := s.RecordContribution(ctx, Contribution(other, FunderA, types.Ether(9), base)); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListContributions(ctx, ledgerID, receipt.ListOpts{})
	if err != nil {
		t.Fatalf("ListContributions: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("ListContributions: got %d, want 4", len(all))
	}
	for i, c := range all {
		if !c.Amount.Equal(types.Ether(int64(i + 1))) {
			t.Errorf("order: entry %d has %s", i, c.Amount)
		}
	}

	onlyA, err := s.ListContributions(ctx, ledgerID, receipt.ListOpts{Contributor: FunderA})
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyA) != 2 {
		t.Errorf("contributor filter: got %d, want 2", len(onlyA))
	}

	since, err := s.ListContributions(ctx, ledgerID, receipt.ListOpts{Since: base.Add(2 * time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 {
		t.Errorf("since filter: got %d, want 2", len(since))
	}

	page, err := s.ListContributions(ctx, ledgerID, receipt.ListOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || !page[0].Amount.Equal(types.Ether(2)) {
		t.Errorf("pagination: got %d entries", len(page))
	}

	tail, err := s.ListContributions(ctx, ledgerID, receipt.ListOpts{Offset: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 1 || !tail[0].Amount.Equal(types.Ether(4)) {
		t.Errorf("offset without limit: got %d entries", len(tail))
	}
}

func testWithdrawals(t *testing.T, s store.Store) {
	ctx := context.Background()
	ledgerID := id.NewLedgerID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, v := range []receipt.Variant{receipt.VariantStandard, receipt.VariantCheaper} {
		w := &receipt.Withdrawal{
			Entity:   types.EntityAt(base.Add(time.Duration(i) * time.Hour)),
			ID:       id.NewWithdrawalID(),
			LedgerID: ledgerID,
			Owner:    Owner,
			Amount:   types.Ether(int64(10 * (i + 1))),
			Funders:  3 + i,
			Variant:  v,
		}
		if err := s.RecordWithdrawal(ctx, w); err != nil {
			t.Fatalf("RecordWithdrawal: %v", err)
		}
	}

	got, err := s.ListWithdrawals(ctx, ledgerID, receipt.ListOpts{})
	if err != nil {
		t.Fatalf("ListWithdrawals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListWithdrawals: got %d, want 2", len(got))
	}
	if got[0].Variant != receipt.VariantStandard || got[1].Variant != receipt.VariantCheaper {
		t.Errorf("variants: got %s, %s", got[0].Variant, got[1].Variant)
	}
	if !got[1].Amount.Equal(types.Ether(20)) || got[1].Funders != 4 || got[1].Owner != Owner {
		t.Errorf("unexpected withdrawal: %+v", got[1])
	}

	byOwner, err := s.ListWithdrawals(ctx, ledgerID, receipt.ListOpts{Contributor: Owner})
	if err != nil {
		t.Fatal(err)
	}
	if len(byOwner) != 2 {
		t.Errorf("owner filter: got %d, want 2", len(byOwner))
	}
	byFunder, err := s.ListWithdrawals(ctx, ledgerID, receipt.ListOpts{Contributor: FunderA})
	if err != nil {
		t.Fatal(err)
	}
	if len(byFunder) != 0 {
		t.Errorf("non-owner filter: got %d, want 0", len(byFunder))
	}

	limited, err := s.ListWithdrawals(ctx, ledgerID, receipt.ListOpts{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d, want 1", len(limited))
	}
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.GetContribution(context.Background(), id.NewContributionID())
	if !errors.Is(err, fundme.ErrNotFound) {
		t.Errorf("GetContribution(missing): got %v, want ErrNotFound", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
