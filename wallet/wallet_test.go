package wallet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/fundme/types"
	"github.com/xraph/fundme/wallet"
)

var (
	alice = types.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	bob   = types.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

func TestCreditDebit(t *testing.T) {
	b := wallet.NewBook()
	if err := b.Credit(alice, types.Ether(2)); err != nil {
		t.Fatal(err)
	}
	if err := b.Debit(alice, types.Ether(1)); err != nil {
		t.Fatal(err)
	}
	if got := b.BalanceOf(alice); !got.Equal(types.Ether(1)) {
		t.Errorf("BalanceOf: got %s, want %s", got, types.Ether(1))
	}

	if err := b.Debit(alice, types.Ether(5)); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Errorf("Debit: got %v, want ErrInsufficientFunds", err)
	}
	if got := b.BalanceOf(alice); !got.Equal(types.Ether(1)) {
		t.Errorf("failed debit changed balance to %s", got)
	}
}

func TestTransferReceiver(t *testing.T) {
	b := wallet.NewBook()
	ctx := context.Background()

	b.OnReceive(bob, func(context.Context, types.Amount) error { return wallet.ErrRejected })
	if err := b.Transfer(ctx, bob, types.Ether(1)); !errors.Is(err, wallet.ErrRejected) {
		t.Fatalf("got %v, want ErrRejected", err)
	}
	if !b.BalanceOf(bob).IsZero() {
		t.Error("rejected transfer credited the recipient")
	}

	var seen types.Amount
	b.OnReceive(bob, func(_ context.Context, amount types.Amount) error {
		seen = amount
		return nil
	})
	if err := b.Transfer(ctx, bob, types.Ether(3)); err != nil {
		t.Fatal(err)
	}
	if !seen.Equal(types.Ether(3)) || !b.BalanceOf(bob).Equal(types.Ether(3)) {
		t.Errorf("receiver saw %s, balance %s", seen, b.BalanceOf(bob))
	}

	b.OnReceive(bob, nil)
	if err := b.Transfer(ctx, bob, types.Zero); err != nil {
		t.Errorf("zero transfer: %v", err)
	}
}

func TestSpendRefundsOnFailure(t *testing.T) {
	b := wallet.NewBook()
	_ = b.Credit(alice, types.Ether(1))

	boom := errors.New("boom")
	if err := b.Spend(alice, types.Ether(1), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if !b.BalanceOf(alice).Equal(types.Ether(1)) {
		t.Errorf("failed spend was not refunded: %s", b.BalanceOf(alice))
	}

	if err := b.Spend(alice, types.Ether(1), func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !b.BalanceOf(alice).IsZero() {
		t.Errorf("successful spend left %s", b.BalanceOf(alice))
	}
}
