// Package wallet models external account balances: the accounts that fund
// a ledger and the owner that receives its withdrawals.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/fundme/types"
)

var (
	// ErrInsufficientFunds is returned by Debit when the account is short.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrRejected is a convenience error for receivers that refuse value.
	ErrRejected = errors.New("wallet: transfer rejected by recipient")
)

// Receiver runs when an account is about to be credited. Returning an error
// rejects the transfer; nothing is credited. Receivers run without the
// book's lock held and may call back into the ledger.
type Receiver func(ctx context.Context, amount types.Amount) error

// Book is a thread-safe set of account balances.
type Book struct {
	mu        sync.RWMutex
	balances  map[types.Address]types.Amount
	receivers map[types.Address]Receiver
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		balances:  make(map[types.Address]types.Amount),
		receivers: make(map[types.Address]Receiver),
	}
}

// OnReceive installs r for addr, replacing any previous receiver. A nil r
// removes it.
func (b *Book) OnReceive(addr types.Address, r Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r == nil {
		delete(b.receivers, addr)
		return
	}
	b.receivers[addr] = r
}

// Credit adds amount to addr.
func (b *Book) Credit(addr types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credit(addr, amount)
}

func (b *Book) credit(addr types.Address, amount types.Amount) error {
	next, err := b.balances[addr].Add(amount)
	if err != nil {
		return fmt.Errorf("wallet: credit %s: %w", addr, err)
	}
	b.balances[addr] = next
	return nil
}

// Debit removes amount from addr.
func (b *Book) Debit(addr types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := b.balances[addr].Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, addr, b.balances[addr], amount)
	}
	b.balances[addr] = next
	return nil
}

// BalanceOf returns the balance of addr.
func (b *Book) BalanceOf(addr types.Address) types.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[addr]
}

// Transfer credits amount to addr after its receiver, if any, accepts it.
// It satisfies fundme.Payee.
func (b *Book) Transfer(ctx context.Context, to types.Address, amount types.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	r := b.receivers[to]
	b.mu.RUnlock()

	if r != nil {
		if err := r(ctx, amount); err != nil {
			return fmt.Errorf("wallet: transfer to %s: %w", to, err)
		}
	}
	return b.Credit(to, amount)
}

// Spend debits amount from addr and runs fn. If fn fails the debit is
// reversed. It models an account paying for a call such as a contribution.
func (b *Book) Spend(addr types.Address, amount types.Amount, fn func() error) error {
	if err := b.Debit(addr, amount); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if cerr := b.Credit(addr, amount); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	return nil
}
