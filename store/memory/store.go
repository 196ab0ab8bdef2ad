// Package memory provides an in-process receipt journal. It is the default
// store and the reference the other backends are tested against.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	contributions []*receipt.Contribution
	byID          map[string]*receipt.Contribution
	withdrawals   []*receipt.Withdrawal
}

func New() *Store {
	return &Store{
		byID: make(map[string]*receipt.Contribution),
	}
}

// Contribution journal

func (s *Store) RecordContribution(_ context.Context, c *receipt.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fundme.ErrStoreClosed
	}
	if _, exists := s.byID[c.ID.String()]; exists {
		return fundme.ErrAlreadyExists
	}
	cp := *c
	s.contributions = append(s.contributions, &cp)
	s.byID[c.ID.String()] = &cp
	return nil
}

func (s *Store) GetContribution(_ context.Context, contributionID id.ContributionID) (*receipt.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.byID[contributionID.String()]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, fundme.ErrNotFound
}

func (s *Store) ListContributions(_ context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*receipt.Contribution, 0)
	for _, c := range s.contributions {
		if c.LedgerID.String() == ledgerID.String() && opts.Match(c.Contributor, c.CreatedAt) {
			cp := *c
			result = append(result, &cp)
		}
	}

	start, end := opts.Window(len(result))
	return result[start:end], nil
}

// Withdrawal journal

func (s *Store) RecordWithdrawal(_ context.Context, w *receipt.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fundme.ErrStoreClosed
	}
	for _, existing := range s.withdrawals {
		if existing.ID.String() == w.ID.String() {
			return fundme.ErrAlreadyExists
		}
	}
	cp := *w
	s.withdrawals = append(s.withdrawals, &cp)
	return nil
}

func (s *Store) ListWithdrawals(_ context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*receipt.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if w.LedgerID.String() == ledgerID.String() && opts.Match(w.Owner, w.CreatedAt) {
			cp := *w
			result = append(result, &cp)
		}
	}

	start, end := opts.Window(len(result))
	return result[start:end], nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fundme.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
