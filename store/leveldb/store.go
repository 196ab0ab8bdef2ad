// Package leveldb implements the fundme journal on an embedded LevelDB.
//
// Key layout:
//
//	c/<ledger>/<created_at>/<id>  contribution document
//	w/<ledger>/<created_at>/<id>  withdrawal document
//	i/<id>                        index entry pointing at the document key
//
// created_at is an 8-byte big-endian nanosecond stamp so a prefix scan
// over a ledger yields receipts oldest first.
package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	fundmestore "github.com/xraph/fundme/store"
)

const (
	kindContribution = 'c'
	kindWithdrawal   = 'w'
	kindIndex        = 'i'
)

// compile-time interface check
var _ fundmestore.Store = (*Store)(nil)

// Store implements store.Store on a LevelDB database.
type Store struct {
	db *leveldb.DB
	mu sync.Mutex // serialises the exists-check and write of a receipt
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("fundme/leveldb: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a database held entirely in memory.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("fundme/leveldb: open memory: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying database.
func (s *Store) DB() *leveldb.DB { return s.db }

// Migrate is a no-op; the key layout needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.db.GetProperty("leveldb.stats"); err != nil {
		return mapErr(err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Contributions ====================

func (s *Store) RecordContribution(_ context.Context, c *receipt.Contribution) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("fundme/leveldb: encode contribution: %w", err)
	}
	return s.record(docKey(kindContribution, c.LedgerID, c.CreatedAt, c.ID.String()), c.ID.String(), data)
}

func (s *Store) GetContribution(_ context.Context, contributionID id.ContributionID) (*receipt.Contribution, error) {
	key, err := s.db.Get(indexKey(contributionID.String()), nil)
	if err != nil {
		return nil, mapErr(err)
	}
	data, err := s.db.Get(key, nil)
	if err != nil {
		return nil, mapErr(err)
	}
	c := new(receipt.Contribution)
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("fundme/leveldb: decode contribution %s: %w", contributionID, err)
	}
	return c, nil
}

func (s *Store) ListContributions(_ context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Contribution, error) {
	result := make([]*receipt.Contribution, 0)
	err := s.scan(kindContribution, ledgerID, func(data []byte) error {
		c := new(receipt.Contribution)
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("fundme/leveldb: decode contribution: %w", err)
		}
		if opts.Match(c.Contributor, c.CreatedAt) {
			result = append(result, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	start, end := opts.Window(len(result))
	return result[start:end], nil
}

// ==================== Withdrawals ====================

func (s *Store) RecordWithdrawal(_ context.Context, w *receipt.Withdrawal) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("fundme/leveldb: encode withdrawal: %w", err)
	}
	return s.record(docKey(kindWithdrawal, w.LedgerID, w.CreatedAt, w.ID.String()), w.ID.String(), data)
}

func (s *Store) ListWithdrawals(_ context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Withdrawal, error) {
	result := make([]*receipt.Withdrawal, 0)
	err := s.scan(kindWithdrawal, ledgerID, func(data []byte) error {
		w := new(receipt.Withdrawal)
		if err := json.Unmarshal(data, w); err != nil {
			return fmt.Errorf("fundme/leveldb: decode withdrawal: %w", err)
		}
		if opts.Match(w.Owner, w.CreatedAt) {
			result = append(result, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	start, end := opts.Window(len(result))
	return result[start:end], nil
}

// ==================== Helpers ====================

func (s *Store) record(key []byte, receiptID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexKey(receiptID)
	exists, err := s.db.Has(idx, nil)
	if err != nil {
		return mapErr(err)
	}
	if exists {
		return fundme.ErrAlreadyExists
	}

	batch := new(leveldb.Batch)
	batch.Put(key, data)
	batch.Put(idx, key)
	if err := s.db.Write(batch, nil); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) scan(kind byte, ledgerID id.LedgerID, fn func([]byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(ledgerPrefix(kind, ledgerID)), nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return mapErr(iter.Error())
}

func ledgerPrefix(kind byte, ledgerID id.LedgerID) []byte {
	p := make([]byte, 0, 2+len(ledgerID.String())+1)
	p = append(p, kind, '/')
	p = append(p, ledgerID.String()...)
	return append(p, '/')
}

func docKey(kind byte, ledgerID id.LedgerID, at time.Time, receiptID string) []byte {
	k := ledgerPrefix(kind, ledgerID)
	k = binary.BigEndian.AppendUint64(k, uint64(at.UnixNano())) //nolint:gosec // receipts are stamped after 1970
	k = append(k, '/')
	return append(k, receiptID...)
}

func indexKey(receiptID string) []byte {
	return append([]byte{kindIndex, '/'}, receiptID...)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return fundme.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return fundme.ErrStoreClosed
	default:
		return fmt.Errorf("fundme/leveldb: %w", err)
	}
}
