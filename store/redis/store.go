// Package redis implements the fundme journal on Redis.
//
// Each receipt is stored as a JSON string under its own key, created with
// SETNX so a receipt ID can only be written once. A per-ledger list holds
// the receipt IDs in the order they were recorded.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	fundmestore "github.com/xraph/fundme/store"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "fundme"

// compile-time interface check
var _ fundmestore.Store = (*Store)(nil)

// Store implements store.Store on a Redis client.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace. Stores sharing a prefix share data.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a store on rdb. The store owns rdb and closes it on Close.
func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open dials addr and returns a store on the default database.
func Open(addr, password string, db int, opts ...Option) *Store {
	return New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.UniversalClient { return s.rdb }

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) contributionKey(cid string) string {
	return s.prefix + ":contribution:" + cid
}

func (s *Store) withdrawalKey(wid string) string {
	return s.prefix + ":withdrawal:" + wid
}

func (s *Store) listKey(ledgerID id.LedgerID, kind string) string {
	return s.prefix + ":ledger:" + ledgerID.String() + ":" + kind
}

// ==================== Contributions ====================

func (s *Store) RecordContribution(ctx context.Context, c *receipt.Contribution) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("fundme/redis: encode contribution: %w", err)
	}
	return s.record(ctx, s.contributionKey(c.ID.String()), s.listKey(c.LedgerID, "contributions"), c.ID.String(), data)
}

func (s *Store) GetContribution(ctx context.Context, contributionID id.ContributionID) (*receipt.Contribution, error) {
	data, err := s.rdb.Get(ctx, s.contributionKey(contributionID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fundme.ErrNotFound
		}
		return nil, fmt.Errorf("fundme/redis: get contribution: %w", err)
	}
	c := new(receipt.Contribution)
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("fundme/redis: decode contribution %s: %w", contributionID, err)
	}
	return c, nil
}

func (s *Store) ListContributions(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Contribution, error) {
	raw, err := s.load(ctx, s.listKey(ledgerID, "contributions"), s.contributionKey)
	if err != nil {
		return nil, fmt.Errorf("fundme/redis: list contributions: %w", err)
	}

	result := make([]*receipt.Contribution, 0, len(raw))
	for _, data := range raw {
		c := new(receipt.Contribution)
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("fundme/redis: decode contribution: %w", err)
		}
		if opts.Match(c.Contributor, c.CreatedAt) {
			result = append(result, c)
		}
	}

	start, end := opts.Window(len(result))
	return result[start:end], nil
}

// ==================== Withdrawals ====================

func (s *Store) RecordWithdrawal(ctx context.Context, w *receipt.Withdrawal) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("fundme/redis: encode withdrawal: %w", err)
	}
	return s.record(ctx, s.withdrawalKey(w.ID.String()), s.listKey(w.LedgerID, "withdrawals"), w.ID.String(), data)
}

func (s *Store) ListWithdrawals(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Withdrawal, error) {
	raw, err := s.load(ctx, s.listKey(ledgerID, "withdrawals"), s.withdrawalKey)
	if err != nil {
		return nil, fmt.Errorf("fundme/redis: list withdrawals: %w", err)
	}

	result := make([]*receipt.Withdrawal, 0, len(raw))
	for _, data := range raw {
		w := new(receipt.Withdrawal)
		if err := json.Unmarshal(data, w); err != nil {
			return nil, fmt.Errorf("fundme/redis: decode withdrawal: %w", err)
		}
		if opts.Match(w.Owner, w.CreatedAt) {
			result = append(result, w)
		}
	}

	start, end := opts.Window(len(result))
	return result[start:end], nil
}

// ==================== Helpers ====================

// record writes data under key once and appends member to list. If the
// append fails the key is removed again so a retry can succeed.
func (s *Store) record(ctx context.Context, key, list, member string, data []byte) error {
	created, err := s.rdb.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("fundme/redis: write %s: %w", key, err)
	}
	if !created {
		return fundme.ErrAlreadyExists
	}
	if err := s.rdb.RPush(ctx, list, member).Err(); err != nil {
		s.rdb.Del(ctx, key)
		return fmt.Errorf("fundme/redis: append %s: %w", list, err)
	}
	return nil
}

// load returns the documents referenced by list, oldest first.
func (s *Store) load(ctx context.Context, list string, keyFor func(string) string) ([][]byte, error) {
	members, err := s.rdb.LRange(ctx, list, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = keyFor(m)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([][]byte, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			docs = append(docs, []byte(str))
		}
	}
	return docs, nil
}
