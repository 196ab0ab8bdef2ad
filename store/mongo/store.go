// Package mongo implements the fundme journal on MongoDB via Grove.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	fundmestore "github.com/xraph/fundme/store"
)

// Collection name constants.
const (
	colContributions = "fundme_contributions"
	colWithdrawals   = "fundme_withdrawals"
)

// compile-time interface check
var _ fundmestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the journal collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("fundme/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Contributions ====================

func (s *Store) RecordContribution(ctx context.Context, c *receipt.Contribution) error {
	if _, err := s.mdb.NewInsert(toContributionModel(c)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fundme.ErrAlreadyExists
		}
		return fmt.Errorf("fundme/mongo: record contribution: %w", err)
	}
	return nil
}

func (s *Store) GetContribution(ctx context.Context, contributionID id.ContributionID) (*receipt.Contribution, error) {
	var m contributionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": contributionID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fundme.ErrNotFound
		}
		return nil, fmt.Errorf("fundme/mongo: get contribution: %w", err)
	}
	return fromContributionModel(&m)
}

func (s *Store) ListContributions(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Contribution, error) {
	var models []contributionModel

	filter := listFilter(ledgerID, "contributor", opts)
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundme/mongo: list contributions: %w", err)
	}

	result := make([]*receipt.Contribution, len(models))
	for i := range models {
		c, err := fromContributionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Withdrawals ====================

func (s *Store) RecordWithdrawal(ctx context.Context, w *receipt.Withdrawal) error {
	if _, err := s.mdb.NewInsert(toWithdrawalModel(w)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fundme.ErrAlreadyExists
		}
		return fmt.Errorf("fundme/mongo: record withdrawal: %w", err)
	}
	return nil
}

func (s *Store) ListWithdrawals(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Withdrawal, error) {
	var models []withdrawalModel

	filter := listFilter(ledgerID, "owner", opts)
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fundme/mongo: list withdrawals: %w", err)
	}

	result := make([]*receipt.Withdrawal, len(models))
	for i := range models {
		w, err := fromWithdrawalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = w
	}
	return result, nil
}

// ==================== Helpers ====================

// listFilter builds the query for a ledger's receipts. addrField names the
// document field ListOpts.Contributor is matched against.
func listFilter(ledgerID id.LedgerID, addrField string, opts receipt.ListOpts) bson.M {
	filter := bson.M{"ledger_id": ledgerID.String()}
	if !opts.Contributor.IsZero() {
		filter[addrField] = opts.Contributor.String()
	}
	if !opts.Since.IsZero() {
		filter["created_at"] = bson.M{"$gte": opts.Since}
	}
	return filter
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the journal collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colContributions: {
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "contributor", Value: 1}}},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{
				Keys:    bson.D{{Key: "ledger_id", Value: 1}, {Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetSparse(true),
			},
		},
	}
}
