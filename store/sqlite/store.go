// Package sqlite implements the fundme journal on SQLite via Grove.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate" // registers the sqlite migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	fundmestore "github.com/xraph/fundme/store"
)

// compile-time interface check
var _ fundmestore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("fundme/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("fundme/sqlite: migration failed: %w", err)
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
	res, err := s.sdb.NewInsert(toContributionModel(c)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundme/sqlite: record contribution: %w", err)
	}
	return insertedOne(res)
}

func (s *Store) GetContribution(ctx context.Context, contributionID id.ContributionID) (*receipt.Contribution, error) {
	m := new(contributionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", contributionID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fundme.ErrNotFound
		}
		return nil, err
	}
	return fromContributionModel(m)
}

func (s *Store) ListContributions(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Contribution, error) {
	var models []contributionModel
	q := s.sdb.NewSelect(&models).Where("ledger_id = ?", ledgerID.String())

	if !opts.Contributor.IsZero() {
		q = q.Where("contributor = ?", opts.Contributor.String())
	}
	if !opts.Since.IsZero() {
		q = q.Where("created_at >= ?", opts.Since.UTC())
	}
	q = page(q, opts)
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.sdb.NewInsert(toWithdrawalModel(w)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundme/sqlite: record withdrawal: %w", err)
	}
	return insertedOne(res)
}

func (s *Store) ListWithdrawals(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Withdrawal, error) {
	var models []withdrawalModel
	q := s.sdb.NewSelect(&models).Where("ledger_id = ?", ledgerID.String())

	if !opts.Contributor.IsZero() {
		q = q.Where("owner = ?", opts.Contributor.String())
	}
	if !opts.Since.IsZero() {
		q = q.Where("created_at >= ?", opts.Since.UTC())
	}
	q = page(q, opts)
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// page applies opts' window. SQLite rejects OFFSET without LIMIT.
func page(q *sqlitedriver.SelectQuery, opts receipt.ListOpts) *sqlitedriver.SelectQuery {
	switch {
	case opts.Limit > 0:
		q = q.Limit(opts.Limit)
	case opts.Offset > 0:
		q = q.Limit(math.MaxInt)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	return q
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func insertedOne(res rowsAffecter) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fundme.ErrAlreadyExists
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
