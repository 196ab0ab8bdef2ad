// Package postgres implements the fundme journal on PostgreSQL via Grove.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the pg migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/id"
	"github.com/xraph/fundme/receipt"
	fundmestore "github.com/xraph/fundme/store"
)

// compile-time interface check
var _ fundmestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("fundme/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("fundme/postgres: migration failed: %w", err)
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
	res, err := s.pg.NewInsert(toContributionModel(c)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundme/postgres: record contribution: %w", err)
	}
	return insertedOne(res)
}

func (s *Store) GetContribution(ctx context.Context, contributionID id.ContributionID) (*receipt.Contribution, error) {
	m := new(contributionModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", contributionID.String()).
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
	q := s.pg.NewSelect(&models).Where("ledger_id = $1", ledgerID.String())

	argIdx := 1
	if !opts.Contributor.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("contributor = $%d", argIdx), opts.Contributor.String())
	}
	if !opts.Since.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("created_at >= $%d", argIdx), opts.Since)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
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
	res, err := s.pg.NewInsert(toWithdrawalModel(w)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("fundme/postgres: record withdrawal: %w", err)
	}
	return insertedOne(res)
}

func (s *Store) ListWithdrawals(ctx context.Context, ledgerID id.LedgerID, opts receipt.ListOpts) ([]*receipt.Withdrawal, error) {
	var models []withdrawalModel
	q := s.pg.NewSelect(&models).Where("ledger_id = $1", ledgerID.String())

	argIdx := 1
	if !opts.Contributor.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("owner = $%d", argIdx), opts.Contributor.String())
	}
	if !opts.Since.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("created_at >= $%d", argIdx), opts.Since)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
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
