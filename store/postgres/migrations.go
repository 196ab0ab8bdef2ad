package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the fundme journal.
var Migrations = migrate.NewGroup("fundme")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_fundme_contributions",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundme_contributions (
    id             TEXT PRIMARY KEY,
    ledger_id      TEXT NOT NULL,
    contributor    TEXT NOT NULL,
    amount         TEXT NOT NULL,
    usd_value      TEXT NOT NULL,
    price          TEXT NOT NULL,
    price_decimals INT NOT NULL DEFAULT 0,
    round_id       BIGINT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fundme_contributions_ledger ON fundme_contributions (ledger_id, created_at);
CREATE INDEX IF NOT EXISTS idx_fundme_contributions_contributor ON fundme_contributions (ledger_id, contributor);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundme_contributions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_fundme_withdrawals",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fundme_withdrawals (
    id         TEXT PRIMARY KEY,
    ledger_id  TEXT NOT NULL,
    owner      TEXT NOT NULL,
    amount     TEXT NOT NULL,
    funders    INT NOT NULL DEFAULT 0,
    variant    TEXT NOT NULL DEFAULT 'standard',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fundme_withdrawals_ledger ON fundme_withdrawals (ledger_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS fundme_withdrawals`)
				return err
			},
		},
	)
}
