// Package store defines the unified storage interface for the receipt
// journal. Backends live in sub-packages.
package store

import (
	"context"

	"github.com/xraph/fundme/receipt"
)

// Store persists receipts and manages its own schema and connection.
type Store interface {
	receipt.Store

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
