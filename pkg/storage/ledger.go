package storage

import (
	"context"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// LedgerReader defines the interface for reading credit audit entries.
type LedgerReader interface {
	// ListLedgerEntries retrieves the most recent ledger entries.
	ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error)
}
