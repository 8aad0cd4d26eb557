package storage

import (
	"context"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// AccountStore defines the interface for managing trading accounts.
type AccountStore interface {
	// GetAccount retrieves one of a user's trading accounts. Looking up the
	// account under the owner's partition key is what enforces ownership.
	GetAccount(ctx context.Context, userID, accountID string) (*models.TradingAccount, error)

	// CreateAccount creates a new trading account for a user.
	CreateAccount(ctx context.Context, account *models.TradingAccount) (*models.TradingAccount, error)

	// ListAccountsByUserID retrieves all trading accounts owned by a user.
	ListAccountsByUserID(ctx context.Context, userID string) ([]models.TradingAccount, error)
}
