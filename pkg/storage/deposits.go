package storage

import (
	"context"
	"time"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// DepositReader defines the interface for reading deposit data.
type DepositReader interface {
	// GetDeposit retrieves a deposit by its ID.
	GetDeposit(ctx context.Context, depositID string) (*models.Deposit, error)

	// GetDepositByToken retrieves a deposit by its provider correlation token.
	GetDepositByToken(ctx context.Context, token string) (*models.Deposit, error)

	// ListDepositsByUserID retrieves all deposits for a specific user.
	ListDepositsByUserID(ctx context.Context, userID string) ([]models.Deposit, error)

	// GetStuckDeposits retrieves deposits that have held the CREDITING lock
	// for longer than the specified duration.
	GetStuckDeposits(ctx context.Context, maxAge time.Duration) ([]models.Deposit, error)
}

// DepositManager defines the interface for creating and managing deposits
// before settlement. This is suitable for components like the main API service.
type DepositManager interface {
	// CreateDeposit persists a new PENDING deposit and returns it.
	CreateDeposit(ctx context.Context, newDep *models.Deposit) (*models.Deposit, error)

	// CancelDeposit cancels a deposit if it's in a cancellable state.
	CancelDeposit(ctx context.Context, depositID string) error
}

// DepositStore combines the reader and manager interfaces.
type DepositStore interface {
	DepositReader
	DepositManager
}
