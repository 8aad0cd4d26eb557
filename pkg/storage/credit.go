package storage

import (
	"context"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// CreditStore defines the highly-privileged interface for settling a deposit.
// The completion path involves atomic writes across multiple tables
// (Deposits, Accounts, Ledger) and must only be reached through the
// reconciler so the idempotency guard is never bypassed.
type CreditStore interface {
	// CompleteDeposit atomically transitions a non-terminal deposit to
	// COMPLETED and credits the target trading account exactly once.
	// It returns a boolean indicating whether this caller won the transition
	// (false with a nil error means another handler settled it first),
	// and an error if the settlement failed.
	CompleteDeposit(ctx context.Context, dep *models.Deposit, confirmations int32, paidAmount string) (bool, error)

	// FailDeposit transitions a non-terminal deposit to FAILED.
	// Returns ErrDepositTerminal if the deposit already reached a terminal state.
	FailDeposit(ctx context.Context, depositID string) error

	// UpdateDepositProgress records confirmations and paid amount on a
	// non-terminal deposit, advancing PENDING to PROCESSING.
	// Returns ErrDepositTerminal if the deposit already reached a terminal state.
	UpdateDepositProgress(ctx context.Context, depositID string, confirmations int32, paidAmount string) error

	// ReleaseCreditLock returns a deposit from CREDITING to PROCESSING so a
	// later provider signal can retry the settlement.
	ReleaseCreditLock(ctx context.Context, depositID string) error
}

// NotificationStore records downstream notification delivery on a deposit.
type NotificationStore interface {
	// MarkDepositNotified stamps the time the settlement notification for a
	// deposit was delivered.
	MarkDepositNotified(ctx context.Context, depositID string) error
}
