// Package notify publishes settlement events for downstream consumers
// (client push, email, back-office) once a deposit has been credited.
package notify

import (
	"context"
	"time"
)

// SettlementEvent is the message published after a deposit credit commits.
type SettlementEvent struct {
	DepositId   string    `json:"deposit_id"`
	AccountId   string    `json:"account_id"`
	UserId      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher defines the interface for publishing settlement events.
type Publisher interface {
	PublishSettlement(ctx context.Context, event *SettlementEvent) error
}
