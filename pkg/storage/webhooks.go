package storage

import (
	"context"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// WebhookEventStore defines the interface for the webhook dedup ledger.
type WebhookEventStore interface {
	// RecordWebhookEvent durably records an inbound callback before any
	// processing happens. It returns ErrDuplicateWebhookEvent if an event
	// with the same ID (token + payload fingerprint) was already recorded.
	RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) error

	// MarkWebhookEventProcessed flips the event's processed flag, recording
	// any error encountered while acting on it.
	MarkWebhookEventProcessed(ctx context.Context, eventID string, processingErr error) error
}
