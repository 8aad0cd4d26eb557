// Package webhooks ingests provider callbacks. The handler's contract with
// the provider is strict: once an event is durably recorded, the response is
// always a 2xx, because anything else triggers aggressive provider retries
// that can mask a real bug behind a retry storm.
package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/reconcile"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

const maxPayloadBytes = 64 << 10

// WebhooksHandler holds the dependencies for the provider callback handler.
type WebhooksHandler struct {
	Deposits storage.DepositReader
	Events   storage.WebhookEventStore
	Settler  reconcile.Settler
	Logger   *slog.Logger
}

// NewWebhooksHandler creates a new WebhooksHandler.
func NewWebhooksHandler(deposits storage.DepositReader, events storage.WebhookEventStore, settler reconcile.Settler, logger *slog.Logger) *WebhooksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhooksHandler{Deposits: deposits, Events: events, Settler: settler, Logger: logger}
}

// callbackPayload is the set of fields consumed from a provider callback.
type callbackPayload struct {
	Status        string `json:"status"`
	Confirmations int32  `json:"confirmations"`
	PaidAmount    string `json:"paid_amount"`
}

// HandleDepositCallback processes one inbound provider callback for the
// correlation token in the URL. Both POST (JSON body) and GET (query params)
// deliveries are accepted.
func (h *WebhooksHandler) HandleDepositCallback(w http.ResponseWriter, r *http.Request, token string) {
	payload, raw, err := parseCallback(r)
	if err != nil {
		// A payload we cannot parse is a client error, not something a
		// retry will fix, but it is also not worth a retry storm.
		h.Logger.Warn("unparseable provider callback", "token", token, "error", err)
		acknowledge(w)
		return
	}

	// 1. Durably record the delivery. The event ID is the token plus a
	// payload fingerprint, so an exact replay maps to the same row.
	event := &models.WebhookEvent{
		EventId: fmt.Sprintf("%s:%s", token, fingerprint(raw)),
		Token:   token,
		Payload: string(raw),
	}
	if err := h.Events.RecordWebhookEvent(r.Context(), event); err != nil {
		if errors.Is(err, storage.ErrDuplicateWebhookEvent) {
			h.Logger.Info("duplicate webhook delivery acknowledged", "token", token, "event_id", event.EventId)
			acknowledge(w)
			return
		}
		// The event is not durably recorded yet, so a non-2xx is correct
		// here: the provider will retry and the next attempt can record it.
		h.Logger.Error("failed to record webhook event", "token", token, "error", err)
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	// 2. Match the callback to a deposit. Unknown tokens are logged and
	// acknowledged; erroring would only provoke provider retries.
	dep, err := h.Deposits.GetDepositByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, storage.ErrDepositNotFound) {
			h.Logger.Warn("webhook references unknown correlation token", "token", token)
			h.markProcessed(r.Context(), event.EventId, nil)
			acknowledge(w)
			return
		}
		h.Logger.Error("failed to look up deposit for webhook", "token", token, "error", err)
		h.markProcessed(r.Context(), event.EventId, err)
		acknowledge(w)
		return
	}

	// 3. Funnel the signal through the shared settlement attempt. Terminal
	// records, lost races and duplicate signals are all absorbed there.
	outcome, settleErr := h.Settler.AttemptSettlement(r.Context(), dep, provider.PaymentStatus{
		Status:        payload.Status,
		Confirmations: payload.Confirmations,
		PaidAmount:    payload.PaidAmount,
	})
	if settleErr != nil {
		h.Logger.Error("webhook settlement attempt failed", "deposit_id", dep.Id, "error", settleErr)
	} else {
		h.Logger.Info("webhook processed", "deposit_id", dep.Id, "outcome", outcome)
	}

	// 4. Mark the event processed regardless of outcome, recording any error.
	h.markProcessed(r.Context(), event.EventId, settleErr)

	// The event is durably recorded; always acknowledge so the provider
	// stops retrying. A failed settlement is recovered by the poll path or
	// the next (distinct) callback.
	acknowledge(w)
}

// markProcessed updates the dedup row. Failures here are log-only: the event
// itself is already durable and the provider must still see an acknowledgement.
func (h *WebhooksHandler) markProcessed(ctx context.Context, eventID string, processingErr error) {
	if err := h.Events.MarkWebhookEventProcessed(ctx, eventID, processingErr); err != nil {
		h.Logger.Error("failed to mark webhook event processed", "event_id", eventID, "error", err)
	}
}

func parseCallback(r *http.Request) (*callbackPayload, []byte, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		confirmations, err := strconv.ParseInt(q.Get("confirmations"), 10, 32)
		if err != nil && q.Get("confirmations") != "" {
			return nil, nil, fmt.Errorf("invalid confirmations %q", q.Get("confirmations"))
		}
		payload := &callbackPayload{
			Status:        q.Get("status"),
			Confirmations: int32(confirmations),
			PaidAmount:    q.Get("paid_amount"),
		}
		return payload, []byte(r.URL.RawQuery), nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read callback body: %w", err)
	}

	var payload callbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("decode callback body: %w", err)
	}
	return &payload, raw, nil
}

// fingerprint returns a short payload digest used to build the dedup key.
func fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
