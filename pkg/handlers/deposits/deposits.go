package deposits

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/api"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/mapping"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/reconcile"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

// Amount bounds for a single deposit, in cents.
const (
	minDepositCents = 1 * 100
	maxDepositCents = 100_000 * 100
)

// DepositsHandler holds the dependencies for deposit-related handlers.
type DepositsHandler struct {
	Store           storage.ApiStore
	Provider        provider.Client
	Settler         reconcile.Settler
	CallbackBaseURL string
	// PollStaleness controls when a status poll performs a live provider
	// query instead of serving stored state.
	PollStaleness time.Duration
}

// NewDepositsHandler creates a new DepositsHandler.
func NewDepositsHandler(store storage.ApiStore, providerClient provider.Client, settler reconcile.Settler, callbackBaseURL string, pollStaleness time.Duration) *DepositsHandler {
	return &DepositsHandler{
		Store:           store,
		Provider:        providerClient,
		Settler:         settler,
		CallbackBaseURL: callbackBaseURL,
		PollStaleness:   pollStaleness,
	}
}

// CreateDeposit handles POST /deposits: validates the request, obtains a
// deposit address from the provider, and persists a PENDING record.
func (h *DepositsHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	var newDep api.NewDeposit
	if err := json.NewDecoder(r.Body).Decode(&newDep); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	// Validation happens before any provider call: a bad amount or ticker
	// must never reach the external processor.
	amountCents := mapping.AmountToCents(newDep.Amount)
	if amountCents < minDepositCents || amountCents > maxDepositCents {
		http.Error(w, "Amount must be between 1 and 100000", http.StatusBadRequest)
		return
	}

	ticker, err := models.ParseTicker(newDep.Ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.Store.GetAccount(r.Context(), userID, newDep.TradingAccountId)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			http.Error(w, "Trading account not found or not owned by caller", http.StatusForbidden)
		} else {
			http.Error(w, fmt.Sprintf("Failed to verify trading account: %v", err), http.StatusInternalServerError)
		}
		return
	}
	if !account.Type.AcceptsDeposits() {
		http.Error(w, "Trading account does not accept deposits", http.StatusUnprocessableEntity)
		return
	}

	// Fresh correlation token per attempt; it is embedded in the callback
	// URL the provider will hit.
	token := uuid.New().String()

	addr, err := h.Provider.CreateAddress(r.Context(), provider.CreateAddressRequest{
		Token:       token,
		Ticker:      string(ticker),
		AmountCents: amountCents,
		Currency:    account.Currency,
		CallbackURL: fmt.Sprintf("%s/callbacks/deposits/%s", h.CallbackBaseURL, token),
	})
	if err != nil {
		slog.Error("provider address creation failed", "token", token, "error", err)
		http.Error(w, "Payment provider is unavailable", http.StatusBadGateway)
		return
	}

	dep := &models.Deposit{
		UserId:            userID,
		AccountId:         account.Id,
		Token:             token,
		AmountCents:       amountCents,
		Currency:          account.Currency,
		Ticker:            ticker,
		Address:           addr.Address,
		QRCode:            addr.QRCode,
		ProviderPaymentId: addr.PaymentId,
		ProviderMeta:      addr.Raw,
	}

	createdDep, err := h.Store.CreateDeposit(r.Context(), dep)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create deposit: %v", err), http.StatusInternalServerError)
		return
	}

	id, _ := uuid.Parse(createdDep.Id)
	resp := api.CreatedDeposit{
		DepositId:     id,
		Address:       createdDep.Address,
		QrCode:        createdDep.QRCode,
		TransactionId: createdDep.Token,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetDepositStatus handles GET /deposits/{id}/status. When the stored record
// is non-terminal and stale, it performs a live provider query and funnels
// any observed settlement through the shared settlement attempt, so a poll
// can never double-credit a deposit a webhook is settling concurrently.
func (h *DepositsHandler) GetDepositStatus(w http.ResponseWriter, r *http.Request, depositID string) {
	dep, err := h.Store.GetDeposit(r.Context(), depositID)
	if err != nil {
		if errors.Is(err, storage.ErrDepositNotFound) {
			http.Error(w, "Deposit not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve deposit: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if h.shouldQueryProvider(dep) {
		status, err := h.Provider.GetPaymentStatus(r.Context(), dep.ProviderPaymentId)
		if err != nil {
			// Serve stored state; the webhook path or the next poll will
			// catch up.
			slog.Warn("live provider query failed", "deposit_id", dep.Id, "error", err)
		} else {
			if _, err := h.Settler.AttemptSettlement(r.Context(), dep, *status); err != nil {
				slog.Error("settlement attempt from poll failed", "deposit_id", dep.Id, "error", err)
			}
			// Re-read so the response reflects whatever the attempt did.
			if refreshed, err := h.Store.GetDeposit(r.Context(), depositID); err == nil {
				dep = refreshed
			}
		}
	}

	resp := mapping.ToApiDepositStatus(dep)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// shouldQueryProvider reports whether a poll should hit the provider rather
// than serve stored state.
func (h *DepositsHandler) shouldQueryProvider(dep *models.Deposit) bool {
	if dep.Status.IsTerminal() || dep.ProviderPaymentId == "" {
		return false
	}
	return time.Since(dep.UpdatedAt) >= h.PollStaleness
}

// GetDepositById handles GET /deposits/{id}.
func (h *DepositsHandler) GetDepositById(w http.ResponseWriter, r *http.Request, depositID string) {
	dep, err := h.Store.GetDeposit(r.Context(), depositID)
	if err != nil {
		if errors.Is(err, storage.ErrDepositNotFound) {
			http.Error(w, "Deposit not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve deposit: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if userID := r.Header.Get("X-User-Id"); userID != "" && dep.UserId != userID {
		http.Error(w, "Deposit not found", http.StatusNotFound)
		return
	}

	apiDep := mapping.ToApiDeposit(dep)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiDep); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListDeposits handles GET /deposits for the requesting user.
func (h *DepositsHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	domainDeps, err := h.Store.ListDepositsByUserID(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve deposits: %v", err), http.StatusInternalServerError)
		return
	}

	apiDeps := make([]*api.Deposit, len(domainDeps))
	for i, dep := range domainDeps {
		apiDeps[i] = mapping.ToApiDeposit(&dep)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiDeps); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// CancelDepositById handles POST /deposits/{id}/cancel.
func (h *DepositsHandler) CancelDepositById(w http.ResponseWriter, r *http.Request, depositID string) {
	err := h.Store.CancelDeposit(r.Context(), depositID)
	if err != nil {
		if errors.Is(err, storage.ErrDepositNotCancellable) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, storage.ErrDepositNotFound) {
			http.Error(w, "Deposit not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to cancel deposit: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
