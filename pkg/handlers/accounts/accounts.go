package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/api"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/mapping"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
)

// AccountsHandler holds the dependencies for trading-account handlers.
type AccountsHandler struct {
	Store storage.AccountStore
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(store storage.AccountStore) *AccountsHandler {
	return &AccountsHandler{Store: store}
}

// CreateAccount handles POST /accounts.
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing X-User-Id header", http.StatusUnauthorized)
		return
	}

	var newAcct api.NewTradingAccount
	if err := json.NewDecoder(r.Body).Decode(&newAcct); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if newAcct.Type != string(models.AccountTypeLive) && newAcct.Type != string(models.AccountTypeDemo) {
		http.Error(w, fmt.Sprintf("Unknown account type %q", newAcct.Type), http.StatusBadRequest)
		return
	}

	domainAcct := mapping.ToDomainNewAccount(userID, &newAcct)

	createdAcct, err := h.Store.CreateAccount(r.Context(), domainAcct)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") { // This is a simplistic check.
			http.Error(w, "Account already exists", http.StatusConflict)
		} else {
			http.Error(w, fmt.Sprintf("Failed to create account: %v", err), http.StatusInternalServerError)
		}
		return
	}

	apiAcct := mapping.ToApiTradingAccount(createdAcct)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(apiAcct); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetAccountById handles GET /accounts/{userId}/{accountId}.
func (h *AccountsHandler) GetAccountById(w http.ResponseWriter, r *http.Request, userID, accountID string) {
	domainAcct, err := h.Store.GetAccount(r.Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve account: %v", err), http.StatusInternalServerError)
		}
		return
	}

	apiAcct := mapping.ToApiTradingAccount(domainAcct)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiAcct); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListAccountsByUserId handles GET /accounts/{userId}.
func (h *AccountsHandler) ListAccountsByUserId(w http.ResponseWriter, r *http.Request, userID string) {
	domainAccts, err := h.Store.ListAccountsByUserID(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve accounts: %v", err), http.StatusInternalServerError)
		return
	}

	apiAccts := make([]*api.TradingAccount, len(domainAccts))
	for i, acct := range domainAccts {
		apiAccts[i] = mapping.ToApiTradingAccount(&acct)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiAccts); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
