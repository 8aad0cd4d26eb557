// Package api holds the wire-level request and response types served by the
// HTTP handlers. They are kept separate from the domain models so storage
// concerns never leak into the public contract.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// DepositStatus is the client-facing status enum. The internal CREDITING
// lock state is folded into "processing" at the mapping boundary.
type DepositStatus string

const (
	DepositStatusPending    DepositStatus = "pending"
	DepositStatusProcessing DepositStatus = "processing"
	DepositStatusCompleted  DepositStatus = "completed"
	DepositStatusFailed     DepositStatus = "failed"
	DepositStatusCancelled  DepositStatus = "cancelled"
)

// NewDeposit is the body of POST /deposits. Amount is in fiat units.
type NewDeposit struct {
	TradingAccountId string  `json:"tradingAccountId"`
	Amount           float64 `json:"amount"`
	Ticker           string  `json:"ticker"`
}

// CreatedDeposit is the response to a successful deposit creation.
// TransactionId is the correlation token embedded in the provider callback URL.
type CreatedDeposit struct {
	DepositId     openapi_types.UUID `json:"depositId"`
	Address       string             `json:"address"`
	QrCode        string             `json:"qrCode,omitempty"`
	TransactionId string             `json:"transactionId"`
}

// Deposit is the full client-facing view of a deposit record.
type Deposit struct {
	Id            openapi_types.UUID `json:"id"`
	AccountId     string             `json:"accountId"`
	Amount        float64            `json:"amount"`
	Currency      string             `json:"currency"`
	Ticker        string             `json:"ticker"`
	Address       string             `json:"address"`
	Status        DepositStatus      `json:"status"`
	Confirmations int32              `json:"confirmations"`
	PaidAmount    string             `json:"paidAmount,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
}

// DepositStatusResponse answers GET /deposits/{id}/status. Completed is
// derived so pollers can stop on any terminal outcome observation.
type DepositStatusResponse struct {
	Status        DepositStatus `json:"status"`
	Confirmations int32         `json:"confirmations"`
	Completed     bool          `json:"completed"`
}

// NewTradingAccount is the body of POST /accounts.
type NewTradingAccount struct {
	Type     string `json:"type"`
	Currency string `json:"currency,omitempty"`
}

// TradingAccount is the client-facing view of a trading account.
type TradingAccount struct {
	Id         string    `json:"id"`
	UserId     string    `json:"userId"`
	Type       string    `json:"type"`
	Currency   string    `json:"currency"`
	Balance    float64   `json:"balance"`
	Equity     float64   `json:"equity"`
	FreeMargin float64   `json:"freeMargin"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LedgerEntry is the client-facing view of a credit audit entry.
type LedgerEntry struct {
	EntryId     string    `json:"entryId"`
	DepositId   string    `json:"depositId"`
	AccountId   string    `json:"accountId"`
	Credit      float64   `json:"credit"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
