package models

import (
	"fmt"
	"strings"
	"time"
)

// DepositStatus defines the possible states of a deposit request.
type DepositStatus string

const (
	// PENDING means an address has been issued and we are awaiting payment.
	PENDING DepositStatus = "PENDING"
	// PROCESSING means the provider has observed an incoming transaction and
	// confirmations are accumulating.
	PROCESSING DepositStatus = "PROCESSING"
	// CREDITING is the internal lock state held while the credit is applied.
	// It is never exposed to API clients; they see it as PROCESSING.
	CREDITING DepositStatus = "CREDITING"
	// COMPLETED means the account has been credited. Terminal.
	COMPLETED DepositStatus = "COMPLETED"
	// FAILED means the provider reported an error or expiry. Terminal.
	FAILED DepositStatus = "FAILED"
	// CANCELLED means an operator cancelled the deposit before payment. Terminal.
	CANCELLED DepositStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition out of the status is permitted.
func (s DepositStatus) IsTerminal() bool {
	switch s {
	case COMPLETED, FAILED, CANCELLED:
		return true
	}
	return false
}

// Ticker identifies the coin/network pair a deposit is paid on.
type Ticker string

const (
	TickerBEP20USDT Ticker = "bep20/usdt"
	TickerTRC20USDT Ticker = "trc20/usdt"
	TickerERC20USDT Ticker = "erc20/usdt"
)

// ParseTicker validates a client-supplied ticker against the supported set.
func ParseTicker(s string) (Ticker, error) {
	switch t := Ticker(strings.ToLower(s)); t {
	case TickerBEP20USDT, TickerTRC20USDT, TickerERC20USDT:
		return t, nil
	}
	return "", fmt.Errorf("unsupported ticker %q", s)
}

// AccountType defines the kind of trading account.
type AccountType string

const (
	AccountTypeLive AccountType = "LIVE"
	AccountTypeDemo AccountType = "DEMO"
)

// AcceptsDeposits reports whether real funds may be credited to the account type.
func (t AccountType) AcceptsDeposits() bool {
	return t == AccountTypeLive
}

// Deposit represents the internal domain model for one deposit request.
// It is a financial audit record and is never deleted.
type Deposit struct {
	Id                string        `dynamodbav:"id"`
	UserId            string        `dynamodbav:"user_id"`
	AccountId         string        `dynamodbav:"account_id"`
	Token             string        `dynamodbav:"token"`
	AmountCents       int64         `dynamodbav:"amount_cents"`
	Currency          string        `dynamodbav:"currency"`
	Ticker            Ticker        `dynamodbav:"ticker"`
	Address           string        `dynamodbav:"address"`
	QRCode            string        `dynamodbav:"qr_code,omitempty"`
	ProviderPaymentId string        `dynamodbav:"provider_payment_id"`
	ProviderMeta      string        `dynamodbav:"provider_meta,omitempty"`
	Status            DepositStatus `dynamodbav:"status"`
	Confirmations     int32         `dynamodbav:"confirmations"`
	PaidAmount        string        `dynamodbav:"paid_amount,omitempty"`
	CreatedAt         time.Time     `dynamodbav:"created_at"`
	UpdatedAt         time.Time     `dynamodbav:"updated_at"`
	ProcessedAt       *time.Time    `dynamodbav:"processed_at,omitempty"`
	CompletedAt       *time.Time    `dynamodbav:"completed_at,omitempty"`
	NotifiedAt        *time.Time    `dynamodbav:"notified_at,omitempty"`
}

// TradingAccount represents the internal domain model for a user's trading account.
// Balance fields are in cents; Version is an optimistic lock counter.
type TradingAccount struct {
	UserId          string      `json:"user_id" dynamodbav:"user_id"`
	Id              string      `json:"id" dynamodbav:"id"`
	Type            AccountType `json:"type" dynamodbav:"type"`
	Currency        string      `json:"currency" dynamodbav:"currency"`
	BalanceCents    int64       `json:"balance_cents" dynamodbav:"balance_cents"`
	EquityCents     int64       `json:"equity_cents" dynamodbav:"equity_cents"`
	FreeMarginCents int64       `json:"free_margin_cents" dynamodbav:"free_margin_cents"`
	Version         int64       `json:"version" dynamodbav:"version"`
	CreatedAt       time.Time   `json:"created_at" dynamodbav:"created_at"`
}

// WebhookEvent is the dedup ledger record for one inbound provider callback.
// EventId is the correlation token joined with a payload fingerprint, so an
// exact replay maps to the same row.
type WebhookEvent struct {
	EventId         string     `dynamodbav:"event_id"`
	Token           string     `dynamodbav:"token"`
	Payload         string     `dynamodbav:"payload"`
	Processed       bool       `dynamodbav:"processed"`
	ProcessedAt     *time.Time `dynamodbav:"processed_at,omitempty"`
	ProcessingError string     `dynamodbav:"processing_error,omitempty"`
	ReceivedAt      time.Time  `dynamodbav:"received_at"`
}

// LedgerEntry represents a single audit entry written when a deposit is credited.
type LedgerEntry struct {
	EntryID     string    `dynamodbav:"entry_id"`
	DepositID   string    `dynamodbav:"deposit_id"`
	AccountID   string    `dynamodbav:"account_id"`
	CreditCents int64     `dynamodbav:"credit_cents"`
	Description string    `dynamodbav:"description"`
	Timestamp   time.Time `dynamodbav:"timestamp"`
	GSI1PK      string    `dynamodbav:"gsi1pk"`
}
