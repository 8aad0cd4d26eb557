package mapping

import (
	"math"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/api"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// ToApiStatus converts a domain status to its client-facing form. The
// internal CREDITING lock state is presented as "processing"; clients only
// ever see the canonical lifecycle.
func ToApiStatus(s models.DepositStatus) api.DepositStatus {
	switch s {
	case models.PENDING:
		return api.DepositStatusPending
	case models.PROCESSING, models.CREDITING:
		return api.DepositStatusProcessing
	case models.COMPLETED:
		return api.DepositStatusCompleted
	case models.FAILED:
		return api.DepositStatusFailed
	case models.CANCELLED:
		return api.DepositStatusCancelled
	}
	return api.DepositStatusPending
}

// ToApiDeposit converts a domain Deposit to the API representation.
func ToApiDeposit(d *models.Deposit) *api.Deposit {
	id, _ := uuid.Parse(d.Id)
	return &api.Deposit{
		Id:            openapi_types.UUID(id),
		AccountId:     d.AccountId,
		Amount:        CentsToAmount(d.AmountCents),
		Currency:      d.Currency,
		Ticker:        string(d.Ticker),
		Address:       d.Address,
		Status:        ToApiStatus(d.Status),
		Confirmations: d.Confirmations,
		PaidAmount:    d.PaidAmount,
		CreatedAt:     d.CreatedAt,
		CompletedAt:   d.CompletedAt,
	}
}

// ToApiDepositStatus builds the poll response. The completed flag is derived
// here rather than stored, so there is a single canonical status field.
func ToApiDepositStatus(d *models.Deposit) *api.DepositStatusResponse {
	return &api.DepositStatusResponse{
		Status:        ToApiStatus(d.Status),
		Confirmations: d.Confirmations,
		Completed:     d.Status == models.COMPLETED,
	}
}

// ToApiTradingAccount converts a domain TradingAccount to the API representation.
func ToApiTradingAccount(a *models.TradingAccount) *api.TradingAccount {
	return &api.TradingAccount{
		Id:         a.Id,
		UserId:     a.UserId,
		Type:       string(a.Type),
		Currency:   a.Currency,
		Balance:    CentsToAmount(a.BalanceCents),
		Equity:     CentsToAmount(a.EquityCents),
		FreeMargin: CentsToAmount(a.FreeMarginCents),
		CreatedAt:  a.CreatedAt,
	}
}

// ToDomainNewAccount converts an API NewTradingAccount into a domain account
// seeded with zero balances and version 1.
func ToDomainNewAccount(userID string, newAcct *api.NewTradingAccount) *models.TradingAccount {
	currency := newAcct.Currency
	if currency == "" {
		currency = "USD"
	}
	acctType := models.AccountTypeLive
	if newAcct.Type == string(models.AccountTypeDemo) {
		acctType = models.AccountTypeDemo
	}
	return &models.TradingAccount{
		UserId:    userID,
		Id:        uuid.New().String(),
		Type:      acctType,
		Currency:  currency,
		Version:   1,
		CreatedAt: time.Now(),
	}
}

// ToApiLedgerEntry converts a domain LedgerEntry to the API representation.
func ToApiLedgerEntry(entry *models.LedgerEntry) *api.LedgerEntry {
	return &api.LedgerEntry{
		EntryId:     entry.EntryID,
		DepositId:   entry.DepositID,
		AccountId:   entry.AccountID,
		Credit:      CentsToAmount(entry.CreditCents),
		Description: entry.Description,
		Timestamp:   entry.Timestamp,
	}
}

// AmountToCents converts a client-supplied fiat amount to integer cents.
func AmountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CentsToAmount converts integer cents back to a fiat amount for responses.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}
