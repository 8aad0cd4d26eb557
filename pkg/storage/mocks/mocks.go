// Package mocks provides testify doubles for the storage interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
)

// ApiStore is a mock implementation of storage.ApiStore.
type ApiStore struct {
	mock.Mock
}

func (m *ApiStore) GetDeposit(ctx context.Context, depositID string) (*models.Deposit, error) {
	args := m.Called(ctx, depositID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *ApiStore) GetDepositByToken(ctx context.Context, token string) (*models.Deposit, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *ApiStore) ListDepositsByUserID(ctx context.Context, userID string) ([]models.Deposit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deposit), args.Error(1)
}

func (m *ApiStore) GetStuckDeposits(ctx context.Context, maxAge time.Duration) ([]models.Deposit, error) {
	args := m.Called(ctx, maxAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deposit), args.Error(1)
}

func (m *ApiStore) CreateDeposit(ctx context.Context, newDep *models.Deposit) (*models.Deposit, error) {
	args := m.Called(ctx, newDep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *ApiStore) CancelDeposit(ctx context.Context, depositID string) error {
	args := m.Called(ctx, depositID)
	return args.Error(0)
}

func (m *ApiStore) GetAccount(ctx context.Context, userID, accountID string) (*models.TradingAccount, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradingAccount), args.Error(1)
}

func (m *ApiStore) CreateAccount(ctx context.Context, account *models.TradingAccount) (*models.TradingAccount, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TradingAccount), args.Error(1)
}

func (m *ApiStore) ListAccountsByUserID(ctx context.Context, userID string) ([]models.TradingAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TradingAccount), args.Error(1)
}

func (m *ApiStore) ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

// CreditStore is a mock implementation of storage.CreditStore.
type CreditStore struct {
	mock.Mock
}

func (m *CreditStore) CompleteDeposit(ctx context.Context, dep *models.Deposit, confirmations int32, paidAmount string) (bool, error) {
	args := m.Called(ctx, dep, confirmations, paidAmount)
	return args.Bool(0), args.Error(1)
}

func (m *CreditStore) FailDeposit(ctx context.Context, depositID string) error {
	args := m.Called(ctx, depositID)
	return args.Error(0)
}

func (m *CreditStore) UpdateDepositProgress(ctx context.Context, depositID string, confirmations int32, paidAmount string) error {
	args := m.Called(ctx, depositID, confirmations, paidAmount)
	return args.Error(0)
}

func (m *CreditStore) ReleaseCreditLock(ctx context.Context, depositID string) error {
	args := m.Called(ctx, depositID)
	return args.Error(0)
}

// WebhookEventStore is a mock implementation of storage.WebhookEventStore.
type WebhookEventStore struct {
	mock.Mock
}

func (m *WebhookEventStore) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *WebhookEventStore) MarkWebhookEventProcessed(ctx context.Context, eventID string, processingErr error) error {
	args := m.Called(ctx, eventID, processingErr)
	return args.Error(0)
}
