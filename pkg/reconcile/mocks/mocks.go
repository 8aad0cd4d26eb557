// Package mocks provides a testify double for the settlement funnel.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/reconcile"
)

// Settler is a mock implementation of reconcile.Settler.
type Settler struct {
	mock.Mock
}

func (m *Settler) AttemptSettlement(ctx context.Context, dep *models.Deposit, status provider.PaymentStatus) (reconcile.Outcome, error) {
	args := m.Called(ctx, dep, status)
	return args.Get(0).(reconcile.Outcome), args.Error(1)
}
