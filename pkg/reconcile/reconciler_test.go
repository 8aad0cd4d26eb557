package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/notify"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage/mocks"
)

// mockPublisher is a testify mock for notify.Publisher.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSettlement(ctx context.Context, event *notify.SettlementEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestAttemptSettlement(t *testing.T) {
	newDep := func(status models.DepositStatus) *models.Deposit {
		return &models.Deposit{
			Id:          "dep1",
			UserId:      "user1",
			AccountId:   "acct1",
			AmountCents: 10000,
			Currency:    "USD",
			Status:      status,
		}
	}

	t.Run("Settled Payment Credits Once And Publishes", func(t *testing.T) {
		store := new(mocks.CreditStore)
		publisher := new(mockPublisher)
		r := New(store, publisher, 1, nil)

		store.On("CompleteDeposit", mock.Anything, mock.Anything, int32(2), "99.95").Return(true, nil).Once()
		publisher.On("PublishSettlement", mock.Anything, mock.MatchedBy(func(e *notify.SettlementEvent) bool {
			return e.DepositId == "dep1" && e.AmountCents == 10000
		})).Return(nil).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PROCESSING), provider.PaymentStatus{
			Status: provider.StatusCompleted, Confirmations: 2, PaidAmount: "99.95",
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeCredited, outcome)
		store.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("Lost Race Reports Already Settled", func(t *testing.T) {
		store := new(mocks.CreditStore)
		publisher := new(mockPublisher)
		r := New(store, publisher, 1, nil)

		store.On("CompleteDeposit", mock.Anything, mock.Anything, int32(2), "99.95").Return(false, nil).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PROCESSING), provider.PaymentStatus{
			Status: provider.StatusCompleted, Confirmations: 2, PaidAmount: "99.95",
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeAlreadySettled, outcome)
		publisher.AssertNotCalled(t, "PublishSettlement", mock.Anything, mock.Anything)
	})

	t.Run("Terminal Deposit Is Never Touched", func(t *testing.T) {
		store := new(mocks.CreditStore)
		r := New(store, nil, 1, nil)

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.COMPLETED), provider.PaymentStatus{
			Status: provider.StatusCompleted, Confirmations: 5, PaidAmount: "99.95",
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeAlreadySettled, outcome)
		store.AssertNotCalled(t, "CompleteDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "UpdateDepositProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Below Confirmation Threshold Records Progress", func(t *testing.T) {
		store := new(mocks.CreditStore)
		r := New(store, nil, 3, nil)

		store.On("UpdateDepositProgress", mock.Anything, "dep1", int32(1), "50.00").Return(nil).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PENDING), provider.PaymentStatus{
			Status: provider.StatusConfirming, Confirmations: 1, PaidAmount: "50.00",
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeProgress, outcome)
		store.AssertNotCalled(t, "CompleteDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Settled But Unconfirmed Records Progress", func(t *testing.T) {
		store := new(mocks.CreditStore)
		r := New(store, nil, 3, nil)

		store.On("UpdateDepositProgress", mock.Anything, "dep1", int32(2), "99.95").Return(nil).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PROCESSING), provider.PaymentStatus{
			Status: provider.StatusCompleted, Confirmations: 2, PaidAmount: "99.95",
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeProgress, outcome)
	})

	t.Run("Provider Failure Fails Deposit", func(t *testing.T) {
		store := new(mocks.CreditStore)
		r := New(store, nil, 1, nil)

		store.On("FailDeposit", mock.Anything, "dep1").Return(nil).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PENDING), provider.PaymentStatus{
			Status: provider.StatusExpired,
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeFailed, outcome)
		store.AssertExpectations(t)
	})

	t.Run("Failure After Settlement Reports Already Settled", func(t *testing.T) {
		store := new(mocks.CreditStore)
		r := New(store, nil, 1, nil)

		store.On("FailDeposit", mock.Anything, "dep1").Return(storage.ErrDepositTerminal).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PROCESSING), provider.PaymentStatus{
			Status: provider.StatusFailed,
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeAlreadySettled, outcome)
	})

	t.Run("Publish Failure Does Not Fail Settlement", func(t *testing.T) {
		store := new(mocks.CreditStore)
		publisher := new(mockPublisher)
		r := New(store, publisher, 1, nil)

		store.On("CompleteDeposit", mock.Anything, mock.Anything, int32(1), "99.95").Return(true, nil).Once()
		publisher.On("PublishSettlement", mock.Anything, mock.Anything).Return(errors.New("queue unavailable")).Once()

		outcome, err := r.AttemptSettlement(context.Background(), newDep(models.PROCESSING), provider.PaymentStatus{
			Status: provider.StatusPaid, Confirmations: 1, PaidAmount: "99.95",
		})

		assert.NoError(t, err)
		assert.Equal(t, OutcomeCredited, outcome)
	})

	t.Run("Store Error Propagates", func(t *testing.T) {
		store := new(mocks.CreditStore)
		r := New(store, nil, 1, nil)

		store.On("CompleteDeposit", mock.Anything, mock.Anything, int32(1), "99.95").Return(false, errors.New("dynamo down")).Once()

		_, err := r.AttemptSettlement(context.Background(), newDep(models.PROCESSING), provider.PaymentStatus{
			Status: provider.StatusCompleted, Confirmations: 1, PaidAmount: "99.95",
		})

		assert.Error(t, err)
	})
}
