package deposits

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/api"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
	providermocks "github.com/brokerage-labs/deposit-reconciliation/pkg/provider/mocks"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/reconcile"
	reconcilemocks "github.com/brokerage-labs/deposit-reconciliation/pkg/reconcile/mocks"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
	storemocks "github.com/brokerage-labs/deposit-reconciliation/pkg/storage/mocks"
)

func newHandler() (*DepositsHandler, *storemocks.ApiStore, *providermocks.Client, *reconcilemocks.Settler) {
	store := new(storemocks.ApiStore)
	client := new(providermocks.Client)
	settler := new(reconcilemocks.Settler)
	h := NewDepositsHandler(store, client, settler, "https://api.example.com", 30*time.Second)
	return h, store, client, settler
}

func liveAccount() *models.TradingAccount {
	return &models.TradingAccount{
		UserId:   "user1",
		Id:       "acct1",
		Type:     models.AccountTypeLive,
		Currency: "USD",
	}
}

func createRequest(t *testing.T, body api.NewDeposit, userID string) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewReader(raw))
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	return req
}

func TestCreateDeposit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, store, client, _ := newHandler()

		store.On("GetAccount", mock.Anything, "user1", "acct1").Return(liveAccount(), nil).Once()
		client.On("CreateAddress", mock.Anything, mock.MatchedBy(func(req provider.CreateAddressRequest) bool {
			return req.AmountCents == 10000 && req.Ticker == "bep20/usdt" && req.CallbackURL == "https://api.example.com/callbacks/deposits/"+req.Token
		})).Return(&provider.CreateAddressResponse{
			Address:   "0xdeadbeef",
			QRCode:    "data:image/png;base64,abc",
			PaymentId: "pay_123",
			Raw:       `{"address":"0xdeadbeef"}`,
		}, nil).Once()
		depOut := &models.Deposit{
			Id:      uuid.New().String(),
			UserId:  "user1",
			Token:   "tok-abc",
			Address: "0xdeadbeef",
			QRCode:  "data:image/png;base64,abc",
			Status:  models.PENDING,
		}
		store.On("CreateDeposit", mock.Anything, mock.MatchedBy(func(dep *models.Deposit) bool {
			return dep.UserId == "user1" && dep.AmountCents == 10000 && dep.Address == "0xdeadbeef"
		})).Return(depOut, nil).Once()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 100, Ticker: "bep20/usdt"}, "user1"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp api.CreatedDeposit
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, depOut.Id, resp.DepositId.String())
		assert.Equal(t, "0xdeadbeef", resp.Address)
		assert.Equal(t, "tok-abc", resp.TransactionId)
		store.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("Missing Identity", func(t *testing.T) {
		h, _, client, _ := newHandler()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 100, Ticker: "bep20/usdt"}, ""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		client.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
	})

	t.Run("Amount Below Minimum", func(t *testing.T) {
		h, store, client, _ := newHandler()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 0.5, Ticker: "bep20/usdt"}, "user1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "between 1 and 100000")
		client.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "CreateDeposit", mock.Anything, mock.Anything)
	})

	t.Run("Amount Above Maximum", func(t *testing.T) {
		h, store, client, _ := newHandler()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 150000, Ticker: "bep20/usdt"}, "user1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		client.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "CreateDeposit", mock.Anything, mock.Anything)
	})

	t.Run("Unsupported Ticker", func(t *testing.T) {
		h, _, client, _ := newHandler()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 100, Ticker: "doge/doge"}, "user1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		client.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
	})

	t.Run("Account Not Owned", func(t *testing.T) {
		h, store, client, _ := newHandler()

		store.On("GetAccount", mock.Anything, "user1", "acct9").Return(nil, storage.ErrAccountNotFound).Once()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct9", Amount: 100, Ticker: "bep20/usdt"}, "user1"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		client.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
	})

	t.Run("Demo Account Rejected", func(t *testing.T) {
		h, store, client, _ := newHandler()

		demo := liveAccount()
		demo.Type = models.AccountTypeDemo
		store.On("GetAccount", mock.Anything, "user1", "acct1").Return(demo, nil).Once()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 100, Ticker: "bep20/usdt"}, "user1"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		client.AssertNotCalled(t, "CreateAddress", mock.Anything, mock.Anything)
	})

	t.Run("Provider Unavailable", func(t *testing.T) {
		h, store, client, _ := newHandler()

		store.On("GetAccount", mock.Anything, "user1", "acct1").Return(liveAccount(), nil).Once()
		client.On("CreateAddress", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

		rec := httptest.NewRecorder()
		h.CreateDeposit(rec, createRequest(t, api.NewDeposit{TradingAccountId: "acct1", Amount: 100, Ticker: "bep20/usdt"}, "user1"))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		// Nothing is persisted when the provider fails.
		store.AssertNotCalled(t, "CreateDeposit", mock.Anything, mock.Anything)
	})
}

func TestGetDepositStatus(t *testing.T) {
	t.Run("Fresh Record Serves Stored State", func(t *testing.T) {
		h, store, client, _ := newHandler()

		dep := &models.Deposit{
			Id:                "dep1",
			Status:            models.PENDING,
			ProviderPaymentId: "pay_123",
			UpdatedAt:         time.Now(),
		}
		store.On("GetDeposit", mock.Anything, "dep1").Return(dep, nil).Once()

		rec := httptest.NewRecorder()
		h.GetDepositStatus(rec, httptest.NewRequest(http.MethodGet, "/deposits/dep1/status", nil), "dep1")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.DepositStatusResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, api.DepositStatusPending, resp.Status)
		assert.False(t, resp.Completed)
		client.AssertNotCalled(t, "GetPaymentStatus", mock.Anything, mock.Anything)
	})

	t.Run("Stale Record Triggers Live Query", func(t *testing.T) {
		h, store, client, settler := newHandler()

		stale := &models.Deposit{
			Id:                "dep1",
			Status:            models.PROCESSING,
			ProviderPaymentId: "pay_123",
			UpdatedAt:         time.Now().Add(-time.Minute),
		}
		settled := &models.Deposit{
			Id:            "dep1",
			Status:        models.COMPLETED,
			Confirmations: 2,
			UpdatedAt:     time.Now(),
		}

		store.On("GetDeposit", mock.Anything, "dep1").Return(stale, nil).Once()
		client.On("GetPaymentStatus", mock.Anything, "pay_123").Return(&provider.PaymentStatus{
			Status: provider.StatusCompleted, Confirmations: 2, PaidAmount: "99.95",
		}, nil).Once()
		settler.On("AttemptSettlement", mock.Anything, stale, mock.Anything).Return(reconcile.OutcomeCredited, nil).Once()
		store.On("GetDeposit", mock.Anything, "dep1").Return(settled, nil).Once()

		rec := httptest.NewRecorder()
		h.GetDepositStatus(rec, httptest.NewRequest(http.MethodGet, "/deposits/dep1/status", nil), "dep1")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.DepositStatusResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, api.DepositStatusCompleted, resp.Status)
		assert.True(t, resp.Completed)
		settler.AssertExpectations(t)
	})

	t.Run("Terminal Record Never Queries Provider", func(t *testing.T) {
		h, store, client, _ := newHandler()

		dep := &models.Deposit{
			Id:                "dep1",
			Status:            models.COMPLETED,
			ProviderPaymentId: "pay_123",
			UpdatedAt:         time.Now().Add(-time.Hour),
		}
		store.On("GetDeposit", mock.Anything, "dep1").Return(dep, nil).Once()

		rec := httptest.NewRecorder()
		h.GetDepositStatus(rec, httptest.NewRequest(http.MethodGet, "/deposits/dep1/status", nil), "dep1")

		assert.Equal(t, http.StatusOK, rec.Code)
		client.AssertNotCalled(t, "GetPaymentStatus", mock.Anything, mock.Anything)
	})

	t.Run("Live Query Failure Serves Stored State", func(t *testing.T) {
		h, store, client, settler := newHandler()

		dep := &models.Deposit{
			Id:                "dep1",
			Status:            models.PROCESSING,
			ProviderPaymentId: "pay_123",
			UpdatedAt:         time.Now().Add(-time.Minute),
		}
		store.On("GetDeposit", mock.Anything, "dep1").Return(dep, nil).Once()
		client.On("GetPaymentStatus", mock.Anything, "pay_123").Return(nil, assert.AnError).Once()

		rec := httptest.NewRecorder()
		h.GetDepositStatus(rec, httptest.NewRequest(http.MethodGet, "/deposits/dep1/status", nil), "dep1")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp api.DepositStatusResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, api.DepositStatusProcessing, resp.Status)
		settler.AssertNotCalled(t, "AttemptSettlement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		h, store, _, _ := newHandler()

		store.On("GetDeposit", mock.Anything, "missing").Return(nil, storage.ErrDepositNotFound).Once()

		rec := httptest.NewRecorder()
		h.GetDepositStatus(rec, httptest.NewRequest(http.MethodGet, "/deposits/missing/status", nil), "missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetDepositById(t *testing.T) {
	t.Run("Owner Mismatch Hides Record", func(t *testing.T) {
		h, store, _, _ := newHandler()

		dep := &models.Deposit{Id: "dep1", UserId: "someone-else", Status: models.PENDING}
		store.On("GetDeposit", mock.Anything, "dep1").Return(dep, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/deposits/dep1", nil)
		req.Header.Set("X-User-Id", "user1")
		rec := httptest.NewRecorder()
		h.GetDepositById(rec, req, "dep1")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCancelDepositById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, store, _, _ := newHandler()

		store.On("CancelDeposit", mock.Anything, "dep1").Return(nil).Once()

		rec := httptest.NewRecorder()
		h.CancelDepositById(rec, httptest.NewRequest(http.MethodPost, "/deposits/dep1/cancel", nil), "dep1")

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Not Cancellable", func(t *testing.T) {
		h, store, _, _ := newHandler()

		store.On("CancelDeposit", mock.Anything, "dep1").Return(storage.ErrDepositNotCancellable).Once()

		rec := httptest.NewRecorder()
		h.CancelDepositById(rec, httptest.NewRequest(http.MethodPost, "/deposits/dep1/cancel", nil), "dep1")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
