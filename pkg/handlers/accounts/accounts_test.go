package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/api"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/models"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/storage"
	storemocks "github.com/brokerage-labs/deposit-reconciliation/pkg/storage/mocks"
)

func TestCreateAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := new(storemocks.ApiStore)
		h := NewAccountsHandler(store)

		store.On("CreateAccount", mock.Anything, mock.MatchedBy(func(acct *models.TradingAccount) bool {
			return acct.UserId == "user1" && acct.Type == models.AccountTypeLive && acct.Version == 1
		})).Return(&models.TradingAccount{
			UserId:   "user1",
			Id:       "acct1",
			Type:     models.AccountTypeLive,
			Currency: "USD",
			Version:  1,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"type":"LIVE","currency":"USD"}`))
		req.Header.Set("X-User-Id", "user1")
		rec := httptest.NewRecorder()
		h.CreateAccount(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp api.TradingAccount
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "acct1", resp.Id)
		assert.Equal(t, "LIVE", resp.Type)
		store.AssertExpectations(t)
	})

	t.Run("Unknown Type", func(t *testing.T) {
		store := new(storemocks.ApiStore)
		h := NewAccountsHandler(store)

		req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"type":"PAPER"}`))
		req.Header.Set("X-User-Id", "user1")
		rec := httptest.NewRecorder()
		h.CreateAccount(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		store.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("Already Exists", func(t *testing.T) {
		store := new(storemocks.ApiStore)
		h := NewAccountsHandler(store)

		store.On("CreateAccount", mock.Anything, mock.Anything).Return(nil, errors.New("account with ID acct1 already exists")).Once()

		req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"type":"DEMO"}`))
		req.Header.Set("X-User-Id", "user1")
		rec := httptest.NewRecorder()
		h.CreateAccount(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestGetAccountById(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		store := new(storemocks.ApiStore)
		h := NewAccountsHandler(store)

		store.On("GetAccount", mock.Anything, "user1", "missing").Return(nil, storage.ErrAccountNotFound).Once()

		rec := httptest.NewRecorder()
		h.GetAccountById(rec, httptest.NewRequest(http.MethodGet, "/accounts/user1/missing", nil), "user1", "missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
