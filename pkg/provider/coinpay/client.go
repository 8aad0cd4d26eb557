// Package coinpay implements the provider.Client interface against the
// CoinPay REST API.
package coinpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/mapping"
	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
)

const maxResponseBytes = 1 << 20

// Client wraps the CoinPay REST API for deposit-address issuance and
// payment status lookups. It is constructed once and injected wherever the
// processor is needed; there is no package-level state.
type Client struct {
	APIKey     string
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a CoinPay client.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.coinpay.io"
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Make sure we conform to the interface
var _ provider.Client = (*Client)(nil)

// createAddressPayload is the body of POST /v1/addresses.
type createAddressPayload struct {
	Ticker      string  `json:"ticker"`
	FiatAmount  float64 `json:"fiat_amount"`
	FiatCcy     string  `json:"fiat_currency"`
	CallbackURL string  `json:"callback_url"`
	ExternalRef string  `json:"external_ref"`
}

// createAddressResponse is the shape of CoinPay's address response.
type createAddressResponse struct {
	PaymentId string `json:"payment_id"`
	Address   string `json:"address"`
	QRCodeURL string `json:"qr_code_url"`
	Status    string `json:"status"`
}

// CreateAddress requests a fresh deposit address with the correlation token
// embedded in the callback URL.
func (c *Client) CreateAddress(ctx context.Context, req provider.CreateAddressRequest) (*provider.CreateAddressResponse, error) {
	payload := createAddressPayload{
		Ticker:      req.Ticker,
		FiatAmount:  mapping.CentsToAmount(req.AmountCents),
		FiatCcy:     req.Currency,
		CallbackURL: req.CallbackURL,
		ExternalRef: req.Token,
	}

	endpoint := c.BaseURL + "/v1/addresses"
	raw, err := c.doPost(ctx, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("coinpay CreateAddress: %w", err)
	}

	var resp createAddressResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("coinpay CreateAddress: malformed response: %w", err)
	}
	if resp.Address == "" {
		return nil, fmt.Errorf("coinpay: empty address in response for token %s", req.Token)
	}

	return &provider.CreateAddressResponse{
		Address:   resp.Address,
		QRCode:    resp.QRCodeURL,
		PaymentId: resp.PaymentId,
		Raw:       string(raw),
	}, nil
}

// paymentStatusResponse is the shape of GET /v1/payments/{id}.
type paymentStatusResponse struct {
	PaymentId     string `json:"payment_id"`
	Status        string `json:"status"`
	Confirmations int32  `json:"confirmations"`
	PaidAmount    string `json:"paid_amount"`
}

// GetPaymentStatus performs a live status query for a payment.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", c.BaseURL, paymentID)
	raw, err := c.doGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("coinpay GetPaymentStatus %s: %w", paymentID, err)
	}

	var resp paymentStatusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("coinpay GetPaymentStatus %s: malformed response: %w", paymentID, err)
	}

	return &provider.PaymentStatus{
		Status:        resp.Status,
		Confirmations: resp.Confirmations,
		PaidAmount:    resp.PaidAmount,
	}, nil
}

func (c *Client) doPost(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)

	return c.do(req)
}

func (c *Client) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return raw, nil
}
