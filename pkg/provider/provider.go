// Package provider defines the behavioral contract against the external
// crypto payment processor. Callers depend on the Client interface; the
// concrete HTTP implementation lives in the coinpay subpackage and is
// injected at startup.
package provider

import (
	"context"
	"strings"
)

// CreateAddressRequest carries everything the processor needs to issue a
// deposit address. CallbackURL embeds the correlation token.
type CreateAddressRequest struct {
	Token       string
	Ticker      string
	AmountCents int64
	Currency    string
	CallbackURL string
}

// CreateAddressResponse is the processor's answer to an address request.
// Raw holds the response body verbatim for audit storage.
type CreateAddressResponse struct {
	Address   string
	QRCode    string
	PaymentId string
	Raw       string
}

// PaymentStatus is the processor's view of a payment, returned by the
// status-query endpoint and carried in webhook callbacks.
type PaymentStatus struct {
	Status        string
	Confirmations int32
	PaidAmount    string
}

// Client is the injected processor dependency.
type Client interface {
	// CreateAddress requests a fresh deposit address. Blocking; honors ctx.
	CreateAddress(ctx context.Context, req CreateAddressRequest) (*CreateAddressResponse, error)

	// GetPaymentStatus performs a live status query for a payment.
	GetPaymentStatus(ctx context.Context, paymentID string) (*PaymentStatus, error)
}

// Processor status strings observed on callbacks and status queries.
const (
	StatusWaiting    = "waiting"
	StatusConfirming = "confirming"
	StatusCompleted  = "completed"
	StatusPaid       = "paid"
	StatusExpired    = "expired"
	StatusFailed     = "failed"
)

// IsSettled reports whether the processor considers the payment final.
func IsSettled(status string) bool {
	switch strings.ToLower(status) {
	case StatusCompleted, StatusPaid:
		return true
	}
	return false
}

// IsFailure reports whether the processor gave up on the payment.
func IsFailure(status string) bool {
	switch strings.ToLower(status) {
	case StatusExpired, StatusFailed:
		return true
	}
	return false
}
