// Package mocks provides a testify double for the provider client.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brokerage-labs/deposit-reconciliation/pkg/provider"
)

// Client is a mock implementation of provider.Client.
type Client struct {
	mock.Mock
}

func (m *Client) CreateAddress(ctx context.Context, req provider.CreateAddressRequest) (*provider.CreateAddressResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CreateAddressResponse), args.Error(1)
}

func (m *Client) GetPaymentStatus(ctx context.Context, paymentID string) (*provider.PaymentStatus, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PaymentStatus), args.Error(1)
}
