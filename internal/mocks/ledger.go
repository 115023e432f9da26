package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
)

// MockLedgerClient mocks ledger.Client
type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) Mint(ctx context.Context, toAddress string, amt amount.Amount) (string, error) {
	args := m.Called(ctx, toAddress, amt)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerClient) Transfer(ctx context.Context, from signer.Signer, toAddress string, amt amount.Amount) (string, error) {
	args := m.Called(ctx, from, toAddress, amt)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerClient) BalanceOf(ctx context.Context, address string) (amount.Amount, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(amount.Amount), args.Error(1)
}

func (m *MockLedgerClient) TransferEvents(ctx context.Context, fromBlock, toBlock uint64) ([]domain.TransferEvent, error) {
	args := m.Called(ctx, fromBlock, toBlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransferEvent), args.Error(1)
}

func (m *MockLedgerClient) HeadBlock(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockLedgerClient) Close() {
	m.Called()
}
