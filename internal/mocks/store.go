// Package mocks provides hand-rolled testify mocks for the interfaces the
// coordinator, reconciler, and API depend on.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// MockStore mocks store.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateAccount(ctx context.Context, account *schema.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStore) GetAccountByID(ctx context.Context, id string) (*schema.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.Account), args.Error(1)
}

func (m *MockStore) GetAccountByEmail(ctx context.Context, email string) (*schema.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.Account), args.Error(1)
}

func (m *MockStore) GetAccountByPhone(ctx context.Context, phone string) (*schema.Account, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.Account), args.Error(1)
}

func (m *MockStore) GetAccountByWallet(ctx context.Context, address string) (*schema.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.Account), args.Error(1)
}

func (m *MockStore) ListAccountsByRole(ctx context.Context, role domain.Role) ([]*schema.Account, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schema.Account), args.Error(1)
}

func (m *MockStore) CreateCampaign(ctx context.Context, campaign *schema.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockStore) GetCampaign(ctx context.Context, id string) (*schema.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.Campaign), args.Error(1)
}

func (m *MockStore) ListCampaigns(ctx context.Context) ([]*schema.Campaign, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schema.Campaign), args.Error(1)
}

func (m *MockStore) RecordDonation(ctx context.Context, donation *schema.Donation, amt amount.Amount) error {
	args := m.Called(ctx, donation, amt)
	return args.Error(0)
}

func (m *MockStore) RecordDistribution(ctx context.Context, txn *schema.Transaction, amt amount.Amount) error {
	args := m.Called(ctx, txn, amt)
	return args.Error(0)
}

func (m *MockStore) CreateTransaction(ctx context.Context, txn *schema.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockStore) HasTransaction(ctx context.Context, blockchainTxHash string) (bool, error) {
	args := m.Called(ctx, blockchainTxHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListTransactionsByCampaign(ctx context.Context, campaignID string) ([]*schema.Transaction, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schema.Transaction), args.Error(1)
}

func (m *MockStore) ListDonationsByAccount(ctx context.Context, accountID string) ([]*schema.Donation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schema.Donation), args.Error(1)
}

// MockCursorStore mocks store.CursorStore
type MockCursorStore struct {
	mock.Mock
}

func (m *MockCursorStore) GetBlockCursor(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockCursorStore) SetBlockCursor(ctx context.Context, blockNumber uint64) error {
	args := m.Called(ctx, blockNumber)
	return args.Error(0)
}
