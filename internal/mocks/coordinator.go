package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reliefcoin/reliefcoin-backend/internal/coordinator"
)

// MockCoordinator mocks rest.Coordinator
type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) IssueAid(ctx context.Context, req coordinator.IssueAidRequest) (*coordinator.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.Result), args.Error(1)
}

func (m *MockCoordinator) Redeem(ctx context.Context, req coordinator.RedeemRequest) (*coordinator.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.Result), args.Error(1)
}

func (m *MockCoordinator) CampaignTotals(ctx context.Context, campaignID string) (*coordinator.CampaignTotals, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.CampaignTotals), args.Error(1)
}
