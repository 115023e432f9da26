package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// MockPublisher mocks messaging.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAidEvent(ctx context.Context, event *domain.AidEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}
