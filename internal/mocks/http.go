package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockHTTPClient mocks adapter.HTTPClient
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Get(ctx context.Context, url string, result interface{}) error {
	args := m.Called(ctx, url, result)
	return args.Error(0)
}

func (m *MockHTTPClient) Post(ctx context.Context, url string, contentType string, body io.Reader) ([]byte, error) {
	args := m.Called(ctx, url, contentType, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockHTTPClient) PostForm(ctx context.Context, url string, headers map[string]string, body io.Reader) ([]byte, error) {
	args := m.Called(ctx, url, headers, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
