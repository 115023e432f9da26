package messaging

import (
	"context"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// Publisher defines the interface for publishing aid events to the message broker
type Publisher interface {
	// PublishAidEvent publishes an aid event to the message broker
	PublishAidEvent(ctx context.Context, event *domain.AidEvent) error
	// Close closes the connection
	Close()
}
