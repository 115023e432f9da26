package messaging

import (
	"context"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// AidEventHandler is called once per delivered aid event. Returning an error
// leaves the message unacknowledged so the broker redelivers it.
type AidEventHandler func(event *domain.AidEvent) error

// Subscriber defines the interface for consuming aid events from the message broker
type Subscriber interface {
	// SubscribeAidEvents subscribes to aid events and processes each with handler
	SubscribeAidEvents(ctx context.Context, handler AidEventHandler) error

	// Close closes the connection and cleans up resources
	Close()
}
