package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/messaging"
)

type subscriber struct {
	nc           adapter.NatsConn
	js           adapter.JetStream
	streamName   string
	consumerName string
	json         adapter.JSON
}

// NewSubscriber creates a new NATS JetStream subscriber with a durable pull
// consumer, so redeliveries survive notifier restarts.
func NewSubscriber(cfg Config, consumerName string, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Subscriber, error) {
	nc, js, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	return &subscriber{
		nc:           nc,
		js:           js,
		streamName:   cfg.StreamName,
		consumerName: consumerName,
		json:         jsonAdapter,
	}, nil
}

// SubscribeAidEvents consumes aid events until ctx is cancelled. Events that
// fail to decode are terminated (a redelivery cannot fix a bad payload);
// events whose handler fails are left for redelivery.
func (s *subscriber) SubscribeAidEvents(ctx context.Context, handler messaging.AidEventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.streamName, jetstream.ConsumerConfig{
		Durable:        s.consumerName,
		FilterSubjects: []string{"aid.>", "records.>"},
		AckPolicy:      jetstream.AckExplicitPolicy,
		AckWait:        30 * time.Second,
		MaxDeliver:     5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg adapter.Message) {
		var event domain.AidEvent
		if err := s.json.Unmarshal(msg.Data(), &event); err != nil {
			logger.Error(err, zap.String("message", "Failed to unmarshal aid event"), zap.String("subject", msg.Subject()))
			if err := msg.Term(); err != nil {
				logger.Error(err, zap.String("message", "Failed to terminate message"))
			}
			return
		}

		if err := handler(&event); err != nil {
			logger.Error(err, zap.String("message", "Failed to handle aid event"), zap.String("tx_hash", event.TxHash))
			if err := msg.Nak(); err != nil {
				logger.Error(err, zap.String("message", "Failed to nak message"))
			}
			return
		}

		if err := msg.Ack(); err != nil {
			logger.Error(err, zap.String("message", "Failed to ack message"))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	<-ctx.Done()
	cc.Drain()

	return nil
}

// Close closes the NATS connection
func (s *subscriber) Close() {
	if s.nc == nil {
		return
	}

	s.nc.Close()
}
