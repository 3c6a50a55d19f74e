package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wicaksana/pos-order-service/pkg/broker"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"go.uber.org/zap"
)

// Publisher emits lifecycle events. Implementations must be safe to call from
// goroutines; publishing never gates the originating operation.
type Publisher interface {
	Publish(ctx context.Context, event Envelope)
}

type KafkaPublisher struct {
	producer *broker.KafkaProducer
	logger   logger.ZapLogger
}

func NewKafkaPublisher(producer *broker.KafkaProducer, log logger.ZapLogger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Envelope) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode event", zap.String("event_type", event.EventType), zap.Error(err))
		return
	}

	if err := p.producer.WriteMessage(ctx, []byte(event.DisplayID), payload); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_type", event.EventType),
			zap.String("display_id", event.DisplayID),
			zap.Error(err))
	}
}

// NopPublisher discards events. Used in tests and when kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) {}
