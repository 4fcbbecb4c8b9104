package messaging

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends clinic events to one topic exchange, routed by event type.
type Publisher struct {
	rmq      *RabbitMQ
	exchange string
	source   string
	logger   *logger.Logger
}

// NewPublisher declares exchange and returns a publisher stamping events with source.
func NewPublisher(rmq *RabbitMQ, exchange, source string, log *logger.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		rmq:      rmq,
		exchange: exchange,
		source:   source,
		logger:   log,
	}, nil
}

// Publish publishes an event to the exchange, routed by its type. A closed
// channel triggers one reconnect and a single retry.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	correlationID := getCorrelationID(ctx)

	event, err := NewEvent(eventType, p.source, correlationID, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: correlationID,
		MessageId:     event.ID,
		AppId:         p.source,
		Type:          eventType,
		Timestamp:     event.Timestamp,
		Body:          body,
	}

	err = p.rmq.Channel().PublishWithContext(ctx, p.exchange, eventType, false, false, msg)
	if stderrors.Is(err, amqp.ErrClosed) {
		p.logger.Warn().Str("event_type", eventType).Msg("channel closed, reconnecting before retry")
		if rcErr := p.rmq.Reconnect(ctx); rcErr != nil {
			return fmt.Errorf("failed to publish event: %w", rcErr)
		}
		err = p.rmq.Channel().PublishWithContext(ctx, p.exchange, eventType, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.ID).
		Str("correlation_id", correlationID).
		Msg("event published")

	return nil
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID ties events published with ctx to an upstream event.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// getCorrelationID prefers an explicit correlation id and falls back to the
// HTTP request id, so events raised by an API call can be traced to it.
func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok && id != "" {
		return id
	}
	return httputil.GetRequestID(ctx)
}
