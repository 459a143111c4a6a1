package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/messaging"
	"github.com/MindFlowInteractive/quest-social-api/shared/resilience"
)

const (
	routingKeyPrefix = "social.events"
	domainSchemaV1   = "social.events.v1"
)

// RoutingKey returns the topic routing key for an event type.
func RoutingKey(eventType string) string {
	return fmt.Sprintf("%s.%s", routingKeyPrefix, eventType)
}

type EventPublisher struct {
	amqp   *messaging.RabbitMQ
	retry  *resilience.RetryConfig
	logger *logging.Logger
}

// NewEventPublisher creates a RabbitMQ publisher for social domain events.
// Publishes are retried with backoff; broker hiccups must not fail commands
// that have already committed their durable write.
func NewEventPublisher(amqp *messaging.RabbitMQ, logger *logging.Logger) domain.EventPublisher {
	return &EventPublisher{
		amqp:   amqp,
		retry:  resilience.DefaultRetryConfig(),
		logger: logger,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event *domain.DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if event.Schema == "" {
		event.Schema = domainSchemaV1
	}
	if event.Version == "" {
		event.Version = "1"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = logging.GetCorrelationID(ctx)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal domain event: %w", err)
	}

	message := messaging.Message{
		Exchange:   p.amqp.GetExchange(),
		RoutingKey: RoutingKey(event.EventType),
		Body:       body,
		MessageID:  event.EventID,
		Timestamp:  event.Timestamp,
		Headers: map[string]interface{}{
			"event_type":      event.EventType,
			"aggregate_id":    event.AggregateID,
			"aggregate_type":  event.AggregateType,
			"idempotency_key": event.IdempotencyKey,
			"schema":          event.Schema,
			"version":         event.Version,
		},
	}

	err = resilience.RetryWithConfig(ctx, p.retry, func(ctx context.Context) error {
		return p.amqp.Publish(ctx, message)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).
			WithField("event_type", event.EventType).
			Error("failed to publish domain event")
		return fmt.Errorf("failed to publish domain event: %w", err)
	}

	return nil
}
