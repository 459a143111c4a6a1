package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/config"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/messaging"
	"github.com/MindFlowInteractive/quest-social-api/shared/recovery"
	"github.com/MindFlowInteractive/quest-social-api/shared/timeout"
)

// EventHandlerFunc processes one decoded domain event.
type EventHandlerFunc func(ctx context.Context, event *domain.DomainEvent) error

const messageTimeout = 30 * time.Second

type EventConsumer struct {
	amqp        *messaging.RabbitMQ
	config      config.ConsumerConfig
	logger      *logging.Logger
	channel     *amqp.Channel
	deliveries  <-chan amqp.Delivery
	done        chan error
	consumerTag string

	mu        sync.RWMutex
	handlers  map[string]EventHandlerFunc
	isRunning bool
}

// NewEventConsumer creates a RabbitMQ consumer for the social events queue.
func NewEventConsumer(amqp *messaging.RabbitMQ, cfg config.ConsumerConfig, logger *logging.Logger) *EventConsumer {
	return &EventConsumer{
		amqp:        amqp,
		config:      cfg,
		logger:      logger,
		done:        make(chan error),
		consumerTag: cfg.ConsumerTag,
		handlers:    make(map[string]EventHandlerFunc),
	}
}

// RegisterHandler registers a handler for one event type. Later registrations
// for the same type replace earlier ones.
func (c *EventConsumer) RegisterHandler(eventType string, handler EventHandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = handler
}

// Start begins consuming events. Blocks until ctx is cancelled or the
// consumer stops.
func (c *EventConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("consumer is already running")
	}
	c.isRunning = true
	c.mu.Unlock()

	conn := c.amqp.GetConnection()
	if conn == nil {
		return fmt.Errorf("failed to get RabbitMQ connection")
	}

	var err error
	c.channel, err = conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := c.channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	exchange := c.amqp.GetExchange()
	if err := c.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := c.channel.QueueDeclare(
		c.config.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange": exchange + ".dlx",
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, routingKey := range c.config.RoutingKeys {
		if err := c.channel.QueueBind(queue.Name, routingKey, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to routing key %s: %w", routingKey, err)
		}
	}

	c.deliveries, err = c.channel.Consume(
		queue.Name,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.WithField("queue", queue.Name).Info("started consuming social events")

	go c.processMessages(ctx)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-c.done:
		return err
	}
}

// Stop gracefully shuts down event consumption
func (c *EventConsumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		return nil
	}

	if c.channel != nil {
		if err := c.channel.Cancel(c.consumerTag, false); err != nil {
			c.logger.WithError(err).Warn("error cancelling consumer")
		}
		if err := c.channel.Close(); err != nil {
			c.logger.WithError(err).Warn("error closing channel")
		}
	}

	select {
	case c.done <- nil:
	default:
	}

	c.isRunning = false
	c.logger.Info("event consumer stopped")
	return nil
}

func (c *EventConsumer) processMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.done <- ctx.Err()
			return

		case delivery, ok := <-c.deliveries:
			if !ok {
				c.done <- fmt.Errorf("delivery channel closed")
				return
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery rejects without requeue on failure; the dead letter
// exchange keeps the message for later inspection and redelivery.
func (c *EventConsumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var event domain.DomainEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		c.logger.WithError(err).WithField("routing_key", delivery.RoutingKey).
			Error("failed to decode domain event")
		_ = delivery.Reject(false)
		return
	}

	msgCtx := logging.WithEventID(ctx, event.EventID)
	if event.CorrelationID != "" {
		msgCtx = logging.WithCorrelationID(msgCtx, event.CorrelationID)
	}

	c.mu.RLock()
	handler, ok := c.handlers[event.EventType]
	c.mu.RUnlock()

	if !ok {
		c.logger.WithField("event_type", event.EventType).Debug("no handler registered, acking")
		_ = delivery.Ack(false)
		return
	}

	// A panicking handler is treated like a failing one, and a stuck handler
	// cannot block the delivery loop past the message deadline.
	err := timeout.Run(msgCtx, messageTimeout, func(runCtx context.Context) error {
		return recovery.Safe(c.logger, "event-handler", func() error {
			return handler(runCtx, &event)
		})
	})
	if err != nil {
		c.logger.WithContext(msgCtx).WithError(err).
			WithField("event_type", event.EventType).
			Error("event handler failed")
		_ = delivery.Reject(false)
		return
	}

	_ = delivery.Ack(false)
}
