package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConfig holds the configuration for RabbitMQ
type RabbitMQConfig struct {
	RabbitMQHost     string `json:"rabbitmq_host"`
	RabbitMQPort     int    `json:"rabbitmq_port"`
	RabbitMQUser     string `json:"rabbitmq_user"`
	RabbitMQPassword string `json:"rabbitmq_password"`
	RabbitMQExchange string `json:"rabbitmq_exchange"`
	PrefetchCount    int    `json:"prefetch_count"`
}

// ExchangeConfig defines exchange configuration
type ExchangeConfig struct {
	Name       string `json:"name"`
	Type       string `json:"type"` // "topic", "direct", "fanout", "headers"
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
	Internal   bool   `json:"internal"`
	NoWait     bool   `json:"no_wait"`
}

// QueueConfig defines queue configuration
type QueueConfig struct {
	Name       string `json:"name"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
	Exclusive  bool   `json:"exclusive"`
	NoWait     bool   `json:"no_wait"`
	TTL        int64  `json:"ttl,omitempty"`        // message TTL in milliseconds
	MaxLength  int32  `json:"max_length,omitempty"` // max queue length
	DLX        string `json:"dlx,omitempty"`        // dead letter exchange
	DLRKey     string `json:"dlr_key,omitempty"`    // dead letter routing key
}

// BindingConfig defines queue-to-exchange binding
type BindingConfig struct {
	QueueName    string `json:"queue_name"`
	ExchangeName string `json:"exchange_name"`
	RoutingKey   string `json:"routing_key"`
	NoWait       bool   `json:"no_wait"`
}

// Message represents a message to be published
type Message struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]interface{}
	MessageID  string
	Timestamp  time.Time
}

// MessageHandler defines the signature for message handlers
type MessageHandler func(context.Context, amqp.Delivery) error

// RabbitMQ wraps the AMQP connection and provides high-level operations
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  RabbitMQConfig
	closed  bool
}

// NewRabbitMQ creates a new RabbitMQ client with configuration
func NewRabbitMQ(config RabbitMQConfig) (*RabbitMQ, error) {
	if config.PrefetchCount <= 0 {
		config.PrefetchCount = 10
	}

	rmq := &RabbitMQ{config: config}
	if err := rmq.connect(); err != nil {
		return nil, err
	}
	return rmq, nil
}

func (r *RabbitMQ) buildURL() string {
	scheme := "amqp"
	if r.config.RabbitMQPort == 5671 {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d",
		scheme,
		r.config.RabbitMQUser,
		r.config.RabbitMQPassword,
		r.config.RabbitMQHost,
		r.config.RabbitMQPort,
	)
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.DialConfig(r.buildURL(), amqp.Config{
		Heartbeat: 10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := ch.Qos(r.config.PrefetchCount, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	r.conn = conn
	r.channel = ch
	r.closed = false
	return nil
}

// DeclareExchange declares an exchange
func (r *RabbitMQ) DeclareExchange(config ExchangeConfig) error {
	return r.channel.ExchangeDeclare(
		config.Name,
		config.Type,
		config.Durable,
		config.AutoDelete,
		config.Internal,
		config.NoWait,
		nil,
	)
}

// DeclareQueue declares a queue
func (r *RabbitMQ) DeclareQueue(config QueueConfig) (amqp.Queue, error) {
	args := amqp.Table{}
	if config.TTL > 0 {
		args["x-message-ttl"] = config.TTL
	}
	if config.MaxLength > 0 {
		args["x-max-length"] = config.MaxLength
	}
	if config.DLX != "" {
		args["x-dead-letter-exchange"] = config.DLX
	}
	if config.DLRKey != "" {
		args["x-dead-letter-routing-key"] = config.DLRKey
	}

	return r.channel.QueueDeclare(
		config.Name,
		config.Durable,
		config.AutoDelete,
		config.Exclusive,
		config.NoWait,
		args,
	)
}

// BindQueue binds a queue to an exchange
func (r *RabbitMQ) BindQueue(config BindingConfig) error {
	return r.channel.QueueBind(
		config.QueueName,
		config.RoutingKey,
		config.ExchangeName,
		config.NoWait,
		nil,
	)
}

// Publish publishes a persistent message.
func (r *RabbitMQ) Publish(ctx context.Context, message Message) error {
	if r.closed {
		return fmt.Errorf("connection is closed")
	}

	headers := make(amqp.Table)
	for k, v := range message.Headers {
		headers[k] = v
	}

	timestamp := message.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return r.channel.PublishWithContext(
		ctx,
		message.Exchange,
		message.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			Headers:      headers,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    message.MessageID,
			Timestamp:    timestamp,
			Body:         message.Body,
		},
	)
}

// PublishJSON marshals data and publishes it.
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchange, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return r.Publish(ctx, Message{
		Exchange:   exchange,
		RoutingKey: routingKey,
		Body:       body,
	})
}

// Consume starts consuming messages from a queue. Handler errors reject the
// delivery without requeue so failed messages flow to the dead letter exchange.
func (r *RabbitMQ) Consume(queueName, consumerTag string, handler MessageHandler) error {
	if r.closed {
		return fmt.Errorf("connection is closed")
	}

	msgs, err := r.channel.Consume(
		queueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		ctx := context.Background()
		for msg := range msgs {
			if err := handler(ctx, msg); err != nil {
				log.Printf("message handler error: %v", err)
				msg.Reject(false)
			} else {
				msg.Ack(false)
			}
		}
	}()

	return nil
}

// SetupInfrastructure declares exchanges, queues, and bindings in order.
func (r *RabbitMQ) SetupInfrastructure(exchanges []ExchangeConfig, queues []QueueConfig, bindings []BindingConfig) error {
	for _, exchange := range exchanges {
		if err := r.DeclareExchange(exchange); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exchange.Name, err)
		}
	}

	for _, queue := range queues {
		if _, err := r.DeclareQueue(queue); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue.Name, err)
		}
	}

	for _, binding := range bindings {
		if err := r.BindQueue(binding); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w",
				binding.QueueName, binding.ExchangeName, err)
		}
	}

	return nil
}

// IsConnected checks if the connection is alive
func (r *RabbitMQ) IsConnected() bool {
	return !r.closed && r.conn != nil && !r.conn.IsClosed()
}

// HealthCheck reports connection liveness for readiness probes.
func (r *RabbitMQ) HealthCheck(ctx context.Context) error {
	if !r.IsConnected() {
		return fmt.Errorf("rabbitmq connection is not alive")
	}
	return nil
}

// Reconnect attempts to reconnect to RabbitMQ
func (r *RabbitMQ) Reconnect() error {
	r.Close()
	return r.connect()
}

// GetConnection returns the underlying AMQP connection
func (r *RabbitMQ) GetConnection() *amqp.Connection {
	return r.conn
}

// GetExchange returns the configured exchange name
func (r *RabbitMQ) GetExchange() string {
	return r.config.RabbitMQExchange
}

// Close closes the channel and connection.
func (r *RabbitMQ) Close() error {
	r.closed = true

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			log.Printf("error closing channel: %v", err)
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
