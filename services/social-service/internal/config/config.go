package config

import (
	"log"

	sharedconfig "github.com/MindFlowInteractive/quest-social-api/shared/config"
	"github.com/MindFlowInteractive/quest-social-api/shared/messaging"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
	"github.com/MindFlowInteractive/quest-social-api/shared/redis"
)

// ConsumerConfig describes one durable queue bound to the events exchange.
type ConsumerConfig struct {
	QueueName     string
	ConsumerTag   string
	RoutingKeys   []string
	PrefetchCount int
}

// Config contains configuration for the Social Service
type Config struct {
	ServiceName string
	MetricsAddr string
	Postgres    postgres.PostgresConfig
	Redis       redis.RedisConfig
	RabbitMQ    messaging.RabbitMQConfig
	Consumer    ConsumerConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	log.Println("Loading Social Service configuration...")

	config := &Config{
		ServiceName: "social-service",
		MetricsAddr: sharedconfig.GetEnvString("METRICS_ADDR", ":9105"),
		Postgres:    loadPostgresConfig(),
		Redis:       loadRedisConfig(),
		RabbitMQ:    loadRabbitMQConfig(),
		Consumer:    loadConsumerConfig(),
	}

	log.Printf("Social Service config loaded - metrics: %s", config.MetricsAddr)

	return config
}

// loadPostgresConfig loads PostgreSQL configuration
func loadPostgresConfig() postgres.PostgresConfig {
	return postgres.PostgresConfig{
		PostgresHost:     sharedconfig.GetEnvString("POSTGRES_HOST", "localhost"),
		PostgresPort:     sharedconfig.GetEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     sharedconfig.GetEnvString("POSTGRES_USER", "postgres"),
		PostgresPassword: sharedconfig.GetEnvString("POSTGRES_PASSWORD", "password"),
		PostgresDatabase: sharedconfig.GetEnvString("POSTGRES_DATABASE", "quest_platform"),
		MaxOpenConns:     sharedconfig.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     sharedconfig.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
	}
}

// loadRedisConfig loads Redis configuration
func loadRedisConfig() redis.RedisConfig {
	return redis.RedisConfig{
		RedisHost:     sharedconfig.GetEnvString("REDIS_HOST", "localhost"),
		RedisPort:     sharedconfig.GetEnvInt("REDIS_PORT", 6379),
		RedisPassword: sharedconfig.GetEnvString("REDIS_PASSWORD", ""),
		RedisDB:       sharedconfig.GetEnvInt("REDIS_DB", 0),
	}
}

// loadRabbitMQConfig loads RabbitMQ configuration
func loadRabbitMQConfig() messaging.RabbitMQConfig {
	return messaging.RabbitMQConfig{
		RabbitMQHost:     sharedconfig.GetEnvString("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     sharedconfig.GetEnvInt("RABBITMQ_PORT", 5672),
		RabbitMQUser:     sharedconfig.GetEnvString("RABBITMQ_USER", "guest"),
		RabbitMQPassword: sharedconfig.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		RabbitMQExchange: sharedconfig.GetEnvString("RABBITMQ_EXCHANGE", "social.events"),
		PrefetchCount:    sharedconfig.GetEnvInt("RABBITMQ_PREFETCH_COUNT", 10),
	}
}

// loadConsumerConfig loads the event consumer configuration
func loadConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		QueueName:   sharedconfig.GetEnvString("CONSUMER_QUEUE", "social-service.events"),
		ConsumerTag: sharedconfig.GetEnvString("CONSUMER_TAG", "social-service"),
		RoutingKeys: sharedconfig.GetEnvStringSlice("CONSUMER_ROUTING_KEYS",
			[]string{"social.events.#"}),
		PrefetchCount: sharedconfig.GetEnvInt("RABBITMQ_PREFETCH_COUNT", 10),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Postgres.PostgresHost == "" {
		log.Fatal("POSTGRES_HOST is required")
	}
	if c.Redis.RedisHost == "" {
		log.Fatal("REDIS_HOST is required")
	}
	if c.RabbitMQ.RabbitMQHost == "" {
		log.Fatal("RABBITMQ_HOST is required")
	}

	log.Println("Social Service configuration validation passed")
	return nil
}
