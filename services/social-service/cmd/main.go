package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/db"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/config"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/cache"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/directory"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/events"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/leaderboard"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/notify"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/repository"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/infrastructure/signals"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/ratelimit"
	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/service"
	sharedconfig "github.com/MindFlowInteractive/quest-social-api/shared/config"
	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
	"github.com/MindFlowInteractive/quest-social-api/shared/messaging"
	"github.com/MindFlowInteractive/quest-social-api/shared/metrics"
	"github.com/MindFlowInteractive/quest-social-api/shared/migration"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
	"github.com/MindFlowInteractive/quest-social-api/shared/recovery"
	"github.com/MindFlowInteractive/quest-social-api/shared/redis"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
)

const expirySweepInterval = time.Hour

func main() {
	sharedconfig.LoadEnv()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewLogger(logging.DefaultConfig(cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runMigrations(cfg)

	postgresClient, err := postgres.NewPostgres(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer postgresClient.Close()
	if err := postgresClient.HealthCheck(ctx); err != nil {
		log.Fatalf("Failed to ping postgres: %v", err)
	}

	redisClient, err := redis.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	amqpClient, err := messaging.NewRabbitMQ(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create amqp client: %v", err)
	}
	defer amqpClient.Close()
	if err := setupMessaging(amqpClient, cfg); err != nil {
		log.Fatalf("Failed to set up messaging topology: %v", err)
	}

	m := metrics.NewMetrics("quest", "social_service")
	metricsServer := metrics.NewServer(cfg.MetricsAddr)
	recovery.Go(logger, "metrics-server", func() {
		if err := metricsServer.Start(); err != nil {
			logger.WithError(err).Error("metrics server failed")
		}
	})

	// Repositories
	requestRepo := repository.NewFriendRequestRepository(postgresClient)
	friendshipRepo := repository.NewFriendshipRepository(postgresClient)
	privacyRepo := repository.NewPrivacySettingsRepository(postgresClient)
	activityRepo := repository.NewActivityEventRepository(postgresClient)
	blockRepo := repository.NewBlockRepository(postgresClient)
	userDirectory := directory.NewPostgresDirectory(postgresClient)

	// Infrastructure adapters
	redisCache := cache.NewRedisCache(redisClient)
	publisher := events.NewEventPublisher(amqpClient, logger)

	limiter := ratelimit.NewKeyedLimiter(ratelimit.DefaultConfig())
	defer limiter.Close()

	// Services the worker runs directly: privacy resolution and fan-out for
	// consumed events, plus the request lifecycle for the expiry sweep.
	friendRequestService := service.NewFriendRequestService(
		requestRepo, friendshipRepo, blockRepo, redisCache, publisher, userDirectory, limiter, logger, m)
	privacyService := service.NewPrivacyService(privacyRepo, friendshipRepo, redisCache, logger, m)
	feedService := service.NewActivityFeedService(
		activityRepo, friendshipRepo, privacyService, redisCache, publisher, limiter, logger, m)
	recommendationService := service.NewRecommendationService(
		friendshipRepo, leaderboard.NewRedisLeaderboard(redisClient, nil), signals.NewNeutralSource(),
		redisCache, logger, m)

	recovery.GoWithContext(ctx, logger, "expiry-sweeper", func(ctx context.Context) {
		friendRequestService.StartExpirySweeper(ctx, expirySweepInterval)
	})

	// Event consumer wiring; every side effect runs through these handlers
	handlers := service.NewEventHandlers(redisCache, feedService, recommendationService, notify.NewLogNotifier(logger), logger, m)
	consumer := events.NewEventConsumer(amqpClient, cfg.Consumer, logger)
	consumer.RegisterHandler(domain.EventFriendRequestSent, events.EventHandlerFunc(handlers.HandleFriendRequestSent))
	consumer.RegisterHandler(domain.EventFriendRequestAccepted, events.EventHandlerFunc(handlers.HandleFriendRequestAccepted))
	consumer.RegisterHandler(domain.EventFriendRequestRejected, events.EventHandlerFunc(handlers.HandleFriendRequestRejected))
	consumer.RegisterHandler(domain.EventFriendRemoved, events.EventHandlerFunc(handlers.HandleFriendRemoved))
	consumer.RegisterHandler(domain.EventActivityCreated, events.EventHandlerFunc(handlers.HandleActivityCreated))

	consumerErr := make(chan error, 1)
	recovery.GoWithContext(ctx, logger, "event-consumer", func(ctx context.Context) {
		consumerErr <- consumer.Start(ctx)
	})

	logger.WithField("metrics_addr", cfg.MetricsAddr).Info("social service started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-consumerErr:
		if err != nil && err != context.Canceled {
			logger.WithError(err).Error("consumer stopped with error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := consumer.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("consumer shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("metrics server shutdown error")
	}
	cancel()

	logger.Info("social service stopped")
}

func runMigrations(cfg *config.Config) {
	migrator, err := migration.NewMigrator(&migration.Config{
		DatabaseURL: cfg.Postgres.DSN(),
		Service:     cfg.ServiceName,
		SchemaName:  "public",
		Migrations:  db.MigrationsFS,
	})
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer migrator.Close()

	if err := migrator.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations applied")
}

// setupMessaging declares the events exchange with a paired dead letter
// exchange and queue before the consumer attaches.
func setupMessaging(amqpClient *messaging.RabbitMQ, cfg *config.Config) error {
	exchange := cfg.RabbitMQ.RabbitMQExchange
	return amqpClient.SetupInfrastructure(
		[]messaging.ExchangeConfig{
			{Name: exchange, Type: "topic", Durable: true},
			{Name: exchange + ".dlx", Type: "topic", Durable: true},
		},
		[]messaging.QueueConfig{
			{Name: cfg.Consumer.QueueName + ".dlq", Durable: true},
		},
		[]messaging.BindingConfig{
			{QueueName: cfg.Consumer.QueueName + ".dlq", ExchangeName: exchange + ".dlx", RoutingKey: "#"},
		},
	)
}
