package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin"
	"github.com/tair/checkin-ledger/internal/checkin/cache"
	httpDelivery "github.com/tair/checkin-ledger/internal/checkin/delivery/http"
	kafkaDelivery "github.com/tair/checkin-ledger/internal/checkin/delivery/kafka"
	_ "github.com/tair/checkin-ledger/internal/checkin/docs"
	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/internal/checkin/notifier"
	"github.com/tair/checkin-ledger/internal/checkin/repository"
	"github.com/tair/checkin-ledger/kafka"
	"github.com/tair/checkin-ledger/pkg/auth"
	"github.com/tair/checkin-ledger/pkg/config"
	"github.com/tair/checkin-ledger/pkg/database"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/supervisor"
	"github.com/tair/checkin-ledger/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("checkin-service", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.InitWithOptions(cfg.Service.Name, logger.Options{
		Development: cfg.Service.IsDevelopment(),
		Level:       cfg.Service.LogLevel,
	})

	logger.Logger.Info().
		Str("environment", cfg.Service.Environment).
		Str("log_level", cfg.Service.LogLevel).
		Str("notifier", cfg.Notifier.Backend).
		Bool("kafka", cfg.Kafka.Enabled).
		Bool("analytics_cache", cfg.Analytics.CacheEnabled).
		Msg("Starting check-in service")

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Service.Name, cfg.Tracing)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(repository.Models()...); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Str("driver", cfg.Database.Driver).Msg("Database initialized successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(cfg.Service.Name, logger.Logger, supervisor.DefaultTreeConfig())

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient = connectRedis(ctx, cfg.Redis)
		defer redisClient.Close()
	}

	changes := newNotifier(cfg, db, redisClient, tree)

	var snapshots domain.SnapshotCache
	if cfg.Analytics.CacheEnabled {
		snapshots = cache.NewRedisSnapshotCache(redisClient, cache.Config{TTL: cfg.Analytics.CacheTTL})
	}

	var publisher domain.ActivityPublisher
	if cfg.Kafka.Enabled {
		p, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ActivityTopic, cfg.Kafka.RequestedTopic)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer p.Close()
		publisher = p
	}

	// Initialize service with Wire DI
	svc, err := checkin.InitializeService(
		db,
		repository.RetryConfig{MaxRetries: cfg.Ledger.MaxRetries, BaseBackoff: cfg.Ledger.BaseBackoff},
		changes,
		snapshots,
		publisher,
		httpDelivery.StreamOrigins(cfg.HTTP.AllowedOrigins),
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize service")
	}

	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{cfg.Kafka.RequestedTopic})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()
		consumer.RegisterHandler(kafka.EventTypeCheckInRequested, kafkaDelivery.NewCheckInRequestedHandler(svc.CheckIn))
		tree.AddMessagingService(consumer)
	}

	tree.AddAPIService(newHTTPServer(cfg, svc.Handler, db, redisClient))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Logger.Error().Err(err).Msg("Supervisor stopped with error")
	}
	logger.Logger.Info().Msg("Check-in service stopped")
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Fatal().Err(err).Str("addr", cfg.Addr).Msg("Failed to connect to Redis")
	}

	logger.Logger.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return client
}

func newNotifier(cfg *config.Config, db *gorm.DB, client *redis.Client, tree *supervisor.Tree) domain.Notifier {
	switch cfg.Notifier.Backend {
	case config.NotifierRedis:
		return notifier.NewRedisNotifier(client, cfg.Notifier.BufferSize)
	case config.NotifierPostgres:
		pg := notifier.NewPostgresNotifier(db, cfg.Database.DSN(), cfg.Notifier.BufferSize)
		tree.AddMessagingService(pg)
		return pg
	default:
		return notifier.NewHub(cfg.Notifier.BufferSize)
	}
}

func newHTTPServer(cfg *config.Config, handler *httpDelivery.CheckInHandler, db *gorm.DB, redisClient *redis.Client) supervisor.Func {
	routerCfg := httpDelivery.RouterConfig{
		Middleware: httpDelivery.DefaultMiddlewareConfig(cfg.HTTP.RequestTimeout, cfg.HTTP.AllowedOrigins),
		Auth:       httpDelivery.AuthMiddleware(auth.NewTokenManager(cfg.Auth), cfg.Auth.Disabled),
		Metrics:    promhttp.Handler(),
	}
	if cfg.HTTP.RateLimit.Enabled {
		limiter := httpDelivery.NewRateLimiter(redisClient, cfg.HTTP.RateLimit.MaxRequests, cfg.HTTP.RateLimit.Window)
		routerCfg.RateLimit = limiter.Middleware
	}
	if cfg.HTTP.EnableSwagger {
		routerCfg.Swagger = httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("list"),
			httpSwagger.DomID("swagger-ui"),
		)
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpDelivery.NewRouter(handler, db, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return supervisor.Func{
		Name: "http-server",
		Run: func(ctx context.Context) error {
			errCh := make(chan error, 1)
			go func() {
				logger.Logger.Info().
					Str("port", cfg.HTTP.Port).
					Str("metrics_endpoint", "/metrics").
					Bool("swagger", cfg.HTTP.EnableSwagger).
					Msg("HTTP server started")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Logger.Info().Msg("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return ctx.Err()
		},
	}
}
