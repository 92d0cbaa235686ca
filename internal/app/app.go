package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/database"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/health"
	pkgkafka "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/kafka"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/middleware"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/tracing"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/auth"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/config"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	handler "github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/handler/http"
	mailermock "github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/mailer/mock"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/migrations"
	paymentmock "github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/payment/mock"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository/postgres"
	redisrepo "github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository/redis"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/service"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage/httpblob"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage/memory"

	goredis "github.com/redis/go-redis/v9"
)

// App wires together all dependencies and runs the storefront API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "shopit",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "shopit")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for the cart store.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Blob storage: an external gateway when configured, in-memory otherwise.
	var blobStore storage.Storage
	if cfg.BlobGatewayURL != "" {
		blobStore = httpblob.New(cfg.BlobGatewayURL, logger)
	} else {
		blobStore = memory.New(fmt.Sprintf("http://localhost:%d", cfg.HTTPPort))
		logger.Warn("BLOB_GATEWAY_URL not set, using in-memory blob storage")
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL)
	eventProducer := event.NewProducer(producer, logger)
	mail := mailermock.New(logger)
	paymentProvider := paymentmock.NewProvider()

	services := handler.Services{
		Products:    service.NewProductService(productRepo, blobStore, eventProducer, logger, cfg.CatalogPageSize),
		Reviews:     service.NewReviewService(productRepo, reviewRepo, eventProducer, logger),
		Orders:      service.NewOrderService(orderRepo, productRepo, cartRepo, paymentProvider, eventProducer, logger),
		Fulfillment: service.NewFulfillmentService(orderRepo, eventProducer, logger, nil),
		Users:       service.NewUserService(userRepo, blobStore, jwtManager, eventProducer, logger),
		Resets:      service.NewPasswordResetService(userRepo, mail, eventProducer, logger, cfg.ResetTokenTTL, cfg.FrontendURL, nil),
		Carts:       service.NewCartService(cartRepo, productRepo, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSAllowedOrigins
	corsConfig.Environment = cfg.Environment

	router := handler.NewRouter(services, jwtManager, healthHandler, logger, corsConfig)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
