package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/repository"
	memoryrepo "github.com/utafrali/storefront/internal/repository/memory"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/selection"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	service        *service.StorefrontService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stopBackground context.CancelFunc
}

// NewApp builds the storefront from cfg. Redis and Kafka are optional:
// without Redis selections are remembered in memory and catalog responses
// are not cached; without Kafka no events are published.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	checks := health.NewHandler()

	rdb, err := connectRedis(ctx, cfg, checks, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}
	producer := newKafkaProducer(cfg, checks, logger)

	// event.Producer treats an untyped nil publisher as "Kafka disabled".
	var publisher event.Publisher
	if producer != nil {
		publisher = producer
	}

	var repo repository.SelectionRepository = memoryrepo.NewSelectionRepository()
	if rdb != nil {
		repo = redisrepo.NewSelectionRepository(rdb, cfg.SelectionTTL())
	}

	svc := service.NewStorefrontService(
		catalogFetcher(cfg, rdb, logger),
		repo,
		event.NewProducer(publisher, logger),
		selection.NewRegistry(cfg.ViewIdleTTL()),
		logger,
	)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	router := handler.NewRouter(bgCtx, svc, checks, logger, handler.RouterOptions{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		rdb:      rdb,
		producer: producer,
		service:  svc,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		tracerShutdown: tracerShutdown,
		stopBackground: stopBackground,
	}, nil
}

// connectRedis returns nil when Redis is disabled. A configured Redis that
// cannot be reached fails startup, and once connected it gates readiness.
func connectRedis(ctx context.Context, cfg *config.Config, checks *health.Handler, logger *slog.Logger) (*redis.Client, error) {
	if !cfg.RedisEnabled {
		logger.Warn("redis disabled, remembered selections are kept in memory")
		return nil, nil
	}

	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPass,
		DB:          cfg.RedisDB,
		PoolSize:    cfg.RedisPoolSize,
		SlowCommand: cfg.RedisSlowCommand(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	database.RegisterPoolMetrics(rdb, "storefront")
	checks.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))
	return rdb, nil
}

// newKafkaProducer returns nil when Kafka is disabled. A broker outage
// degrades readiness without failing it.
func newKafkaProducer(cfg *config.Config, checks *health.Handler, logger *slog.Logger) *pkgkafka.Producer {
	if !cfg.KafkaEnabled {
		logger.Warn("kafka disabled, variant.selected events are not published")
		return nil
	}
	producer := pkgkafka.NewProducer(pkgkafka.ProducerConfig{Brokers: cfg.KafkaBrokers}, logger)
	checks.RegisterNonCritical("kafka", producer.Ping)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	return producer
}

// catalogFetcher calls the catalog through a retrying client guarded by a
// circuit breaker, with a Redis read-through cache in front when Redis is
// available.
func catalogFetcher(cfg *config.Config, rdb *redis.Client, logger *slog.Logger) selection.Fetcher {
	base := httpclient.New(httpclient.Config{
		Timeout:         cfg.CatalogTimeout(),
		MaxRetries:      cfg.CatalogMaxRetries,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    time.Second,
		MaxConnsPerHost: 100,
		UserAgent:       "storefront",
	})
	breaker := httpclient.CircuitBreakerConfig{
		Name:         "storefront-catalog",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	guarded := httpclient.NewCircuitBreakerClient(base, breaker, logger).WithFallback(catalog.CircuitOpenFallback)

	var fetcher selection.Fetcher = catalog.NewClient(guarded, cfg.CatalogServiceURL, logger)
	if ttl := cfg.CatalogCacheTTL(); rdb != nil && ttl > 0 {
		fetcher = catalog.NewCachedFetcher(fetcher, rdb, ttl, logger)
	}
	return fetcher
}

// Run starts the HTTP server and the idle view sweeper, and blocks until the
// context is canceled.
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

	go a.sweepLoop(ctx, a.cfg.ViewSweepInterval())

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// sweepLoop evicts idle product views every interval until ctx is done.
func (a *App) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.service.Sweep(ctx)
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.stopBackground()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
