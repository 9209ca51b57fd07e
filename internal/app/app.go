package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/config"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/event"
	handler "github.com/gabrielnakaema/desafio01-hook-carrinho/internal/handler/http"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/inventory"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/notify"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/repository"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/repository/memory"
	redisrepo "github.com/gabrielnakaema/desafio01-hook-carrinho/internal/repository/redis"
	sqliterepo "github.com/gabrielnakaema/desafio01-hook-carrinho/internal/repository/sqlite"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/service"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/database"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/health"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/httpclient"
	pkgkafka "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/kafka"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/tracing"
)

const serviceName = "cart"

// initTracer is replaced in tests to observe the tracer lifecycle.
var initTracer = tracing.InitTracer

// closer releases one resource on shutdown.
type closer struct {
	name  string
	close func() error
}

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	manager        *service.CartManager
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	closers        []closer
}

// NewApp creates a new application instance, initializing all dependencies
// and restoring the persisted cart.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, a.abort(err)
	}

	// Inventory client with retries behind a circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = time.Duration(cfg.InventoryTimeout) * time.Second
	httpCfg.MaxRetries = cfg.InventoryMaxRetries
	baseClient := httpclient.New(httpCfg)

	cbCfg := httpclient.DefaultCircuitBreakerConfig("cart-inventory")
	cbCfg.MaxRequests = cfg.CBMaxRequests
	cbCfg.Interval = time.Duration(cfg.CBInterval) * time.Second
	cbCfg.Timeout = time.Duration(cfg.CBTimeout) * time.Second
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	inventoryClient := inventory.NewClient(cbClient, inventory.Config{
		BaseURL: cfg.InventoryURL,
		Timeout: time.Duration(cfg.InventoryTimeout) * time.Second,
	}, logger)

	// Notifications go to the log and to the feed the front end polls.
	feed := notify.NewFeed(cfg.NotificationFeedSize)
	notifier := notify.Multi{notify.NewLogNotifier(logger), feed}

	publisher := a.newPublisher()

	// Build the cart and restore what was persisted.
	manager := service.NewCartManager(store, inventoryClient, notifier, publisher, cfg.StoreKey, logger)
	if err := manager.Restore(ctx); err != nil {
		return nil, a.abort(err)
	}
	a.manager = manager

	// Health checks.
	healthHandler := health.NewHandler()
	if p, ok := store.(repository.Pinger); ok {
		healthHandler.RegisterCritical("store", p.Ping)
	}
	healthHandler.RegisterNonCritical("inventory", inventoryClient.Ping)
	if cfg.KafkaEnabled {
		brokers := cfg.KafkaBrokers
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, brokers)
		})
	}

	// HTTP router.
	cartHandler := handler.NewCartHandler(manager, feed, logger)
	router := handler.NewRouter(cartHandler, healthHandler, logger, cfg.CORSAllowedOrigins)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStore connects the configured durable store and registers its pool metrics.
func (a *App) openStore(ctx context.Context) (repository.BlobStore, error) {
	switch a.cfg.StoreDriver {
	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPass,
			DB:       a.cfg.RedisDB,
			PoolSize: a.cfg.RedisPoolSize,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, closer{name: "redis", close: rdb.Close})
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
		if err := database.RegisterPoolMetrics(database.NewRedisPoolCollector(rdb, serviceName)); err != nil {
			a.logger.Warn("register redis pool metrics", slog.String("error", err.Error()))
		}
		return redisrepo.NewBlobStore(rdb, time.Duration(a.cfg.CartTTL)*time.Hour), nil

	case config.StoreSQLite:
		db, err := database.NewSQLite(ctx, database.SQLiteConfig{Path: a.cfg.SQLitePath}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, closer{name: "sqlite", close: func() error { return database.CloseGorm(db) }})
		if sqlDB, err := db.DB(); err == nil {
			if err := database.RegisterPoolMetrics(database.NewSQLPoolCollector(sqlDB, serviceName)); err != nil {
				a.logger.Warn("register sqlite pool metrics", slog.String("error", err.Error()))
			}
		}
		store, err := sqliterepo.NewBlobStore(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("prepare sqlite store: %w", err)
		}
		return store, nil

	case config.StoreMemory:
		a.logger.Warn("using in-memory store, the cart will not survive a restart")
		return memory.NewBlobStore(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
}

func (a *App) newPublisher() event.Publisher {
	if !a.cfg.KafkaEnabled {
		a.logger.Info("kafka disabled, cart events are dropped")
		return event.NoopPublisher{}
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.closers = append(a.closers, closer{name: "kafka producer", close: producer.Close})
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
	return event.NewProducer(producer, a.logger)
}

// Handler returns the HTTP handler serving the cart API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer and store, in reverse order of creation
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

	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// abort releases everything NewApp acquired before err and returns err.
func (a *App) abort(err error) error {
	_ = a.closeAll()
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if shutdownErr := a.tracerShutdown(ctx); shutdownErr != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", shutdownErr.Error()))
		}
		a.tracerShutdown = nil
	}
	return err
}

// closeAll releases resources in reverse order of creation. It is safe to call twice.
func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil && !errors.Is(err, io.EOF) {
			a.logger.Error(c.name+" close error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
