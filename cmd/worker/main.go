package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/ledgertx/internal/adapter/http/handler"
	postgresRepo "github.com/iho/ledgertx/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgertx/internal/adapter/repository/redis"
	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/infrastructure/broker"
	"github.com/iho/ledgertx/internal/infrastructure/config"
	"github.com/iho/ledgertx/internal/infrastructure/logger"
	"github.com/iho/ledgertx/internal/infrastructure/metrics"
	"github.com/iho/ledgertx/internal/infrastructure/postgres"
	"github.com/iho/ledgertx/internal/infrastructure/redis"
	"github.com/iho/ledgertx/internal/infrastructure/republisher"
	"github.com/iho/ledgertx/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "ledgertx-worker",
	})
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("worker failed")
		os.Exit(1)
	}

	logger.Info().Msg("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	queue, err := broker.Open(cfg, redisClient, logger)
	if err != nil {
		return err
	}
	defer queue.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)

	settlement := usecase.NewSettlementUseCase(txManager, accountRepo, transactionRepo, entryRepo, logger).
		WithRetrier(postgresRepo.NewRetrier(logger).WithMaxRetries(cfg.SettlementMaxRetries)).
		WithMetrics(m).
		WithAtomicBalances(cfg.SettlementAtomic)
	if cfg.SettlementLockEnabled {
		settlement = settlement.WithGuard(redisRepo.NewSettlementLock(redisClient, cfg.SettlementLockTTL))
	}

	consumer, err := queue.Consumer(settlement, m)
	if err != nil {
		return err
	}

	// The republisher only re-sends already written transactions.
	enqueuer := usecase.NewTransactionUseCase(
		txManager, transactionRepo, entryRepo, queue.Publisher,
		domain.NewValidator(decimal.NewFromFloat(cfg.BalanceTolerance)),
		postgresRepo.NewULIDGenerator(), logger,
	).WithMetrics(m)

	sweeper := republisher.New(republisher.Config{
		Source:    transactionRepo,
		Enqueuer:  enqueuer,
		Counter:   m,
		Logger:    logger,
		BatchSize: cfg.RepublishBatchSize,
		Interval:  cfg.RepublishInterval,
		After:     cfg.RepublishAfter,
	})

	health := handler.NewHealthHandler(pool, handler.PingerFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.MetricsPort),
		Handler: newOpsRouter(health, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return sweeper.Start(gctx) })
	g.Go(func() error {
		logger.Info().Str("port", cfg.MetricsPort).Msg("starting metrics server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newOpsRouter serves health probes and metrics for the worker.
func newOpsRouter(health *handler.HealthHandler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", health.Liveness)
	r.Get("/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	return r
}
