package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/kiamesdavies/money-transfer/internal/actor"
	httpAdapter "github.com/kiamesdavies/money-transfer/internal/adapter/http"
	"github.com/kiamesdavies/money-transfer/internal/adapter/http/handler"
	postgresRepo "github.com/kiamesdavies/money-transfer/internal/adapter/repository/postgres"
	redisRepo "github.com/kiamesdavies/money-transfer/internal/adapter/repository/redis"
	"github.com/kiamesdavies/money-transfer/internal/directory"
	"github.com/kiamesdavies/money-transfer/internal/infrastructure/config"
	"github.com/kiamesdavies/money-transfer/internal/infrastructure/logger"
	"github.com/kiamesdavies/money-transfer/internal/infrastructure/metrics"
	"github.com/kiamesdavies/money-transfer/internal/infrastructure/postgres"
	"github.com/kiamesdavies/money-transfer/internal/infrastructure/redis"
	"github.com/kiamesdavies/money-transfer/internal/journal"
	"github.com/kiamesdavies/money-transfer/internal/ledger"
	"github.com/kiamesdavies/money-transfer/internal/readside"
	"github.com/kiamesdavies/money-transfer/internal/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Durability: PostgreSQL journal when configured, in-memory otherwise.
	var (
		store journal.Store
		pool  *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		store = postgresRepo.NewJournalRepository(pool, postgresRepo.NewRetrier(log))
		log.Info().Msg("connected to postgres")
	} else {
		store = journal.NewMemoryStore()
		log.Warn().Msg("DATABASE_URL not set, journal is in-memory")
	}

	// Read side: Redis status projection when configured.
	var (
		statuses    readside.StatusStore
		redisClient *goredis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()

		statuses = redisRepo.NewStatusRepository(redisClient)
		log.Info().Msg("connected to redis")
	} else {
		statuses = readside.NewMemoryStore()
		log.Warn().Msg("REDIS_URL not set, status projection is in-memory")
	}

	m := metrics.New()

	system := actor.NewSystem("money-transfer", logger.Component(log, "actor"),
		actor.WithRestartHook(func(name string) {
			m.ActorRestarts.WithLabelValues(name).Inc()
		}),
	)

	// Seed the bank: directory plus one ledger account per seeded id.
	initialBalance, err := decimal.NewFromString(cfg.InitialBalance)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.InitialBalance).Msg("invalid INITIAL_BALANCE")
	}

	accountCfg := ledger.Config{
		Store:           store,
		InitialBalance:  initialBalance,
		SnapshotEvery:   cfg.SnapshotEvery,
		RetentionWindow: cfg.RetentionWindow,
		SweepInterval:   cfg.SweepInterval,
	}

	entries := make(map[string]string)
	for _, id := range cfg.SeedAccounts {
		address := ledger.AddressFor(id)
		if _, err := system.Spawn(address, ledger.New(id, accountCfg),
			actor.WithBackoff(cfg.BackoffMin, cfg.BackoffMax)); err != nil {
			log.Fatal().Err(err).Str("account_id", id).Msg("failed to start account")
		}
		entries[id] = address
	}
	for _, id := range cfg.UnresponsiveAccounts {
		address := ledger.AddressFor(id)
		if _, err := system.Spawn(address, ledger.NewUnresponsive()); err != nil {
			log.Fatal().Err(err).Str("account_id", id).Msg("failed to start account")
		}
		entries[id] = address
	}

	if _, err := system.Spawn(directory.Address, directory.New(entries)); err != nil {
		log.Fatal().Err(err).Msg("failed to start bank directory")
	}
	log.Info().Int("accounts", len(entries)).Msg("bank directory started")

	sagaCfg := transfer.Config{
		Store:              store,
		Statuses:           statuses,
		DirectoryAddress:   directory.Address,
		RedeliverInterval:  cfg.RedeliverInterval,
		WarnAfterAttempts:  cfg.WarnAfterAttempts,
		NotifyAtCompletion: cfg.NotifyAtCompletion,
		Metrics:            m,
	}

	payments := transfer.NewPaymentService(system, sagaCfg, transfer.ServiceConfig{
		TransferTimeout: cfg.TransferTimeout,
		BalanceTimeout:  cfg.BalanceTimeout,
	}, log)

	// Resume transactions a previous run left in a non-terminal status.
	// Delayed so each resumed saga's redelivery grace period starts after
	// the stores are warm.
	recoveryTimer := time.AfterFunc(cfg.RecoveryDelay, func() {
		recoverCtx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseTimeout)
		defer cancel()
		if _, err := payments.RecoverHanging(recoverCtx); err != nil {
			log.Error().Err(err).Msg("failed to resume hanging transactions")
		}
	})
	defer recoveryTimer.Stop()

	healthChecks := map[string]handler.Pinger{}
	if pool != nil {
		healthChecks["postgres"] = pool.Ping
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PaymentHandler: handler.NewPaymentHandler(payments),
		HealthHandler:  handler.NewHealthHandler(healthChecks),
		Metrics:        m,
		Logger:         logger.Component(log, "http"),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := system.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("actor system forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
