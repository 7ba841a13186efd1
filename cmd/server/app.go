package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	httpAdapter "github.com/iho/ledgercore/internal/adapter/http"
	"github.com/iho/ledgercore/internal/adapter/http/handler"
	"github.com/iho/ledgercore/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/ledgercore/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/ledgercore/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgercore/internal/adapter/repository/redis"
	"github.com/iho/ledgercore/internal/infrastructure/config"
	"github.com/iho/ledgercore/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
	"github.com/iho/ledgercore/internal/infrastructure/postgres"
	"github.com/iho/ledgercore/internal/infrastructure/redis"
	"github.com/iho/ledgercore/internal/usecase"
)

// storage is one complete set of repositories over a single backend.
type storage struct {
	txManager    usecase.TransactionManager
	accounts     usecase.AccountRepository
	transactions usecase.TransactionRepository
	entries      usecase.EntryRepository
	ledger       usecase.LedgerRepository
	outbox       usecase.OutboxRepository
	retrier      usecase.Retrier
	ping         handler.Pinger
	close        func()
}

func newPostgresStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*storage, error) {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		accounts:     postgresRepo.NewAccountRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		entries:      postgresRepo.NewEntryRepository(pool),
		ledger:       postgresRepo.NewLedgerRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
		retrier:      newRetrier(cfg, m, logger),
		ping:         handler.PingerFunc(pool.Ping),
		close:        pool.Close,
	}, nil
}

func newRetrier(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *postgresRepo.Retrier {
	policy := postgresRepo.DefaultRetryPolicy()
	policy.MaxRetries = cfg.DatabaseRetryMax
	policy.Codes = cfg.DatabaseRetryCodes

	return postgresRepo.NewRetrier(policy, logger).WithRecorder(m)
}

func newMemoryStorage() *storage {
	store := memoryRepo.NewStore()

	return &storage{
		txManager:    memoryRepo.NewTxManager(store),
		accounts:     memoryRepo.NewAccountRepository(store),
		transactions: memoryRepo.NewTransactionRepository(store),
		entries:      memoryRepo.NewEntryRepository(store),
		ledger:       memoryRepo.NewLedgerRepository(store),
		outbox:       memoryRepo.NewOutboxRepository(store),
		retrier:      usecase.NoRetry{},
		close:        func() {},
	}
}

// app is the assembled service.
type app struct {
	handler     http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	integrity   *usecase.IntegrityUseCase
	closers     []func() error
}

// Close releases every resource the app opened, in reverse order.
func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}

// newApp assembles the service. On failure every resource opened so far is
// released before the error is returned.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}
	if err := a.build(ctx, cfg, logger); err != nil {
		if cerr := a.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to release resources after startup error")
		}
		return nil, err
	}

	return a, nil
}

func (a *app) build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		store *storage
		err   error
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store = newMemoryStorage()
	default:
		store, err = newPostgresStorage(ctx, cfg, m, logger)
		if err != nil {
			return err
		}
	}
	a.closers = append(a.closers, func() error { store.close(); return nil })

	var (
		idempotency usecase.IdempotencyStore
		locker      usecase.Locker = memoryRepo.NewLocker()
		redisPing   handler.Pinger
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		logger.Info().Msg("connected to redis")

		idempotency = redisRepo.NewIdempotencyStore(client)
		locker = redisRepo.NewLocker(client)
		redisPing = handler.PingerFunc(redis.Ping(client))
	} else {
		logger.Warn().Msg("REDIS_URL not set, idempotency keys disabled")
	}

	idGen := postgresRepo.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(store.txManager, store.accounts, store.outbox, idGen)
	postingUC := usecase.NewPostingUseCase(
		store.txManager, store.accounts, store.transactions, store.entries, store.outbox,
		idGen, m, logger,
	)
	integrityUC := usecase.NewIntegrityUseCase(usecase.IntegrityConfig{
		TxManager:   store.txManager,
		AccountRepo: store.accounts,
		EntryRepo:   store.entries,
		LedgerRepo:  store.ledger,
		OutboxRepo:  store.outbox,
		IDGen:       idGen,
		Retrier:     store.retrier,
		Metrics:     m,
		Locker:      locker,
		Logger:      logger,
		Concurrency: cfg.ReconcileConcurrency,

		ReconcileOnDrift: true,
	})
	a.integrity = integrityUC

	checks := map[string]handler.Pinger{}
	if store.ping != nil {
		checks["postgres"] = store.ping
	}
	if redisPing != nil {
		checks["redis"] = redisPing
	}

	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithRecorder(m)

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(postingUC),
		EntryHandler:       handler.NewEntryHandler(usecase.NewEntryUseCase(store.accounts, store.transactions, store.entries)),
		LedgerHandler: handler.NewLedgerHandler(
			accountUC,
			usecase.NewBalanceUseCase(store.accounts, store.entries),
			usecase.NewHistoryUseCase(store.accounts, store.entries),
			integrityUC,
		),
		HealthHandler:    handler.NewHealthHandler(checks),
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:           logger,
	})

	publisher, err := newEventSink(cfg, logger)
	if err != nil {
		return err
	}
	if publisher != nil {
		if c, ok := publisher.(interface{ Close() error }); ok {
			a.closers = append(a.closers, c.Close)
		}

		a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  publisher,
			Recorder:   m,
			Logger:     logger,
			Interval:   cfg.OutboxPollInterval,
		})
	}

	return nil
}

func newEventSink(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, error) {
	switch cfg.EventSink {
	case config.EventSinkNone:
		return nil, nil
	case config.EventSinkKafka:
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing events to kafka")
		return eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventSinkLog:
		return eventpublisher.NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown event sink %q", cfg.EventSink)
	}
}
