package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"healthchain/internal/access"
	accesshandler "healthchain/internal/access/handler"
	"healthchain/internal/eventlog"
	eventloghandler "healthchain/internal/eventlog/handler"
	"healthchain/internal/guard"
	"healthchain/internal/identity"
	"healthchain/internal/ledger"
	ledgerhandler "healthchain/internal/ledger/handler"
	"healthchain/internal/platform/config"
	"healthchain/internal/platform/httpserver"
	"healthchain/internal/platform/logger"
	"healthchain/internal/platform/metrics"
	"healthchain/internal/platform/postgres"
	"healthchain/internal/platform/redis"
	"healthchain/internal/registry"
	registryhandler "healthchain/internal/registry/handler"
	transporthttp "healthchain/internal/transport/http"
	"healthchain/pkg/domain"
	"healthchain/pkg/platform/tx"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	owner, err := domain.ParseIdentity(cfg.OwnerIdentity)
	if err != nil {
		return errors.New("HEALTHCHAIN_OWNER must be set to the registry owner identity")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		return err
	}

	var (
		runner         tx.Runner
		providerStore  registry.Store
		grantStore     access.Store
		recordStore    ledger.Store
		eventStore     eventlog.Store
		eventStoreStop func() error
	)
	switch {
	case db != nil:
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := postgres.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			return err
		}
		runner = tx.NewSQLRunner(db)
		providerStore = registry.NewPostgres(db)
		grantStore = access.NewPostgres(db)
		recordStore = ledger.NewPostgres(db)
		eventStore = eventlog.NewPostgres(db)
		log.Info("using postgres stores")
	default:
		runner = tx.NewSerializer()
		providerStore = registry.NewInMemoryStore()
		grantStore = access.NewInMemoryStore()
		recordStore = ledger.NewInMemoryStore()
		if cfg.EventLogPath != "" {
			store, err := eventlog.OpenLevelDB(cfg.EventLogPath)
			if err != nil {
				return err
			}
			eventStore = store
			eventStoreStop = store.Close
			log.Info("using leveldb event log", "path", cfg.EventLogPath)
		} else {
			eventStore = eventlog.NewInMemoryStore()
		}
		log.Info("using in-memory stores")
	}
	if eventStoreStop != nil {
		defer func() { _ = eventStoreStop() }()
	}

	eventOpts := []eventlog.Option{
		eventlog.WithLogger(log),
		eventlog.WithMetrics(m),
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := eventlog.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer sink.Close()
		eventOpts = append(eventOpts, eventlog.WithSink(sink))
		log.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	}
	events := eventlog.NewService(eventStore, eventOpts...)

	g := guard.New(owner,
		registry.NewGuardSource(providerStore),
		access.NewGuardSource(grantStore),
		m,
	)

	registrySvc := registry.NewService(providerStore, events, g, runner, m, log)

	var accessOpts []access.ServiceOption
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		accessOpts = append(accessOpts, access.WithCache(access.NewRedisGrantCache(redisClient.Client, log)))
		log.Info("grant lookups cached in redis")
	}
	accessSvc := access.NewService(grantStore, events, g, runner, m, log, accessOpts...)

	ledgerSvc := ledger.NewService(recordStore, events, g, runner, m, log)

	verifier := identity.NewVerifier(cfg.JWTSigningKey)

	router := transporthttp.New(transporthttp.Handlers{
		Registry: registryhandler.New(registrySvc, log),
		Access:   accesshandler.New(accessSvc, log),
		Ledger:   ledgerhandler.New(ledgerSvc, log),
		Activity: eventloghandler.New(events, log),
	}, verifier, promRegistry, log)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "owner", owner)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
