package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/retail-pos-engine/internal/config"
	"github.com/retail-pos-engine/internal/data/memory"
	"github.com/retail-pos-engine/internal/data/postgres"
	"github.com/retail-pos-engine/internal/data/redis"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/domain/storage"
	"github.com/retail-pos-engine/internal/logger"
	"github.com/retail-pos-engine/internal/platform/messaging/producers"
	"github.com/retail-pos-engine/internal/platform/metrics"
	"github.com/retail-pos-engine/internal/platform/persistence"
	"github.com/retail-pos-engine/internal/register/api"
	"github.com/retail-pos-engine/internal/register/outbox_poller"
	"github.com/retail-pos-engine/internal/register/service"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("register_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Register API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"register_id", cfg.Register.ID,
		"storage_driver", cfg.Register.StorageDriver,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Storage and reference data source
	var (
		uow        storage.UnitOfWork
		source     reference.SnapshotLoader
		postgresDB *persistence.PostgresDB
	)
	if cfg.UsesPostgres() {
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}
		uow = postgres.NewUnitOfWork(log, postgresDB.Pool())
		source = postgres.NewReferenceRepository(log, postgresDB.Pool())
	} else {
		log.Warn("Using in-memory storage, documents are lost on restart")
		uow = memory.NewStore()
		source = memory.NewFileSnapshotLoader(cfg.Register.CatalogFile)
	}

	if cfg.Redis.Enabled {
		redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		source = redis.NewCatalogCache(log, redisClient, source, cfg.Register.ID, cfg.Register.CatalogCacheTTL)
	}

	snapshot, err := source.LoadSnapshot(appCtx)
	if err != nil {
		log.Error("Failed to load reference data", "error", err)
		os.Exit(1)
	}
	catalog := reference.NewCatalog(snapshot)
	log.Info("Reference data loaded",
		"products", len(snapshot.Products),
		"departments", len(snapshot.Departments),
		"tax_rates", len(snapshot.TaxRates),
	)

	// Services
	closureManager := service.NewClosureManager(log, uow, cfg.Register, m)
	promotionService := service.NewPromotionService(log, uow, nil, m)
	documentService := service.NewDocumentService(log, uow, catalog, promotionService, closureManager, cfg.Register, m)

	if _, err := closureManager.EnsureOpenPeriod(appCtx); err != nil {
		log.Error("Failed to open closure period", "error", err)
		os.Exit(1)
	}

	// Outbox poller publishing to Kafka
	eventProducer, err := producers.NewEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	repos := uow.Repositories()
	eventPublisher := outbox_poller.NewEventPublisher(repos.Outbox, repos.Documents, closureManager, eventProducer, m, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, repos.Outbox, eventPublisher, m, log)

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = registry
	}
	server := api.NewServer(log, cfg, documentService, closureManager, m, gatherer)

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	go func() {
		log.Info("HTTP server listening", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the poller so in-flight sales still reach the outbox
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Outbox poller stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if postgresDB != nil {
		postgresDB.Close()
	}

	if serviceErr != nil {
		log.Error("Register API shutdown completed with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Register API shutdown completed successfully")
}
