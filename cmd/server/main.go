package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/machinemind/predictive-maintenance/api"
	"github.com/machinemind/predictive-maintenance/internal/cache"
	"github.com/machinemind/predictive-maintenance/internal/classifier"
	"github.com/machinemind/predictive-maintenance/internal/events"
	"github.com/machinemind/predictive-maintenance/internal/generator"
	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/internal/processor"
	"github.com/machinemind/predictive-maintenance/internal/resilience"
	"github.com/machinemind/predictive-maintenance/internal/scheduler"
	"github.com/machinemind/predictive-maintenance/pkg/config"
	"github.com/machinemind/predictive-maintenance/pkg/database"
	"github.com/machinemind/predictive-maintenance/pkg/database/queries"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	if *migrate {
		migrationTimeout := cfg.Database.MigrationTimeout
		if migrationTimeout == 0 {
			migrationTimeout = 60 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
		defer cancel()

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	// Repositories
	machineRepo := queries.NewMachineRepository(db.DB)
	readingRepo := queries.NewReadingRepository(db.DB)
	predictionRepo := queries.NewPredictionRepository(db)

	// Event bus and logging sink
	eventBus := events.NewEventBus(cfg.Events.BufferSize)
	eventLogger := events.NewEventLogger(eventBus.SubscribeAll())
	eventLogger.Start()
	defer eventLogger.Stop()
	publisher := events.NewPublisher(eventBus)

	// Classifier client with circuit breaker and retry
	httpClient := classifier.NewHTTPClient(classifier.HTTPClientConfig{
		BaseURL: cfg.Classifier.BaseURL,
		Timeout: cfg.Classifier.Timeout,
	})
	resilientClient := classifier.NewResilientClient(classifier.ResilientClientConfig{
		Client:        httpClient,
		MaxFailures:   cfg.Classifier.CircuitBreaker.MaxFailures,
		Cooldown:      cfg.Classifier.CircuitBreaker.Cooldown,
		ProbeQuota:    cfg.Classifier.CircuitBreaker.ProbeQuota,
		RetryAttempts: cfg.Classifier.RetryAttempts,
		RetryDelay:    cfg.Classifier.RetryDelay,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	defer resilientClient.Close()

	machineCache := cache.New()
	predictionService := classifier.NewService(classifier.ServiceConfig{
		Client:     resilientClient,
		Machines:   machineRepo,
		Cache:      machineCache,
		MachineTTL: cfg.Cache.MachineTTL,
	})

	// Pipeline components
	proc := processor.New(processor.Config{
		BatchSize:  cfg.Processor.BatchSize,
		BatchDelay: cfg.Processor.BatchDelay,
		Predictor:  predictionService,
		Readings:   readingRepo,
		Store:      predictionRepo,
		Publisher:  publisher,
	})

	var gen *generator.Generator
	if cfg.Generator.Enabled {
		gen = generator.New(generator.Config{
			Machines:  machineRepo,
			Readings:  readingRepo,
			Publisher: publisher,
		})
	}

	schedulerCfg := scheduler.Config{
		ProcessInterval:  cfg.Processor.Interval,
		GenerateInterval: cfg.Generator.Interval,
		Processor:        proc,
	}
	if gen != nil {
		schedulerCfg.Generator = gen
	}
	sched := scheduler.New(schedulerCfg)
	sched.Start()
	defer sched.Stop()

	// API server
	deps := api.Dependencies{
		DB:         db,
		Classifier: predictionService,
		Processor:  proc,
		EventBus:   eventBus,
	}
	if gen != nil {
		deps.Generator = gen
	}
	server := api.NewServer(cfg.API, deps)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownTimeout := cfg.App.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 15 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	eventBus.Close()

	logger.Info("Server stopped gracefully")
	return nil
}
