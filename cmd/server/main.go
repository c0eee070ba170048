// Command server runs the asset classification service.
//
// Startup order:
//  1. Load configuration from environment (.env supported)
//  2. Initialize structured logging
//  3. Open and migrate the databases (classification.db, client_data.db)
//  4. Wire repositories, the rule engine, enrichment, and the orchestrator
//  5. Register maintenance jobs with the scheduler
//  6. Start the HTTP server and block until SIGINT/SIGTERM
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/assetclass/internal/clientdata"
	"github.com/aristath/assetclass/internal/clients/marketdata"
	"github.com/aristath/assetclass/internal/config"
	"github.com/aristath/assetclass/internal/database"
	"github.com/aristath/assetclass/internal/modules/classification"
	classificationhandlers "github.com/aristath/assetclass/internal/modules/classification/handlers"
	"github.com/aristath/assetclass/internal/modules/overrides"
	overridehandlers "github.com/aristath/assetclass/internal/modules/overrides/handlers"
	"github.com/aristath/assetclass/internal/modules/rules"
	rulehandlers "github.com/aristath/assetclass/internal/modules/rules/handlers"
	"github.com/aristath/assetclass/internal/reliability"
	"github.com/aristath/assetclass/internal/scheduler"
	"github.com/aristath/assetclass/internal/server"
	"github.com/aristath/assetclass/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting classification service")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
	}

	// classification.db holds rules, overrides, and classification records.
	classificationDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "classification.db"),
		Profile: database.ProfileStandard,
		Name:    "classification",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open classification database")
	}
	defer classificationDB.Close()

	// client_data.db caches upstream market data responses.
	clientDataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client data database")
	}
	defer clientDataDB.Close()

	for name, db := range map[string]*database.DB{
		"classification": classificationDB,
		"client_data":    clientDataDB,
	} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", name).Msg("Failed to migrate database")
		}
	}

	// Repositories
	ruleRepo := rules.NewRepository(classificationDB.Conn(), log)
	overrideRepo := overrides.NewRepository(classificationDB.Conn(), log)
	classificationRepo := classification.NewRepository(classificationDB.Conn(), log)
	cacheRepo := clientdata.NewRepository(clientDataDB.Conn())

	// Classification cascade
	engine := rules.NewEngine(ruleRepo, cfg.HybridTieMargin, log)
	mdClient := marketdata.NewClient(cfg.MarketDataBaseURL, cfg.MarketDataAPIKey, cacheRepo, log)
	enricher := classification.NewEnricher(mdClient, cfg.EnrichmentTimeout, log)
	orchestrator := classification.NewOrchestrator(
		overrideRepo, engine, enricher,
		cfg.EnrichmentConfidenceThreshold, cfg.ClassificationCacheTTL, log,
	)
	batch := classification.NewBatchClassifier(orchestrator, cfg.MaxBatchSize, cfg.BatchWorkers, log)
	classificationService := classification.NewService(orchestrator, batch, classificationRepo, log)

	// Background jobs
	sched := scheduler.New(log)

	cacheCleanup := clientdata.NewCleanupJob(cacheRepo, log)
	if err := sched.AddJob("0 0 2 * * *", cacheCleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}

	historyPrune := classification.NewPruneJob(classificationRepo, log)
	if err := sched.AddJob("0 30 2 * * *", historyPrune); err != nil {
		log.Fatal().Err(err).Msg("Failed to register history pruning job")
	}

	maintenance := reliability.NewMaintenanceJob(map[string]*database.DB{
		"classification": classificationDB,
		"client_data":    clientDataDB,
	}, true, log)
	if err := sched.AddJob("0 0 4 * * SUN", maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup storage")
		}
		backupService := reliability.NewBackupService(s3Client, map[string]*database.DB{
			"classification": classificationDB,
		}, cfg.DataDir, log)
		backupJob := reliability.NewBackupJob(backupService, cfg.Backup.RetainCount, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	} else {
		log.Info().Msg("Backups not configured, skipping")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP layer
	classificationHandler := classificationhandlers.NewHandler(classificationService, classificationRepo, log)
	ruleHandler := rulehandlers.NewHandler(ruleRepo, log)
	overrideHandler := overridehandlers.NewHandler(overrideRepo, log)

	srv := server.New(server.Config{
		Log:                   log,
		Config:                cfg,
		ClassificationDB:      classificationDB,
		ClientDataDB:          clientDataDB,
		ClassificationHandler: classificationHandler,
		RuleHandler:           ruleHandler,
		OverrideHandler:       overrideHandler,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
