package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marovet/roundsync/internal/adapters/cache"
	"github.com/marovet/roundsync/internal/adapters/database"
	"github.com/marovet/roundsync/internal/application/services"
	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/domain/repositories"
	"github.com/marovet/roundsync/internal/infrastructure/clients/postgres"
	"github.com/marovet/roundsync/internal/infrastructure/clients/redis"
	"github.com/marovet/roundsync/internal/infrastructure/observability"
	"github.com/marovet/roundsync/internal/scrape"
	"github.com/marovet/roundsync/pkg/config"
)

// syncpass runs one import or sync pass from the command line, for cron
// jobs and for debugging the extraction heuristics against the live
// provider without standing up the API.
func main() {
	var mode string
	var category string
	var dryRun bool

	flag.StringVar(&mode, "mode", "import", "Pass to run: import (whole list) or sync (stored patients)")
	flag.StringVar(&category, "category", "", "Category filter override")
	flag.BoolVar(&dryRun, "dry-run", false, "Extract and reconcile but do not persist")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if category == "" {
		category = cfg.Provider.Category
	}

	observability.InitLogger("roundsync-syncpass", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	var reportCache *cache.ReportCache
	if redisClient, err := redis.NewClient(&cfg.Redis); err == nil {
		defer redisClient.Close()
		reportCache = cache.NewReportCache(redisClient)
	} else {
		logger.Warn().Err(err).Msg("redis unavailable, report will not be cached")
	}

	patientAdapter := database.NewPatientAdapter(pgClient)
	patientService := services.NewPatientService(patientAdapter)

	source := scrape.NewProviderSource(&cfg.Provider, *logger)
	syncService := services.NewSyncService(source, category, nil)

	var repo repositories.PatientRepository
	if !dryRun {
		repo = patientAdapter
	}
	importService := services.NewImportService(syncService, repo, reportCache, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	byName, err := patientService.ActiveByName(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load stored patients")
	}

	start := time.Now()

	switch mode {
	case "import":
		report, err := importService.ImportActivePatients(ctx, byName)
		if err != nil {
			logger.Fatal().Err(err).Msg("import pass failed")
		}
		logger.Info().
			Int("patients", len(report.Patients)).
			Int("needing_manual_entry", len(report.ManualEntryRequirements)).
			Int("estimated_seconds", report.TotalEstimatedTimeSeconds).
			Strs("errors", report.Errors).
			Dur("took", time.Since(start)).
			Msg("import pass finished")

	case "sync":
		patients := make([]entities.UnifiedPatient, 0, len(byName))
		for _, p := range byName {
			patients = append(patients, p)
		}

		report := syncService.SyncMany(ctx, patients)
		if !dryRun {
			for i := range report.Patients {
				if err := patientService.Update(ctx, &report.Patients[i]); err != nil {
					logger.Error().Err(err).Str("patient", report.Patients[i].Demographics.Name).Msg("failed to persist")
				}
			}
		}
		if reportCache != nil {
			if err := reportCache.SetSyncReport(ctx, report); err != nil {
				logger.Warn().Err(err).Msg("failed to cache sync report")
			}
		}
		logger.Info().
			Int("patients", len(report.Patients)).
			Strs("errors", report.Errors).
			Dur("took", time.Since(start)).
			Msg("sync pass finished")

	default:
		logger.Fatal().Str("mode", mode).Msg("unknown mode")
	}
}
