package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flight-fare-tracker/config"
	"flight-fare-tracker/coverage"
	"flight-fare-tracker/models"
	"flight-fare-tracker/scraper/flights"
	"flight-fare-tracker/services"
	"flight-fare-tracker/storage"
	"flight-fare-tracker/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetDebug(cfg.Debug)

	logger.Info("=== Taiwan Flight Fare Tracker starting ===")
	logger.Info("Config — window: %d-%02d..%d-%02d | streams: %d | rate: %.2f/s",
		cfg.StartYear, cfg.StartMonth, cfg.EndYear, cfg.EndMonth,
		cfg.MaxConcurrentFetches, cfg.FetchesPerSecond)

	catalog := models.DefaultCatalog()
	window := coverage.Window{
		StartYear:  cfg.StartYear,
		StartMonth: cfg.StartMonth,
		EndYear:    cfg.EndYear,
		EndMonth:   cfg.EndMonth,
	}

	required, err := coverage.RequiredKeys(window, catalog)
	if err != nil {
		logger.Error("Invalid window: %v", err)
		os.Exit(1)
	}
	logger.Info("Coverage target: %d (route, date) observations", len(required))

	existing, err := storage.ReadExistingKeys(cfg.RawCSVPath, logger)
	if errors.Is(err, storage.ErrNoDataset) {
		logger.Info("No raw dataset yet at %s — starting fresh", cfg.RawCSVPath)
		existing = make(map[models.ObservationKey]struct{})
	} else if err != nil {
		logger.Error("Failed to read existing dataset: %v", err)
		os.Exit(1)
	}

	missing := coverage.Missing(required, existing)
	logger.Info("Gap detection: %d of %d observations missing", len(missing), len(required))

	ctx := context.Background()

	if len(missing) > 0 {
		appender, err := storage.NewCSVAppender(cfg.RawCSVPath)
		if err != nil {
			logger.Error("Failed to prepare raw CSV log: %v", err)
			os.Exit(1)
		}

		allocCtx, cancelAlloc := flights.NewExecAllocator(ctx, cfg, logger)
		defer cancelAlloc()

		guard := utils.NewFetchGuard(cfg.FetchesPerSecond, cfg.MaxConcurrentFetches)
		sessions := flights.NewBrowserSessionFactory(allocCtx, cfg, guard, logger)

		orchestrator := flights.NewOrchestrator(sessions, appender, cfg.MaxConcurrentFetches, logger)
		orchestrator.Run(ctx, missing)
	}

	raw, err := storage.ReadRawObservations(cfg.RawCSVPath, logger)
	if errors.Is(err, storage.ErrNoDataset) {
		logger.Error("No raw data was collected. Exiting.")
		os.Exit(1)
	} else if err != nil {
		logger.Error("Failed to read raw dataset: %v", err)
		os.Exit(1)
	}
	logger.Info("Raw history loaded: %d rows", len(raw))

	normalizer := services.NewNormalizer(logger)
	normalized := normalizer.NormalizeAll(raw)

	imputer := services.NewImputer(catalog, logger)
	cleaned := imputer.Clean(normalized, required)

	cleanedWriter := storage.NewCleanedCSVWriter(cfg.CleanedCSVPath)
	if err := cleanedWriter.Write(cleaned); err != nil {
		logger.Error("Cleaned CSV write failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Cleaned dataset saved to %s (%d rows)", cfg.CleanedCSVPath, len(cleaned))

	reportRemainingGaps(required, raw, logger)

	// The Postgres mirror is best-effort: the CSV pipeline is the
	// source of truth and must not fail with the database down.
	fares := cleaned
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable, skipping mirror: %v", err)
	} else {
		defer pgWriter.Close()
		if err := pgWriter.Write(cleaned); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("Cleaned fares mirrored to PostgreSQL (table: fares)")
			if dbFares, err := pgWriter.FetchAll(); err == nil {
				fares = dbFares
			} else {
				logger.Error("Failed to fetch fares from DB for insights: %v", err)
			}
		}
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(fares)
	insightSvc.Print(report)

	fmt.Printf("  Done. Raw log → %s | Cleaned data → %s\n\n",
		cfg.RawCSVPath, cfg.CleanedCSVPath)
}

// reportRemainingGaps logs which required keys still have no raw
// observation after this run; they will be retried next time.
func reportRemainingGaps(required map[models.ObservationKey]struct{}, raw []*models.RawObservation, logger *utils.Logger) {
	existing := make(map[models.ObservationKey]struct{}, len(raw))
	for _, r := range raw {
		existing[r.Key] = struct{}{}
	}

	remaining := coverage.Missing(required, existing)
	if len(remaining) == 0 {
		logger.Info("All dates have data for each route and direction")
		return
	}

	logger.Warn("%d observations still missing after this run (imputed in cleaned output)", len(remaining))
	for _, key := range remaining {
		logger.Debug("Missing: %s", key)
	}
}
