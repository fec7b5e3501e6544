package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"rental-analyzer/cache"
	"rental-analyzer/config"
	"rental-analyzer/models"
	"rental-analyzer/rentometer"
	"rental-analyzer/scraper"
	"rental-analyzer/scraper/compass"
	"rental-analyzer/scraper/zillow"
	"rental-analyzer/services"
	"rental-analyzer/storage"
	"rental-analyzer/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rental-analyzer <compass-listing-url | zillow-search-state.json>")
		os.Exit(1)
	}
	source := os.Args[1]

	logger.Info("=== Rental investment analyzer starting ===")
	logger.Info("Config; tor: %s:%d | cache: %s | session attempts: %d",
		cfg.TorPath, cfg.TorSocksPort, cfg.CacheDir, cfg.MaxSessionAttempts)

	listings, err := loadListings(cfg, logger, source)
	if err != nil {
		logger.Error("Failed to load listings from %s: %v", source, err)
		os.Exit(1)
	}
	logger.Info("Loaded %d listing(s)", len(listings))

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer pgWriter.Close()

	store := cache.New(cfg.CacheDir, logger)
	estimator := rentometer.New(
		store,
		rentometer.NewTorSessionFactory(cfg, logger),
		&utils.RetryConfig{
			MaxAttempts: cfg.MaxSessionAttempts,
			BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
			Logger:      logger,
		},
		logger,
	)

	builder := services.NewScenarioBuilder(logger)
	reporter := services.NewReportService(logger)
	params := services.ParamsFromConfig(cfg)

	// One listing at a time; a failed listing never takes down the batch.
	for _, listing := range listings {
		if err := analyzeListing(listing, estimator, builder, reporter, params, csvWriter, pgWriter, logger); err != nil {
			logger.Error("Analysis failed for %s: %v", listing.Address, err)
		}
	}

	fmt.Printf("  Done. Scenarios written to %s and PostgreSQL\n\n", cfg.CSVOutputPath)
}

func analyzeListing(
	listing *models.Listing,
	estimator *rentometer.Estimator,
	builder *services.ScenarioBuilder,
	reporter *services.ReportService,
	params services.ScenarioParams,
	csvWriter *storage.CSVWriter,
	pgWriter *storage.PostgresWriter,
	logger *utils.Logger,
) error {
	logger.Info("Analyzing %s ($%.0f, %d units)", listing.Address, listing.Price, len(listing.Units))

	col, err := estimator.Estimate(context.Background(), listing)
	if err != nil {
		return err
	}
	if col.Empty() {
		logger.Warn("No estimates collected for %s; skipping scenarios", listing.Address)
		return nil
	}

	if err := pgWriter.WriteEstimates(col); err != nil {
		logger.Error("PostgreSQL estimate write failed: %v", err)
	}

	scenarios := builder.Build(listing, col, params)

	if err := csvWriter.WriteScenarios(scenarios); err != nil {
		logger.Error("CSV write failed: %v", err)
	}
	if err := pgWriter.WriteScenarios(scenarios); err != nil {
		logger.Error("PostgreSQL scenario write failed: %v", err)
	}

	reporter.Print(reporter.Generate(listing, scenarios))
	return nil
}

// loadListings routes the source argument to the right scraper: a URL is a
// Compass listing page, anything else a saved Zillow search-state document.
func loadListings(cfg *config.Config, logger *utils.Logger, source string) ([]*models.Listing, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		listing, err := compass.New(scraper.NewClient(), logger).Fetch(source)
		if err != nil {
			return nil, err
		}
		return []*models.Listing{listing}, nil
	}
	return zillow.New(logger).LoadFile(source)
}
