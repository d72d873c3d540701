package main

import (
	"log"

	"bcsync/internal/api"
	"bcsync/internal/config"
	"bcsync/internal/database"
	"bcsync/internal/events"
	"bcsync/internal/logger"
	"bcsync/internal/media"
	"bcsync/internal/services/bc"
	"bcsync/internal/settings"
	"bcsync/internal/sync"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Business Central client
	creds := bc.Credentials{
		TenantID:     cfg.TenantID,
		Environment:  cfg.Environment,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		CompanyID:    cfg.CompanyID,
		BaseURL:      cfg.APIBaseURL,
		APIVersion:   cfg.APIVersion,
		AuthBaseURL:  cfg.AuthBaseURL,
	}
	tokens := bc.NewTokenManager(creds, logger)
	client := bc.NewClient(creds, tokens, logger)

	// Sync engine
	overrides, err := sync.ParseOverrides(cfg.CategoryOverrides)
	if err != nil {
		logger.Fatal("Invalid category overrides: %v", err)
	}

	var publisher sync.EventPublisher
	if cfg.KafkaBrokers != "" {
		publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	}

	categories := sync.NewCategoryMapper(db.DB, logger)
	upsert := sync.NewProductUpsert(db.DB, categories, overrides, logger)
	mediaStore := media.NewStore(db.DB, logger)
	settingsStore := settings.New(db.DB)

	engine := sync.NewEngine(cfg.CompanyID, cfg.SyncPageSize, client, upsert, mediaStore, settingsStore, publisher, db.DB, logger)

	// Initialize API server
	server := api.New(cfg, logger, db, engine)

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
