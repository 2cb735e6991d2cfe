package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"zylyty/importer/configs"
	"zylyty/importer/internal/fetcher"
	"zylyty/importer/internal/importer"
	"zylyty/importer/internal/migrations"
	"zylyty/importer/internal/storage"
	"zylyty/importer/internal/views"
)

const banner = `
 ________  ___ ___       ___    ___ ___    ___ _________  ___    ___
|\_____  \|\  \\  \     |\  \  /  /|\  \  /  /|\___   ___\\  \  /  /|
 \|___/  /\ \  \\  \    \ \  \/  / | \  \/  / ||___ \  \_\ \  \/  / /
     /  / /\ \  \\  \    \ \    / / \ \    / /     \ \  \ \ \    / /
    /  /_/__\ \  \\  \____\/  /  /   \/  /  /       \ \  \ \/  /  /
   |\________\ \__\\_______\__/  / __/  / /          \ \__\__/  / /
    \|_______|\|__|\|_______|\___/ |\___/ /           \|__|\___/ /
                            \|___| \|___|/                 \|___|/
`

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

func main() {
	logger := newLogger()

	cfg, err := configs.AppLoad()
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}

	fmt.Print(banner)
	logger.WithFields(logrus.Fields{
		"api_base_url":  cfg.APIBaseURL,
		"page_size":     cfg.Fetch.PageSize,
		"max_pages":     cfg.Fetch.MaxPages,
		"max_retries":   cfg.Fetch.MaxRetries,
		"load_strategy": cfg.LoadStrategy,
	}).Info("Starting ZYLYTY data import")

	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.MigrateOnStart {
		if err := migrate(db); err != nil {
			logger.Fatalf("Schema migration failed: %v", err)
		}
	}

	client := fetcher.New(fetcher.Config{
		BaseURL:               cfg.APIBaseURL,
		APIKey:                cfg.AdminAPIKey,
		PageSize:              cfg.Fetch.PageSize,
		MaxPages:              cfg.Fetch.MaxPages,
		MaxRetries:            cfg.Fetch.MaxRetries,
		RequestTimeout:        cfg.Fetch.RequestTimeout,
		Backoff:               cfg.Fetch.Backoff,
		RequestsPerSecond:     cfg.Fetch.RequestsPerSecond,
		AbortOnIncompletePage: cfg.Fetch.FailurePolicy == configs.PolicyAbort,
	}, &http.Client{}, logger)

	store := storage.NewGormStorage(db, cfg.LoadStrategy, logger)
	publisher := views.New(db, logger)

	summary, err := importer.New(client, store, publisher, logger).Run(context.Background())
	if err != nil {
		logger.Errorf("Import failed: %v", err)
		os.Exit(1)
	}

	fmt.Println(summary)
}

func migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Embed)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, ".")
}
