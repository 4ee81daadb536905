package main

import (
	"context"
	"flag"
	"log"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/logger"
	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/database"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/notification"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

func main() {
	catalogPath := flag.String("file", "configs/catalog.yaml", "catalog YAML file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	store, err := database.OpenStore(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	zapLogger.Info("Syncing catalog from YAML", zap.String("path", *catalogPath))

	masterclasses, err := loadCatalogFromYAML(*catalogPath)
	if err != nil {
		zapLogger.Fatal("Failed to load catalog from YAML", zap.Error(err))
	}

	mailer, closeMailer, err := notification.NewMailer(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize email transport", zap.Error(err))
	}
	defer func() {
		if err := closeMailer(); err != nil {
			zapLogger.Error("Failed to close email transport", zap.Error(err))
		}
	}()

	notifier := usecase.NewUpdateNotifier(store.Repositories, mailer, usecase.UpdateNotifierConfig{
		Pacing:  cfg.Notification.ReminderPacing,
		SiteURL: cfg.Service.SiteURL,
	}, zapLogger)
	catalog := usecase.NewCatalogService(store.Repositories.Masterclass, zapLogger, usecase.WithUpdateNotifier(notifier))
	synced, err := catalog.Sync(context.Background(), masterclasses)
	if err != nil {
		zapLogger.Fatal("Failed to sync catalog",
			zap.Int("masterclasses_synced", synced),
			zap.Error(err))
	}

	zapLogger.Info("Catalog sync completed", zap.Int("masterclasses_synced", synced))
}
