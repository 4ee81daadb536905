package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/logger"
	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/database"
	grpcServer "github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/grpc"
	httpServer "github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/http"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/notification"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/provider"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

func main() {
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

	zapLogger.Info("Starting payment service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("version", cfg.Service.Version),
		zap.String("storage", cfg.Database.Driver))

	// Open storage (postgres with migrations, or bolt)
	store, err := database.OpenStore(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Error("Failed to close storage", zap.Error(err))
		}
	}()
	repos := store.Repositories

	gateway, err := provider.NewGateway(cfg.Razorpay, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize payment gateway", zap.Error(err))
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

	// Initialize usecases
	ledger := usecase.NewLedgerService(repos.Ledger, zapLogger, usecase.RetryPolicy{
		MaxAttempts: cfg.Ledger.MaxAttempts,
		BaseBackoff: cfg.Ledger.BaseBackoff,
		MaxBackoff:  cfg.Ledger.MaxBackoff,
	})
	dispatcher := usecase.NewEmailDispatcher(mailer, zapLogger, cfg.Notification.SendTimeout)
	reminders := usecase.NewReminderService(repos, mailer, usecase.ReminderConfig{
		Window:  cfg.Notification.ReminderWindow,
		Pacing:  cfg.Notification.ReminderPacing,
		SiteURL: cfg.Service.SiteURL,
	}, zapLogger)
	notifier := usecase.NewUpdateNotifier(repos, mailer, usecase.UpdateNotifierConfig{
		Pacing:  cfg.Notification.ReminderPacing,
		SiteURL: cfg.Service.SiteURL,
	}, zapLogger)

	services := httpServer.Services{
		Catalog:   usecase.NewCatalogService(repos.Masterclass, zapLogger, usecase.WithUpdateNotifier(notifier)),
		Checkout:  usecase.NewCheckoutService(ledger, gateway, repos, zapLogger),
		Payments:  usecase.NewPaymentService(ledger, gateway, repos, reminders, dispatcher, cfg.Service.SiteURL, zapLogger),
		Ledger:    ledger,
		Reminders: reminders,
		Notifier:  notifier,
		Health:    store.Health,
	}

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, services)

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown servers
	if err := grpcSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	// Let queued emails finish before the storage closes
	if err := dispatcher.Wait(ctx); err != nil {
		zapLogger.Warn("Pending emails abandoned at shutdown", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
