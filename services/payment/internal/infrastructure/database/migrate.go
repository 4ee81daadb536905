package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.UserProfile{},
		&model.LedgerEntry{},
		&model.Masterclass{},
		&model.MasterclassSession{},
		&model.Enrollment{},
		&model.ReminderDelivery{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates custom indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Transaction history is read newest first per user
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_ledger_user_created ON ledger_entries (user_id, created_at DESC)`).Error; err != nil {
		return err
	}

	// Reminder runs only scan live sessions
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_live_schedule ON masterclass_sessions (scheduled_at) WHERE source = 'zoom'`).Error; err != nil {
		return err
	}

	if err := db.Exec(`ALTER TABLE ledger_entries DROP CONSTRAINT IF EXISTS chk_ledger_status`).Error; err != nil {
		return err
	}
	if err := db.Exec(`ALTER TABLE ledger_entries ADD CONSTRAINT chk_ledger_status CHECK (status IN ('pending', 'success', 'failed'))`).Error; err != nil {
		return err
	}

	return nil
}
