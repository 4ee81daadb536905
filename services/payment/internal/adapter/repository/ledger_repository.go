package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	domainRepo "github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// ledgerRepository implements the LedgerRepository interface
type ledgerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// Apply locks the user's profile row, so writers for one user run one at a time, then
// re-reads the entry and writes whatever mutate decides. Updates are additionally guarded
// by the entry version.
func (r *ledgerRepository) Apply(ctx context.Context, userID, orderID string, mutate domainRepo.LedgerMutation) (*model.LedgerEntry, error) {
	var stored *model.LedgerEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.UserProfile{ID: userID, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
			return fmt.Errorf("failed to create user profile: %w", err)
		}

		var profile model.UserProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&profile).Error; err != nil {
			return fmt.Errorf("failed to lock user profile: %w", err)
		}

		var current *model.LedgerEntry
		var found model.LedgerEntry
		err := tx.Where("user_id = ? AND order_id = ?", userID, orderID).First(&found).Error
		switch {
		case err == nil:
			current = &found
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to read ledger entry: %w", err)
		}

		var input *model.LedgerEntry
		if current != nil {
			cp := *current
			input = &cp
		}
		next, err := mutate(input)
		if err != nil {
			return err
		}
		if next == nil {
			stored = current
			return nil
		}

		if current == nil {
			next.Version = 1
			if err := tx.Create(next).Error; err != nil {
				return fmt.Errorf("failed to create ledger entry: %w", err)
			}
			stored = next
			return nil
		}

		next.Version = current.Version + 1
		result := tx.Model(&model.LedgerEntry{}).
			Where("id = ? AND version = ?", current.ID, current.Version).
			Updates(map[string]interface{}{
				"payment_id":     next.PaymentID,
				"masterclass_id": next.MasterclassID,
				"title":          next.Title,
				"amount":         next.Amount,
				"currency":       next.Currency,
				"status":         next.Status,
				"method":         next.Method,
				"type":           next.Type,
				"failure_reason": next.FailureReason,
				"error_code":     next.ErrorCode,
				"version":        next.Version,
				"updated_at":     next.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update ledger entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainErrors.ErrConcurrentModification
		}
		stored = next
		return nil
	})

	if err != nil {
		err = classifyError(err)
		if errors.Is(err, domainErrors.ErrConcurrentModification) {
			r.logger.Warn("Ledger transaction lost a race",
				zap.String("user_id", userID),
				zap.String("order_id", orderID),
				zap.Error(err))
		}
		return nil, err
	}

	return stored, nil
}

// GetByOrder retrieves one ledger entry
func (r *ledgerRepository) GetByOrder(ctx context.Context, userID, orderID string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND order_id = ?", userID, orderID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

// ListByUser retrieves a page of the user's ledger, newest first
func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		r.logger.Error("Failed to list ledger entries",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// CountByUser counts the user's ledger entries
func (r *ledgerRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}
