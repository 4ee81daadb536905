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

// masterclassRepository implements the MasterclassRepository interface
type masterclassRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewMasterclassRepository creates a new masterclass repository instance
func NewMasterclassRepository(db *gorm.DB, logger *zap.Logger) domainRepo.MasterclassRepository {
	return &masterclassRepository{
		db:     db,
		logger: logger,
	}
}

func orderSessions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, scheduled_at ASC")
}

// GetByID retrieves a masterclass with its sessions
func (r *masterclassRepository) GetByID(ctx context.Context, id string) (*model.Masterclass, error) {
	var mc model.Masterclass
	err := r.db.WithContext(ctx).
		Preload("Sessions", orderSessions).
		Where("id = ?", id).
		First(&mc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrMasterclassNotFound
		}
		return nil, fmt.Errorf("failed to get masterclass: %w", err)
	}
	return &mc, nil
}

// List retrieves every masterclass ordered by start date
func (r *masterclassRepository) List(ctx context.Context) ([]model.Masterclass, error) {
	var masterclasses []model.Masterclass
	err := r.db.WithContext(ctx).
		Preload("Sessions", orderSessions).
		Order("starts_at ASC NULLS LAST, id ASC").
		Find(&masterclasses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list masterclasses: %w", err)
	}
	return masterclasses, nil
}

// Upsert replaces a masterclass and its sessions in one transaction
func (r *masterclassRepository) Upsert(ctx context.Context, masterclass *model.Masterclass) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if masterclass.CreatedAt.IsZero() {
			masterclass.CreatedAt = now
		}
		masterclass.UpdatedAt = now

		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "description", "speaker_name", "price", "currency", "starts_at", "updated_at"}),
			}).
			Create(masterclass).Error
		if err != nil {
			return fmt.Errorf("failed to upsert masterclass: %w", err)
		}

		if err := tx.Where("masterclass_id = ?", masterclass.ID).Delete(&model.MasterclassSession{}).Error; err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		if len(masterclass.Sessions) == 0 {
			return nil
		}
		for i := range masterclass.Sessions {
			masterclass.Sessions[i].MasterclassID = masterclass.ID
		}
		if err := tx.Create(&masterclass.Sessions).Error; err != nil {
			return fmt.Errorf("failed to create sessions: %w", err)
		}
		return nil
	})
}

// ListLiveSessionsBetween retrieves zoom sessions scheduled in (from, to]
func (r *masterclassRepository) ListLiveSessionsBetween(ctx context.Context, from, to time.Time) ([]model.MasterclassSession, error) {
	var sessions []model.MasterclassSession
	err := r.db.WithContext(ctx).
		Where("source = ? AND scheduled_at > ? AND scheduled_at <= ?", model.SessionSourceZoom, from, to).
		Order("scheduled_at ASC").
		Find(&sessions).Error
	if err != nil {
		r.logger.Error("Failed to list live sessions", zap.Error(err))
		return nil, fmt.Errorf("failed to list live sessions: %w", err)
	}
	return sessions, nil
}
