package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	domainRepo "github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

// Upsert creates the profile; an existing one keeps its values where the new ones are empty
func (r *userRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email":      gorm.Expr("COALESCE(NULLIF(EXCLUDED.email, ''), user_profiles.email)"),
				"name":       gorm.Expr("COALESCE(NULLIF(EXCLUDED.name, ''), user_profiles.name)"),
				"updated_at": now,
			}),
		}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile, nil when absent
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return &profile, nil
}

// GetByIDs retrieves the existing profiles among ids
func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]model.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []model.UserProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to get user profiles: %w", err)
	}
	return profiles, nil
}
