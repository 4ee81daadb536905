package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	domainRepo "github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// enrollmentRepository implements the EnrollmentRepository interface
type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository instance
func NewEnrollmentRepository(db *gorm.DB) domainRepo.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Grant inserts the enrollment unless it already exists
func (r *enrollmentRepository) Grant(ctx context.Context, enrollment *model.Enrollment) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(enrollment)
	if result.Error != nil {
		return false, fmt.Errorf("failed to grant enrollment: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IsEnrolled checks whether the user has access to the masterclass
func (r *enrollmentRepository) IsEnrolled(ctx context.Context, masterclassID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("masterclass_id = ? AND user_id = ?", masterclassID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

// ListUserIDs retrieves the users enrolled in a masterclass in enrollment order
func (r *enrollmentRepository) ListUserIDs(ctx context.Context, masterclassID string) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("masterclass_id = ?", masterclassID).
		Order("created_at ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled users: %w", err)
	}
	return userIDs, nil
}

// reminderRepository implements the ReminderRepository interface
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository instance
func NewReminderRepository(db *gorm.DB) domainRepo.ReminderRepository {
	return &reminderRepository{db: db}
}

// Claim inserts the delivery record and reports false when it already existed
func (r *reminderRepository) Claim(ctx context.Context, delivery *model.ReminderDelivery) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(delivery)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Release deletes a delivery record
func (r *reminderRepository) Release(ctx context.Context, sessionID, userID string) error {
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Delete(&model.ReminderDelivery{}).Error
	if err != nil {
		return fmt.Errorf("failed to release reminder: %w", err)
	}
	return nil
}
