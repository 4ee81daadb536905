package repository

import (
	"context"
	"time"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

// MasterclassRepository stores the course catalog
type MasterclassRepository interface {
	// GetByID returns domain ErrMasterclassNotFound when absent. Sessions are loaded.
	GetByID(ctx context.Context, id string) (*model.Masterclass, error)
	List(ctx context.Context) ([]model.Masterclass, error)
	// Upsert replaces the masterclass and its sessions
	Upsert(ctx context.Context, masterclass *model.Masterclass) error
	// ListLiveSessionsBetween returns zoom sessions scheduled in (from, to]
	ListLiveSessionsBetween(ctx context.Context, from, to time.Time) ([]model.MasterclassSession, error)
}

// EnrollmentRepository records which users may access which masterclass
type EnrollmentRepository interface {
	// Grant is idempotent; it reports whether a new enrollment was created
	Grant(ctx context.Context, enrollment *model.Enrollment) (bool, error)
	IsEnrolled(ctx context.Context, masterclassID, userID string) (bool, error)
	ListUserIDs(ctx context.Context, masterclassID string) ([]string, error)
}

// ReminderRepository deduplicates session reminders per (session, user)
type ReminderRepository interface {
	// Claim records the delivery and reports false when it was already recorded
	Claim(ctx context.Context, delivery *model.ReminderDelivery) (bool, error)
	// Release removes a claim whose send failed so the next run retries it
	Release(ctx context.Context, sessionID, userID string) error
}
