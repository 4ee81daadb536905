package repository

import (
	"context"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

// UserRepository stores user profiles
type UserRepository interface {
	// Upsert creates the profile or refreshes its email and name
	Upsert(ctx context.Context, profile *model.UserProfile) error
	// GetByID returns nil without error when the profile does not exist
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.UserProfile, error)
}
