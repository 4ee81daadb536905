package boltrepo

import (
	"context"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		now := time.Now().UTC()

		var existing model.UserProfile
		ok, err := getJSON(b, []byte(profile.ID), &existing)
		if err != nil {
			return err
		}
		if !ok {
			existing = model.UserProfile{ID: profile.ID, CreatedAt: now}
		}
		if profile.Email != "" {
			existing.Email = profile.Email
		}
		if profile.Name != "" {
			existing.Name = profile.Name
		}
		existing.UpdatedAt = now
		return putJSON(b, []byte(profile.ID), existing)
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var profile model.UserProfile
	var ok bool
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		ok, err = getJSON(tx.Bucket(bucketUsers), []byte(id), &profile)
		return err
	})
	if err != nil || !ok {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]model.UserProfile, error) {
	var profiles []model.UserProfile
	err := r.store.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		for _, id := range ids {
			var p model.UserProfile
			ok, err := getJSON(b, []byte(id), &p)
			if err != nil {
				return err
			}
			if ok {
				profiles = append(profiles, p)
			}
		}
		return nil
	})
	return profiles, err
}
