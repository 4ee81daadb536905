package boltrepo

import (
	"context"
	"encoding/json"
	"sort"

	bolt "github.com/boltdb/bolt"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

type enrollmentRepository struct {
	store *Store
}

func (r *enrollmentRepository) Grant(ctx context.Context, enrollment *model.Enrollment) (bool, error) {
	granted := false
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEnrollments)
		key := compositeKey(enrollment.MasterclassID, enrollment.UserID)
		if b.Get(key) != nil {
			return nil
		}
		granted = true
		return putJSON(b, key, enrollment)
	})
	return granted, err
}

func (r *enrollmentRepository) IsEnrolled(ctx context.Context, masterclassID, userID string) (bool, error) {
	enrolled := false
	err := r.store.db.View(func(tx *bolt.Tx) error {
		enrolled = tx.Bucket(bucketEnrollments).Get(compositeKey(masterclassID, userID)) != nil
		return nil
	})
	return enrolled, err
}

func (r *enrollmentRepository) ListUserIDs(ctx context.Context, masterclassID string) ([]string, error) {
	var enrollments []model.Enrollment
	err := r.store.db.View(func(tx *bolt.Tx) error {
		return scanPrefix(tx.Bucket(bucketEnrollments), prefixKey(masterclassID), func(v []byte) error {
			var e model.Enrollment
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			enrollments = append(enrollments, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt)
	})
	userIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	return userIDs, nil
}

type reminderRepository struct {
	store *Store
}

func (r *reminderRepository) Claim(ctx context.Context, delivery *model.ReminderDelivery) (bool, error) {
	claimed := false
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReminders)
		key := compositeKey(delivery.SessionID, delivery.UserID)
		if b.Get(key) != nil {
			return nil
		}
		claimed = true
		return putJSON(b, key, delivery)
	})
	return claimed, err
}

func (r *reminderRepository) Release(ctx context.Context, sessionID, userID string) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReminders).Delete(compositeKey(sessionID, userID))
	})
}
