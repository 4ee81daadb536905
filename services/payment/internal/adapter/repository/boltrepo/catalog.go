package boltrepo

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

// masterclasses are stored whole, sessions included
type masterclassRepository struct {
	store *Store
}

func (r *masterclassRepository) GetByID(ctx context.Context, id string) (*model.Masterclass, error) {
	var mc model.Masterclass
	var ok bool
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		ok, err = getJSON(tx.Bucket(bucketMasterclasses), []byte(id), &mc)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainErrors.ErrMasterclassNotFound
	}
	sortSessions(mc.Sessions)
	return &mc, nil
}

func (r *masterclassRepository) all() ([]model.Masterclass, error) {
	var masterclasses []model.Masterclass
	err := r.store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMasterclasses).ForEach(func(k, v []byte) error {
			var mc model.Masterclass
			if err := json.Unmarshal(v, &mc); err != nil {
				return err
			}
			sortSessions(mc.Sessions)
			masterclasses = append(masterclasses, mc)
			return nil
		})
	})
	return masterclasses, err
}

func (r *masterclassRepository) List(ctx context.Context) ([]model.Masterclass, error) {
	masterclasses, err := r.all()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(masterclasses, func(i, j int) bool {
		a, b := masterclasses[i].StartsAt, masterclasses[j].StartsAt
		switch {
		case a == nil && b == nil:
			return masterclasses[i].ID < masterclasses[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	if masterclasses == nil {
		masterclasses = []model.Masterclass{}
	}
	return masterclasses, nil
}

func (r *masterclassRepository) Upsert(ctx context.Context, masterclass *model.Masterclass) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMasterclasses)
		now := time.Now().UTC()

		var existing model.Masterclass
		ok, err := getJSON(b, []byte(masterclass.ID), &existing)
		if err != nil {
			return err
		}
		if ok {
			masterclass.CreatedAt = existing.CreatedAt
		} else if masterclass.CreatedAt.IsZero() {
			masterclass.CreatedAt = now
		}
		masterclass.UpdatedAt = now
		for i := range masterclass.Sessions {
			masterclass.Sessions[i].MasterclassID = masterclass.ID
		}
		return putJSON(b, []byte(masterclass.ID), masterclass)
	})
}

func (r *masterclassRepository) ListLiveSessionsBetween(ctx context.Context, from, to time.Time) ([]model.MasterclassSession, error) {
	masterclasses, err := r.all()
	if err != nil {
		return nil, err
	}

	var sessions []model.MasterclassSession
	for _, mc := range masterclasses {
		for _, s := range mc.Sessions {
			if s.StartsWithin(from, to.Sub(from)) {
				sessions = append(sessions, s)
			}
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ScheduledAt.Before(*sessions[j].ScheduledAt)
	})
	return sessions, nil
}

func sortSessions(sessions []model.MasterclassSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Position < sessions[j].Position
	})
}
