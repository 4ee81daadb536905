package boltrepo

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	domainRepo "github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

type ledgerRepository struct {
	store *Store
}

// storedEntry persists the version, which the API representation hides
type storedEntry struct {
	model.LedgerEntry
	Version int64 `json:"version"`
}

func (r *ledgerRepository) Apply(ctx context.Context, userID, orderID string, mutate domainRepo.LedgerMutation) (*model.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored *model.LedgerEntry
	err := r.store.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		if users.Get([]byte(userID)) == nil {
			now := time.Now().UTC()
			if err := putJSON(users, []byte(userID), model.UserProfile{ID: userID, CreatedAt: now, UpdatedAt: now}); err != nil {
				return err
			}
		}

		ledger := tx.Bucket(bucketLedger)
		key := compositeKey(userID, orderID)

		var current *model.LedgerEntry
		var found storedEntry
		ok, err := getJSON(ledger, key, &found)
		if err != nil {
			return err
		}
		if ok {
			found.LedgerEntry.Version = found.Version
			current = &found.LedgerEntry
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

		next.Version = 1
		if current != nil {
			next.Version = current.Version + 1
		}
		if err := putJSON(ledger, key, storedEntry{LedgerEntry: *next, Version: next.Version}); err != nil {
			return err
		}
		stored = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *ledgerRepository) GetByOrder(ctx context.Context, userID, orderID string) (*model.LedgerEntry, error) {
	var found storedEntry
	var ok bool
	err := r.store.db.View(func(tx *bolt.Tx) error {
		var err error
		ok, err = getJSON(tx.Bucket(bucketLedger), compositeKey(userID, orderID), &found)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	found.LedgerEntry.Version = found.Version
	return &found.LedgerEntry, nil
}

func (r *ledgerRepository) userEntries(userID string) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.store.db.View(func(tx *bolt.Tx) error {
		return scanPrefix(tx.Bucket(bucketLedger), prefixKey(userID), func(v []byte) error {
			var e storedEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			e.LedgerEntry.Version = e.Version
			entries = append(entries, e.LedgerEntry)
			return nil
		})
	})
	return entries, err
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	entries, err := r.userEntries(userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if offset >= len(entries) {
		return []model.LedgerEntry{}, nil
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *ledgerRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.store.db.View(func(tx *bolt.Tx) error {
		return scanPrefix(tx.Bucket(bucketLedger), prefixKey(userID), func([]byte) error {
			n++
			return nil
		})
	})
	return n, err
}
