// Package boltrepo implements the payment repositories on an embedded BoltDB file.
//
// Bolt runs one read-write transaction at a time, so every ledger mutation executes
// its read-decide-write cycle inside a single db.Update without further locking.
package boltrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"
	"go.uber.org/zap"

	domainRepo "github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

var (
	bucketUsers         = []byte("users")
	bucketLedger        = []byte("ledger")
	bucketMasterclasses = []byte("masterclasses")
	bucketEnrollments   = []byte("enrollments")
	bucketReminders     = []byte("reminders")
)

// keySep separates the parts of composite keys. The ledger service rejects ids containing it.
const keySep = 0x00

// Store wraps a BoltDB database
type Store struct {
	db     *bolt.DB
	logger *zap.Logger
}

// Open opens (or creates) the database file and its buckets
func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketLedger, bucketMasterclasses, bucketEnrollments, bucketReminders} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bolt buckets: %w", err)
	}

	logger.Info("Bolt database opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Repositories returns every repository backed by this store
func (s *Store) Repositories() *domainRepo.Repositories {
	return &domainRepo.Repositories{
		Ledger:      &ledgerRepository{store: s},
		Users:       &userRepository{store: s},
		Masterclass: &masterclassRepository{store: s},
		Enrollment:  &enrollmentRepository{store: s},
		Reminder:    &reminderRepository{store: s},
	}
}

// Health reports the file path and size
func (s *Store) Health(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"status": "up",
		"path":   s.db.Path(),
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		stats["size_bytes"] = tx.Size()
		stats["ledger_entries"] = tx.Bucket(bucketLedger).Stats().KeyN
		return nil
	})
	if err != nil {
		return map[string]interface{}{"status": "down"}, err
	}
	return stats, nil
}

// Close releases the database file lock
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	s.logger.Info("Bolt database closed")
	return nil
}

func compositeKey(parts ...string) []byte {
	var buf bytes.Buffer
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(keySep)
		}
		buf.WriteString(p)
	}
	return buf.Bytes()
}

// prefixKey is compositeKey(first) followed by the separator, for range scans
func prefixKey(first string) []byte {
	return append([]byte(first), keySep)
}

func getJSON(b *bolt.Bucket, key []byte, out interface{}) (bool, error) {
	v := b.Get(key)
	if v == nil {
		return false, nil
	}
	if err := json.Unmarshal(v, out); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

func putJSON(b *bolt.Bucket, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return b.Put(key, data)
}

// scanPrefix calls fn for every value whose key starts with prefix
func scanPrefix(b *bolt.Bucket, prefix []byte, fn func(v []byte) error) error {
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}
