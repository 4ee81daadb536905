package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shivam7053/raga-vachika/services/payment/internal/adapter/repository"
	"github.com/shivam7053/raga-vachika/services/payment/internal/adapter/repository/boltrepo"
	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	domainRepo "github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// NewRepositories creates the Postgres repository set over db
func NewRepositories(db *gorm.DB, logger *zap.Logger) *domainRepo.Repositories {
	return &domainRepo.Repositories{
		Ledger:      repository.NewLedgerRepository(db, logger),
		Users:       repository.NewUserRepository(db),
		Masterclass: repository.NewMasterclassRepository(db, logger),
		Enrollment:  repository.NewEnrollmentRepository(db),
		Reminder:    repository.NewReminderRepository(db),
	}
}

// Store is an opened storage driver with its repositories
type Store struct {
	Driver       string
	Repositories *domainRepo.Repositories

	health func(ctx context.Context) (map[string]interface{}, error)
	close  func() error
}

// Health reports driver status for the health endpoint
func (s *Store) Health(ctx context.Context) (map[string]interface{}, error) {
	return s.health(ctx)
}

// Close releases the driver's resources
func (s *Store) Close() error {
	return s.close()
}

// OpenStore opens the configured driver. Postgres is migrated on open.
func OpenStore(cfg *config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := NewConnection(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db, logger); err != nil {
			_ = Close(db, logger)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &Store{
			Driver:       cfg.Driver,
			Repositories: NewRepositories(db, logger),
			health: func(ctx context.Context) (map[string]interface{}, error) {
				return Health(ctx, db)
			},
			close: func() error {
				return Close(db, logger)
			},
		}, nil

	case config.DriverBolt:
		store, err := boltrepo.Open(cfg.BoltPath, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:       cfg.Driver,
			Repositories: store.Repositories(),
			health:       store.Health,
			close:        store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}
