package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// CatalogService exposes the masterclass catalog
type CatalogService struct {
	masterclasses repository.MasterclassRepository
	notifier      *UpdateNotifier
	logger        *zap.Logger
}

// CatalogOption configures a CatalogService
type CatalogOption func(*CatalogService)

// WithUpdateNotifier makes Sync email enrolled users about sessions added to an existing masterclass
func WithUpdateNotifier(notifier *UpdateNotifier) CatalogOption {
	return func(s *CatalogService) {
		s.notifier = notifier
	}
}

// NewCatalogService creates a new catalog service
func NewCatalogService(masterclasses repository.MasterclassRepository, logger *zap.Logger, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{
		masterclasses: masterclasses,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every masterclass
func (s *CatalogService) List(ctx context.Context) ([]model.Masterclass, error) {
	masterclasses, err := s.masterclasses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list masterclasses: %w", err)
	}
	return masterclasses, nil
}

// Get returns one masterclass with its sessions
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Masterclass, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domainErrors.NewRequiredFieldError("masterclassId")
	}
	return s.masterclasses.GetByID(ctx, id)
}

// Sync upserts every masterclass of a catalog file and reports how many were written
func (s *CatalogService) Sync(ctx context.Context, masterclasses []model.Masterclass) (int, error) {
	synced := 0
	for i := range masterclasses {
		mc := &masterclasses[i]
		if mc.ID == "" {
			return synced, domainErrors.NewRequiredFieldError("masterclass.id")
		}
		if mc.Price.IsNegative() {
			return synced, &domainErrors.ValidationError{Field: "price", Message: fmt.Sprintf("masterclass %s has a negative price", mc.ID)}
		}
		for j := range mc.Sessions {
			mc.Sessions[j].MasterclassID = mc.ID
		}

		previous, err := s.previousSessions(ctx, mc.ID)
		if err != nil {
			return synced, err
		}

		if err := s.masterclasses.Upsert(ctx, mc); err != nil {
			return synced, fmt.Errorf("failed to upsert masterclass %s: %w", mc.ID, err)
		}
		synced++

		s.logger.Info("Masterclass synced",
			zap.String("masterclass_id", mc.ID),
			zap.String("price", mc.Price.String()),
			zap.Int("sessions", len(mc.Sessions)))

		if previous != nil {
			s.announceNewSessions(ctx, mc, addedSessions(previous, mc.Sessions))
		}
	}
	return synced, nil
}

// previousSessions returns the stored sessions of a masterclass, or nil when there is
// nothing to diff against (no notifier, or the masterclass is new).
func (s *CatalogService) previousSessions(ctx context.Context, id string) ([]model.MasterclassSession, error) {
	if s.notifier == nil {
		return nil, nil
	}
	current, err := s.masterclasses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrMasterclassNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load masterclass %s: %w", id, err)
	}
	if current.Sessions == nil {
		return []model.MasterclassSession{}, nil
	}
	return current.Sessions, nil
}

// announceNewSessions never fails the sync; the catalog is already written
func (s *CatalogService) announceNewSessions(ctx context.Context, mc *model.Masterclass, added []model.MasterclassSession) {
	if len(added) == 0 {
		return
	}
	if _, err := s.notifier.NotifyNewSessions(ctx, mc, added); err != nil {
		s.logger.Error("Failed to announce new sessions",
			zap.String("masterclass_id", mc.ID),
			zap.Int("new_sessions", len(added)),
			zap.Error(err))
	}
}
