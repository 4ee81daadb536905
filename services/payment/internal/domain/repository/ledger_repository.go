package repository

import (
	"context"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

// LedgerMutation decides the next state of one ledger entry from its current state.
// current is nil when the order has no entry yet. Returning a nil entry means no write.
// It may be invoked more than once for one logical operation and must not have side effects.
type LedgerMutation func(current *model.LedgerEntry) (*model.LedgerEntry, error)

// LedgerRepository stores ledger entries keyed by (userID, orderID)
type LedgerRepository interface {
	// Apply runs mutate inside one transaction that serializes writers for the same user:
	// it creates the user profile when absent, re-reads the entry, and writes the returned
	// entry. It returns the stored entry (the written one, or current when nothing was written).
	// A lost race is reported as domain ErrConcurrentModification.
	Apply(ctx context.Context, userID, orderID string, mutate LedgerMutation) (*model.LedgerEntry, error)

	// GetByOrder returns domain ErrTransactionNotFound when the order has no entry
	GetByOrder(ctx context.Context, userID, orderID string) (*model.LedgerEntry, error)

	// ListByUser returns entries newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}
