package boltrepo_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/services/payment/internal/adapter/repository/boltrepo"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

func openStore(t *testing.T) (*boltrepo.Store, *repository.Repositories) {
	t.Helper()
	store, err := boltrepo.Open(filepath.Join(t.TempDir(), "data", "payment.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, store.Repositories()
}

func newEntry(userID, orderID, status string, createdAt time.Time) *model.LedgerEntry {
	return &model.LedgerEntry{
		ID:        uuid.New(),
		UserID:    userID,
		OrderID:   orderID,
		Amount:    decimal.RequireFromString("499.00"),
		Currency:  "INR",
		Status:    status,
		Type:      "purchase",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestLedgerRepository_Apply(t *testing.T) {
	ctx := context.Background()
	_, repos := openStore(t)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("creates user and entry", func(t *testing.T) {
		entry, err := repos.Ledger.Apply(ctx, "u1", "o1", func(current *model.LedgerEntry) (*model.LedgerEntry, error) {
			assert.Nil(t, current)
			return newEntry("u1", "o1", "pending", now), nil
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), entry.Version)

		profile, err := repos.Users.GetByID(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, profile)
	})

	t.Run("passes stored state to the mutation and bumps version", func(t *testing.T) {
		entry, err := repos.Ledger.Apply(ctx, "u1", "o1", func(current *model.LedgerEntry) (*model.LedgerEntry, error) {
			require.NotNil(t, current)
			assert.Equal(t, "pending", current.Status)
			assert.True(t, decimal.RequireFromString("499").Equal(current.Amount))
			next := *current
			next.Status = "success"
			next.PaymentID = model.StringPtr("pay_1")
			return &next, nil
		})

		require.NoError(t, err)
		assert.Equal(t, int64(2), entry.Version)

		stored, err := repos.Ledger.GetByOrder(ctx, "u1", "o1")
		require.NoError(t, err)
		assert.Equal(t, "success", stored.Status)
		assert.Equal(t, "pay_1", model.StringValue(stored.PaymentID))
		assert.Equal(t, int64(2), stored.Version)
		assert.True(t, now.Equal(stored.CreatedAt))
	})

	t.Run("nil mutation result writes nothing", func(t *testing.T) {
		entry, err := repos.Ledger.Apply(ctx, "u1", "o1", func(current *model.LedgerEntry) (*model.LedgerEntry, error) {
			return nil, nil
		})

		require.NoError(t, err)
		assert.Equal(t, int64(2), entry.Version)
	})

	t.Run("mutation error aborts the transaction", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repos.Ledger.Apply(ctx, "u9", "o9", func(current *model.LedgerEntry) (*model.LedgerEntry, error) {
			return nil, boom
		})

		assert.ErrorIs(t, err, boom)
		profile, err := repos.Users.GetByID(ctx, "u9")
		require.NoError(t, err)
		assert.Nil(t, profile, "user creation rolled back with the transaction")
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := repos.Ledger.GetByOrder(ctx, "u1", "nope")
		assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
	})
}

func TestLedgerRepository_ConcurrentApply(t *testing.T) {
	ctx := context.Background()
	_, repos := openStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Ledger.Apply(ctx, "u1", "o1", func(current *model.LedgerEntry) (*model.LedgerEntry, error) {
				if current != nil {
					return nil, nil
				}
				return newEntry("u1", "o1", "success", time.Now().UTC()), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := repos.Ledger.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLedgerRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	_, repos := openStore(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 4; i++ {
		orderID := fmt.Sprintf("o%d", i)
		createdAt := base.Add(time.Duration(i) * time.Hour)
		_, err := repos.Ledger.Apply(ctx, "u1", orderID, func(*model.LedgerEntry) (*model.LedgerEntry, error) {
			return newEntry("u1", orderID, "pending", createdAt), nil
		})
		require.NoError(t, err)
	}
	// shares the "u1" prefix without the separator
	_, err := repos.Ledger.Apply(ctx, "u10", "x", func(*model.LedgerEntry) (*model.LedgerEntry, error) {
		return newEntry("u10", "x", "pending", base), nil
	})
	require.NoError(t, err)

	page, err := repos.Ledger.ListByUser(ctx, "u1", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "o3", page[0].OrderID)
	assert.Equal(t, "o2", page[1].OrderID)

	count, err := repos.Ledger.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	empty, err := repos.Ledger.ListByUser(ctx, "u1", 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalogRepositories(t *testing.T) {
	ctx := context.Background()
	store, repos := openStore(t)
	now := time.Now().UTC()
	soon := now.Add(time.Hour)
	later := now.Add(24 * time.Hour)

	mc := &model.Masterclass{
		ID:    "mc1",
		Title: "Raga Bhairav",
		Price: decimal.NewFromInt(799),
		Sessions: []model.MasterclassSession{
			{ID: "s2", Title: "Part 2", Source: model.SessionSourceZoom, ScheduledAt: &later, Position: 2},
			{ID: "s1", Title: "Part 1", Source: model.SessionSourceZoom, ScheduledAt: &soon, Position: 1},
			{ID: "v1", Title: "Intro", Source: model.SessionSourceYouTube, Position: 0},
		},
	}
	require.NoError(t, repos.Masterclass.Upsert(ctx, mc))

	got, err := repos.Masterclass.GetByID(ctx, "mc1")
	require.NoError(t, err)
	assert.Equal(t, "Raga Bhairav", got.Title)
	require.Len(t, got.Sessions, 3)
	assert.Equal(t, "v1", got.Sessions[0].ID)
	assert.Equal(t, "mc1", got.Sessions[1].MasterclassID)

	_, err = repos.Masterclass.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domainErrors.ErrMasterclassNotFound)

	live, err := repos.Masterclass.ListLiveSessionsBetween(ctx, now, now.Add(12*time.Hour))
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "s1", live[0].ID)

	list, err := repos.Masterclass.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	granted, err := repos.Enrollment.Grant(ctx, &model.Enrollment{MasterclassID: "mc1", UserID: "u1", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, granted)
	granted, err = repos.Enrollment.Grant(ctx, &model.Enrollment{MasterclassID: "mc1", UserID: "u1", CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, granted)
	_, err = repos.Enrollment.Grant(ctx, &model.Enrollment{MasterclassID: "mc1", UserID: "u2", CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)

	enrolled, err := repos.Enrollment.IsEnrolled(ctx, "mc1", "u1")
	require.NoError(t, err)
	assert.True(t, enrolled)
	userIDs, err := repos.Enrollment.ListUserIDs(ctx, "mc1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, userIDs)

	delivery := &model.ReminderDelivery{SessionID: "s1", UserID: "u1", SentAt: now}
	claimed, err := repos.Reminder.Claim(ctx, delivery)
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = repos.Reminder.Claim(ctx, delivery)
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NoError(t, repos.Reminder.Release(ctx, "s1", "u1"))
	claimed, err = repos.Reminder.Claim(ctx, delivery)
	require.NoError(t, err)
	assert.True(t, claimed)

	health, err := store.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "up", health["status"])
}

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	_, repos := openStore(t)

	require.NoError(t, repos.Users.Upsert(ctx, &model.UserProfile{ID: "u1", Email: "a@example.test", Name: "Asha"}))
	require.NoError(t, repos.Users.Upsert(ctx, &model.UserProfile{ID: "u1", Name: "Asha R"}))

	profile, err := repos.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.test", profile.Email)
	assert.Equal(t, "Asha R", profile.Name)

	missing, err := repos.Users.GetByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	profiles, err := repos.Users.GetByIDs(ctx, []string{"u1", "nobody"})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}
