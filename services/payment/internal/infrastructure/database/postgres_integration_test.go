//go:build integration

package database_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/entity"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/database"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

func setupPostgres(t *testing.T) *repository.Repositories {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("payment"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zap.NewNop()
	cfg := config.Default().Database
	db, err := database.Open(postgres.Open(dsn), &cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db, logger) })

	require.NoError(t, database.Migrate(db, logger))
	return database.NewRepositories(db, logger)
}

func TestPostgresLedger(t *testing.T) {
	repos := setupPostgres(t)
	ctx := context.Background()
	ledger := usecase.NewLedgerService(repos.Ledger, zap.NewNop(), usecase.RetryPolicy{MaxAttempts: 5, BaseBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond})

	t.Run("protocol scenarios", func(t *testing.T) {
		created, err := ledger.RecordOutcome(ctx, "u1", "o1", entity.Outcome{Status: entity.StatusPending, Amount: decimal.NewFromInt(500)})
		require.NoError(t, err)
		assert.Equal(t, entity.ResultCreated, created.Result)

		updated, err := ledger.RecordOutcome(ctx, "u1", "o1", entity.Outcome{Status: entity.StatusSuccess, PaymentID: "pay_1"})
		require.NoError(t, err)
		assert.Equal(t, entity.ResultUpdated, updated.Result)
		assert.Equal(t, int64(2), updated.Entry.Version)

		_, err = ledger.RecordOutcome(ctx, "u1", "o1", entity.Outcome{Status: entity.StatusFailed, FailureReason: "cancelled"})
		assert.ErrorIs(t, err, domainErrors.ErrPaymentRegression)

		entry, err := repos.Ledger.GetByOrder(ctx, "u1", "o1")
		require.NoError(t, err)
		assert.Equal(t, "success", entry.Status)
		assert.True(t, decimal.NewFromInt(500).Equal(entry.Amount))
		assert.Equal(t, "pay_1", model.StringValue(entry.PaymentID))
	})

	t.Run("concurrent writers for one user", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				orderID := fmt.Sprintf("race_%d", i%5)
				status := entity.StatusFailed
				if i%2 == 0 {
					status = entity.StatusSuccess
				}
				_, err := ledger.RecordOutcome(ctx, "u2", orderID, entity.Outcome{Status: status})
				if err != nil && !errors.Is(err, domainErrors.ErrPaymentRegression) {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("unexpected error: %v", err)
		}

		count, err := repos.Ledger.CountByUser(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("history is newest first", func(t *testing.T) {
		entries, meta, err := ledger.Transactions(ctx, "u1", entity.PaginationParams{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), meta.Total)
		assert.Len(t, entries, 1)
	})
}

func TestPostgresCatalog(t *testing.T) {
	repos := setupPostgres(t)
	ctx := context.Background()
	soon := time.Now().UTC().Add(time.Hour)

	mc := &model.Masterclass{
		ID:    "mc1",
		Title: "Raga Bhairav",
		Price: decimal.NewFromInt(799),
		Sessions: []model.MasterclassSession{
			{ID: "s1", Title: "Part 1", Source: model.SessionSourceZoom, ScheduledAt: &soon, Position: 1},
		},
	}
	require.NoError(t, repos.Masterclass.Upsert(ctx, mc))
	mc.Title = "Raga Bhairav II"
	require.NoError(t, repos.Masterclass.Upsert(ctx, mc))

	got, err := repos.Masterclass.GetByID(ctx, "mc1")
	require.NoError(t, err)
	assert.Equal(t, "Raga Bhairav II", got.Title)
	assert.Len(t, got.Sessions, 1)

	live, err := repos.Masterclass.ListLiveSessionsBetween(ctx, time.Now().UTC(), time.Now().UTC().Add(12*time.Hour))
	require.NoError(t, err)
	assert.Len(t, live, 1)

	require.NoError(t, repos.Users.Upsert(ctx, &model.UserProfile{ID: "u1", Email: "a@example.test"}))
	require.NoError(t, repos.Users.Upsert(ctx, &model.UserProfile{ID: "u1", Name: "Asha"}))
	profile, err := repos.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.test", profile.Email)
	assert.Equal(t, "Asha", profile.Name)

	granted, err := repos.Enrollment.Grant(ctx, &model.Enrollment{MasterclassID: "mc1", UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, granted)
	granted, err = repos.Enrollment.Grant(ctx, &model.Enrollment{MasterclassID: "mc1", UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, granted)

	claimed, err := repos.Reminder.Claim(ctx, &model.ReminderDelivery{SessionID: "s1", UserID: "u1", SentAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = repos.Reminder.Claim(ctx, &model.ReminderDelivery{SessionID: "s1", UserID: "u1", SentAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, claimed)
}
