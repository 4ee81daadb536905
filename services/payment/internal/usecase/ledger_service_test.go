package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/entity"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

var fastRetry = usecase.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

func newLedgerService(repo *memoryLedger) *usecase.LedgerService {
	return usecase.NewLedgerService(repo, zap.NewNop(), fastRetry)
}

func success(amount int64, paymentID string) entity.Outcome {
	return entity.Outcome{Status: entity.StatusSuccess, Amount: decimal.NewFromInt(amount), PaymentID: paymentID}
}

func failed(reason string) entity.Outcome {
	return entity.Outcome{Status: entity.StatusFailed, FailureReason: reason}
}

func pending(amount int64) entity.Outcome {
	return entity.Outcome{Status: entity.StatusPending, Amount: decimal.NewFromInt(amount)}
}

func TestLedgerService_RecordOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("first purchase creates user ledger and entry", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		record, err := service.RecordOutcome(ctx, "u1", "o1", success(500, "pay_1"))

		require.NoError(t, err)
		assert.Equal(t, entity.ResultCreated, record.Result)
		entries := repo.entriesFor("u1")
		require.Len(t, entries, 1)
		assert.Equal(t, "o1", entries[0].OrderID)
		assert.Equal(t, "success", entries[0].Status)
		assert.True(t, decimal.NewFromInt(500).Equal(entries[0].Amount))
		assert.Equal(t, "pay_1", model.StringValue(entries[0].PaymentID))
		assert.Equal(t, "INR", entries[0].Currency)
		assert.Equal(t, entity.TransactionTypePurchase, entries[0].Type)
		assert.True(t, repo.users["u1"])
	})

	t.Run("failure after success is rejected and ledger unchanged", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		_, err := service.RecordOutcome(ctx, "u1", "o1", success(500, "pay_1"))
		require.NoError(t, err)

		record, err := service.RecordOutcome(ctx, "u1", "o1", failed("cancelled"))

		assert.Nil(t, record)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainErrors.ErrPaymentRegression))
		var regression *domainErrors.RegressionError
		require.True(t, errors.As(err, &regression))
		assert.Equal(t, "o1", regression.OrderID)

		entries := repo.entriesFor("u1")
		require.Len(t, entries, 1)
		assert.Equal(t, "success", entries[0].Status)
		assert.Nil(t, entries[0].FailureReason)
	})

	t.Run("repeated failure is a no-op", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		first, err := service.RecordOutcome(ctx, "u1", "o2", failed("cancelled"))
		require.NoError(t, err)
		assert.Equal(t, entity.ResultCreated, first.Result)

		second, err := service.RecordOutcome(ctx, "u1", "o2", failed("cancelled again"))
		require.NoError(t, err)
		assert.Equal(t, entity.ResultUnchanged, second.Result)

		entries := repo.entriesFor("u1")
		require.Len(t, entries, 1)
		assert.Equal(t, "failed", entries[0].Status)
		assert.Equal(t, "cancelled", model.StringValue(entries[0].FailureReason))
	})

	t.Run("pending entry is overwritten in place by success", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		created, err := service.RecordOutcome(ctx, "u1", "o3", pending(700))
		require.NoError(t, err)

		record, err := service.RecordOutcome(ctx, "u1", "o3", entity.Outcome{Status: entity.StatusSuccess, PaymentID: "pay_3"})
		require.NoError(t, err)
		assert.Equal(t, entity.ResultUpdated, record.Result)

		entries := repo.entriesFor("u1")
		require.Len(t, entries, 1)
		assert.Equal(t, "success", entries[0].Status)
		assert.Equal(t, "pay_3", model.StringValue(entries[0].PaymentID))
		assert.True(t, decimal.NewFromInt(700).Equal(entries[0].Amount), "amount of the pending entry is kept")
		assert.Equal(t, created.Entry.ID, entries[0].ID)
		assert.Equal(t, created.Entry.CreatedAt, entries[0].CreatedAt)
	})

	t.Run("success overwrites a failed entry and clears failure details", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		_, err := service.RecordOutcome(ctx, "u1", "o4", entity.Outcome{Status: entity.StatusFailed, FailureReason: "card declined", ErrorCode: "BAD_REQUEST_ERROR"})
		require.NoError(t, err)

		record, err := service.RecordOutcome(ctx, "u1", "o4", success(300, "pay_4"))
		require.NoError(t, err)
		assert.Equal(t, entity.ResultUpdated, record.Result)
		assert.Equal(t, "success", record.Entry.Status)
		assert.Nil(t, record.Entry.FailureReason)
		assert.Nil(t, record.Entry.ErrorCode)
	})

	t.Run("duplicate success callback is a no-op", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		_, err := service.RecordOutcome(ctx, "u1", "o5", success(100, "pay_5"))
		require.NoError(t, err)
		record, err := service.RecordOutcome(ctx, "u1", "o5", success(999, "pay_other"))
		require.NoError(t, err)

		assert.Equal(t, entity.ResultUnchanged, record.Result)
		assert.Equal(t, "pay_5", model.StringValue(record.Entry.PaymentID))
		assert.True(t, decimal.NewFromInt(100).Equal(record.Entry.Amount))
	})

	t.Run("pending outcome never overwrites", func(t *testing.T) {
		repo := newMemoryLedger()
		service := newLedgerService(repo)

		_, err := service.RecordOutcome(ctx, "u1", "o6", failed(""))
		require.NoError(t, err)
		record, err := service.RecordOutcome(ctx, "u1", "o6", pending(50))
		require.NoError(t, err)

		assert.Equal(t, entity.ResultUnchanged, record.Result)
		assert.Equal(t, "failed", record.Entry.Status)
		assert.Equal(t, entity.ReasonDefaultFailure, model.StringValue(record.Entry.FailureReason))
	})

	t.Run("missing identifiers fail before store access", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := usecase.NewLedgerService(repo, zap.NewNop(), fastRetry)

		_, err := service.RecordOutcome(ctx, "", "o1", success(1, "p"))
		var validationErr *domainErrors.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "userId", validationErr.Field)

		_, err = service.RecordOutcome(ctx, "u1", "  ", success(1, "p"))
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "orderId", validationErr.Field)

		_, err = service.RecordOutcome(ctx, "a", "x\x00y", success(1, "p"))
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "orderId", validationErr.Field)

		_, err = service.RecordOutcome(ctx, "a\x00x", "y", success(1, "p"))
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "userId", validationErr.Field)

		_, err = service.RecordOutcome(ctx, "u1", "o1", entity.Outcome{Status: "refunded"})
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "status", validationErr.Field)

		repo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLedgerService_OneEntryPerOrder(t *testing.T) {
	ctx := context.Background()
	statuses := []entity.TransactionStatus{entity.StatusPending, entity.StatusSuccess, entity.StatusFailed}

	// every sequence of three outcomes for the same order
	for _, a := range statuses {
		for _, b := range statuses {
			for _, c := range statuses {
				seq := []entity.TransactionStatus{a, b, c}
				t.Run(fmt.Sprintf("%s-%s-%s", a, b, c), func(t *testing.T) {
					repo := newMemoryLedger()
					service := newLedgerService(repo)
					sawSuccess := false

					for _, status := range seq {
						_, err := service.RecordOutcome(ctx, "u1", "o1", entity.Outcome{Status: status})
						if sawSuccess && status == entity.StatusFailed {
							assert.ErrorIs(t, err, domainErrors.ErrPaymentRegression)
						} else {
							assert.NoError(t, err)
						}
						if status == entity.StatusSuccess {
							sawSuccess = true
						}
					}

					entries := repo.entriesFor("u1")
					require.Len(t, entries, 1)
					if sawSuccess {
						assert.Equal(t, "success", entries[0].Status)
					}
				})
			}
		}
	}
}

func TestLedgerService_ConcurrentCallbacks(t *testing.T) {
	repo := newMemoryLedger()
	service := newLedgerService(repo)
	ctx := context.Background()

	_, err := service.RecordOutcome(ctx, "u1", "o1", pending(500))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = service.RecordOutcome(ctx, "u1", "o1", success(500, "pay_1"))
			} else {
				_, _ = service.RecordOutcome(ctx, "u1", fmt.Sprintf("f%d", i), failed("cancelled"))
			}
		}(i)
	}
	wg.Wait()

	entries := repo.entriesFor("u1")
	assert.Len(t, entries, 11)
	entry, err := repo.GetByOrder(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "success", entry.Status)
}

func TestLedgerService_Contention(t *testing.T) {
	ctx := context.Background()

	t.Run("retries after a write conflict", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := usecase.NewLedgerService(repo, zap.NewNop(), fastRetry)

		repo.On("Apply", ctx, "u1", "o1").Return(domainErrors.ErrConcurrentModification).Once()
		repo.On("Apply", ctx, "u1", "o1").Return(nil).Once()

		record, err := service.RecordOutcome(ctx, "u1", "o1", success(10, "pay_1"))

		require.NoError(t, err)
		assert.Equal(t, entity.ResultCreated, record.Result)
		repo.AssertNumberOfCalls(t, "Apply", 2)
	})

	t.Run("reports unavailable when retries are exhausted", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := usecase.NewLedgerService(repo, zap.NewNop(), fastRetry)

		repo.On("Apply", ctx, "u1", "o1").Return(domainErrors.ErrConcurrentModification)

		record, err := service.RecordOutcome(ctx, "u1", "o1", success(10, "pay_1"))

		assert.Nil(t, record)
		assert.ErrorIs(t, err, domainErrors.ErrConcurrentModification)
		assert.Equal(t, apperrors.ErrUnavailable, apperrors.CodeOf(domainErrors.ToAppError(err)))
		repo.AssertNumberOfCalls(t, "Apply", 3)
	})

	t.Run("store failures are not retried", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		service := usecase.NewLedgerService(repo, zap.NewNop(), fastRetry)

		repo.On("Apply", ctx, "u1", "o1").Return(errors.New("connection refused"))

		_, err := service.RecordOutcome(ctx, "u1", "o1", success(10, "pay_1"))

		assert.Error(t, err)
		assert.Equal(t, apperrors.ErrInternal, apperrors.CodeOf(domainErrors.ToAppError(err)))
		repo.AssertNumberOfCalls(t, "Apply", 1)
	})

	t.Run("stops waiting when the context is cancelled", func(t *testing.T) {
		repo := new(MockLedgerRepository)
		slow := usecase.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Hour, MaxBackoff: time.Hour}
		service := usecase.NewLedgerService(repo, zap.NewNop(), slow)

		cctx, cancel := context.WithCancel(ctx)
		repo.On("Apply", cctx, "u1", "o1").Return(domainErrors.ErrConcurrentModification).Run(func(mock.Arguments) { cancel() })

		_, err := service.RecordOutcome(cctx, "u1", "o1", success(10, "pay_1"))

		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNumberOfCalls(t, "Apply", 1)
	})
}

func TestLedgerService_Transactions(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLedger()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	service := usecase.NewLedgerService(repo, zap.NewNop(), fastRetry, usecase.WithLedgerClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	for i := 1; i <= 5; i++ {
		_, err := service.RecordOutcome(ctx, "u1", fmt.Sprintf("o%d", i), pending(int64(i*100)))
		require.NoError(t, err)
	}
	_, err := service.RecordOutcome(ctx, "u2", "other", pending(1))
	require.NoError(t, err)

	entries, meta, err := service.Transactions(ctx, "u1", entity.PaginationParams{Page: 1, Limit: 2})

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "o5", entries[0].OrderID)
	assert.Equal(t, "o4", entries[1].OrderID)
	assert.Equal(t, int64(5), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	entry, err := service.Transaction(ctx, "u1", "o3")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(entry.Amount))

	_, err = service.Transaction(ctx, "u2", "o3")
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)

	var validationErr *domainErrors.ValidationError
	_, _, err = service.Transactions(ctx, "u\x00", entity.PaginationParams{Page: 1, Limit: 2})
	assert.True(t, errors.As(err, &validationErr))
}
