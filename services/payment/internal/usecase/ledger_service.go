package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/entity"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

const defaultCurrency = "INR"

// RetryPolicy bounds how often a contended ledger write is re-run.
// Backoff for attempt n is min(BaseBackoff*2^(n-1), MaxBackoff).
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 1s/2s backoff capped at 5s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Second, MaxBackoff: 5 * time.Second}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseBackoff
	for i := 1; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// LedgerRecord is the outcome of one RecordOutcome call
type LedgerRecord struct {
	Result entity.RecordResult
	Entry  *model.LedgerEntry
}

// LedgerService applies payment outcomes to per-user ledgers
type LedgerService struct {
	repo   repository.LedgerRepository
	logger *zap.Logger
	retry  RetryPolicy
	now    func() time.Time
}

// LedgerOption customizes a LedgerService
type LedgerOption func(*LedgerService)

// WithLedgerClock overrides the time source used for entry timestamps
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repo repository.LedgerRepository, logger *zap.Logger, retry RetryPolicy, opts ...LedgerOption) *LedgerService {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	s := &LedgerService{
		repo:   repo,
		logger: logger,
		retry:  retry,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordOutcome moves the (userID, orderID) entry to the outcome's status.
//
// A missing user or order creates the entry. A success entry never becomes failed: that
// attempt returns a RegressionError and writes nothing. Repeating the current terminal
// status, or a pending outcome against any existing entry, is a no-op reported as
// ResultUnchanged. Pending entries, and failed entries receiving a success, are overwritten
// in place. Write conflicts re-run the whole read-decide-write cycle per the retry policy.
func (s *LedgerService) RecordOutcome(ctx context.Context, userID, orderID string, outcome entity.Outcome) (*LedgerRecord, error) {
	if err := validateLedgerKey(userID, orderID); err != nil {
		return nil, err
	}
	if !outcome.Status.Valid() {
		return nil, &domainErrors.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", outcome.Status)}
	}

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		var result entity.RecordResult
		entry, err := s.repo.Apply(ctx, userID, orderID, func(current *model.LedgerEntry) (*model.LedgerEntry, error) {
			next, res, err := decideOutcome(current, userID, orderID, outcome, s.now())
			result = res
			return next, err
		})
		if err == nil {
			s.logger.Info("Ledger outcome recorded",
				zap.String("user_id", userID),
				zap.String("order_id", orderID),
				zap.String("status", string(outcome.Status)),
				zap.String("result", string(result)),
				zap.Int("attempt", attempt))
			return &LedgerRecord{Result: result, Entry: entry}, nil
		}

		if errors.Is(err, domainErrors.ErrPaymentRegression) {
			s.logger.Warn("Refused to mark successful payment as failed",
				zap.String("user_id", userID),
				zap.String("order_id", orderID),
				zap.String("failure_reason", outcome.FailureReason))
			return nil, err
		}
		if !errors.Is(err, domainErrors.ErrConcurrentModification) {
			s.logger.Error("Failed to record ledger outcome",
				zap.String("user_id", userID),
				zap.String("order_id", orderID),
				zap.Error(err))
			return nil, fmt.Errorf("failed to record outcome: %w", err)
		}

		lastErr = err
		if attempt == s.retry.MaxAttempts {
			break
		}

		backoff := s.retry.backoff(attempt)
		s.logger.Warn("Ledger write conflict, retrying",
			zap.String("user_id", userID),
			zap.String("order_id", orderID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("failed to record outcome: %w", ctx.Err())
		}
	}

	s.logger.Error("Ledger write conflict retries exhausted",
		zap.String("user_id", userID),
		zap.String("order_id", orderID),
		zap.Int("attempts", s.retry.MaxAttempts))
	return nil, fmt.Errorf("failed to record outcome after %d attempts: %w", s.retry.MaxAttempts, lastErr)
}

// Transaction returns one entry of the user's ledger
func (s *LedgerService) Transaction(ctx context.Context, userID, orderID string) (*model.LedgerEntry, error) {
	if err := validateLedgerKey(userID, orderID); err != nil {
		return nil, err
	}
	return s.repo.GetByOrder(ctx, userID, orderID)
}

// Transactions returns a page of the user's ledger, newest first
func (s *LedgerService) Transactions(ctx context.Context, userID string, page entity.PaginationParams) ([]model.LedgerEntry, entity.PaginationMeta, error) {
	if strings.ContainsRune(userID, 0) {
		return nil, entity.PaginationMeta{}, &domainErrors.ValidationError{Field: "userId", Message: "must not contain NUL"}
	}
	page.Validate()

	entries, err := s.repo.ListByUser(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, entity.PaginationMeta{}, fmt.Errorf("failed to list transactions: %w", err)
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, entity.PaginationMeta{}, fmt.Errorf("failed to count transactions: %w", err)
	}

	return entries, entity.NewPaginationMeta(page, total), nil
}

// validateLedgerKey rejects blank ids and ids containing NUL, the bolt key separator
func validateLedgerKey(userID, orderID string) error {
	if strings.TrimSpace(userID) == "" {
		return domainErrors.NewRequiredFieldError("userId")
	}
	if strings.TrimSpace(orderID) == "" {
		return domainErrors.NewRequiredFieldError("orderId")
	}
	if strings.ContainsRune(userID, 0) {
		return &domainErrors.ValidationError{Field: "userId", Message: "must not contain NUL"}
	}
	if strings.ContainsRune(orderID, 0) {
		return &domainErrors.ValidationError{Field: "orderId", Message: "must not contain NUL"}
	}
	return nil
}

// decideOutcome is the pure transition table. A nil entry with a nil error means no write.
func decideOutcome(current *model.LedgerEntry, userID, orderID string, o entity.Outcome, now time.Time) (*model.LedgerEntry, entity.RecordResult, error) {
	if current == nil {
		return newLedgerEntry(userID, orderID, o, now), entity.ResultCreated, nil
	}

	status := entity.TransactionStatus(current.Status)
	if !status.IsTerminal() {
		if o.Status == entity.StatusPending {
			return nil, entity.ResultUnchanged, nil
		}
		return overwriteLedgerEntry(current, o, now), entity.ResultUpdated, nil
	}

	switch status {
	case entity.StatusSuccess:
		if o.Status == entity.StatusFailed {
			return nil, "", &domainErrors.RegressionError{UserID: userID, OrderID: orderID}
		}
		return nil, entity.ResultUnchanged, nil

	default:
		if o.Status == entity.StatusSuccess {
			return overwriteLedgerEntry(current, o, now), entity.ResultUpdated, nil
		}
		return nil, entity.ResultUnchanged, nil
	}
}

func newLedgerEntry(userID, orderID string, o entity.Outcome, now time.Time) *model.LedgerEntry {
	entry := &model.LedgerEntry{
		ID:            uuid.New(),
		UserID:        userID,
		OrderID:       orderID,
		PaymentID:     model.StringPtr(o.PaymentID),
		MasterclassID: model.StringPtr(o.MasterclassID),
		Title:         o.Title,
		Amount:        o.Amount,
		Currency:      o.Currency,
		Status:        string(o.Status),
		Method:        string(o.Method),
		Type:          o.Type,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if entry.Currency == "" {
		entry.Currency = defaultCurrency
	}
	if entry.Type == "" {
		entry.Type = entity.TransactionTypePurchase
	}
	if o.Status == entity.StatusFailed {
		entry.FailureReason = model.StringPtr(failureReasonOrDefault(o.FailureReason))
		entry.ErrorCode = model.StringPtr(o.ErrorCode)
	}
	return entry
}

// overwriteLedgerEntry keeps identity, creation time and version; empty outcome fields keep
// the existing values. Failure details only survive on failed entries.
func overwriteLedgerEntry(current *model.LedgerEntry, o entity.Outcome, now time.Time) *model.LedgerEntry {
	next := *current
	next.Status = string(o.Status)
	next.UpdatedAt = now

	if o.PaymentID != "" {
		next.PaymentID = model.StringPtr(o.PaymentID)
	}
	if !o.Amount.IsZero() {
		next.Amount = o.Amount
	}
	if o.Currency != "" {
		next.Currency = o.Currency
	}
	if o.MasterclassID != "" && next.MasterclassID == nil {
		next.MasterclassID = model.StringPtr(o.MasterclassID)
	}
	if o.Title != "" {
		next.Title = o.Title
	}
	if o.Method != "" {
		next.Method = string(o.Method)
	}
	if o.Type != "" {
		next.Type = o.Type
	}

	if o.Status == entity.StatusFailed {
		if o.FailureReason != "" || next.FailureReason == nil {
			next.FailureReason = model.StringPtr(failureReasonOrDefault(o.FailureReason))
		}
		if o.ErrorCode != "" {
			next.ErrorCode = model.StringPtr(o.ErrorCode)
		}
	} else {
		next.FailureReason = nil
		next.ErrorCode = nil
	}
	return &next
}

func failureReasonOrDefault(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return entity.ReasonDefaultFailure
	}
	return reason
}
