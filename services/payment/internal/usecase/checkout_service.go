package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/entity"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// gateway receipts are limited to 40 characters
const maxReceiptLength = 40

var receiptUnsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// CreateOrderInput is a checkout request from an authenticated user
type CreateOrderInput struct {
	UserID        string
	Email         string
	Name          string
	MasterclassID string
}

// CreateOrderResult is what the client needs to open the gateway checkout
type CreateOrderResult struct {
	OrderID       string          `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	AmountMinor   int64           `json:"amountMinor"`
	Currency      string          `json:"currency"`
	KeyID         string          `json:"keyId,omitempty"`
	MasterclassID string          `json:"masterclassId"`
	Title         string          `json:"title"`
	// Free orders skip the gateway; the client confirms them through payment verification
	Free bool `json:"free"`
}

// CheckoutService creates gateway orders and their pending ledger entries
type CheckoutService struct {
	ledger        *LedgerService
	gateway       provider.PaymentGateway
	masterclasses repository.MasterclassRepository
	enrollments   repository.EnrollmentRepository
	users         repository.UserRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(ledger *LedgerService, gateway provider.PaymentGateway, repos *repository.Repositories, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		ledger:        ledger,
		gateway:       gateway,
		masterclasses: repos.Masterclass,
		enrollments:   repos.Enrollment,
		users:         repos.Users,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder prices the masterclass server-side and opens an order for it.
// Free masterclasses get a local dummy order id; paid ones go to the gateway. A gateway
// failure is recorded as a failed ledger entry under a synthesized order id.
func (s *CheckoutService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, domainErrors.NewRequiredFieldError("userId")
	}
	if strings.TrimSpace(in.MasterclassID) == "" {
		return nil, domainErrors.NewRequiredFieldError("masterclassId")
	}

	mc, err := s.masterclasses.GetByID(ctx, in.MasterclassID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, mc.ID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil, domainErrors.ErrAlreadyEnrolled
	}

	if err := s.users.Upsert(ctx, &model.UserProfile{ID: in.UserID, Email: in.Email, Name: in.Name}); err != nil {
		return nil, fmt.Errorf("failed to save user profile: %w", err)
	}

	now := s.now()
	currency := mc.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	result := &CreateOrderResult{
		Amount:        mc.Price,
		AmountMinor:   provider.ToMinorUnits(mc.Price),
		Currency:      currency,
		MasterclassID: mc.ID,
		Title:         mc.Title,
	}

	if mc.IsFree() {
		result.OrderID = fmt.Sprintf("%s%d", entity.DummyOrderPrefix, now.UnixMilli())
		result.Amount = decimal.Zero
		result.AmountMinor = 0
		result.Free = true

		if _, err := s.ledger.RecordOutcome(ctx, in.UserID, result.OrderID, s.pendingOutcome(mc, decimal.Zero, currency, entity.MethodFree)); err != nil {
			return nil, err
		}

		s.logger.Info("Free order created",
			zap.String("user_id", in.UserID),
			zap.String("order_id", result.OrderID),
			zap.String("masterclass_id", mc.ID))
		return result, nil
	}

	order, err := s.gateway.CreateOrder(ctx, &provider.CreateOrderRequest{
		Amount:   mc.Price,
		Currency: currency,
		Receipt:  buildReceipt(in.UserID, now),
		Notes: map[string]string{
			provider.NoteUserID:        in.UserID,
			provider.NoteMasterclassID: mc.ID,
		},
	})
	if err != nil {
		return nil, s.recordOrderFailure(ctx, in.UserID, mc, currency, err)
	}

	result.OrderID = order.ID
	result.KeyID = s.gateway.KeyID()
	if order.AmountMinor > 0 {
		result.AmountMinor = order.AmountMinor
	}

	if _, err := s.ledger.RecordOutcome(ctx, in.UserID, order.ID, s.pendingOutcome(mc, mc.Price, currency, entity.PaymentMethod(s.gateway.Name()))); err != nil {
		return nil, err
	}

	s.logger.Info("Gateway order created",
		zap.String("user_id", in.UserID),
		zap.String("order_id", order.ID),
		zap.String("masterclass_id", mc.ID),
		zap.Int64("amount_minor", result.AmountMinor))

	return result, nil
}

func (s *CheckoutService) pendingOutcome(mc *model.Masterclass, amount decimal.Decimal, currency string, method entity.PaymentMethod) entity.Outcome {
	return entity.Outcome{
		Status:        entity.StatusPending,
		Amount:        amount,
		Currency:      currency,
		MasterclassID: mc.ID,
		Title:         mc.Title,
		Method:        method,
		Type:          entity.TransactionTypePurchase,
	}
}

// recordOrderFailure leaves a failed entry in the user's history and returns the error for the caller
func (s *CheckoutService) recordOrderFailure(ctx context.Context, userID string, mc *model.Masterclass, currency string, cause error) error {
	s.logger.Error("Gateway order creation failed",
		zap.String("user_id", userID),
		zap.String("masterclass_id", mc.ID),
		zap.String("provider", s.gateway.Name()),
		zap.Error(cause))

	reason := "payment gateway unavailable"
	var providerErr *provider.ProviderError
	if errors.As(cause, &providerErr) && providerErr.Message != "" {
		reason = providerErr.Message
	}

	orderID := entity.FailedOrderPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := s.ledger.RecordOutcome(ctx, userID, orderID, entity.Outcome{
		Status:        entity.StatusFailed,
		Amount:        mc.Price,
		Currency:      currency,
		MasterclassID: mc.ID,
		Title:         mc.Title,
		Method:        entity.PaymentMethod(s.gateway.Name()),
		FailureReason: reason,
		ErrorCode:     entity.CodeOrderCreationFailed,
	}); err != nil {
		s.logger.Error("Failed to record order creation failure",
			zap.String("user_id", userID),
			zap.String("order_id", orderID),
			zap.Error(err))
	}

	return apperrors.Unavailable("failed to create payment order", cause)
}

// buildReceipt returns a gateway-safe receipt id for the user's order.
// Long user ids are cut so the timestamp suffix always survives.
func buildReceipt(userID string, now time.Time) string {
	suffix := fmt.Sprintf("_%d", now.UnixMilli())
	prefix := "rcpt_" + receiptUnsafeChars.ReplaceAllString(userID, "_")
	if len(prefix)+len(suffix) > maxReceiptLength {
		prefix = prefix[:maxReceiptLength-len(suffix)]
	}
	return prefix + suffix
}
