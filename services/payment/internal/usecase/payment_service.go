package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/entity"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// VerifyPaymentInput is a gateway checkout callback relayed by the client.
// AuthUserID is the authenticated caller; it must match UserID when set.
type VerifyPaymentInput struct {
	AuthUserID    string
	UserID        string
	OrderID       string
	PaymentID     string
	Signature     string
	MasterclassID string
	Amount        decimal.Decimal
}

// VerifyPaymentResult reports what the callback did to the ledger
type VerifyPaymentResult struct {
	Verified  bool               `json:"verified"`
	Result    string             `json:"result"`
	ErrorCode string             `json:"errorCode,omitempty"`
	Entry     *model.LedgerEntry `json:"transaction"`
	Enrolled  bool               `json:"enrolled"`
}

// MarkFailedInput is a client report of a cancelled or failed checkout
type MarkFailedInput struct {
	AuthUserID       string
	UserID           string
	OrderID          string
	PaymentID        string
	FailureReason    string
	ErrorDescription string
	ErrorCode        string
	MasterclassID    string
	Title            string
	Amount           decimal.Decimal
}

// PaymentService turns gateway callbacks into ledger outcomes, enrollments and emails
type PaymentService struct {
	ledger        *LedgerService
	gateway       provider.PaymentGateway
	masterclasses repository.MasterclassRepository
	enrollments   repository.EnrollmentRepository
	users         repository.UserRepository
	reminders     *ReminderService
	dispatcher    *EmailDispatcher
	siteURL       string
	logger        *zap.Logger
	now           func() time.Time
}

// NewPaymentService creates a new payment service. reminders and dispatcher may be nil.
func NewPaymentService(
	ledger *LedgerService,
	gateway provider.PaymentGateway,
	repos *repository.Repositories,
	reminders *ReminderService,
	dispatcher *EmailDispatcher,
	siteURL string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		ledger:        ledger,
		gateway:       gateway,
		masterclasses: repos.Masterclass,
		enrollments:   repos.Enrollment,
		users:         repos.Users,
		reminders:     reminders,
		dispatcher:    dispatcher,
		siteURL:       siteURL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// VerifyPayment validates a checkout callback and records its outcome.
//
// Gateway orders need a signature that verifies against the gateway secret. Dummy orders
// skip the signature only when every amount involved is zero: the claimed amount, the
// masterclass price and any existing entry. The masterclass always comes from the server
// side: the gateway order notes for gateway orders, the pending entry for dummy orders. A
// client masterclassId, stored masterclass or order owner that disagrees is rejected.
// Rejections are recorded as failed entries and reported as not verified. Emails go out
// only when the ledger actually moved to success and never affect the returned result.
func (s *PaymentService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*VerifyPaymentResult, error) {
	if err := checkLedgerOwner(in.AuthUserID, in.UserID, in.OrderID); err != nil {
		return nil, err
	}

	existing, err := s.ledger.Transaction(ctx, in.UserID, in.OrderID)
	if err != nil && !errors.Is(err, domainErrors.ErrTransactionNotFound) {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	claimedID := strings.TrimSpace(in.MasterclassID)

	outcome := entity.Outcome{
		PaymentID: in.PaymentID,
		Type:      entity.TransactionTypePurchase,
	}

	var (
		mc       *model.Masterclass
		verified bool
		mismatch bool
	)
	if entity.IsDummyOrder(in.OrderID) {
		masterclassID := claimedID
		if stored := storedMasterclassID(existing); stored != "" {
			mismatch = claimedID != "" && claimedID != stored
			masterclassID = stored
		}
		if mc, err = s.lookupMasterclass(ctx, masterclassID); err != nil {
			return nil, err
		}
		verified = !mismatch && dummyBypassAllowed(in.Amount, mc, existing)
		outcome.Method = entity.MethodDummy
		if existing != nil && existing.Method == string(entity.MethodFree) {
			outcome.Method = entity.MethodFree
		}
		if outcome.PaymentID == "" {
			outcome.PaymentID = fmt.Sprintf("%s%d", entity.DummyOrderPrefix, s.now().UnixMilli())
		}
	} else {
		if strings.TrimSpace(in.PaymentID) == "" {
			return nil, domainErrors.NewRequiredFieldError("paymentId")
		}
		if strings.TrimSpace(in.Signature) == "" {
			return nil, domainErrors.NewRequiredFieldError("signature")
		}
		outcome.Method = entity.PaymentMethod(s.gateway.Name())
		verified = s.gateway.VerifyPaymentSignature(in.OrderID, in.PaymentID, in.Signature)

		masterclassID := storedMasterclassID(existing)
		if verified {
			ref, err := s.gatewayOrderRef(ctx, in.UserID, in.OrderID)
			if err != nil {
				return nil, err
			}
			mismatch = ref.otherUser ||
				(claimedID != "" && claimedID != ref.masterclassID) ||
				(masterclassID != "" && masterclassID != ref.masterclassID)
			verified = !mismatch
			masterclassID = ref.masterclassID
			outcome.Amount = ref.amount
		}
		if mc, err = s.lookupMasterclass(ctx, masterclassID); err != nil {
			return nil, err
		}
	}

	if mc != nil {
		outcome.MasterclassID = mc.ID
		outcome.Title = mc.Title
		outcome.Currency = mc.Currency
	}

	if !verified {
		outcome.Status = entity.StatusFailed
		outcome.FailureReason = entity.ReasonInvalidSignature
		outcome.ErrorCode = entity.CodeInvalidSignature
		if mismatch {
			outcome.FailureReason = entity.ReasonMasterclassMismatch
			outcome.ErrorCode = entity.CodeMasterclassMismatch
		}

		s.logger.Warn("Payment verification rejected",
			zap.Bool("security_event", true),
			zap.String("user_id", in.UserID),
			zap.String("order_id", in.OrderID),
			zap.String("payment_id", in.PaymentID),
			zap.String("reason", outcome.ErrorCode),
			zap.String("claimed_masterclass_id", claimedID),
			zap.String("order_masterclass_id", outcome.MasterclassID),
			zap.Bool("dummy_order", entity.IsDummyOrder(in.OrderID)),
			zap.String("claimed_amount", in.Amount.String()))

		record, err := s.ledger.RecordOutcome(ctx, in.UserID, in.OrderID, outcome)
		if err != nil {
			return nil, err
		}
		return &VerifyPaymentResult{
			Verified:  false,
			Result:    string(record.Result),
			ErrorCode: outcome.ErrorCode,
			Entry:     record.Entry,
		}, nil
	}

	outcome.Status = entity.StatusSuccess
	record, err := s.ledger.RecordOutcome(ctx, in.UserID, in.OrderID, outcome)
	if err != nil {
		return nil, err
	}

	result := &VerifyPaymentResult{Verified: true, Result: string(record.Result), Entry: record.Entry}

	if mc != nil {
		granted, err := s.enrollments.Grant(ctx, &model.Enrollment{
			MasterclassID: mc.ID,
			UserID:        in.UserID,
			OrderID:       in.OrderID,
			CreatedAt:     s.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to grant enrollment: %w", err)
		}
		result.Enrolled = true
		if granted {
			s.logger.Info("Enrollment granted",
				zap.String("user_id", in.UserID),
				zap.String("masterclass_id", mc.ID),
				zap.String("order_id", in.OrderID))
		}
	}

	if record.Result != entity.ResultUnchanged {
		s.notifyPurchase(in.UserID, record.Entry, mc)
	}

	return result, nil
}

// MarkFailed records a cancelled or failed checkout. A successful order is never downgraded.
func (s *PaymentService) MarkFailed(ctx context.Context, in MarkFailedInput) (*LedgerRecord, error) {
	if err := checkLedgerOwner(in.AuthUserID, in.UserID, in.OrderID); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(in.FailureReason)
	if reason == "" {
		reason = strings.TrimSpace(in.ErrorDescription)
	}
	if reason == "" {
		reason = entity.ReasonDefaultFailure
	}
	code := strings.TrimSpace(in.ErrorCode)
	if code == "" {
		code = entity.CodePaymentFailed
	}

	outcome := entity.Outcome{
		Status:        entity.StatusFailed,
		Amount:        in.Amount,
		PaymentID:     in.PaymentID,
		FailureReason: reason,
		ErrorCode:     code,
		MasterclassID: in.MasterclassID,
		Title:         in.Title,
		Type:          entity.TransactionTypePurchase,
	}
	if entity.IsDummyOrder(in.OrderID) {
		outcome.Method = entity.MethodDummy
	} else {
		outcome.Method = entity.PaymentMethod(s.gateway.Name())
	}

	record, err := s.ledger.RecordOutcome(ctx, in.UserID, in.OrderID, outcome)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment marked failed",
		zap.String("user_id", in.UserID),
		zap.String("order_id", in.OrderID),
		zap.String("error_code", code),
		zap.String("result", string(record.Result)))

	return record, nil
}

func (s *PaymentService) lookupMasterclass(ctx context.Context, id string) (*model.Masterclass, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	mc, err := s.masterclasses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrMasterclassNotFound) {
			s.logger.Warn("Payment references unknown masterclass", zap.String("masterclass_id", id))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load masterclass: %w", err)
	}
	return mc, nil
}

// notifyPurchase queues the confirmation email and any immediately due session reminders
func (s *PaymentService) notifyPurchase(userID string, entry *model.LedgerEntry, mc *model.Masterclass) {
	if !s.dispatcher.Enabled() {
		return
	}

	s.dispatcher.Go(EmailTagPurchaseConfirmation, func(ctx context.Context) error {
		profile, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load user profile: %w", err)
		}
		if profile == nil || profile.Email == "" {
			s.logger.Warn("No email on file for purchase confirmation", zap.String("user_id", userID))
			return nil
		}

		msg, err := purchaseConfirmationEmail(profile, entry, mc, s.siteURL, s.now())
		if err != nil {
			return err
		}
		return s.dispatcher.mailer.Send(ctx, msg)
	})

	if s.reminders != nil && mc != nil {
		s.dispatcher.Go(EmailTagSessionReminder, func(ctx context.Context) error {
			_, err := s.reminders.RemindUpcoming(ctx, userID, mc)
			return err
		})
	}
}

// checkLedgerOwner validates identifiers and rejects writes to another user's ledger
func checkLedgerOwner(authUserID, userID, orderID string) error {
	if err := validateLedgerKey(userID, orderID); err != nil {
		return err
	}
	if authUserID != "" && authUserID != userID {
		return &domainErrors.ForbiddenUserError{AuthUserID: authUserID, UserID: userID}
	}
	return nil
}

// gatewayOrder is what the server knows about a gateway order independent of the callback
type gatewayOrder struct {
	masterclassID string
	amount        decimal.Decimal
	otherUser     bool
}

// gatewayOrderRef loads the masterclass, owner and amount written to the gateway order at
// checkout. Ledger entries can be written by failure reports, so only the gateway is trusted.
func (s *PaymentService) gatewayOrderRef(ctx context.Context, userID, orderID string) (*gatewayOrder, error) {
	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to fetch gateway order",
			zap.String("user_id", userID),
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, apperrors.Unavailable("failed to load payment order", err)
	}

	owner := order.Notes[provider.NoteUserID]
	return &gatewayOrder{
		masterclassID: order.Notes[provider.NoteMasterclassID],
		amount:        provider.FromMinorUnits(order.AmountMinor),
		otherUser:     owner != "" && owner != userID,
	}, nil
}

func storedMasterclassID(entry *model.LedgerEntry) string {
	if entry == nil {
		return ""
	}
	return model.StringValue(entry.MasterclassID)
}

// dummyBypassAllowed reports whether a dummy order may be settled without a signature
func dummyBypassAllowed(claimed decimal.Decimal, mc *model.Masterclass, existing *model.LedgerEntry) bool {
	if !claimed.IsZero() {
		return false
	}
	if mc != nil && !mc.IsFree() {
		return false
	}
	if existing != nil && !existing.Amount.IsZero() {
		return false
	}
	return true
}
