package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/entity"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/middleware/auth"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

// VerifyPaymentRequest is the gateway checkout callback relayed by the client
type VerifyPaymentRequest struct {
	OrderID          string          `json:"razorpay_order_id" validate:"required"`
	PaymentID        string          `json:"razorpay_payment_id"`
	Signature        string          `json:"razorpay_signature"`
	UserID           string          `json:"userId" validate:"required"`
	MasterclassID    string          `json:"masterclassId"`
	MasterclassTitle string          `json:"masterclassTitle"`
	Amount           decimal.Decimal `json:"amount"`
}

// MarkFailedRequest reports a cancelled or failed checkout
type MarkFailedRequest struct {
	UserID           string          `json:"userId" validate:"required"`
	OrderID          string          `json:"orderId" validate:"required"`
	PaymentID        string          `json:"paymentId"`
	FailureReason    string          `json:"failureReason"`
	ErrorCode        string          `json:"errorCode"`
	ErrorDescription string          `json:"errorDescription"`
	MasterclassID    string          `json:"masterclassId"`
	MasterclassTitle string          `json:"masterclassTitle"`
	Amount           decimal.Decimal `json:"amount"`
}

// resultAlreadyFailed is reported by mark-failed when the entry was already failed
const resultAlreadyFailed = "alreadyFailed"

type PaymentHandler struct {
	payments *usecase.PaymentService
	ledger   *usecase.LedgerService
	logger   *zap.Logger
}

func NewPaymentHandler(payments *usecase.PaymentService, ledger *usecase.LedgerService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		ledger:   ledger,
		logger:   logger,
	}
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err
	}

	var req VerifyPaymentRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	result, err := h.payments.VerifyPayment(c.Request().Context(), usecase.VerifyPaymentInput{
		AuthUserID:    user.UserID,
		UserID:        req.UserID,
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		Signature:     req.Signature,
		MasterclassID: req.MasterclassID,
		Amount:        req.Amount,
	})
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	if !result.Verified {
		message := "Invalid payment signature"
		if result.ErrorCode == entity.CodeMasterclassMismatch {
			message = "Masterclass does not match the payment order"
		}
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":     false,
			"error":       message,
			"code":        result.ErrorCode,
			"transaction": result.Entry,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"result":      result.Result,
		"enrolled":    result.Enrolled,
		"transaction": result.Entry,
	})
}

func (h *PaymentHandler) MarkFailed(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err
	}

	var req MarkFailedRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	record, err := h.payments.MarkFailed(c.Request().Context(), usecase.MarkFailedInput{
		AuthUserID:       user.UserID,
		UserID:           req.UserID,
		OrderID:          req.OrderID,
		PaymentID:        req.PaymentID,
		FailureReason:    req.FailureReason,
		ErrorDescription: req.ErrorDescription,
		ErrorCode:        req.ErrorCode,
		MasterclassID:    req.MasterclassID,
		Title:            req.MasterclassTitle,
		Amount:           req.Amount,
	})
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	result := string(record.Result)
	if record.Result == entity.ResultUnchanged {
		result = resultAlreadyFailed
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"result":      result,
		"transaction": record.Entry,
	})
}

func (h *PaymentHandler) ListTransactions(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err
	}

	var params entity.PaginationParams
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.InvalidArgument("Invalid page parameter", err)
		}
		params.Page = page
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.InvalidArgument("Invalid limit parameter", err)
		}
		params.Limit = limit
	}

	entries, meta, err := h.ledger.Transactions(c.Request().Context(), user.UserID, params)
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	h.logger.Debug("Retrieved user transactions",
		zap.String("user_id", user.UserID),
		zap.Int("count", len(entries)))

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"transactions": entries,
		"pagination":   meta,
	})
}

func (h *PaymentHandler) GetTransaction(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err
	}

	entry, err := h.ledger.Transaction(c.Request().Context(), user.UserID, c.Param("orderId"))
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"transaction": entry,
	})
}
