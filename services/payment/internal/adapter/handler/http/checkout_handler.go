package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/middleware/auth"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

// CreateOrderRequest is the checkout body. Amount and currency come from the catalog, never the client.
type CreateOrderRequest struct {
	MasterclassID string `json:"masterclassId" validate:"required"`
}

type CheckoutHandler struct {
	checkout *usecase.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	// Get authenticated user from JWT
	user, err := auth.RequireAuth(c)
	if err != nil || user == nil {
		return err // RequireAuth already returns the JSON error response
	}

	var req CreateOrderRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	h.logger.Info("Creating order",
		zap.String("user_id", user.UserID),
		zap.String("masterclass_id", req.MasterclassID))

	order, err := h.checkout.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		UserID:        user.UserID,
		Email:         user.Email,
		Name:          user.Name,
		MasterclassID: req.MasterclassID,
	})
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
	})
}
