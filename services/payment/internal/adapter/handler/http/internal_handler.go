package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

// CronSecretHeader carries the shared secret of the scheduler that triggers internal jobs
const CronSecretHeader = "X-Cron-Secret"

// InternalHandler serves scheduler and admin triggers
type InternalHandler struct {
	reminders  *usecase.ReminderService
	notifier   *usecase.UpdateNotifier
	cronSecret string
	logger     *zap.Logger
}

func NewInternalHandler(reminders *usecase.ReminderService, notifier *usecase.UpdateNotifier, cronSecret string, logger *zap.Logger) *InternalHandler {
	return &InternalHandler{
		reminders:  reminders,
		notifier:   notifier,
		cronSecret: cronSecret,
		logger:     logger,
	}
}

// RequireCronSecret rejects requests without the configured cron secret. An empty secret rejects everything.
func (h *InternalHandler) RequireCronSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		provided := c.Request().Header.Get(CronSecretHeader)
		if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.cronSecret)) != 1 {
			h.logger.Warn("Rejected internal trigger",
				zap.Bool("security_event", true),
				zap.String("path", c.Path()),
				zap.String("ip", c.RealIP()))
			return apperrors.NewAppError(apperrors.ErrUnauthenticated, "invalid cron secret", nil)
		}
		return next(c)
	}
}

func (h *InternalHandler) SendDueReminders(c echo.Context) error {
	summary, err := h.reminders.SendDueReminders(c.Request().Context())
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"summary": summary,
	})
}

// NotifyMasterclassUpdate emails every enrolled user that the masterclass changed
func (h *InternalHandler) NotifyMasterclassUpdate(c echo.Context) error {
	summary, err := h.notifier.NotifyUpdate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"summary": summary,
	})
}
