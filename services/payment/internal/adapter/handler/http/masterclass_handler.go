package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

type MasterclassHandler struct {
	catalog *usecase.CatalogService
	logger  *zap.Logger
}

func NewMasterclassHandler(catalog *usecase.CatalogService, logger *zap.Logger) *MasterclassHandler {
	return &MasterclassHandler{
		catalog: catalog,
		logger:  logger,
	}
}

func (h *MasterclassHandler) ListMasterclasses(c echo.Context) error {
	masterclasses, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	h.logger.Debug("Listed masterclasses", zap.Int("count", len(masterclasses)))

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"masterclasses": masterclasses,
	})
}

func (h *MasterclassHandler) GetMasterclass(c echo.Context) error {
	masterclass, err := h.catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainErrors.ToAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"masterclass": masterclass,
	})
}
