package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/logger"
	handlers "github.com/shivam7053/raga-vachika/services/payment/internal/adapter/handler/http"
	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	"github.com/shivam7053/raga-vachika/services/payment/internal/middleware/auth"
	"github.com/shivam7053/raga-vachika/services/payment/internal/usecase"
)

// HealthFunc reports storage health for /health
type HealthFunc func(ctx context.Context) (map[string]interface{}, error)

// Services are the usecases exposed over HTTP
type Services struct {
	Catalog   *usecase.CatalogService
	Checkout  *usecase.CheckoutService
	Payments  *usecase.PaymentService
	Ledger    *usecase.LedgerService
	Reminders *usecase.ReminderService
	Notifier  *usecase.UpdateNotifier
	Health    HealthFunc
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
}

func NewServer(cfg *config.Config, log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins(cfg.Server.HTTP.AllowOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		services: services,
	}
	s.setupRoutes()
	return s
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.health)

	// Initialize handlers
	masterclassHandler := handlers.NewMasterclassHandler(s.services.Catalog, s.logger)
	checkoutHandler := handlers.NewCheckoutHandler(s.services.Checkout, s.logger)
	paymentHandler := handlers.NewPaymentHandler(s.services.Payments, s.services.Ledger, s.logger)
	internalHandler := handlers.NewInternalHandler(s.services.Reminders, s.services.Notifier, s.config.Service.CronSecret, s.logger)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret:    s.config.JWT.Secret,
		Logger:    s.logger,
		SkipPaths: s.config.JWT.SkipPaths,
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes (no authentication required)
	v1.GET("/masterclasses", masterclassHandler.ListMasterclasses)
	v1.GET("/masterclasses/:id", masterclassHandler.GetMasterclass)

	// Scheduler and admin triggers, authorized by the cron secret header
	internal := v1.Group("/internal", internalHandler.RequireCronSecret)
	internal.POST("/reminders", internalHandler.SendDueReminders)
	internal.POST("/masterclasses/:id/notify", internalHandler.NotifyMasterclassUpdate)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	protected.POST("/orders", checkoutHandler.CreateOrder)
	protected.POST("/payments/verify", paymentHandler.VerifyPayment)
	protected.POST("/payments/failed", paymentHandler.MarkFailed)
	protected.GET("/transactions", paymentHandler.ListTransactions)
	protected.GET("/transactions/:orderId", paymentHandler.GetTransaction)
}

func (s *Server) health(c echo.Context) error {
	body := echo.Map{
		"status":  "healthy",
		"service": s.config.Service.Name,
	}
	if s.services.Health == nil {
		return c.JSON(http.StatusOK, body)
	}

	stats, err := s.services.Health(c.Request().Context())
	if err != nil {
		s.logger.Error("Storage health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	body["storage"] = stats
	return c.JSON(http.StatusOK, body)
}
