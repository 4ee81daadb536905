package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/services/payment/internal/config"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/provider/razorpay"
)

// NewGateway creates the configured payment gateway
func NewGateway(cfg config.RazorpayConfig, logger *zap.Logger) (provider.PaymentGateway, error) {
	if cfg.KeySecret == "" {
		return nil, fmt.Errorf("Razorpay key secret not configured")
	}
	if cfg.KeyID == "" {
		logger.Warn("Razorpay key id not configured, checkout widget will not open")
	}

	return razorpay.NewRazorpayProvider(
		cfg.KeyID,
		cfg.KeySecret,
		logger,
		razorpay.WithBaseURL(cfg.BaseURL),
		razorpay.WithTimeout(cfg.Timeout),
	), nil
}
