package razorpay

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	apiVersion     = "v1"
	providerName   = "razorpay"
)

// RazorpayProvider implements PaymentGateway against the Razorpay Orders API
type RazorpayProvider struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

var _ provider.PaymentGateway = (*RazorpayProvider)(nil)

// Option customizes a RazorpayProvider
type Option func(*RazorpayProvider)

// WithBaseURL points the client at another API host
func WithBaseURL(baseURL string) Option {
	return func(p *RazorpayProvider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(p *RazorpayProvider) {
		if timeout > 0 {
			p.client.Timeout = timeout
		}
	}
}

// NewRazorpayProvider creates a new Razorpay provider
func NewRazorpayProvider(keyID, keySecret string, logger *zap.Logger, opts ...Option) *RazorpayProvider {
	p := &RazorpayProvider{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *RazorpayProvider) Name() string {
	return providerName
}

// KeyID returns the public key for the checkout widget
func (p *RazorpayProvider) KeyID() string {
	return p.keyID
}

// VerifyPaymentSignature checks a checkout callback signature
func (p *RazorpayProvider) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(p.keySecret, orderID, paymentID, signature)
}
