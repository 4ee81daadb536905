package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentGateway is a hosted-checkout gateway: the server creates an order, the client pays on
// the gateway's page, and the callback carries an order id, a payment id and a signature.
type PaymentGateway interface {
	// CreateOrder registers an order with the gateway
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)

	// FetchOrder loads an order, including the notes set at creation
	FetchOrder(ctx context.Context, orderID string) (*Order, error)

	// VerifyPaymentSignature checks the callback signature for (orderID, paymentID)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool

	// KeyID is the public key the client checkout widget needs
	KeyID() string

	// Name returns the provider name
	Name() string
}

// CreateOrderRequest represents a provider-agnostic order creation request
type CreateOrderRequest struct {
	Amount   decimal.Decimal   `json:"amount"` // major units; providers convert
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order represents an order created at the gateway
type Order struct {
	ID          string            `json:"id"`
	AmountMinor int64             `json:"amount"` // smallest currency unit
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Status      string            `json:"status"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// ProviderError is returned for any gateway-side or transport failure
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Order note keys written at checkout
const (
	NoteUserID        = "userId"
	NoteMasterclassID = "masterclassId"
)

// ToMinorUnits converts a major-unit amount (rupees) to the smallest unit (paise)
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts a smallest-unit amount back to major units
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
