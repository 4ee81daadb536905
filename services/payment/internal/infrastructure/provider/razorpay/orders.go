package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
)

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status"`
	Notes    json.RawMessage `json:"notes"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with Razorpay
// POST /v1/orders
func (p *RazorpayProvider) CreateOrder(ctx context.Context, req *provider.CreateOrderRequest) (*provider.Order, error) {
	amount := provider.ToMinorUnits(req.Amount)
	if amount <= 0 {
		return nil, &provider.ProviderError{
			Code:    "INVALID_AMOUNT",
			Message: "Order amount must be positive",
			Details: req.Amount.String(),
		}
	}

	p.logger.Info("RazorpayProvider: Creating order",
		zap.Int64("amount", amount),
		zap.String("currency", req.Currency),
		zap.String("receipt", req.Receipt))

	jsonBody, err := json.Marshal(orderRequest{
		Amount:   amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	var result orderResponse
	if err := p.do(ctx, http.MethodPost, "orders", jsonBody, &result); err != nil {
		return nil, err
	}

	p.logger.Info("RazorpayProvider: Order created",
		zap.String("order_id", result.ID),
		zap.String("status", result.Status))

	return result.toOrder(), nil
}

// FetchOrder loads an order and its notes
// GET /v1/orders/{id}
func (p *RazorpayProvider) FetchOrder(ctx context.Context, orderID string) (*provider.Order, error) {
	var result orderResponse
	if err := p.do(ctx, http.MethodGet, "orders/"+url.PathEscape(orderID), nil, &result); err != nil {
		return nil, err
	}
	return result.toOrder(), nil
}

func (r orderResponse) toOrder() *provider.Order {
	return &provider.Order{
		ID:          r.ID,
		AmountMinor: r.Amount,
		Currency:    r.Currency,
		Receipt:     r.Receipt,
		Status:      r.Status,
		Notes:       decodeNotes(r.Notes),
	}
}

// decodeNotes accepts the notes object; Razorpay sends an empty array when there are none
func decodeNotes(raw json.RawMessage) map[string]string {
	notes := map[string]string{}
	if len(raw) == 0 {
		return notes
	}
	if err := json.Unmarshal(raw, &notes); err != nil {
		return map[string]string{}
	}
	return notes
}

// do sends an authenticated API request and decodes a 200 response into out
func (p *RazorpayProvider) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", p.baseURL, apiVersion, path)
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}
	httpReq.SetBasicAuth(p.keyID, p.keySecret)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.logger.Error("RazorpayProvider: Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Razorpay API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		p.logger.Error("RazorpayProvider: API returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)))

		var errResp errorResponse
		_ = json.Unmarshal(respBody, &errResp)

		code := errResp.Error.Code
		if code == "" {
			code = "API_ERROR"
		}
		message := errResp.Error.Description
		if message == "" {
			message = fmt.Sprintf("Razorpay returned status %d", resp.StatusCode)
		}
		return &provider.ProviderError{
			Code:    code,
			Message: message,
			Details: string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}
	return nil
}
