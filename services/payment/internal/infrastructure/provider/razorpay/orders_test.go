package razorpay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/provider"
	"github.com/shivam7053/raga-vachika/services/payment/internal/infrastructure/provider/razorpay"
)

func TestRazorpayProvider_CreateOrder(t *testing.T) {
	t.Run("posts order in paise with basic auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/orders", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "secret", pass)

			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(49950), body["amount"])
			assert.Equal(t, "INR", body["currency"])
			assert.Equal(t, "rcpt_u1_1", body["receipt"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"order_abc","entity":"order","amount":49950,"currency":"INR","receipt":"rcpt_u1_1","status":"created"}`))
		}))
		defer server.Close()

		p := razorpay.NewRazorpayProvider("rzp_test_key", "secret", zap.NewNop(), razorpay.WithBaseURL(server.URL+"/"))

		order, err := p.CreateOrder(context.Background(), &provider.CreateOrderRequest{
			Amount:   decimal.RequireFromString("499.50"),
			Currency: "INR",
			Receipt:  "rcpt_u1_1",
		})

		require.NoError(t, err)
		assert.Equal(t, "order_abc", order.ID)
		assert.Equal(t, int64(49950), order.AmountMinor)
		assert.Equal(t, "created", order.Status)
	})

	t.Run("maps gateway errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be at least INR 1.00"}}`))
		}))
		defer server.Close()

		p := razorpay.NewRazorpayProvider("k", "s", zap.NewNop(), razorpay.WithBaseURL(server.URL))

		_, err := p.CreateOrder(context.Background(), &provider.CreateOrderRequest{Amount: decimal.NewFromInt(10), Currency: "INR"})

		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "BAD_REQUEST_ERROR", providerErr.Code)
		assert.Equal(t, "The amount must be at least INR 1.00", providerErr.Message)
	})

	t.Run("unreachable gateway", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		p := razorpay.NewRazorpayProvider("k", "s", zap.NewNop(), razorpay.WithBaseURL(server.URL))

		_, err := p.CreateOrder(context.Background(), &provider.CreateOrderRequest{Amount: decimal.NewFromInt(10), Currency: "INR"})

		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "API_ERROR", providerErr.Code)
	})

	t.Run("rejects non-positive amounts locally", func(t *testing.T) {
		p := razorpay.NewRazorpayProvider("k", "s", zap.NewNop(), razorpay.WithBaseURL("http://127.0.0.1:1"))

		_, err := p.CreateOrder(context.Background(), &provider.CreateOrderRequest{Amount: decimal.Zero, Currency: "INR"})

		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "INVALID_AMOUNT", providerErr.Code)
	})
}

func TestRazorpayProvider_FetchOrder(t *testing.T) {
	t.Run("returns order with notes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/orders/order_abc", r.URL.Path)
			_, _, ok := r.BasicAuth()
			assert.True(t, ok)

			_, _ = w.Write([]byte(`{"id":"order_abc","amount":49900,"currency":"INR","status":"paid","notes":{"userId":"u1","masterclassId":"mc-paid"}}`))
		}))
		defer server.Close()

		p := razorpay.NewRazorpayProvider("k", "s", zap.NewNop(), razorpay.WithBaseURL(server.URL))

		order, err := p.FetchOrder(context.Background(), "order_abc")

		require.NoError(t, err)
		assert.Equal(t, int64(49900), order.AmountMinor)
		assert.Equal(t, "paid", order.Status)
		assert.Equal(t, "mc-paid", order.Notes[provider.NoteMasterclassID])
		assert.Equal(t, "u1", order.Notes[provider.NoteUserID])
	})

	t.Run("empty notes array", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"order_abc","amount":100,"currency":"INR","status":"created","notes":[]}`))
		}))
		defer server.Close()

		p := razorpay.NewRazorpayProvider("k", "s", zap.NewNop(), razorpay.WithBaseURL(server.URL))

		order, err := p.FetchOrder(context.Background(), "order_abc")

		require.NoError(t, err)
		assert.Empty(t, order.Notes)
	})

	t.Run("unknown order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
		}))
		defer server.Close()

		p := razorpay.NewRazorpayProvider("k", "s", zap.NewNop(), razorpay.WithBaseURL(server.URL))

		_, err := p.FetchOrder(context.Background(), "order_missing")

		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "BAD_REQUEST_ERROR", providerErr.Code)
	})
}

func TestRazorpayProvider_VerifyPaymentSignature(t *testing.T) {
	p := razorpay.NewRazorpayProvider("k", testSecret, zap.NewNop())

	assert.True(t, p.VerifyPaymentSignature(testOrderID, testPaymentID, testSignature))
	assert.False(t, p.VerifyPaymentSignature(testOrderID, testPaymentID, "deadbeef"))
	assert.Equal(t, "razorpay", p.Name())
	assert.Equal(t, "k", p.KeyID())
}
