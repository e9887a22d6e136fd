package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, h http.HandlerFunc, timeout time.Duration) Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewPaystackGateway(GatewayOptions{
		BaseURL:     srv.URL,
		Currency:    "GHS",
		CallbackURL: "http://shop.local/payment/verify",
		Timeout:     timeout,
	}, NewCredentialSource("sk_test", "", time.Minute), metrics.NewGatewayMetrics(nil))
}

func TestPaystackGateway_CreateIntent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(2500), body["amount"])
			assert.Equal(t, "GHS", body["currency"])
			assert.Equal(t, "PAY-1", body["reference"])
			assert.Equal(t, "o-1", body["metadata"].(map[string]any)["order_id"])

			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://pay/abc","access_code":"abc","reference":"PAY-1"}}`))
		}, time.Second)

		res, err := gw.CreateIntent(context.Background(), Intent{OrderID: "o-1", Email: "u@example.com", AmountMinor: 2500, Reference: "PAY-1"})
		require.NoError(t, err)
		assert.Equal(t, "https://pay/abc", res.CheckoutURL)
		assert.Equal(t, "PAY-1", res.Reference)
	})

	t.Run("4xx is rejected", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":false,"message":"Duplicate Transaction Reference"}`))
		}, time.Second)

		_, err := gw.CreateIntent(context.Background(), Intent{OrderID: "o-1", Reference: "PAY-1"})
		require.Error(t, err)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Equal(t, "Duplicate Transaction Reference", apperror.As(err).Details()["message"])
	})

	t.Run("5xx is unavailable", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, time.Second)

		_, err := gw.CreateIntent(context.Background(), Intent{OrderID: "o-1", Reference: "PAY-1"})
		assert.True(t, apperror.IsKind(err, apperror.KindGatewayUnavailable))
	})

	t.Run("Timeout is unavailable", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}, 20*time.Millisecond)

		_, err := gw.CreateIntent(context.Background(), Intent{OrderID: "o-1", Reference: "PAY-1"})
		assert.True(t, apperror.IsKind(err, apperror.KindGatewayUnavailable))
	})
}

func TestPaystackGateway_Verify(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/PAY-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"PAY-1","status":"success","amount":2500,"currency":"GHS"}}`))
	}))
	defer srv.Close()

	m := metrics.NewGatewayMetrics(reg)
	gw := NewPaystackGateway(GatewayOptions{BaseURL: srv.URL, Currency: "GHS"}, NewCredentialSource("sk_test", "", 0), m)

	v, err := gw.Verify(context.Background(), "PAY-1")
	require.NoError(t, err)
	assert.True(t, v.Succeeded())
	assert.Equal(t, int64(2500), v.Amount)
	assert.NotEmpty(t, v.Raw)

	count, err := testutil.GatherAndCount(reg, "payment_gateway_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
