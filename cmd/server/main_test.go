package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-be/internal/config"
	"storefront-be/internal/events"
	"storefront-be/internal/lock"
	"storefront-be/internal/payment"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{FrontendURL: "http://localhost:3000"},
		Payment: config.PaymentConfig{BaseURL: "http://gateway.invalid", SecretKey: "sk_test", Currency: "GHS"},
		JWT:     config.JWTConfig{Secret: "jwt-secret"},
	}
}

func TestNewHandler(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	h := newHandler(database, testConfig(), lock.NewKeyedMutex(), &events.MemoryPublisher{}, prometheus.NewRegistry(), nil)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forged webhook never reaches the database", func(t *testing.T) {
		body := `{"event":"charge.success","data":{"id":7,"reference":"ref-1","amount":100}}`
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		req.Header.Set("x-gateway-signature", payment.Sign("not-the-secret", []byte(body)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("orders require a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signup validates before the database", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/signup", strings.NewReader(`{"email":"not-an-email"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
