package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"go.uber.org/zap"
)

// Gateway is the outbound payment provider. Implementations never retry.
type Gateway interface {
	CreateIntent(ctx context.Context, in Intent) (*IntentResult, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

type GatewayOptions struct {
	BaseURL     string
	Currency    string
	CallbackURL string
	Timeout     time.Duration
}

type paystackGateway struct {
	baseURL     string
	currency    string
	callbackURL string
	creds       *CredentialSource
	httpClient  *http.Client
	metrics     *metrics.GatewayMetrics
}

func NewPaystackGateway(opts GatewayOptions, creds *CredentialSource, m *metrics.GatewayMetrics) Gateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &paystackGateway{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		currency:    opts.Currency,
		callbackURL: opts.CallbackURL,
		creds:       creds,
		httpClient:  &http.Client{Timeout: timeout},
		metrics:     m,
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type customField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// ----------------- CreateIntent -----------------

func (g *paystackGateway) CreateIntent(ctx context.Context, in Intent) (*IntentResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("order_id", in.OrderID),
		zap.String("reference", in.Reference),
		zap.Int64("amount", in.AmountMinor),
	)

	body := map[string]any{
		"email":     in.Email,
		"amount":    in.AmountMinor,
		"currency":  g.currency,
		"reference": in.Reference,
		"metadata": map[string]any{
			"order_id": in.OrderID,
			"custom_fields": []customField{
				{DisplayName: "Order ID", VariableName: "order_id", Value: in.OrderID},
			},
		},
	}
	if g.callbackURL != "" {
		body["callback_url"] = g.callbackURL
	}

	raw, err := g.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		log.Error("payment initialization failed", zap.Error(err))
		return nil, err
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, gatewayUnavailable(err, "decode initialize response")
	}
	if data.Reference == "" {
		data.Reference = in.Reference
	}

	log.Info("payment initialized")
	return &IntentResult{
		Reference:   data.Reference,
		CheckoutURL: data.AuthorizationURL,
		AccessCode:  data.AccessCode,
	}, nil
}

// ----------------- Verify -----------------

func (g *paystackGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "gateway"), zap.String("reference", reference))

	raw, err := g.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		log.Warn("payment verification failed", zap.Error(err))
		return nil, err
	}

	var data struct {
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		Amount    int64      `json:"amount"`
		Currency  string     `json:"currency"`
		PaidAt    *time.Time `json:"paid_at"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, gatewayUnavailable(err, "decode verify response")
	}

	return &Verification{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    data.Amount,
		Currency:  data.Currency,
		PaidAt:    data.PaidAt,
		Raw:       raw,
	}, nil
}

// do sends one authenticated request and returns the envelope's data.
func (g *paystackGateway) do(ctx context.Context, op, method, path string, payload any) (json.RawMessage, error) {
	start := time.Now()
	result := "unavailable"
	defer func() { g.metrics.Observe(op, result, time.Since(start)) }()

	secret, err := g.creds.Secret(ctx)
	if err != nil {
		result = "no_credentials"
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, gatewayUnavailable(err, op)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, gatewayUnavailable(err, "read "+op+" response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, gatewayUnavailable(fmt.Errorf("status %d", resp.StatusCode), op)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil && resp.StatusCode < 300 {
		return nil, gatewayUnavailable(err, "decode "+op+" response")
	}

	if resp.StatusCode >= 300 {
		result = "rejected"
		return nil, GatewayRejected(resp.StatusCode, env.Message)
	}
	if !env.Status {
		result = "rejected"
		return nil, GatewayRejected(resp.StatusCode, env.Message)
	}
	if len(env.Data) == 0 {
		return nil, gatewayUnavailable(errors.New("empty data"), op)
	}

	result = "ok"
	return env.Data, nil
}
