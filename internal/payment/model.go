package payment

import (
	"encoding/json"
	"time"
)

const ProviderPaystack = "paystack"

// Intent asks the gateway to start collecting AmountMinor for an order.
type Intent struct {
	OrderID     string
	Email       string
	AmountMinor int64
	Reference   string
}

type IntentResult struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"paymentUrl"`
	AccessCode  string `json:"accessCode,omitempty"`
}

// Verification is the gateway's view of a transaction.
type Verification struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

const VerificationSuccess = "success"

func (v Verification) Succeeded() bool {
	return v.Status == VerificationSuccess
}

// Initialization is returned to the client after InitializePayment.
type Initialization struct {
	OrderID     string `json:"orderId"`
	Reference   string `json:"reference"`
	CheckoutURL string `json:"paymentUrl"`
}

type InitializeInput struct {
	OrderID string `json:"orderId" validate:"required"`
}

// WebhookEvent is the subset of a gateway callback the service reads.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

const EventChargeSuccess = "charge.success"

// WebhookRecord is one audited webhook delivery.
type WebhookRecord struct {
	Provider  string
	EventID   string
	Event     string
	Reference string
	Payload   []byte
}
