package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated      = "order.created"
	OrderPaid         = "order.paid"
	OrderCancelled    = "order.cancelled"
	OrderRefunded     = "order.refunded"
	InventoryLowStock = "inventory.low_stock"
)

const producerName = "storefront-api"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderLine struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Items      []OrderLine `json:"items"`
	TotalMinor int64       `json:"total_minor"`
}

type OrderPaidPayload struct {
	OrderID     string `json:"order_id"`
	PaymentRef  string `json:"payment_ref"`
	AmountMinor int64  `json:"amount_minor"`
	Source      string `json:"source"`
}

type OrderStatusPayload struct {
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Reason         string `json:"reason,omitempty"`
	Restocked      bool   `json:"restocked"`
}

type LowStockPayload struct {
	ProductID string `json:"product_id"`
	Location  string `json:"location"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// Publisher emits domain events. Publishing never fails the caller's
// operation; delivery problems are logged by the implementation.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

func NewEnvelope(eventType, key string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: key,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](env Envelope) (T, error) {
	var t T
	err := json.Unmarshal(env.Payload, &t)
	return t, err
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) {}

// MemoryPublisher keeps envelopes in memory; used for local runs and tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Envelope
}

func (m *MemoryPublisher) Publish(_ context.Context, eventType, key string, payload any) {
	env, err := NewEnvelope(eventType, key, payload)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.events = append(m.events, env)
	m.mu.Unlock()
}

func (m *MemoryPublisher) Events() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Envelope, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the recorded envelopes with the given type.
func (m *MemoryPublisher) OfType(eventType string) []Envelope {
	var out []Envelope
	for _, e := range m.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
