package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestKafkaPublisher_FlushesOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8)

	p.Publish(context.Background(), OrderPaid, "o-1", OrderPaidPayload{OrderID: "o-1", PaymentRef: "ref-1", AmountMinor: 2000})
	p.Publish(context.Background(), OrderCancelled, "o-2", OrderStatusPayload{OrderID: "o-2", PreviousStatus: "Pending"})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	p.WaitClosed()

	require.Len(t, w.msgs, 2)
	assert.True(t, w.closed)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	assert.Equal(t, OrderPaid, env.EventType)
	assert.Equal(t, "o-1", string(w.msgs[0].Key))

	payload, err := UnwrapPayload[OrderPaidPayload](env)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), payload.AmountMinor)
}

func TestKafkaPublisher_DropsWhenFull(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{}, 1)

	p.Publish(context.Background(), OrderPaid, "o-1", OrderPaidPayload{OrderID: "o-1"})
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), OrderPaid, "o-2", OrderPaidPayload{OrderID: "o-2"})
	})
	assert.Len(t, p.inbox, 1)
}

func TestKafkaPublisher_WriteErrorIsLogged(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, 1)
	p.Publish(context.Background(), OrderPaid, "o-1", OrderPaidPayload{OrderID: "o-1"})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	p.WaitClosed()

	assert.Empty(t, w.msgs)
}

func TestMemoryPublisher(t *testing.T) {
	var m MemoryPublisher
	m.Publish(context.Background(), InventoryLowStock, "p-1", LowStockPayload{ProductID: "p-1", Quantity: 2, Threshold: 10})
	m.Publish(context.Background(), OrderPaid, "o-1", OrderPaidPayload{OrderID: "o-1"})

	low := m.OfType(InventoryLowStock)
	require.Len(t, low, 1)
	payload, err := UnwrapPayload[LowStockPayload](low[0])
	require.NoError(t, err)
	assert.Equal(t, 2, payload.Quantity)
	assert.Len(t, m.Events(), 2)
}
