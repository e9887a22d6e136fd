package events

import (
	"context"
	"encoding/json"
	"time"

	"storefront-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher buffers envelopes in an inbox drained by a single writer
// goroutine. A full inbox drops the event rather than blocking a request.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf)
}

func newKafkaPublisher(w messageWriter, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start drains the inbox until ctx is done, then flushes what is left.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.flush()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) flush() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				logger.L().Warn("closing kafka writer", zap.Error(err))
			}
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		logger.L().Error("publish event failed",
			zap.String("key", string(m.Key)),
			zap.Error(err),
		)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	log := logger.FromCtx(ctx).With(zap.String("event_type", eventType), zap.String("key", key))

	env, err := NewEnvelope(eventType, key, payload)
	if err != nil {
		log.Error("encode event", zap.Error(err))
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		log.Error("encode envelope", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	select {
	case p.inbox <- msg:
	default:
		log.Warn("event inbox full, dropping event")
	}
}

// WaitClosed blocks until the writer goroutine has flushed and exited.
func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }
