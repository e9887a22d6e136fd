// Package settlement turns a confirmed gateway payment into a Paid order,
// debiting stock exactly once whichever path (webhook or client verify)
// arrives first.
package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/events"
	"storefront-be/internal/inventory"
	"storefront-be/internal/lock"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/rbac"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

type Source string

const (
	SourceWebhook Source = "webhook"
	SourceVerify  Source = "verify"
)

func (s Source) performedBy() string {
	return "system:" + string(s)
}

const (
	defaultLockWait        = 10 * time.Second
	defaultVerifyAttempts  = 3
	defaultVerifyBaseDelay = 200 * time.Millisecond
)

var (
	ErrAlreadySettled = order.ErrAlreadySettled
	ErrInvalidPayload = apperror.New(apperror.KindValidation, "invalid webhook payload")
	ErrAmountMismatch = apperror.New(apperror.KindValidation, "paid amount does not match order total")
)

// OrderStore is the part of the order repository settlement needs.
type OrderStore interface {
	GetByPaymentRef(ctx context.Context, ref string) (*order.Order, error)
	Settle(ctx context.Context, orderID, performedBy string) (*order.Order, []inventory.Movement, error)
}

type SecretSource interface {
	Secret(ctx context.Context) (string, error)
}

type Deps struct {
	Orders   OrderStore
	Gateway  payment.Gateway
	Secrets  SecretSource
	Webhooks payment.Repository
	Locker   lock.Locker
	Events   events.Publisher
	Metrics  *metrics.SettlementMetrics
}

type Options struct {
	VerifyAttempts  uint64
	VerifyBaseDelay time.Duration
	LockWait        time.Duration
}

type Coordinator struct {
	orders   OrderStore
	gateway  payment.Gateway
	secrets  SecretSource
	webhooks payment.Repository
	locker   lock.Locker
	events   events.Publisher
	metrics  *metrics.SettlementMetrics
	opts     Options
}

func NewCoordinator(deps Deps, opts Options) *Coordinator {
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewKeyedMutex()
	}
	if opts.VerifyAttempts == 0 {
		opts.VerifyAttempts = defaultVerifyAttempts
	}
	if opts.VerifyBaseDelay <= 0 {
		opts.VerifyBaseDelay = defaultVerifyBaseDelay
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	return &Coordinator{
		orders:   deps.Orders,
		gateway:  deps.Gateway,
		secrets:  deps.Secrets,
		webhooks: deps.Webhooks,
		locker:   deps.Locker,
		events:   deps.Events,
		metrics:  deps.Metrics,
		opts:     opts,
	}
}

// Settle marks the Pending order bound to reference as Paid and debits its
// lines. An order that is missing or no longer Pending yields
// ErrAlreadySettled and changes nothing.
func (c *Coordinator) Settle(ctx context.Context, reference string, source Source) (*order.Order, error) {
	if reference == "" {
		return nil, payment.ErrReferenceRequired
	}
	o, err := c.lookup(ctx, reference)
	if err != nil {
		c.metrics.Observe(string(source), outcomeOf(err), 0)
		return nil, err
	}
	return c.settle(ctx, o, source)
}

func (c *Coordinator) lookup(ctx context.Context, reference string) (*order.Order, error) {
	o, err := c.orders.GetByPaymentRef(ctx, reference)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, ErrAlreadySettled
		}
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, ErrAlreadySettled
	}
	return o, nil
}

func (c *Coordinator) settle(ctx context.Context, o *order.Order, source Source) (settled *order.Order, err error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "settlement"),
		zap.String("order_id", o.ID),
		zap.String("source", string(source)),
	)

	start := time.Now()
	defer func() { c.metrics.Observe(string(source), outcomeOf(err), time.Since(start)) }()

	lockCtx, cancel := context.WithTimeout(ctx, c.opts.LockWait)
	defer cancel()
	release, err := c.locker.Acquire(lockCtx, lock.OrderKey(o.ID))
	if err != nil {
		log.Warn("order lock not acquired", zap.Error(err))
		return nil, err
	}
	defer release()

	settled, movements, err := c.orders.Settle(ctx, o.ID, source.performedBy())
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindAlreadySettled:
			log.Info("order already settled")
			return nil, ErrAlreadySettled
		case apperror.KindInsufficientStock:
			log.Warn("settlement rejected, order stays pending", zap.Error(err))
		default:
			log.Error("settlement failed", zap.Error(err))
		}
		return nil, err
	}

	ref := ""
	if settled.PaymentRef != nil {
		ref = *settled.PaymentRef
	}
	log.Info("order settled", zap.Int("lines", len(movements)), zap.Int64("amount", settled.TotalPrice))

	c.events.Publish(ctx, events.OrderPaid, settled.ID, events.OrderPaidPayload{
		OrderID:     settled.ID,
		PaymentRef:  ref,
		AmountMinor: settled.TotalPrice,
		Source:      string(source),
	})
	inventory.AlertLowStock(ctx, c.events, movements)
	return settled, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "settled"
	}
	switch apperror.KindOf(err) {
	case apperror.KindAlreadySettled:
		return "already_settled"
	case apperror.KindInsufficientStock:
		return "insufficient_stock"
	case apperror.KindConflict:
		return "lock_timeout"
	case apperror.KindValidation:
		return "rejected"
	}
	return "error"
}

type WebhookStatus string

const (
	WebhookProcessed WebhookStatus = "processed"
	WebhookIgnored   WebhookStatus = "ignored"
	WebhookDuplicate WebhookStatus = "duplicate"
)

type WebhookResult struct {
	Status  WebhookStatus `json:"status"`
	OrderID string        `json:"orderId,omitempty"`
}

// HandleWebhook authenticates rawBody against signature before anything
// else is read or written. Events other than charge.success, redeliveries
// of an event that was already processed and orders that are already
// settled are acknowledged without effect. A delivery that failed is
// processed again when the gateway retries it.
func (c *Coordinator) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "settlement"), zap.String("method", "HandleWebhook"))

	secret, err := c.secrets.Secret(ctx)
	if err != nil {
		log.Error("payment secret unavailable", zap.Error(err))
		return nil, err
	}
	if err := payment.VerifySignature(secret, rawBody, signature); err != nil {
		log.Warn("webhook signature rejected", zap.Int("body_bytes", len(rawBody)))
		return nil, err
	}

	var evt payment.WebhookEvent
	if err := json.Unmarshal(rawBody, &evt); err != nil {
		return nil, ErrInvalidPayload
	}
	log = log.With(zap.String("event", evt.Event), zap.String("reference", evt.Data.Reference))

	webhookID, dup, err := c.webhooks.SaveWebhook(ctx, payment.WebhookRecord{
		Provider:  payment.ProviderPaystack,
		EventID:   webhookEventID(evt, rawBody),
		Event:     evt.Event,
		Reference: evt.Data.Reference,
		Payload:   rawBody,
	})
	if err != nil {
		log.Error("audit webhook failed", zap.Error(err))
		return nil, err
	}
	if dup {
		log.Info("duplicate webhook delivery")
		return &WebhookResult{Status: WebhookDuplicate}, nil
	}

	if evt.Event != payment.EventChargeSuccess {
		c.markProcessed(ctx, webhookID)
		return &WebhookResult{Status: WebhookIgnored}, nil
	}
	if evt.Data.Reference == "" {
		c.markFailed(ctx, webhookID, ErrInvalidPayload)
		return nil, ErrInvalidPayload
	}

	settled, err := c.settleReference(ctx, evt.Data.Reference, evt.Data.Amount, SourceWebhook)
	if err != nil {
		if apperror.IsKind(err, apperror.KindAlreadySettled) {
			c.markProcessed(ctx, webhookID)
			return &WebhookResult{Status: WebhookIgnored}, nil
		}
		c.markFailed(ctx, webhookID, err)
		return nil, err
	}

	c.markProcessed(ctx, webhookID)
	return &WebhookResult{Status: WebhookProcessed, OrderID: settled.ID}, nil
}

func (c *Coordinator) settleReference(ctx context.Context, reference string, paid int64, source Source) (*order.Order, error) {
	o, err := c.lookup(ctx, reference)
	if err != nil {
		c.metrics.Observe(string(source), outcomeOf(err), 0)
		return nil, err
	}
	if paid != o.TotalPrice {
		c.metrics.Observe(string(source), "amount_mismatch", 0)
		return nil, ErrAmountMismatch.WithDetails(map[string]any{"expected": o.TotalPrice, "paid": paid})
	}
	return c.settle(ctx, o, source)
}

func (c *Coordinator) markProcessed(ctx context.Context, id int64) {
	if err := c.webhooks.MarkWebhookProcessed(ctx, id); err != nil {
		logger.FromCtx(ctx).Warn("mark webhook processed failed", zap.Int64("webhook_id", id), zap.Error(err))
	}
}

func (c *Coordinator) markFailed(ctx context.Context, id int64, cause error) {
	if err := c.webhooks.MarkWebhookFailed(ctx, id, cause.Error()); err != nil {
		logger.FromCtx(ctx).Warn("mark webhook failed failed", zap.Int64("webhook_id", id), zap.Error(err))
	}
}

func webhookEventID(evt payment.WebhookEvent, raw []byte) string {
	if evt.Data.ID != 0 {
		return fmt.Sprintf("%s:%d", evt.Event, evt.Data.ID)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// VerifyAndSettle asks the gateway for the transaction's outcome, retrying
// with exponential backoff while the gateway is unavailable, and settles on
// success. Only the order's owner or staff may verify.
func (c *Coordinator) VerifyAndSettle(ctx context.Context, actor rbac.Actor, reference string) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "settlement"),
		zap.String("method", "VerifyAndSettle"),
		zap.String("reference", reference),
	)

	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	if reference == "" {
		return nil, payment.ErrReferenceRequired
	}

	o, err := c.lookup(ctx, reference)
	if err != nil {
		c.metrics.Observe(string(SourceVerify), outcomeOf(err), 0)
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.Can(rbac.UpdateOrderStatus) {
		return nil, order.ErrForbidden
	}

	backoff := retry.WithMaxRetries(c.opts.VerifyAttempts-1, retry.NewExponential(c.opts.VerifyBaseDelay))

	var verification *payment.Verification
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := c.gateway.Verify(ctx, reference)
		if err != nil {
			if apperror.IsKind(err, apperror.KindGatewayUnavailable) {
				log.Warn("gateway unavailable, retrying", zap.Int("attempt", attempt), zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		verification = v
		return nil
	})
	if err != nil {
		log.Error("payment verification failed", zap.Int("attempts", attempt), zap.Error(err))
		return nil, err
	}

	if !verification.Succeeded() {
		log.Info("payment not successful", zap.String("status", verification.Status))
		return nil, payment.ErrPaymentNotSuccessful.WithDetails(map[string]any{"status": verification.Status})
	}
	if verification.Amount != o.TotalPrice {
		return nil, ErrAmountMismatch.WithDetails(map[string]any{"expected": o.TotalPrice, "paid": verification.Amount})
	}

	return c.settle(ctx, o, SourceVerify)
}
