package order

import (
	"context"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/events"
	"storefront-be/internal/lock"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"
	"storefront-be/internal/reservation"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	defaultLockWait  = 10 * time.Second
)

type Reserver interface {
	Reserve(ctx context.Context, items []reservation.Item) ([]reservation.PricedItem, error)
}

// CartSource yields the caller's cart lines for checkout.
type CartSource interface {
	Items(ctx context.Context, userID string) ([]reservation.Item, error)
}

type Service interface {
	CreateOrder(ctx context.Context, actor rbac.Actor, in CreateInput) (*Order, error)
	Checkout(ctx context.Context, actor rbac.Actor, in CheckoutInput) (*Order, error)
	ListOrders(ctx context.Context, actor rbac.Actor, filter ListFilter) ([]Order, int, error)
	GetOrder(ctx context.Context, actor rbac.Actor, id string) (*Order, error)
	UpdateStatus(ctx context.Context, actor rbac.Actor, id string, to Status, opts StatusOptions) (*Order, error)
}

type service struct {
	repo     Repository
	reserver Reserver
	carts    CartSource
	locker   lock.Locker
	events   events.Publisher
	lockWait time.Duration
}

func NewService(repo Repository, reserver Reserver, carts CartSource, locker lock.Locker, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Noop{}
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &service{
		repo:     repo,
		reserver: reserver,
		carts:    carts,
		locker:   locker,
		events:   pub,
		lockWait: defaultLockWait,
	}
}

func (s *service) CreateOrder(ctx context.Context, actor rbac.Actor, in CreateInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "CreateOrder"))

	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}

	lines, err := s.reserver.Reserve(ctx, in.Items)
	if err != nil {
		log.Info("order rejected by stock check", zap.Error(err))
		return nil, err
	}

	o := newPendingOrder(actor, lines, in.ShippingAddress)
	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("create order failed", zap.Error(err))
		return nil, err
	}

	log.Info("order created", zap.String("order_id", o.ID), zap.Int64("total", o.TotalPrice))
	s.publishCreated(ctx, o)
	return o, nil
}

// Checkout turns the caller's cart into a Pending order and clears the cart.
func (s *service) Checkout(ctx context.Context, actor rbac.Actor, in CheckoutInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "Checkout"))

	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}

	items, err := s.carts.Items(ctx, actor.UserID)
	if err != nil {
		log.Error("load cart failed", zap.Error(err))
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	lines, err := s.reserver.Reserve(ctx, items)
	if err != nil {
		log.Info("checkout rejected by stock check", zap.Error(err))
		return nil, err
	}

	o := newPendingOrder(actor, lines, in.ShippingAddress)
	if err := s.repo.CreateFromCart(ctx, o); err != nil {
		log.Error("checkout failed", zap.Error(err))
		return nil, err
	}

	log.Info("order checked out", zap.String("order_id", o.ID), zap.Int64("total", o.TotalPrice))
	s.publishCreated(ctx, o)
	return o, nil
}

func newPendingOrder(actor rbac.Actor, lines []reservation.PricedItem, shipping string) *Order {
	return &Order{
		UserID:          actor.UserID,
		Email:           actor.Email,
		Items:           itemsFromLines(lines),
		TotalPrice:      reservation.Total(lines),
		Status:          StatusPending,
		ShippingAddress: shipping,
	}
}

func (s *service) publishCreated(ctx context.Context, o *Order) {
	lines := make([]events.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, events.OrderLine{ProductID: it.ProductID, Qty: it.Quantity, PriceMinor: it.UnitPrice})
	}
	s.events.Publish(ctx, events.OrderCreated, o.ID, events.OrderCreatedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      lines,
		TotalMinor: o.TotalPrice,
	})
}

// ListOrders returns every order to actors holding get_userOders and only
// the caller's own orders to everyone else.
func (s *service) ListOrders(ctx context.Context, actor rbac.Actor, filter ListFilter) ([]Order, int, error) {
	if actor.UserID == "" {
		return nil, 0, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	if !actor.Can(rbac.GetUserOrders) {
		filter.UserID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *service) GetOrder(ctx context.Context, actor rbac.Actor, id string) (*Order, error) {
	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.Can(rbac.GetUserOrders) {
		return nil, ErrForbidden
	}
	return o, nil
}

// UpdateStatus moves an order along the lifecycle under the per-order lock
// shared with settlement. Owners may cancel their own Pending orders; every
// other change needs update_orderStatus.
func (s *service) UpdateStatus(ctx context.Context, actor rbac.Actor, id string, to Status, opts StatusOptions) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id),
		zap.String("to", string(to)),
	)

	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	release, err := s.locker.Acquire(lockCtx, lock.OrderKey(id))
	if err != nil {
		log.Warn("order lock not acquired", zap.Error(err))
		return nil, err
	}
	defer release()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ownerCancel := current.UserID == actor.UserID && current.Status == StatusPending && to == StatusCancelled
	if !ownerCancel && !actor.Can(rbac.UpdateOrderStatus) {
		return nil, ErrForbidden
	}

	// Paid is reached through payment settlement only.
	if to == StatusPaid || !CanTransition(current.Status, to) {
		return nil, invalidTransition(current.Status, to)
	}

	updated, movements, err := s.repo.Transition(ctx, id, current.Status, to, opts, actor.UserID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Error("status transition failed", zap.Error(err))
		}
		return nil, err
	}

	log.Info("order status updated",
		zap.String("from", string(current.Status)),
		zap.Int("restocked_lines", len(movements)),
	)

	switch to {
	case StatusCancelled, StatusRefunded:
		eventType := events.OrderCancelled
		if to == StatusRefunded {
			eventType = events.OrderRefunded
		}
		s.events.Publish(ctx, eventType, id, events.OrderStatusPayload{
			OrderID:        id,
			PreviousStatus: string(current.Status),
			Reason:         opts.CancelReason,
			Restocked:      len(movements) > 0,
		})
	}
	return updated, nil
}
