package payment

import (
	"context"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/rbac"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// OrderStore is the part of the order repository payment initialization
// needs.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	AttachPaymentRef(ctx context.Context, orderID, ref string) (string, error)
}

type Service interface {
	InitializePayment(ctx context.Context, actor rbac.Actor, orderID string) (*Initialization, error)
}

type service struct {
	orders  OrderStore
	gateway Gateway
	newRef  func() string
}

func NewService(orders OrderStore, gateway Gateway) Service {
	return &service{orders: orders, gateway: gateway, newRef: utils.GeneratePaymentReference}
}

// InitializePayment creates a gateway intent for the caller's Pending order.
// The first reference bound to an order is kept for every later attempt, and
// no intent is created for a reference the order does not hold.
func (s *service) InitializePayment(ctx context.Context, actor rbac.Actor, orderID string) (*Initialization, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InitializePayment"),
		zap.String("order_id", orderID),
	)

	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	if orderID == "" {
		return nil, apperror.New(apperror.KindValidation, "orderId is required")
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID {
		return nil, order.ErrForbidden
	}
	if o.Status != order.StatusPending {
		return nil, ErrOrderNotPending.WithDetails(map[string]any{"currentStatus": string(o.Status)})
	}

	// Bind before the gateway ever sees the reference.
	ref := ""
	reused := o.PaymentRef != nil && *o.PaymentRef != ""
	if reused {
		ref = *o.PaymentRef
	} else {
		candidate := s.newRef()
		ref, err = s.orders.AttachPaymentRef(ctx, o.ID, candidate)
		if err != nil {
			log.Error("attach payment reference failed", zap.Error(err))
			return nil, err
		}
		if ref != candidate {
			log.Info("payment reference raced, reusing bound one", zap.String("bound", ref))
			reused = true
		}
	}

	email := o.Email
	if email == "" {
		email = actor.Email
	}

	res, err := s.gateway.CreateIntent(ctx, Intent{
		OrderID:     o.ID,
		Email:       email,
		AmountMinor: o.TotalPrice,
		Reference:   ref,
	})
	if err != nil {
		log.Warn("create payment intent failed", zap.String("reference", ref), zap.Error(err))
		return nil, err
	}

	log.Info("payment initialized", zap.String("reference", ref), zap.Bool("reused", reused))
	return &Initialization{OrderID: o.ID, Reference: ref, CheckoutURL: res.CheckoutURL}, nil
}
