package cart

import (
	"context"

	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"
	"storefront-be/internal/reservation"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddToCart(ctx context.Context, actor rbac.Actor, in AddInput) (*CartItem, error)
	GetCart(ctx context.Context, actor rbac.Actor) (*Cart, error)
	UpdateQuantity(ctx context.Context, actor rbac.Actor, productID string, quantity int) (*CartItem, error)
	RemoveFromCart(ctx context.Context, actor rbac.Actor, productID string) error
	Items(ctx context.Context, userID string) ([]reservation.Item, error)
}

type service struct {
	repo    Repository
	catalog reservation.Catalog
}

func NewService(repo Repository, catalog reservation.Catalog) Service {
	return &service{repo: repo, catalog: catalog}
}

// AddToCart merges quantity into an existing line. The merged quantity must
// fit the product's current stock.
func (s *service) AddToCart(ctx context.Context, actor rbac.Actor, in AddInput) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.String("product_id", in.ProductID),
	)

	if actor.UserID == "" {
		return nil, ErrUserNotAuthenticated
	}
	if in.ProductID == "" {
		return nil, ErrProductRequired
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	current, err := s.repo.GetQuantity(ctx, actor.UserID, in.ProductID)
	if err != nil {
		log.Error("read cart line failed", zap.Error(err))
		return nil, err
	}
	if err := s.checkStock(ctx, in.ProductID, current+in.Quantity); err != nil {
		return nil, err
	}

	item, err := s.repo.Add(ctx, actor.UserID, in.ProductID, in.Quantity)
	if err != nil {
		log.Error("add to cart failed", zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *service) checkStock(ctx context.Context, productID string, want int) error {
	snaps, err := s.catalog.Snapshots(ctx, []string{productID})
	if err != nil {
		return err
	}
	snap, ok := snaps[productID]
	if !ok {
		return inventory.ProductNotFound(productID)
	}
	if snap.Available < want {
		return inventory.InsufficientStock(productID, snap.Available, want)
	}
	return nil
}

func (s *service) GetCart(ctx context.Context, actor rbac.Actor) (*Cart, error) {
	if actor.UserID == "" {
		return nil, ErrUserNotAuthenticated
	}
	items, err := s.repo.List(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	c := &Cart{Items: items}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	for _, it := range items {
		c.TotalPrice += it.Subtotal()
	}
	return c, nil
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *service) UpdateQuantity(ctx context.Context, actor rbac.Actor, productID string, quantity int) (*CartItem, error) {
	if actor.UserID == "" {
		return nil, ErrUserNotAuthenticated
	}
	if productID == "" {
		return nil, ErrProductRequired
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil, s.repo.Remove(ctx, actor.UserID, productID)
	}
	if err := s.checkStock(ctx, productID, quantity); err != nil {
		return nil, err
	}
	return s.repo.SetQuantity(ctx, actor.UserID, productID, quantity)
}

func (s *service) RemoveFromCart(ctx context.Context, actor rbac.Actor, productID string) error {
	if actor.UserID == "" {
		return ErrUserNotAuthenticated
	}
	if productID == "" {
		return ErrProductRequired
	}
	return s.repo.Remove(ctx, actor.UserID, productID)
}

// Items lets checkout read the cart without an actor.
func (s *service) Items(ctx context.Context, userID string) ([]reservation.Item, error) {
	return s.repo.Lines(ctx, userID)
}
