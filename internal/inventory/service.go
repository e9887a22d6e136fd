package inventory

import (
	"context"
	"strings"

	"storefront-be/internal/apperror"
	"storefront-be/internal/events"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type Service interface {
	UpdateStock(ctx context.Context, actor rbac.Actor, upd StockUpdate) (*Movement, error)
	ListStatus(ctx context.Context, actor rbac.Actor, filter StatusFilter) ([]Inventory, error)
	ListHistory(ctx context.Context, actor rbac.Actor, productID string, limit int) ([]History, error)
	SyncProducts(ctx context.Context, actor rbac.Actor, productIDs []string) ([]SyncResult, error)
}

type service struct {
	repo   Repository
	events events.Publisher
}

func NewService(repo Repository, pub events.Publisher) Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &service{repo: repo, events: pub}
}

func (s *service) UpdateStock(ctx context.Context, actor rbac.Actor, upd StockUpdate) (*Movement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStock"),
		zap.String("product_id", upd.ProductID),
		zap.String("type", string(upd.Type)),
	)

	if !actor.Can(rbac.ManageInventory) {
		return nil, apperror.New(apperror.KindForbidden, "not permitted to manage inventory")
	}

	switch upd.Type {
	case MovementAdd, MovementRemove:
		if upd.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	case MovementAdjust:
		if upd.Quantity < 0 {
			return nil, apperror.New(apperror.KindValidation, "quantity must not be negative")
		}
	default:
		return nil, ErrInvalidMovement
	}
	if strings.TrimSpace(upd.Location) == "" {
		upd.Location = DefaultLocation
	}

	mv, err := s.repo.ApplyUpdate(ctx, upd, actor.UserID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Error("apply stock update failed", zap.Error(err))
		}
		return nil, err
	}

	log.Info("stock updated",
		zap.Int("previous", mv.PreviousTotal),
		zap.Int("new", mv.NewTotal),
	)
	AlertLowStock(ctx, s.events, []Movement{*mv})
	return mv, nil
}

// AlertLowStock publishes an alert for every movement that left its
// location under the threshold. Settlement debits reuse it.
func AlertLowStock(ctx context.Context, pub events.Publisher, movements []Movement) {
	for _, mv := range movements {
		if !mv.IsLowStock() {
			continue
		}
		pub.Publish(ctx, events.InventoryLowStock, mv.ProductID, events.LowStockPayload{
			ProductID: mv.ProductID,
			Location:  mv.Location,
			Quantity:  mv.LocationQuantity,
			Threshold: mv.LowStockThreshold,
		})
	}
}

func (s *service) ListStatus(ctx context.Context, actor rbac.Actor, filter StatusFilter) ([]Inventory, error) {
	if !actor.Can(rbac.ManageInventory) {
		return nil, apperror.New(apperror.KindForbidden, "not permitted to view inventory")
	}
	return s.repo.ListStatus(ctx, filter)
}

func (s *service) ListHistory(ctx context.Context, actor rbac.Actor, productID string, limit int) ([]History, error) {
	if !actor.Can(rbac.ManageInventory) {
		return nil, apperror.New(apperror.KindForbidden, "not permitted to view inventory")
	}
	if productID == "" {
		return nil, apperror.New(apperror.KindValidation, "productId is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListHistory(ctx, productID, limit)
}

func (s *service) SyncProducts(ctx context.Context, actor rbac.Actor, productIDs []string) ([]SyncResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "SyncProducts"))

	if !actor.Can(rbac.ManageInventory) {
		return nil, apperror.New(apperror.KindForbidden, "not permitted to manage inventory")
	}

	results, err := s.repo.SyncProducts(ctx, productIDs)
	if err != nil {
		log.Error("sync products failed", zap.Error(err))
		return nil, err
	}
	for _, r := range results {
		log.Warn("product quantity drift repaired",
			zap.String("product_id", r.ProductID),
			zap.Int("previous", r.PreviousQuantity),
			zap.Int("new", r.NewQuantity),
		)
	}
	return results, nil
}
