package product

import (
	"context"
	"strings"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type Service interface {
	Create(ctx context.Context, actor rbac.Actor, input NewProductInput) (*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Update(ctx context.Context, actor rbac.Actor, id string, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, actor rbac.Actor, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, actor rbac.Actor, input NewProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	if !actor.Can(rbac.AddProduct) {
		return nil, apperror.New(apperror.KindForbidden, "not permitted to add products")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperror.New(apperror.KindValidation, "name is required")
	}
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if input.InitialQuantity < 0 {
		return nil, apperror.New(apperror.KindValidation, "initialQuantity must not be negative")
	}

	p, err := s.repo.Create(ctx, input, actor.UserID)
	if err != nil {
		log.Error("create product failed", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.String("product_id", p.ID))
	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, apperror.New(apperror.KindValidation, "id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Count(ctx context.Context, filter ListFilter) (int, error) {
	return s.repo.Count(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor rbac.Actor, id string, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Update"),
		zap.String("product_id", id),
	)

	if !actor.Can(rbac.UpdateProduct) {
		return nil, apperror.New(apperror.KindForbidden, "not permitted to update products")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.New(apperror.KindValidation, "name must not be blank")
		}
		input.Name = &name
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, ErrInvalidPrice
	}

	p, err := s.repo.Update(ctx, id, input)
	if err != nil {
		log.Warn("update product failed", zap.Error(err))
		return nil, err
	}

	log.Info("product updated")
	return p, nil
}

func (s *service) Delete(ctx context.Context, actor rbac.Actor, id string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Delete"),
		zap.String("product_id", id),
	)

	if !actor.Can(rbac.DeleteProduct) {
		return apperror.New(apperror.KindForbidden, "not permitted to delete products")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn("delete product failed", zap.Error(err))
		return err
	}

	log.Info("product deleted")
	return nil
}
