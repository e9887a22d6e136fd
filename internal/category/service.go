package category

import (
	"context"
	"strings"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service defines the business logic for categories. Reads are public;
// writes need the matching category permission.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Category, int, error)
	Get(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, actor rbac.Actor, in Input) (*Category, error)
	Update(ctx context.Context, actor rbac.Actor, id string, in UpdateInput) (*Category, error)
	Delete(ctx context.Context, actor rbac.Actor, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Category, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)

	categories, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, total, nil
}

func (s *service) Get(ctx context.Context, id string) (*Category, error) {
	if id == "" {
		return nil, apperror.New(apperror.KindValidation, "id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, actor rbac.Actor, in Input) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	if !actor.Can(rbac.AddCategory) {
		return nil, ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrNameRequired
	}

	c, err := s.repo.Create(ctx, in)
	if err != nil {
		log.Warn("create category failed", zap.String("name", in.Name), zap.Error(err))
		return nil, err
	}
	log.Info("category created", zap.String("category_id", c.ID))
	return c, nil
}

func (s *service) Update(ctx context.Context, actor rbac.Actor, id string, in UpdateInput) (*Category, error) {
	if !actor.Can(rbac.UpdateCategory) {
		return nil, ErrForbidden
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		in.Name = &name
	}

	c, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	logger.FromCtx(ctx).Info("category updated", zap.String("category_id", id))
	return c, nil
}

func (s *service) Delete(ctx context.Context, actor rbac.Actor, id string) error {
	if !actor.Can(rbac.DeleteCategory) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("category deleted", zap.String("category_id", id), zap.String("by", actor.UserID))
	return nil
}
