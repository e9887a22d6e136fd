package reporting

import (
	"context"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWindow = 30 * 24 * time.Hour
	defaultLimit  = 50
	dashboardTop  = 5
)

var (
	ErrForbidden    = apperror.New(apperror.KindForbidden, "not permitted to view reports")
	ErrInvalidRange = apperror.New(apperror.KindValidation, "startDate must not be after endDate")
)

type Service interface {
	Sales(ctx context.Context, actor rbac.Actor, r Range) (*SalesReport, error)
	Inventory(ctx context.Context, actor rbac.Actor) ([]InventoryLine, error)
	LowStock(ctx context.Context, actor rbac.Actor) ([]InventoryLine, error)
	ProductPerformance(ctx context.Context, actor rbac.Actor, r Range) ([]ProductPerformance, error)
	UserActivity(ctx context.Context, actor rbac.Actor, r Range) ([]UserActivity, error)
	Dashboard(ctx context.Context, actor rbac.Actor, r Range) (*Dashboard, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// normalize fills a missing bound with the default window and rejects an
// inverted range.
func (s *service) normalize(r Range) (Range, error) {
	if r.End.IsZero() {
		r.End = s.now()
	}
	if r.Start.IsZero() {
		r.Start = r.End.Add(-defaultWindow)
	}
	if r.Start.After(r.End) {
		return r, ErrInvalidRange
	}
	return r, nil
}

func (s *service) Sales(ctx context.Context, actor rbac.Actor, r Range) (*SalesReport, error) {
	if !actor.Can(rbac.ViewReports) {
		return nil, ErrForbidden
	}
	r, err := s.normalize(r)
	if err != nil {
		return nil, err
	}
	return s.repo.Sales(ctx, r)
}

func (s *service) Inventory(ctx context.Context, actor rbac.Actor) ([]InventoryLine, error) {
	if !actor.Can(rbac.ViewReports) {
		return nil, ErrForbidden
	}
	return s.repo.Inventory(ctx, false)
}

func (s *service) LowStock(ctx context.Context, actor rbac.Actor) ([]InventoryLine, error) {
	if !actor.Can(rbac.ViewReports) {
		return nil, ErrForbidden
	}
	return s.repo.Inventory(ctx, true)
}

func (s *service) ProductPerformance(ctx context.Context, actor rbac.Actor, r Range) ([]ProductPerformance, error) {
	if !actor.Can(rbac.ViewReports) {
		return nil, ErrForbidden
	}
	r, err := s.normalize(r)
	if err != nil {
		return nil, err
	}
	return s.repo.ProductPerformance(ctx, r, defaultLimit)
}

func (s *service) UserActivity(ctx context.Context, actor rbac.Actor, r Range) ([]UserActivity, error) {
	if !actor.Can(rbac.ViewReports) {
		return nil, ErrForbidden
	}
	r, err := s.normalize(r)
	if err != nil {
		return nil, err
	}
	return s.repo.UserActivity(ctx, r, defaultLimit)
}

// Dashboard runs the individual reports concurrently; the first failure
// cancels the rest.
func (s *service) Dashboard(ctx context.Context, actor rbac.Actor, r Range) (*Dashboard, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "Dashboard"))

	if !actor.Can(rbac.ViewReports) {
		return nil, ErrForbidden
	}
	r, err := s.normalize(r)
	if err != nil {
		return nil, err
	}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := s.repo.Sales(gctx, r)
		if err != nil {
			return err
		}
		d.Sales = *sales
		return nil
	})
	g.Go(func() error {
		low, err := s.repo.Inventory(gctx, true)
		d.LowStock = low
		return err
	})
	g.Go(func() error {
		top, err := s.repo.ProductPerformance(gctx, r, dashboardTop)
		d.TopProducts = top
		return err
	})
	g.Go(func() error {
		users, err := s.repo.UserActivity(gctx, r, dashboardTop)
		d.TopUsers = users
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("dashboard report failed", zap.Error(err))
		return nil, err
	}
	return &d, nil
}
