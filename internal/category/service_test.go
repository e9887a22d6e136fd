package category

import (
	"context"
	"testing"

	"storefront-be/internal/apperror"
	"storefront-be/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]Category, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Category), args.Int(1), args.Error(2)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, in Input) (*Category, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id string, in UpdateInput) (*Category, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var (
	admin    = rbac.Actor{UserID: "admin-1", Role: rbac.RoleAdmin}
	customer = rbac.Actor{UserID: "user-1", Role: rbac.RoleUser}
)

func TestService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo)

	repo.On("List", ctx, ListFilter{Search: "wear", Limit: defaultPageSize}).Return(nil, 0, nil)

	got, total, err := svc.List(ctx, ListFilter{Search: "  wear ", Offset: -1})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Zero(t, total)
	repo.AssertExpectations(t)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success trims name", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", ctx, Input{Name: "Scarves"}).Return(&Category{ID: "c-1", Name: "Scarves"}, nil)

		c, err := svc.Create(ctx, admin, Input{Name: " Scarves "})
		require.NoError(t, err)
		assert.Equal(t, "c-1", c.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Customer is forbidden", func(t *testing.T) {
		repo := new(MockRepository)
		_, err := NewService(repo).Create(ctx, customer, Input{Name: "Scarves"})
		assert.ErrorIs(t, err, ErrForbidden)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Blank name", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).Create(ctx, admin, Input{Name: "   "})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", ctx, Input{Name: "Scarves"}).Return(nil, ErrCategoryExists)

		_, err := NewService(repo).Create(ctx, admin, Input{Name: "Scarves"})
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Update trims name", func(t *testing.T) {
		repo := new(MockRepository)
		name := "Wraps"
		repo.On("Update", ctx, "c-1", mock.MatchedBy(func(in UpdateInput) bool {
			return in.Name != nil && *in.Name == name && in.Description == nil
		})).Return(&Category{ID: "c-1", Name: name}, nil)

		raw := "  Wraps "
		c, err := NewService(repo).Update(ctx, admin, "c-1", UpdateInput{Name: &raw})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name)
	})

	t.Run("Update to blank name", func(t *testing.T) {
		blank := " "
		_, err := NewService(new(MockRepository)).Update(ctx, admin, "c-1", UpdateInput{Name: &blank})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("Delete needs permission", func(t *testing.T) {
		repo := new(MockRepository)
		assert.ErrorIs(t, NewService(repo).Delete(ctx, customer, "c-1"), ErrForbidden)

		repo.On("Delete", ctx, "c-1").Return(nil)
		require.NoError(t, NewService(repo).Delete(ctx, admin, "c-1"))
		repo.AssertExpectations(t)
	})
}
