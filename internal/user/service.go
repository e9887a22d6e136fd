package user

import (
	"context"
	"strings"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	Profile(ctx context.Context, actor rbac.Actor) (*User, error)
	UpdateProfile(ctx context.Context, actor rbac.Actor, in UpdateProfileInput) (*User, error)
	List(ctx context.Context, actor rbac.Actor, filter ListFilter) ([]User, int, error)
}

type service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
	hash     func(string) (string, error)
}

func NewService(repo Repository, secret []byte, tokenTTL time.Duration) Service {
	return &service{repo: repo, secret: secret, tokenTTL: tokenTTL, hash: HashPassword}
}

// Register always creates a customer account; staff roles are granted
// out of band.
func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.UserName = strings.TrimSpace(in.UserName)
	if in.Email == "" || in.UserName == "" || in.Password == "" {
		return nil, apperror.New(apperror.KindValidation, "userName, email and password are required")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.Create(ctx, User{
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         rbac.RoleUser,
	})
	if err != nil {
		log.Warn("register failed", zap.Error(err))
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// Login answers unknown emails and wrong passwords the same way.
func (s *service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(in.Password, u.PasswordHash) {
		log.Info("login rejected", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	tok, expires, err := auth.IssueToken(s.secret, s.tokenTTL, u.ID, u.Email, u.Role)
	if err != nil {
		log.Error("issue token failed", zap.Error(err))
		return nil, err
	}

	log.Info("user logged in", zap.String("user_id", u.ID))
	return &Session{AccessToken: tok, ExpiresAt: expires, User: u}, nil
}

func (s *service) Profile(ctx context.Context, actor rbac.Actor) (*User, error) {
	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	return s.repo.GetByID(ctx, actor.UserID)
}

func (s *service) UpdateProfile(ctx context.Context, actor rbac.Actor, in UpdateProfileInput) (*User, error) {
	if actor.UserID == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "authentication required")
	}
	if in.UserName != nil {
		name := strings.TrimSpace(*in.UserName)
		if name == "" {
			return nil, apperror.New(apperror.KindValidation, "userName must not be blank")
		}
		in.UserName = &name
	}
	return s.repo.UpdateProfile(ctx, actor.UserID, in)
}

func (s *service) List(ctx context.Context, actor rbac.Actor, filter ListFilter) ([]User, int, error) {
	if !actor.Can(rbac.GetProfiles) {
		return nil, 0, ErrForbidden
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []User{}
	}
	return users, total, nil
}
