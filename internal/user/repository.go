package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, u User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, user_name, email, password_hash, phone, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *User) error {
	return row.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
}

func (r *repository) Create(ctx context.Context, u User) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
	)

	var created User
	err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (user_name, email, password_hash, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		u.UserName, u.Email, u.PasswordHash, u.Phone, u.Role,
	), &created)
	if db.IsUniqueViolation(err) {
		return nil, ErrEmailExists
	}
	if err != nil {
		log.Error("db: failed to insert user", zap.Error(err))
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email,
	), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`, COUNT(*) OVER() AS total
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var (
		users []User
		total int
	)
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// UpdateProfile uses COALESCE to keep existing values for nil inputs.
func (r *repository) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*User, error) {
	var u User
	err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET user_name = COALESCE($2, user_name),
			phone = COALESCE($3, phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, in.UserName, in.Phone,
	), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &u, nil
}
