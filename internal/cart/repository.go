package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/reservation"
)

type Repository interface {
	GetQuantity(ctx context.Context, userID, productID string) (int, error)
	Add(ctx context.Context, userID, productID string, quantity int) (*CartItem, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*CartItem, error)
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]CartItem, error)
	Lines(ctx context.Context, userID string) ([]reservation.Item, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetQuantity returns 0 when the product is not in the cart.
func (r *repository) GetQuantity(ctx context.Context, userID, productID string) (int, error) {
	var qty int
	err := r.db.QueryRowContext(ctx,
		`SELECT quantity FROM carts WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cart quantity: %w", err)
	}
	return qty, nil
}

// Add inserts the line or merges quantity into the existing one.
func (r *repository) Add(ctx context.Context, userID, productID string, quantity int) (*CartItem, error) {
	item := &CartItem{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`, userID, productID, quantity).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

func (r *repository) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*CartItem, error) {
	item := &CartItem{}
	err := r.db.QueryRowContext(ctx, `
		UPDATE carts
		SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND product_id = $3
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`, quantity, userID, productID).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

func (r *repository) Remove(ctx context.Context, userID, productID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM carts WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, userID string) ([]CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.product_id, p.name, p.price, c.quantity, p.quantity,
		       c.created_at, c.updated_at
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.InStock,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Lines returns the cart as order lines for checkout.
func (r *repository) Lines(ctx context.Context, userID string) ([]reservation.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity FROM carts
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	defer rows.Close()

	var items []reservation.Item
	for rows.Next() {
		var it reservation.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
