package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx. The ledger helpers below are
// meant to run inside a caller-owned transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LockProductTx row-locks the product and returns its mirrored quantity.
// Holding this lock serializes every stock mutation of the product.
func LockProductTx(ctx context.Context, q DBTX, productID string) (int, error) {
	var qty int
	err := q.QueryRowContext(ctx,
		`SELECT quantity FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ProductNotFound(productID)
	}
	if err != nil {
		return 0, fmt.Errorf("lock product: %w", err)
	}
	return qty, nil
}

// AvailableTx sums the product's stock over every location.
func AvailableTx(ctx context.Context, q DBTX, productID string) (int, error) {
	var total int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE product_id = $1`,
		productID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum inventory: %w", err)
	}
	return total, nil
}

// Debit is the share of a line taken from one location.
type Debit struct {
	Location  string
	Quantity  int
	Remaining int
	Threshold int
}

// DebitTx removes qty from the product's locations, draining the default
// location first and then the fullest ones. Rows are locked before anything
// is written and every decrement is conditional, so the line is covered in
// full or the call fails with InsufficientStock.
func DebitTx(ctx context.Context, q DBTX, productID string, qty int) ([]Debit, error) {
	type stockRow struct {
		id        string
		location  string
		quantity  int
		threshold int
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, location, quantity, low_stock_threshold
		FROM inventory
		WHERE product_id = $1 AND quantity > 0
		ORDER BY (location = $2) DESC, quantity DESC, location
		FOR UPDATE
	`, productID, DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("lock inventory rows: %w", err)
	}
	defer rows.Close()

	var (
		stock     []stockRow
		available int
	)
	for rows.Next() {
		var sr stockRow
		if err := rows.Scan(&sr.id, &sr.location, &sr.quantity, &sr.threshold); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		stock = append(stock, sr)
		available += sr.quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}
	if available < qty {
		return nil, InsufficientStock(productID, available, qty)
	}

	debits := make([]Debit, 0, 1)
	need := qty
	for _, sr := range stock {
		if need == 0 {
			break
		}
		take := min(sr.quantity, need)

		var remaining int
		err := q.QueryRowContext(ctx, `
			UPDATE inventory
			SET quantity = quantity - $1, last_updated = NOW()
			WHERE id = $2 AND quantity >= $1
			RETURNING quantity
		`, take, sr.id).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, InsufficientStock(productID, available, qty)
		}
		if err != nil {
			return nil, fmt.Errorf("debit inventory: %w", err)
		}

		debits = append(debits, Debit{
			Location:  sr.location,
			Quantity:  take,
			Remaining: remaining,
			Threshold: sr.threshold,
		})
		need -= take
	}
	return debits, nil
}

// CreditTx adds qty at location, creating the row on first use.
func CreditTx(ctx context.Context, q DBTX, productID, location string, qty int) (remaining, threshold int, err error) {
	err = q.QueryRowContext(ctx, `
		INSERT INTO inventory (product_id, location, quantity, low_stock_threshold, last_updated)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (product_id, location)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, last_updated = NOW()
		RETURNING quantity, low_stock_threshold
	`, productID, location, qty, DefaultLowStockThreshold).Scan(&remaining, &threshold)
	if err != nil {
		return 0, 0, fmt.Errorf("credit inventory: %w", err)
	}
	return remaining, threshold, nil
}

// SyncProductTx rewrites the product mirror from its inventory rows and
// returns the new total.
func SyncProductTx(ctx context.Context, q DBTX, productID string) (int, error) {
	var total int
	err := q.QueryRowContext(ctx, `
		UPDATE products
		SET quantity = s.total,
			stock_status = CASE WHEN s.total > 0 THEN 'InStock' ELSE 'OutOfStock' END,
			updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(quantity), 0)::int AS total
			FROM inventory WHERE product_id = $1
		) s
		WHERE products.id = $1
		RETURNING products.quantity
	`, productID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ProductNotFound(productID)
	}
	if err != nil {
		return 0, fmt.Errorf("sync product quantity: %w", err)
	}
	return total, nil
}

func InsertHistoryTx(ctx context.Context, q DBTX, h History) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO inventory_history (
			product_id, type, quantity, previous_quantity, new_quantity,
			reason, performed_by, order_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		h.ProductID, h.Type, h.Quantity, h.PreviousQuantity, h.NewQuantity,
		h.Reason, h.PerformedBy, h.OrderID,
	)
	if err != nil {
		return fmt.Errorf("insert inventory history: %w", err)
	}
	return nil
}
