package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/db"

	"github.com/lib/pq"
)

type Repository interface {
	ApplyUpdate(ctx context.Context, upd StockUpdate, performedBy string) (*Movement, error)
	ListStatus(ctx context.Context, filter StatusFilter) ([]Inventory, error)
	ListHistory(ctx context.Context, productID string, limit int) ([]History, error)
	SyncProducts(ctx context.Context, productIDs []string) ([]SyncResult, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// ApplyUpdate performs an ADD, REMOVE or ADJUST at one location, resyncs the
// product mirror and appends the history row in one transaction.
func (r *repository) ApplyUpdate(ctx context.Context, upd StockUpdate, performedBy string) (*Movement, error) {
	var mv *Movement

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		previous, err := LockProductTx(ctx, tx, upd.ProductID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (product_id, location, quantity, low_stock_threshold)
			VALUES ($1, $2, 0, $3)
			ON CONFLICT (product_id, location) DO NOTHING
		`, upd.ProductID, upd.Location, DefaultLowStockThreshold); err != nil {
			return fmt.Errorf("ensure inventory row: %w", err)
		}

		var locQty, threshold int
		switch upd.Type {
		case MovementAdd:
			err = tx.QueryRowContext(ctx, `
				UPDATE inventory SET quantity = quantity + $1, last_updated = NOW()
				WHERE product_id = $2 AND location = $3
				RETURNING quantity, low_stock_threshold
			`, upd.Quantity, upd.ProductID, upd.Location).Scan(&locQty, &threshold)
		case MovementRemove:
			err = tx.QueryRowContext(ctx, `
				UPDATE inventory SET quantity = quantity - $1, last_updated = NOW()
				WHERE product_id = $2 AND location = $3 AND quantity >= $1
				RETURNING quantity, low_stock_threshold
			`, upd.Quantity, upd.ProductID, upd.Location).Scan(&locQty, &threshold)
			if errors.Is(err, sql.ErrNoRows) {
				available, sumErr := AvailableTx(ctx, tx, upd.ProductID)
				if sumErr != nil {
					return sumErr
				}
				return InsufficientStock(upd.ProductID, available, upd.Quantity)
			}
		case MovementAdjust:
			err = tx.QueryRowContext(ctx, `
				UPDATE inventory SET quantity = $1, last_updated = NOW()
				WHERE product_id = $2 AND location = $3
				RETURNING quantity, low_stock_threshold
			`, upd.Quantity, upd.ProductID, upd.Location).Scan(&locQty, &threshold)
		default:
			return ErrInvalidMovement
		}
		if err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}

		total, err := SyncProductTx(ctx, tx, upd.ProductID)
		if err != nil {
			return err
		}

		if err := InsertHistoryTx(ctx, tx, History{
			ProductID:        upd.ProductID,
			Type:             upd.Type,
			Quantity:         upd.Quantity,
			PreviousQuantity: previous,
			NewQuantity:      total,
			Reason:           upd.Reason,
			PerformedBy:      performedBy,
		}); err != nil {
			return err
		}

		mv = &Movement{
			ProductID:         upd.ProductID,
			Type:              upd.Type,
			Location:          upd.Location,
			Quantity:          upd.Quantity,
			PreviousTotal:     previous,
			NewTotal:          total,
			LocationQuantity:  locQty,
			LowStockThreshold: threshold,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

func (r *repository) ListStatus(ctx context.Context, filter StatusFilter) ([]Inventory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.product_id, p.name, i.location, i.quantity, i.low_stock_threshold, i.last_updated
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE ($1 = FALSE OR i.quantity < i.low_stock_threshold)
		  AND ($2 = '' OR i.location = $2)
		ORDER BY p.name, i.location
	`, filter.LowStockOnly, filter.Location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Inventory
	for rows.Next() {
		var inv Inventory
		if err := rows.Scan(
			&inv.ID, &inv.ProductID, &inv.ProductName, &inv.Location,
			&inv.Quantity, &inv.LowStockThreshold, &inv.LastUpdated,
		); err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

func (r *repository) ListHistory(ctx context.Context, productID string, limit int) ([]History, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, type, quantity, previous_quantity, new_quantity,
			reason, performed_by, order_id, created_at
		FROM inventory_history
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []History
	for rows.Next() {
		var h History
		var orderID sql.NullString
		if err := rows.Scan(
			&h.ID, &h.ProductID, &h.Type, &h.Quantity, &h.PreviousQuantity, &h.NewQuantity,
			&h.Reason, &h.PerformedBy, &orderID, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		if orderID.Valid {
			h.OrderID = &orderID.String
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SyncProducts repairs product mirrors that drifted from their inventory
// rows. Inventory is trusted. An empty productIDs covers every product.
func (r *repository) SyncProducts(ctx context.Context, productIDs []string) ([]SyncResult, error) {
	var filter any
	if len(productIDs) > 0 {
		filter = pq.Array(productIDs)
	}

	rows, err := r.db.QueryContext(ctx, `
		WITH totals AS (
			SELECT p.id, p.quantity AS previous, COALESCE(SUM(i.quantity), 0)::int AS total
			FROM products p
			LEFT JOIN inventory i ON i.product_id = p.id
			WHERE $1::text[] IS NULL OR p.id::text = ANY($1::text[])
			GROUP BY p.id, p.quantity
		)
		UPDATE products p
		SET quantity = t.total,
			stock_status = CASE WHEN t.total > 0 THEN 'InStock' ELSE 'OutOfStock' END,
			updated_at = NOW()
		FROM totals t
		WHERE p.id = t.id
		  AND (p.quantity <> t.total
		       OR p.stock_status <> CASE WHEN t.total > 0 THEN 'InStock' ELSE 'OutOfStock' END)
		RETURNING p.id, t.previous, t.total
	`, filter)
	if err != nil {
		return nil, fmt.Errorf("sync products: %w", err)
	}
	defer rows.Close()

	var out []SyncResult
	for rows.Next() {
		var s SyncResult
		if err := rows.Scan(&s.ProductID, &s.PreviousQuantity, &s.NewQuantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
