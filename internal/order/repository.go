package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	CreateFromCart(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	AttachPaymentRef(ctx context.Context, orderID, ref string) (string, error)
	Settle(ctx context.Context, orderID, performedBy string) (*Order, []inventory.Movement, error)
	Transition(ctx context.Context, orderID string, from, to Status, opts StatusOptions, performedBy string) (*Order, []inventory.Movement, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, email, total_price, status, payment_ref, shipping_address,
	tracking_number, cancel_reason, paid_at, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o        Order
		ref      sql.NullString
		tracking sql.NullString
		reason   sql.NullString
		paidAt   sql.NullTime
		shipping sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Email, &o.TotalPrice, &o.Status, &ref, &shipping,
		&tracking, &reason, &paidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ShippingAddress = shipping.String
	if ref.Valid {
		o.PaymentRef = &ref.String
	}
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}
	if reason.Valid {
		o.CancelReason = &reason.String
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	return &o, nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	return db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		return insertOrderTx(ctx, tx, o)
	})
}

// CreateFromCart inserts the order and empties the owner's cart atomically.
func (r *repository) CreateFromCart(ctx context.Context, o *Order) error {
	return db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if err := insertOrderTx(ctx, tx, o); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, o.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
}

func insertOrderTx(ctx context.Context, tx *sql.Tx, o *Order) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, email, total_price, status, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, o.UserID, o.Email, o.TotalPrice, o.Status, o.ShippingAddress).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.Items, err = loadItems(ctx, r.db, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByPaymentRef finds the order bound to ref regardless of its status.
func (r *repository) GetByPaymentRef(ctx context.Context, ref string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_ref = $1`, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order by payment ref: %w", err)
	}
	if o.Items, err = loadItems(ctx, r.db, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + `, COUNT(*) OVER() FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []Order
		total  int
	)
	for rows.Next() {
		o, err := scanOrder(countingScanner{rows: rows, total: &total})
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if orders[i].Items, err = loadItems(ctx, r.db, orders[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// countingScanner appends the window count column to an order scan.
type countingScanner struct {
	rows  *sql.Rows
	total *int
}

func (c countingScanner) Scan(dest ...any) error {
	return c.rows.Scan(append(dest, c.total)...)
}

// AttachPaymentRef binds ref to the order once. When a reference is already
// bound, that reference is returned unchanged.
func (r *repository) AttachPaymentRef(ctx context.Context, orderID, ref string) (string, error) {
	var bound string
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders SET payment_ref = $2, updated_at = NOW()
		WHERE id = $1 AND payment_ref IS NULL
		RETURNING payment_ref
	`, orderID, ref).Scan(&bound)
	if err == nil {
		return bound, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("attach payment ref: %w", err)
	}

	var existing sql.NullString
	err = r.db.QueryRowContext(ctx,
		`SELECT payment_ref FROM orders WHERE id = $1`, orderID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read payment ref: %w", err)
	}
	return existing.String, nil
}

// Settle moves a Pending order to Paid and debits every line in one
// transaction. Lines are processed in product id order so concurrent
// settlements lock products in the same sequence. A line may be split over
// several locations; each share yields its own movement.
func (r *repository) Settle(ctx context.Context, orderID, performedBy string) (*Order, []inventory.Movement, error) {
	var (
		settled   *Order
		movements []inventory.Movement
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var status Status
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadySettled
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if status != StatusPending {
			return ErrAlreadySettled
		}

		items, err := loadItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		sortItems(items)

		movements = make([]inventory.Movement, 0, len(items))
		reason := fmt.Sprintf("order %s paid", orderID)
		for _, it := range items {
			previous, err := inventory.LockProductTx(ctx, tx, it.ProductID)
			if err != nil {
				return err
			}
			if previous < it.Quantity {
				return inventory.InsufficientStock(it.ProductID, previous, it.Quantity)
			}

			debits, err := inventory.DebitTx(ctx, tx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			total, err := inventory.SyncProductTx(ctx, tx, it.ProductID)
			if err != nil {
				return err
			}

			id := orderID
			if err := inventory.InsertHistoryTx(ctx, tx, inventory.History{
				ProductID:        it.ProductID,
				Type:             inventory.MovementOrder,
				Quantity:         it.Quantity,
				PreviousQuantity: previous,
				NewQuantity:      total,
				Reason:           reason,
				PerformedBy:      performedBy,
				OrderID:          &id,
			}); err != nil {
				return err
			}

			for _, d := range debits {
				movements = append(movements, inventory.Movement{
					ProductID:         it.ProductID,
					Type:              inventory.MovementOrder,
					Location:          d.Location,
					Quantity:          d.Quantity,
					PreviousTotal:     previous,
					NewTotal:          total,
					LocationQuantity:  d.Remaining,
					LowStockThreshold: d.Threshold,
				})
			}
		}

		settled, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders SET status = $2, paid_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $3
			RETURNING `+orderColumns,
			orderID, StatusPaid, StatusPending))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadySettled
		}
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		settled.Items = items
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return settled, movements, nil
}

// Transition applies from -> to when the order is still in from. Leaving a
// debited status for Cancelled or Refunded credits every line back to the
// default location in the same transaction.
func (r *repository) Transition(ctx context.Context, orderID string, from, to Status, opts StatusOptions, performedBy string) (*Order, []inventory.Movement, error) {
	var (
		updated   *Order
		movements []inventory.Movement
	)

	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var current Status
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if current != from {
			return ErrStatusChanged.WithDetails(map[string]any{"status": string(current)})
		}

		items, err := loadItems(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if restocks(from, to) {
			sortItems(items)
			reason := fmt.Sprintf("order %s %s", orderID, strings.ToLower(string(to)))
			for _, it := range items {
				previous, err := inventory.LockProductTx(ctx, tx, it.ProductID)
				if err != nil {
					return err
				}
				locQty, threshold, err := inventory.CreditTx(ctx, tx, it.ProductID, inventory.DefaultLocation, it.Quantity)
				if err != nil {
					return err
				}
				total, err := inventory.SyncProductTx(ctx, tx, it.ProductID)
				if err != nil {
					return err
				}

				id := orderID
				if err := inventory.InsertHistoryTx(ctx, tx, inventory.History{
					ProductID:        it.ProductID,
					Type:             inventory.MovementReturn,
					Quantity:         it.Quantity,
					PreviousQuantity: previous,
					NewQuantity:      total,
					Reason:           reason,
					PerformedBy:      performedBy,
					OrderID:          &id,
				}); err != nil {
					return err
				}

				movements = append(movements, inventory.Movement{
					ProductID:         it.ProductID,
					Type:              inventory.MovementReturn,
					Location:          inventory.DefaultLocation,
					Quantity:          it.Quantity,
					PreviousTotal:     previous,
					NewTotal:          total,
					LocationQuantity:  locQty,
					LowStockThreshold: threshold,
				})
			}
		}

		updated, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders SET
				status = $2,
				tracking_number = COALESCE(NULLIF($3, ''), tracking_number),
				cancel_reason = COALESCE(NULLIF($4, ''), cancel_reason),
				updated_at = NOW()
			WHERE id = $1 AND status = $5
			RETURNING `+orderColumns,
			orderID, to, opts.TrackingNumber, opts.CancelReason, from))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatusChanged
		}
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		updated.Items = items
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, movements, nil
}

func loadItems(ctx context.Context, q inventory.DBTX, orderID string) ([]Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price
		FROM order_items WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
}
