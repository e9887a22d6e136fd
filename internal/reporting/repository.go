package reporting

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// soldStatuses are the order states whose stock has been debited and not
// returned.
var soldStatuses = []string{"Paid", "Processing", "Shipped", "Delivered"}

type Repository interface {
	Sales(ctx context.Context, r Range) (*SalesReport, error)
	Inventory(ctx context.Context, lowOnly bool) ([]InventoryLine, error)
	ProductPerformance(ctx context.Context, r Range, limit int) ([]ProductPerformance, error)
	UserActivity(ctx context.Context, r Range, limit int) ([]UserActivity, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Sales(ctx context.Context, rg Range) (*SalesReport, error) {
	var rep SalesReport
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_price), 0), COUNT(*)
		FROM orders
		WHERE created_at BETWEEN $1 AND $2 AND status = ANY($3)
	`, rg.Start, rg.End, pq.Array(soldStatuses)).Scan(&rep.TotalSales, &rep.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return &rep, nil
}

// Inventory lists every stock row; lowOnly keeps rows under their threshold.
func (r *repository) Inventory(ctx context.Context, lowOnly bool) ([]InventoryLine, error) {
	query := `
		SELECT i.product_id, COALESCE(p.name, 'Unknown Product'), i.location, i.quantity, i.low_stock_threshold
		FROM inventory i
		LEFT JOIN products p ON p.id = i.product_id
	`
	if lowOnly {
		query += ` WHERE i.quantity < i.low_stock_threshold`
	}
	query += ` ORDER BY i.quantity ASC, p.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("inventory report: %w", err)
	}
	defer rows.Close()

	lines := []InventoryLine{}
	for rows.Next() {
		var l InventoryLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Location, &l.Quantity, &l.LowStockThreshold); err != nil {
			return nil, fmt.Errorf("scan inventory line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ProductPerformance sums each product's own lines, not the order totals.
func (r *repository) ProductPerformance(ctx context.Context, rg Range, limit int) ([]ProductPerformance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.product_id, MAX(oi.product_name), SUM(oi.quantity), SUM(oi.quantity * oi.unit_price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at BETWEEN $1 AND $2 AND o.status = ANY($3)
		GROUP BY oi.product_id
		ORDER BY SUM(oi.quantity * oi.unit_price) DESC
		LIMIT $4
	`, rg.Start, rg.End, pq.Array(soldStatuses), limit)
	if err != nil {
		return nil, fmt.Errorf("product performance report: %w", err)
	}
	defer rows.Close()

	out := []ProductPerformance{}
	for rows.Next() {
		var p ProductPerformance
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.TotalQuantitySold, &p.TotalSales); err != nil {
			return nil, fmt.Errorf("scan product performance: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) UserActivity(ctx context.Context, rg Range, limit int) ([]UserActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, MAX(email), COUNT(*), SUM(total_price)
		FROM orders
		WHERE created_at BETWEEN $1 AND $2 AND status = ANY($3)
		GROUP BY user_id
		ORDER BY SUM(total_price) DESC
		LIMIT $4
	`, rg.Start, rg.End, pq.Array(soldStatuses), limit)
	if err != nil {
		return nil, fmt.Errorf("user activity report: %w", err)
	}
	defer rows.Close()

	out := []UserActivity{}
	for rows.Next() {
		var u UserActivity
		if err := rows.Scan(&u.UserID, &u.Email, &u.TotalOrders, &u.TotalSpent); err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
