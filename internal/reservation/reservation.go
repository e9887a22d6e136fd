// Package reservation performs the read-only stock admission check that
// precedes order creation. It prices lines but never holds or debits stock.
package reservation

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-be/internal/apperror"
	"storefront-be/internal/inventory"

	"github.com/lib/pq"
)

type Item struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type PricedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"productName"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// Snapshot is a product's catalog data and its stock summed over locations.
type Snapshot struct {
	ProductID string
	Name      string
	Price     int64
	Available int
}

var (
	ErrEmptyOrder      = apperror.New(apperror.KindValidation, "order must contain at least one item")
	ErrInvalidQuantity = apperror.New(apperror.KindValidation, "quantity must be greater than zero")
)

type Catalog interface {
	Snapshots(ctx context.Context, productIDs []string) (map[string]Snapshot, error)
}

type Engine struct {
	catalog Catalog
}

func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Reserve validates items against current stock and returns priced lines in
// first-seen order. Duplicate product ids are merged before the check.
func (e *Engine) Reserve(ctx context.Context, items []Item) ([]PricedItem, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	merged := make(map[string]int, len(items))
	var order []string
	for _, it := range items {
		if it.ProductID == "" {
			return nil, apperror.New(apperror.KindValidation, "productId is required")
		}
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity.WithDetails(map[string]any{"productId": it.ProductID})
		}
		if _, seen := merged[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		merged[it.ProductID] += it.Quantity
	}

	snaps, err := e.catalog.Snapshots(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("load stock snapshot: %w", err)
	}

	lines := make([]PricedItem, 0, len(order))
	for _, id := range order {
		snap, ok := snaps[id]
		if !ok {
			return nil, inventory.ProductNotFound(id)
		}
		qty := merged[id]
		if snap.Available < qty {
			return nil, inventory.InsufficientStock(id, snap.Available, qty)
		}
		lines = append(lines, PricedItem{
			ProductID: id,
			Name:      snap.Name,
			Quantity:  qty,
			UnitPrice: snap.Price,
		})
	}
	return lines, nil
}

// Total is the sum of unitPrice * quantity in minor units.
func Total(lines []PricedItem) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

type sqlCatalog struct {
	db *sql.DB
}

func NewSQLCatalog(db *sql.DB) Catalog {
	return &sqlCatalog{db: db}
}

func (c *sqlCatalog) Snapshots(ctx context.Context, productIDs []string) (map[string]Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, COALESCE(SUM(i.quantity), 0)::int AS available
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id
		WHERE p.id::text = ANY($1::text[])
		GROUP BY p.id, p.name, p.price
	`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Snapshot, len(productIDs))
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ProductID, &s.Name, &s.Price, &s.Available); err != nil {
			return nil, err
		}
		out[s.ProductID] = s
	}
	return out, rows.Err()
}
