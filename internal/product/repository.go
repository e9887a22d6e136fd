package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
)

type Repository interface {
	Create(ctx context.Context, input NewProductInput, createdBy string) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, description, price, quantity, stock_status, category_id, created_by, created_at, updated_at`

func productDest(p *Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity,
		&p.StockStatus, &p.CategoryID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanProduct(row interface{ Scan(...any) error }, p *Product) error {
	return row.Scan(productDest(p)...)
}

// Create inserts the product together with its first inventory row so that
// the mirror and the ledger start out equal.
func (r *repository) Create(ctx context.Context, input NewProductInput, createdBy string) (*Product, error) {
	threshold := inventory.DefaultLowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	location := input.Location
	if location == "" {
		location = inventory.DefaultLocation
	}

	var p Product
	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO products (name, description, price, quantity, stock_status, created_by, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+productColumns,
			input.Name, input.Description, input.Price, input.InitialQuantity,
			StatusFor(input.InitialQuantity), createdBy, input.CategoryID,
		)
		if err := scanProduct(row, &p); err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrUnknownCategory
			}
			return fmt.Errorf("insert product: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (product_id, location, quantity, low_stock_threshold)
			VALUES ($1, $2, $3, $4)
		`, p.ID, location, input.InitialQuantity, threshold); err != nil {
			return fmt.Errorf("insert inventory: %w", err)
		}

		if input.InitialQuantity > 0 {
			return inventory.InsertHistoryTx(ctx, tx, inventory.History{
				ProductID:        p.ID,
				Type:             inventory.MovementAdd,
				Quantity:         input.InitialQuantity,
				PreviousQuantity: 0,
				NewQuantity:      input.InitialQuantity,
				Reason:           "initial stock",
				PerformedBy:      createdBy,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// listWhere builds the shared WHERE clause for List and Count and returns
// the arguments bound so far.
func listWhere(filter ListFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.InStockOnly {
		clauses = append(clauses, "quantity > 0")
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	where, args := listWhere(filter)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+productColumns+`, COUNT(*) OVER() AS total
		FROM products%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		products []Product
		total    int
	)
	for rows.Next() {
		var p Product
		if err := rows.Scan(append(productDest(&p), &total)...); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhere(filter)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Update leaves nil fields untouched. Quantity and stock status are owned by
// the inventory ledger and never change here.
func (r *repository) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	var p Product
	err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			category_id = COALESCE($5, category_id),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, input.Name, input.Description, input.Price, input.CategoryID,
	), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if db.IsForeignKeyViolation(err) {
		return nil, ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &p, nil
}

// Delete removes the product with its inventory rows, history and cart
// lines. Products that appear on orders are kept.
func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return ErrProductInUse
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}
