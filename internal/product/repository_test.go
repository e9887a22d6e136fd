package product

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"storefront-be/internal/inventory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{
	"id", "name", "description", "price", "quantity", "stock_status", "category_id", "created_by", "created_at", "updated_at",
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("With initial stock", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO products").
			WithArgs("Kente Scarf", "", int64(2500), 10, "InStock", "admin-1", nil).
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow("p-1", "Kente Scarf", "", 2500, 10, "InStock", nil, "admin-1", now, now))
		mock.ExpectExec("INSERT INTO inventory").
			WithArgs("p-1", inventory.DefaultLocation, 10, inventory.DefaultLowStockThreshold).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO inventory_history").
			WithArgs("p-1", "ADD", 10, 0, 10, "initial stock", "admin-1", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		p, err := repo.Create(ctx, NewProductInput{Name: "Kente Scarf", Price: 2500, InitialQuantity: 10}, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, "p-1", p.ID)
		assert.Equal(t, StatusInStock, p.StockStatus)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inventory insert failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO products").
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow("p-1", "Mug", "", 500, 0, "OutOfStock", nil, "admin-1", now, now))
		mock.ExpectExec("INSERT INTO inventory").
			WillReturnError(errors.New("constraint"))
		mock.ExpectRollback()

		_, err = repo.Create(ctx, NewProductInput{Name: "Mug", Price: 500}, "admin-1")
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery("SELECT .* FROM products WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* COUNT.*. OVER.. AS total FROM products WHERE name ILIKE \$1 AND quantity > 0 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("%scarf%", 25, 0).
		WillReturnRows(sqlmock.NewRows(append(productCols, "total")).
			AddRow("p-1", "Kente Scarf", "", 2500, 10, "InStock", nil, "admin-1", now, now, 1))

	products, total, err := repo.List(context.Background(), ListFilter{Search: "scarf", InStockOnly: true, Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, int64(2500), products[0].Price)
}

func TestRepository_ListByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cat := "c-1"
	now := time.Now()
	mock.ExpectQuery(`FROM products WHERE category_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(cat, 10, 20).
		WillReturnRows(sqlmock.NewRows(append(productCols, "total")).
			AddRow("p-1", "Kente Scarf", "", 2500, 10, "InStock", cat, "admin-1", now, now, 21))

	products, total, err := NewRepository(db).List(context.Background(), ListFilter{CategoryID: cat, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].CategoryID)
	assert.Equal(t, cat, *products[0].CategoryID)
}

func TestRepository_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM products$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE quantity > 0`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = repo.Count(context.Background(), ListFilter{InStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	price := int64(3000)

	t.Run("Only provided fields change", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE products SET name = COALESCE").
			WithArgs("p-1", nil, nil, price, nil).
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow("p-1", "Kente Scarf", "", 3000, 10, "InStock", nil, "admin-1", now, now))

		p, err := NewRepository(db).Update(ctx, "p-1", UpdateInput{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, int64(3000), p.Price)
		assert.Equal(t, 10, p.Quantity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing product", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE products").WillReturnRows(sqlmock.NewRows(productCols))

		_, err = NewRepository(db).Update(ctx, "missing", UpdateInput{Price: &price})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("Unknown category", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cat := "00000000-0000-0000-0000-000000000000"
		mock.ExpectQuery("UPDATE products").WillReturnError(&pq.Error{Code: "23503"})

		_, err = NewRepository(db).Update(ctx, "p-1", UpdateInput{CategoryID: &cat})
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM products WHERE id").
			WithArgs("p-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewRepository(db).Delete(ctx, "p-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing product", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM products").WillReturnResult(driver.RowsAffected(0))

		assert.ErrorIs(t, NewRepository(db).Delete(ctx, "missing"), ErrProductNotFound)
	})

	t.Run("Product on an order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM products").WillReturnError(&pq.Error{Code: "23503"})

		assert.ErrorIs(t, NewRepository(db).Delete(ctx, "p-1"), ErrProductInUse)
	})
}
