package cart

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cartCols = []string{"id", "user_id", "product_id", "quantity", "created_at", "updated_at"}

func TestRepository_Add_MergesQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO carts .* ON CONFLICT .* carts.quantity \\+ EXCLUDED.quantity").
		WithArgs("user-1", "p-1", 2).
		WillReturnRows(sqlmock.NewRows(cartCols).AddRow("c-1", "user-1", "p-1", 5, now, now))

	item, err := repo.Add(context.Background(), "user-1", "p-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery("SELECT quantity FROM carts").
		WithArgs("user-1", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	qty, err := repo.GetQuantity(context.Background(), "user-1", "p-1")
	require.NoError(t, err)
	assert.Zero(t, qty)
}

func TestRepository_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("Deleted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM carts").
			WithArgs("user-1", "p-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewRepository(db).Remove(ctx, "user-1", "p-1"))
	})

	t.Run("Missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM carts").
			WithArgs("user-1", "p-9").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewRepository(db).Remove(ctx, "user-1", "p-9"), ErrCartItemNotFound)
	})
}

func TestRepository_SetQuantity_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE carts SET quantity").
		WithArgs(3, "user-1", "p-1").
		WillReturnRows(sqlmock.NewRows(cartCols))

	_, err = NewRepository(db).SetQuantity(context.Background(), "user-1", "p-1", 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestRepository_ListAndLines(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("SELECT c.id, c.user_id, c.product_id, p.name").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "product_id", "name", "price", "quantity", "stock", "created_at", "updated_at",
		}).AddRow("c-1", "user-1", "p-1", "Mug", int64(1250), 2, 9, now, now))
	mock.ExpectQuery("SELECT product_id, quantity FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).AddRow("p-1", 2))

	items, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2500), items[0].Subtotal())
	assert.Equal(t, 9, items[0].InStock)

	lines, err := repo.Lines(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}
