package inventory

import (
	"context"
	"database/sql/driver"
	"testing"

	"storefront-be/internal/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockRows(rows ...[]any) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "location", "quantity", "low_stock_threshold"})
	for _, row := range rows {
		vals := make([]driver.Value, len(row))
		for i, v := range row {
			vals[i] = v
		}
		r.AddRow(vals...)
	}
	return r
}

func TestDebitTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Single location covers the line", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, location, quantity, low_stock_threshold FROM inventory .* FOR UPDATE").
			WithArgs("p-1", DefaultLocation).
			WillReturnRows(stockRows([]any{"inv-1", DefaultLocation, 10, 10}))
		mock.ExpectQuery("UPDATE inventory SET quantity = quantity - \\$1").
			WithArgs(2, "inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(8))

		debits, err := DebitTx(ctx, db, "p-1", 2)
		require.NoError(t, err)
		require.Len(t, debits, 1)
		assert.Equal(t, Debit{Location: DefaultLocation, Quantity: 2, Remaining: 8, Threshold: 10}, debits[0])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Line split over two locations", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, location, quantity, low_stock_threshold FROM inventory").
			WithArgs("p-1", DefaultLocation).
			WillReturnRows(stockRows(
				[]any{"inv-1", DefaultLocation, 3, 10},
				[]any{"inv-2", "Warehouse", 3, 5},
			))
		mock.ExpectQuery("UPDATE inventory SET quantity = quantity - \\$1").
			WithArgs(3, "inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))
		mock.ExpectQuery("UPDATE inventory SET quantity = quantity - \\$1").
			WithArgs(2, "inv-2").
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))

		debits, err := DebitTx(ctx, db, "p-1", 5)
		require.NoError(t, err)
		assert.Equal(t, []Debit{
			{Location: DefaultLocation, Quantity: 3, Remaining: 0, Threshold: 10},
			{Location: "Warehouse", Quantity: 2, Remaining: 1, Threshold: 5},
		}, debits)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Locations together cannot cover the line", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, location, quantity, low_stock_threshold FROM inventory").
			WithArgs("p-1", DefaultLocation).
			WillReturnRows(stockRows(
				[]any{"inv-1", DefaultLocation, 1, 10},
				[]any{"inv-2", "Warehouse", 1, 10},
			))

		_, err = DebitTx(ctx, db, "p-1", 3)
		require.Error(t, err)
		assert.True(t, IsInsufficientStock(err))

		details := apperror.As(err).Details()
		assert.Equal(t, 2, details["available"])
		assert.Equal(t, 3, details["requested"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Row drained underneath the debit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, location, quantity, low_stock_threshold FROM inventory").
			WillReturnRows(stockRows([]any{"inv-1", DefaultLocation, 4, 10}))
		mock.ExpectQuery("UPDATE inventory SET quantity = quantity - \\$1").
			WithArgs(4, "inv-1").
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

		_, err = DebitTx(ctx, db, "p-1", 4)
		assert.True(t, IsInsufficientStock(err))
	})
}

func TestLockProductTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT quantity FROM products").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	_, err = LockProductTx(context.Background(), db, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreditTxAndSync(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO inventory .* DO UPDATE SET quantity = inventory.quantity").
		WithArgs("p-1", DefaultLocation, 2, DefaultLowStockThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"quantity", "low_stock_threshold"}).AddRow(10, 10))
	mock.ExpectQuery("UPDATE products SET quantity = s.total").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(10))

	remaining, _, err := CreditTx(ctx, db, "p-1", DefaultLocation, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)

	total, err := SyncProductTx(ctx, db, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
