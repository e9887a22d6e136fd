package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categoryCols = []string{"id", "name", "description", "created_at", "updated_at"}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("With search", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM categories c WHERE c.name ILIKE \$1 ORDER BY c.name ASC LIMIT \$2 OFFSET \$3`).
			WithArgs("%wear%", 10, 0).
			WillReturnRows(sqlmock.NewRows(append(categoryCols, "total")).
				AddRow("c-1", "Footwear", "", now, now, 2).
				AddRow("c-2", "Headwear", "", now, now, 2))

		got, total, err := NewRepository(db).List(ctx, ListFilter{Search: "wear", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, got, 2)
		assert.Equal(t, "Footwear", got[0].Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Without search", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM categories c ORDER BY c.name ASC LIMIT \$1 OFFSET \$2`).
			WithArgs(50, 100).
			WillReturnRows(sqlmock.NewRows(append(categoryCols, "total")))

		got, total, err := NewRepository(db).List(ctx, ListFilter{Limit: 50, Offset: 100})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, total)
	})
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery("INSERT INTO categories").
			WithArgs("Scarves", "Woven").
			WillReturnRows(sqlmock.NewRows(categoryCols).AddRow("c-1", "Scarves", "Woven", now, now))

		c, err := NewRepository(db).Create(ctx, Input{Name: "Scarves", Description: "Woven"})
		require.NoError(t, err)
		assert.Equal(t, "c-1", c.ID)
	})

	t.Run("Duplicate name", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO categories").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err = NewRepository(db).Create(ctx, Input{Name: "Scarves"})
		assert.ErrorIs(t, err, ErrCategoryExists)
	})
}

func TestRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	ctx := context.Background()

	name := "Wraps"
	now := time.Now()
	mock.ExpectQuery("UPDATE categories SET name = COALESCE").
		WithArgs("c-1", &name, nil).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow("c-1", "Wraps", "Woven", now, now))
	mock.ExpectQuery("UPDATE categories SET name = COALESCE").
		WithArgs("missing", &name, nil).
		WillReturnRows(sqlmock.NewRows(categoryCols))

	c, err := repo.Update(ctx, "c-1", UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Woven", c.Description)

	_, err = repo.Update(ctx, "missing", UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM categories WHERE id").
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM categories WHERE id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM categories WHERE id").
		WithArgs("c-2").
		WillReturnError(errors.New("conn reset"))

	require.NoError(t, repo.Delete(ctx, "c-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrCategoryNotFound)
	assert.ErrorContains(t, repo.Delete(ctx, "c-2"), "conn reset")
}
