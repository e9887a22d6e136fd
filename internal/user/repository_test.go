package user

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

var userCols = []string{"id", "user_name", "email", "password_hash", "phone", "role", "created_at", "updated_at"}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	in := User{UserName: "ama", Email: "ama@example.com", PasswordHash: "hashed", Role: "User"}

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO users \(user_name, email, password_hash, phone, role\)`).
			WithArgs("ama", "ama@example.com", "hashed", "", "User").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("u-1", "ama", "ama@example.com", "hashed", "", "User", now, now))

		u, err := NewRepository(db).Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "u-1", u.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Email taken", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

		_, err = NewRepository(db).Create(ctx, in)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("DB error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("conn reset"))

		_, err = NewRepository(db).Create(ctx, in)
		assert.ErrorContains(t, err, "conn reset")
	})
}

func TestRepository_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Ama@Example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "ama", "ama@example.com", "hashed", "", "User", now, now))
	mock.ExpectQuery("SELECT .* FROM users WHERE LOWER").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	u, err := repo.FindByEmail(ctx, "Ama@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed", u.PasswordHash)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_UpdateProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	phone := "+233200000000"
	now := time.Now()
	mock.ExpectQuery("UPDATE users SET user_name = COALESCE").
		WithArgs("u-1", nil, phone).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "ama", "ama@example.com", "hashed", phone, "User", now, now))

	u, err := NewRepository(db).UpdateProfile(context.Background(), "u-1", UpdateProfileInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, u.Phone)
	assert.Equal(t, "ama", u.UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT .* COUNT.*. OVER.. AS total FROM users").
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(append(userCols, "total")).
			AddRow("u-1", "ama", "ama@example.com", "hashed", "", "User", now, now, 1))

	users, total, err := NewRepository(db).List(context.Background(), ListFilter{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
}
