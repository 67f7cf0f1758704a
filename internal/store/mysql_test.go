package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mkarchuk/gamestore/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewMySQL(&db.DB{DB: mockDB}, nil), mock
}

func TestCreatePurchase(t *testing.T) {
	ctx := context.Background()
	placedAt := time.Now()
	total := decimal.RequireFromString("29.99")
	balance := decimal.RequireFromString("20.01")

	t.Run("order, details and wallet debit share one transaction", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (user_fk, kind, order_date, total_cost) VALUES (?, 'purchase', ?, ?)")).
			WithArgs(int64(1), placedAt, total).
			WillReturnResult(sqlmock.NewResult(42, 1))
		// Detail rows execute in ascending game id order.
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_details (order_fk, game_fk, quantity) VALUES (?, ?, ?)")).
			WithArgs(int64(42), int64(3), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_details (order_fk, game_fk, quantity) VALUES (?, ?, ?)")).
			WithArgs(int64(42), int64(7), 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet = ? WHERE user_id = ?")).
			WithArgs(balance, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		orderID, err := store.CreatePurchase(ctx, 1, placedAt, total, map[int64]int{7: 2, 3: 1}, balance)
		require.NoError(t, err)
		assert.Equal(t, int64(42), orderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a failed detail insert rolls the whole transaction back", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec("INSERT INTO order_details").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := store.CreatePurchase(ctx, 1, placedAt, total, map[int64]int{3: 1}, balance)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a failed wallet debit rolls the whole transaction back", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec("INSERT INTO order_details").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE users SET wallet").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := store.CreatePurchase(ctx, 1, placedAt, total, map[int64]int{3: 1}, balance)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTopUp(t *testing.T) {
	store, mock := newMockStore(t)
	placedAt := time.Now()
	amount := decimal.RequireFromString("10.00")
	balance := decimal.RequireFromString("15.50")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (user_fk, kind, order_date, total_cost) VALUES (?, 'topup', ?, ?)")).
		WithArgs(int64(1), placedAt, amount).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET wallet = ? WHERE user_id = ?")).
		WithArgs(balance, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	orderID, err := store.CreateTopUp(context.Background(), 1, placedAt, amount, balance)
	require.NoError(t, err)
	assert.Equal(t, int64(9), orderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToInventory(t *testing.T) {
	store, mock := newMockStore(t)

	upsert := "INSERT INTO user_games .+ ON DUPLICATE KEY UPDATE quantity_in_inventory = quantity_in_inventory \\+ VALUES\\(quantity_in_inventory\\)"
	mock.ExpectBegin()
	mock.ExpectExec(upsert).
		WithArgs(int64(1), int64(3), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsert).
		WithArgs(int64(1), int64(7), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.AddToInventory(context.Background(), 1, map[int64]int{7: 1, 3: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialsByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the user and hash", func(t *testing.T) {
		store, mock := newMockStore(t)
		born := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT user_id, username, password, date_of_birth, wallet FROM users").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "password", "date_of_birth", "wallet"}).
				AddRow(int64(1), "alice", "$2a$10$fakehash", born, "42.50"))

		user, hash, err := store.CredentialsByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "$2a$10$fakehash", hash)
		assert.True(t, user.Wallet.Equal(decimal.RequireFromString("42.50")))
	})

	t.Run("absence is a nil user, not an error", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT user_id, username, password, date_of_birth, wallet FROM users").
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "password", "date_of_birth", "wallet"}))

		user, hash, err := store.CredentialsByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.Empty(t, hash)
	})
}

func TestUserByUsernameAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT user_id, username, date_of_birth, wallet FROM users").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "date_of_birth", "wallet"}))

	user, err := store.UserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestDeleteUser(t *testing.T) {
	t.Run("reports false when nothing matched", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE user_id = ?")).
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := store.DeleteUser(context.Background(), 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("reports true for a deleted row", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE user_id = ?")).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := store.DeleteUser(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestIsGameOfAge(t *testing.T) {
	ctx := context.Background()

	t.Run("counts a matching rating row", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(int64(3), 17).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		ok, err := store.IsGameOfAge(ctx, 3, 17)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("zero rows means not of age", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
			WithArgs(int64(3), 15).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		ok, err := store.IsGameOfAge(ctx, 3, 15)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGameByID(t *testing.T) {
	store, mock := newMockStore(t)
	released := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)

	gameRows := sqlmock.NewRows([]string{
		"game_id", "name", "price", "rating", "description", "developer", "publisher",
		"recommendations", "release_date", "metacritic", "discount_percent",
	}).AddRow(int64(3), "Solstice", "19.99", "t", "A quiet platformer.", "Moonbeam", "Moonbeam",
		120, released, nil, "0.25")

	mock.ExpectQuery("SELECT .+ FROM games WHERE game_id").
		WithArgs(int64(3)).
		WillReturnRows(gameRows)
	mock.ExpectQuery("SELECT game_fk, genre FROM game_genres").
		WillReturnRows(sqlmock.NewRows([]string{"game_fk", "genre"}).
			AddRow(int64(3), "Platformer").
			AddRow(int64(3), "Indie"))
	mock.ExpectQuery("SELECT game_fk, category FROM game_categories").
		WillReturnRows(sqlmock.NewRows([]string{"game_fk", "category"}).
			AddRow(int64(3), "Single-player"))

	game, err := store.GameByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, "Solstice", game.Name)
	assert.Nil(t, game.Metacritic)
	assert.Equal(t, []string{"Platformer", "Indie"}, game.Genres)
	assert.Equal(t, []string{"Single-player"}, game.Categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}
