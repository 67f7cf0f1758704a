package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &DB{DB: mockDB}, mock
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		database, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := database.WithinTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "UPDATE users SET wallet = 0")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		database, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		wantErr := errors.New("boom")
		err := database.WithinTx(ctx, func(*sql.Tx) error { return wantErr })
		assert.ErrorIs(t, err, wantErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSplitSQLStatements(t *testing.T) {
	schema := `
-- users
CREATE TABLE IF NOT EXISTS users (
    user_id INT PRIMARY KEY
);

-- seed
INSERT IGNORE INTO ratings (rating, required_age) VALUES ('e', 0);
`
	statements := splitSQLStatements(schema)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, statements[1], "INSERT IGNORE INTO ratings")
}
