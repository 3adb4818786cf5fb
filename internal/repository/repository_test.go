package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flashcards/internal/database"
)

// setupMockDB wraps a sqlmock connection in the SQLite dialect
func setupMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := database.Wrap(sqlDB, database.NewSQLiteDialect(), zap.NewNop())

	cleanup := func() {
		sqlDB.Close()
	}
	return db, mock, cleanup
}
