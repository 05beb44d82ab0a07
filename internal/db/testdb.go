package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB returns an in-memory database with the inventario schema, closed
// when the test ends. Open keeps a single connection, so every query of the
// test sees the same memory database.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, EnsureSchema(database), "applying schema")
	return database
}
