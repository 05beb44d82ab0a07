package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inventario/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	s := NewSQLStore(db.NewTestDB(t))
	ctx := context.Background()

	revoked, err := s.IsTokenRevoked(ctx, "test-jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.RevokeToken(ctx, "test-jti-1", time.Now().Add(time.Hour)))

	revoked, err = s.IsTokenRevoked(ctx, "test-jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsTokenRevoked(ctx, "test-jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeTokenIdempotent(t *testing.T) {
	s := NewSQLStore(db.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.RevokeToken(ctx, "test-jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, s.RevokeToken(ctx, "test-jti-1", time.Now().Add(time.Hour)))
}

func TestRevokeTokenDropsExpired(t *testing.T) {
	s := NewSQLStore(db.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.RevokeToken(ctx, "old", time.Now().Add(-time.Hour)))
	require.NoError(t, s.RevokeToken(ctx, "new", time.Now().Add(time.Hour)))

	revoked, err := s.IsTokenRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
