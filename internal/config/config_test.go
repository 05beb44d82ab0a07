package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "inventario.sqlite3", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "Admin", cfg.AdminUser)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, RevocationSQLite, cfg.Revocation)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INVENTARIO_DB_PATH", "/tmp/x.db")
	t.Setenv("INVENTARIO_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("INVENTARIO_REVOCATION", "redis")
	t.Setenv("INVENTARIO_REDIS_PORT", "6380")
	t.Setenv("INVENTARIO_READ_TIMEOUT", "2s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, RevocationRedis, cfg.Revocation)
	assert.Equal(t, "localhost:6380", cfg.Redis.Address())
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("INVENTARIO_ADMIN_USER=Jefe\n"), 0o600))
	// godotenv sets process variables; Setenv restores the original state afterwards.
	t.Setenv("INVENTARIO_ADMIN_USER", "")
	os.Unsetenv("INVENTARIO_ADMIN_USER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Jefe", cfg.AdminUser)
}

func TestLoadRejectsUnknownRevocation(t *testing.T) {
	t.Setenv("INVENTARIO_REVOCATION", "memcached")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadIgnoresBareNames(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ADDR", ":1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 6379, cfg.Redis.Port)
}
