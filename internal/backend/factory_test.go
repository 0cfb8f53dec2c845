package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigtrack/internal/config"
	"gigtrack/internal/seed"
)

func TestCreateMemoryBackendWithSeed(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedDemo: true})
	require.NoError(t, err)
	assert.Nil(t, res.Cleanup)

	users, err := res.Backend.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.NoError(t, res.Backend.Ping(context.Background()))
}

func TestCreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gigtrack.db")
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, SeedDemo: true})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)

	exists, err := res.Backend.UserExists(ctx, seed.DriverID)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, res.Cleanup())

	// Reopening an already seeded database skips the seed.
	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, SeedDemo: true})
	require.NoError(t, err)
	users, err := res.Backend.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	require.NoError(t, res.Cleanup())
}

func TestConfigValidation(t *testing.T) {
	assert.Error(t, Config{Type: "postgres"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())

	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", SeedDemo: true})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: MemoryBackend, SeedDemo: true}, cfg)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}
