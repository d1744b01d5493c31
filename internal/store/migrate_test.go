package store

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsEmbedded(t *testing.T) {
	migs, err := loadMigrations(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, 1, migs[0].Version)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS predictions")
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS health_metrics")
}

func TestLoadMigrationsOrdersAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_late.sql":  {Data: []byte("SELECT 10")},
		"migrations/002_mid.sql":   {Data: []byte("SELECT 2")},
		"migrations/README.md":     {Data: []byte("docs")},
		"migrations/draft.sql":     {Data: []byte("SELECT 0")},
		"migrations/abc_notes.sql": {Data: []byte("SELECT 0")},
	}
	migs, err := loadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 2, migs[0].Version)
	assert.Equal(t, 10, migs[1].Version)
}

func TestLoadMigrationsRejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("SELECT 1")},
		"migrations/001_b.sql": {Data: []byte("SELECT 1")},
	}
	_, err := loadMigrations(fsys)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "001_a.sql"))
}
