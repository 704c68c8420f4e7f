package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersions_Sorted(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_system.sql": {Data: []byte("SELECT 1")},
		"migrations/0001_ledger.sql": {Data: []byte("SELECT 1")},
		"migrations/README.md":       {Data: []byte("notes")},
	}
	versions, err := migrationVersions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_ledger.sql", "0002_system.sql"}, versions)
}

func TestEmbeddedMigrations(t *testing.T) {
	versions, err := migrationVersions(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	body, err := migrationFiles.ReadFile("migrations/" + versions[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "uq_inventory_key")
}

func TestEmbeddedMigrations_Catalogs(t *testing.T) {
	versions, err := migrationVersions(migrationFiles)
	require.NoError(t, err)
	require.Contains(t, versions, "0003_catalogs.sql")

	body, err := migrationFiles.ReadFile("migrations/0003_catalogs.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "uq_product_name")
	assert.Contains(t, string(body), "ON DELETE SET NULL")
}
