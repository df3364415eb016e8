package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersion(t *testing.T) {
	v, err := MigrationVersion("migrations/001_init.sql")
	require.NoError(t, err)
	assert.Equal(t, "001", v)

	_, err = MigrationVersion("init.sql")
	assert.Error(t, err)

	_, err = MigrationVersion("v1_init.sql")
	assert.Error(t, err)
}

func TestPendingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_merge.sql", "001_init.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	files, err := PendingFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_merge.sql"}, files)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_other.sql"), []byte("--"), 0o600))
	_, err = PendingFiles(dir)
	assert.Error(t, err)
}

func TestRepositoryMigrationsAreWellFormed(t *testing.T) {
	files, err := PendingFiles(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
