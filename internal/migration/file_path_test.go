package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrationsDir_FindsModuleRoot(t *testing.T) {
	dir, err := getMigrationsDir()
	require.NoError(t, err)
	assert.Equal(t, "migrations", filepath.Base(dir))

	_, err = os.Stat(filepath.Join(dir, "00001_create_employees.sql"))
	assert.NoError(t, err)
}

func TestGetMigrationsDir_EnvOverride(t *testing.T) {
	t.Setenv(migrationsDirEnv, "/opt/ems/migrations")

	dir, err := getMigrationsDir()
	require.NoError(t, err)
	assert.Equal(t, "/opt/ems/migrations", dir)
}

func TestFindModuleRoot_SkipsForeignModules(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "tools", "gen")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+modulePath+"\n\ngo 1.23\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tools", "go.mod"), []byte("module example.com/tools\n"), 0o644))

	got, err := findModuleRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindModuleRoot_NotFound(t *testing.T) {
	_, err := findModuleRoot(t.TempDir())
	assert.ErrorIs(t, err, errModuleRootNotFound)
}
