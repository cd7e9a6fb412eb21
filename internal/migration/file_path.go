package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// modulePath identifies this repository's go.mod while walking up from the working directory.
const modulePath = "github.com/Anereges/AITB-Employee-Management-System"

// migrationsDirEnv overrides the lookup, for binaries running outside the source tree.
const migrationsDirEnv = "EMS_MIGRATIONS_DIR"

var errModuleRootNotFound = errors.New("module root not found")

// getMigrationsDir returns the absolute path to the migrations directory
func getMigrationsDir() (string, error) {
	if dir := os.Getenv(migrationsDirEnv); dir != "" {
		return filepath.Abs(dir)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := findModuleRoot(wd)
	if err != nil {
		return "", fmt.Errorf("failed to find project root from %s: %w", wd, err)
	}
	return filepath.Join(root, "migrations"), nil
}

// findModuleRoot walks up from dir to the directory whose go.mod declares modulePath.
// Other modules found on the way, such as vendored or example trees, are skipped.
func findModuleRoot(dir string) (string, error) {
	for {
		content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		switch {
		case err == nil:
			if modfile.ModulePath(content) == modulePath {
				return dir, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errModuleRootNotFound
		}
		dir = parent
	}
}
