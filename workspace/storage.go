package workspace

import (
	"fmt"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

const (
	// ConfigFileName is the workspace configuration document.
	ConfigFileName = "config.json"

	// BaselineFileName is the copy of the configuration taken at creation.
	BaselineFileName = ConfigFileName + ".lock"
)

// storageDir returns the directory holding a workspace's documents. The id
// comes from the registry, which may have been edited by hand, so it is joined
// without allowing it to escape rootDir.
func storageDir(rootDir, id string) (string, error) {
	dir, err := securejoin.SecureJoin(rootDir, id)
	if err != nil {
		return "", fmt.Errorf("workspace directory for %s: %w", id, err)
	}
	if filepath.Clean(dir) == filepath.Clean(rootDir) {
		return "", fmt.Errorf("workspace directory for %q: empty identifier", id)
	}
	return dir, nil
}
