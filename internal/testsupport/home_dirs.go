package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// EnsureHomeDirs creates the settings directory under homeDir. The root
// storage directory is left for the CLI to bootstrap.
func EnsureHomeDirs(homeDir string) error {
	if err := os.MkdirAll(filepath.Join(homeDir, ".config", "cserun"), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return nil
}

// SetupTestHome creates a temp home directory, ensures the settings dir, and
// sets HOME.
func SetupTestHome(t testing.TB) string {
	t.Helper()

	homeDir := t.TempDir()
	if err := EnsureHomeDirs(homeDir); err != nil {
		t.Fatalf("setup home dir: %v", err)
	}
	t.Setenv("HOME", homeDir)
	return homeDir
}
