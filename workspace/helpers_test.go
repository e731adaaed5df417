package workspace_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/cserun/internal/lockfile"
	"github.com/amonks/cserun/internal/registry"
	"github.com/amonks/cserun/workspace"
)

// setupRootDir creates an initialized root storage directory.
func setupRootDir(t *testing.T) *registry.Store {
	t.Helper()

	store := registry.NewStore(filepath.Join(t.TempDir(), ".cserunner"))
	if _, err := store.Init(newGuard(store, 5*time.Second)); err != nil {
		t.Fatalf("init registry: %v", err)
	}
	return store
}

func newGuard(store *registry.Store, timeout time.Duration) *lockfile.Guard {
	return lockfile.New(store.LockPath(), lockfile.Options{
		Timeout:      timeout,
		PollInterval: 5 * time.Millisecond,
	})
}

// seedWorkspace registers root under id and writes cfg as its configuration.
func seedWorkspace(t *testing.T, store *registry.Store, id, root string, cfg *workspace.Config) {
	t.Helper()

	reg, err := store.Load()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	reg.Add(id, root)
	if err := store.Save(reg); err != nil {
		t.Fatalf("save registry: %v", err)
	}

	if cfg == nil {
		return
	}
	cfg.Root = root
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	dir := filepath.Join(store.Dir(), id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create workspace dir: %v", err)
	}
	for _, name := range []string{workspace.ConfigFileName, workspace.BaselineFileName} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// snapshotDir returns every path under dir with its contents, for asserting
// that an operation left the filesystem untouched.
func snapshotDir(t *testing.T, dir string) map[string]string {
	t.Helper()

	snapshot := make(map[string]string)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		if info.IsDir() {
			snapshot[rel+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snapshot[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot %s: %v", dir, err)
	}
	return snapshot
}
