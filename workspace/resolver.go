package workspace

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/amonks/cserun/internal/registry"
	"github.com/zeebo/blake3"
)

// Resolver maps directories back to the workspace that governs them. It only
// reads: the registry is loaded without taking the lock.
type Resolver struct {
	store  *registry.Store
	logger *slog.Logger
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Logger *slog.Logger
}

// NewResolver returns a Resolver reading the registry in store.
func NewResolver(store *registry.Store, opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{store: store, logger: logger}
}

// Resolved is a workspace together with its loaded configuration.
type Resolved struct {
	ID     string
	Root   string
	Dir    string
	Config *Config
}

// Resolve finds the workspace whose root contains currentPath and loads its
// configuration. currentPath should be absolute.
func (r *Resolver) Resolve(currentPath string) (*Resolved, error) {
	reg, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	entry, ok := MatchRoot(reg, currentPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not inside a workspace; run cserun init first", ErrWorkspaceNotFound, currentPath)
	}
	r.logger.Debug("resolved workspace", "path", currentPath, "id", entry.ID, "root", entry.Root)

	dir, err := storageDir(r.store.Dir(), entry.ID)
	if err != nil {
		return nil, err
	}
	cfg, err := ReadConfig(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, err
	}

	return &Resolved{ID: entry.ID, Root: entry.Root, Dir: dir, Config: cfg}, nil
}

// MatchRoot returns the registry entry with the longest root that is path or
// an ancestor of path. Roots are compared by whole path components, so /ab is
// not inside /a. Equal roots registered under several ids resolve to the
// smallest id.
func MatchRoot(reg *registry.Registry, path string) (registry.Entry, bool) {
	path = filepath.Clean(path)

	var best registry.Entry
	found := false
	for id, root := range reg.WorkspaceMapping {
		root = filepath.Clean(root)
		if !within(root, path) {
			continue
		}
		if found && (len(root) < len(best.Root) || (len(root) == len(best.Root) && id > best.ID)) {
			continue
		}
		best = registry.Entry{ID: id, Root: root}
		found = true
	}
	return best, found
}

func within(root, path string) bool {
	if root == path {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}

// Info describes a registered workspace.
type Info struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	RootExists bool   `json:"root_exists"`
}

// List returns every registered workspace ordered by root.
func (r *Resolver) List() ([]Info, error) {
	reg, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	entries := reg.Entries()
	items := make([]Info, 0, len(entries))
	for _, entry := range entries {
		info, err := os.Stat(entry.Root)
		items = append(items, Info{
			ID:         entry.ID,
			Root:       entry.Root,
			RootExists: err == nil && info.IsDir(),
		})
	}
	return items, nil
}

// Status compares a workspace's configuration with the baseline copy taken
// when it was created.
type Status struct {
	Resolved
	ConfigDigest    string
	BaselineDigest  string
	BaselineMissing bool
}

// Drifted reports whether the configuration was edited after creation.
func (s *Status) Drifted() bool {
	return !s.BaselineMissing && s.ConfigDigest != s.BaselineDigest
}

// Status resolves currentPath and reports whether the configuration differs
// from its baseline.
func (r *Resolver) Status(currentPath string) (*Status, error) {
	resolved, err := r.Resolve(currentPath)
	if err != nil {
		return nil, err
	}

	status := &Status{Resolved: *resolved}

	configDigest, err := digestFile(filepath.Join(resolved.Dir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	status.ConfigDigest = configDigest

	baselineDigest, err := digestFile(filepath.Join(resolved.Dir, BaselineFileName))
	if errors.Is(err, fs.ErrNotExist) {
		status.BaselineMissing = true
		return status, nil
	}
	if err != nil {
		return nil, err
	}
	status.BaselineDigest = baselineDigest
	return status, nil
}

func digestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
