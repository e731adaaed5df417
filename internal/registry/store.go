package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/amonks/cserun/internal/atomicfile"
	"github.com/amonks/cserun/internal/lockfile"
)

const (
	// FileName is the registry document's name inside the root directory.
	FileName = "workspace_list.json"

	// LockFileName is the sentinel guarding registry mutation.
	LockFileName = FileName + ".lock"
)

// ErrCorrupt indicates the registry document is missing or malformed.
var ErrCorrupt = errors.New("config corrupt")

// CorruptError describes why a document could not be loaded.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("unexpected config file format: %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCorrupt.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// Store reads and writes the registry document in a root directory.
type Store struct {
	dir string
}

// NewStore creates a store for the registry in dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the registry document path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// LockPath returns the path of the sentinel guarding the registry.
func (s *Store) LockPath() string {
	return filepath.Join(s.dir, LockFileName)
}

// Load reads the registry. A missing, unreadable, or malformed document is
// reported as a *CorruptError.
func (s *Store) Load() (*Registry, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, &CorruptError{Path: s.Path(), Err: err}
	}

	reg, err := Decode(data)
	if err != nil {
		return nil, &CorruptError{Path: s.Path(), Err: err}
	}
	return reg, nil
}

// Decode parses a registry document. The document must be a single object
// holding exactly the workspace_mapping field.
func Decode(data []byte) (*Registry, error) {
	var raw struct {
		WorkspaceMapping json.RawMessage `json:"workspace_mapping"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after registry object")
	}
	if len(raw.WorkspaceMapping) == 0 {
		return nil, fmt.Errorf("missing field workspace_mapping")
	}

	reg := New()
	var mapping map[string]string
	if err := json.Unmarshal(raw.WorkspaceMapping, &mapping); err != nil {
		return nil, fmt.Errorf("workspace_mapping: %w", err)
	}
	for id, root := range mapping {
		reg.WorkspaceMapping[id] = root
	}
	return reg, nil
}

// Save writes the registry, atomically replacing the previous document.
func (s *Store) Save(reg *Registry) error {
	if reg == nil {
		reg = New()
	}
	out := reg
	if out.WorkspaceMapping == nil {
		out = New()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	data = append(data, '\n')

	if err := atomicfile.Write(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Init creates the root directory and an empty registry if they do not exist
// yet. The registry is created under guard so a concurrent writer's document
// is never replaced. It reports whether a new registry was written.
func (s *Store) Init(guard *lockfile.Guard) (created bool, err error) {
	if _, err := os.Stat(s.Path()); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("create root directory: %w", err)
	}

	lock, err := guard.Acquire()
	if err != nil {
		return false, fmt.Errorf("acquire registry lock: %w", err)
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = fmt.Errorf("release registry lock: %w", releaseErr)
		}
	}()

	if _, err := os.Stat(s.Path()); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat registry: %w", err)
	}

	if err := s.Save(New()); err != nil {
		return false, err
	}
	return true, nil
}
