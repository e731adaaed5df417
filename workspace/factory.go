package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/amonks/cserun/internal/atomicfile"
	"github.com/amonks/cserun/internal/ids"
	"github.com/amonks/cserun/internal/lockfile"
	"github.com/amonks/cserun/internal/paths"
	"github.com/amonks/cserun/internal/registry"
)

// Factory creates workspaces and registers them.
type Factory struct {
	store   *registry.Store
	guard   *lockfile.Guard
	confirm Confirmer
	newID   func() (string, error)
	logger  *slog.Logger
}

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	// Guard serializes registry updates. Defaults to a guard on the store's
	// sentinel with the default timeout.
	Guard *lockfile.Guard

	// Confirmer confirms the root of each new workspace. Defaults to
	// AutoConfirm.
	Confirmer Confirmer

	Logger *slog.Logger
}

// NewFactory returns a Factory that registers workspaces in store.
func NewFactory(store *registry.Store, opts FactoryOptions) *Factory {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Guard == nil {
		opts.Guard = lockfile.New(store.LockPath(), lockfile.Options{Logger: opts.Logger})
	}
	if opts.Confirmer == nil {
		opts.Confirmer = AutoConfirm{}
	}
	return &Factory{
		store:   store,
		guard:   opts.Guard,
		confirm: opts.Confirmer,
		newID:   ids.NewWorkspaceID,
		logger:  opts.Logger,
	}
}

// CreateOptions configures a Create call.
type CreateOptions struct {
	// ConfigPath is an optional configuration file to start from. Relative
	// paths are taken relative to WorkingDir.
	ConfigPath string

	// WorkingDir is the directory init runs in. It is the default root and
	// the base for relative paths. Required.
	WorkingDir string
}

// Created describes a newly created workspace.
type Created struct {
	ID     string
	Root   string
	Dir    string
	Config *Config
}

// createStage tracks how far a Create got, so a failure can undo exactly the
// work already done.
type createStage int

const (
	stageValidated createStage = iota
	stageDirectoryCreated
	stageConfigWritten
	stageRegistered
)

func (s createStage) String() string {
	switch s {
	case stageValidated:
		return "validated"
	case stageDirectoryCreated:
		return "directory_created"
	case stageConfigWritten:
		return "config_written"
	case stageRegistered:
		return "registered"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Create validates and confirms a root, allocates a workspace identifier,
// writes the workspace's configuration, and registers it.
//
// If a step after creating the workspace directory fails, the directory is
// removed before the error is returned. The registry is only modified by the
// final step.
func (f *Factory) Create(opts CreateOptions) (*Created, error) {
	if opts.WorkingDir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	workingDir := filepath.Clean(opts.WorkingDir)

	cfg := DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := LoadConfigFile(paths.Abs(workingDir, opts.ConfigPath))
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	reg, err := f.store.Load()
	if err != nil {
		return nil, err
	}

	validate := func(candidate string) (string, error) {
		root := paths.Abs(workingDir, candidate)
		if err := validateRoot(reg, root); err != nil {
			return "", err
		}
		return root, nil
	}

	root, err := validate(cfg.Root)
	if err != nil {
		return nil, err
	}
	root, err = f.confirm.ConfirmRoot(root, validate)
	if err != nil {
		return nil, err
	}
	cfg.Root = root

	id, err := f.newID()
	if err != nil {
		return nil, err
	}
	dir, err := storageDir(f.store.Dir(), id)
	if err != nil {
		return nil, err
	}

	created, err := f.commit(id, dir, cfg)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (f *Factory) commit(id, dir string, cfg *Config) (created *Created, err error) {
	stage := stageValidated
	logger := f.logger.With("id", id, "root", cfg.Root)

	defer func() {
		if err == nil || stage < stageDirectoryCreated {
			return
		}
		logger.Warn("create failed; removing workspace directory", "stage", stage.String(), "error", err)
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			err = errors.Join(err, fmt.Errorf("remove partial workspace %s: %w", dir, removeErr))
		}
	}()

	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace directory: %w", err)
	}
	stage = stageDirectoryCreated
	logger.Debug("create stage", "stage", stage.String(), "dir", dir)

	if err := writeConfig(dir, cfg); err != nil {
		return nil, err
	}
	stage = stageConfigWritten
	logger.Debug("create stage", "stage", stage.String())

	if err := f.register(id, cfg.Root); err != nil {
		return nil, err
	}
	stage = stageRegistered
	logger.Info("workspace created", "dir", dir)

	return &Created{ID: id, Root: cfg.Root, Dir: dir, Config: cfg}, nil
}

// register inserts id into the registry while holding the registry lock for
// the whole load-modify-save sequence.
func (f *Factory) register(id, root string) error {
	lock, err := f.guard.Acquire()
	if err != nil {
		return fmt.Errorf("acquire registry lock: %w", err)
	}
	defer func() {
		// The entry is already committed at this point; a failed release must
		// not undo the workspace directory it points at.
		if err := lock.Release(); err != nil {
			f.logger.Warn("release registry lock", "error", err)
		}
	}()

	reg, err := f.store.Load()
	if err != nil {
		return err
	}
	// Another process may have registered the same root since validation.
	if existing, ok := reg.IDForRoot(root); ok {
		return &AlreadyExistsError{Root: root, ID: existing}
	}

	reg.Add(id, root)
	return f.store.Save(reg)
}

func validateRoot(reg *registry.Registry, root string) error {
	if existing, ok := reg.IDForRoot(root); ok {
		return &AlreadyExistsError{Root: root, ID: existing}
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s does not exist", ErrInvalidRoot, root)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return nil
}

// writeConfig writes the configuration and its baseline copy.
func writeConfig(dir string, cfg *Config) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := atomicfile.Write(filepath.Join(dir, ConfigFileName), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := atomicfile.Write(filepath.Join(dir, BaselineFileName), data, 0o600); err != nil {
		return fmt.Errorf("write config baseline: %w", err)
	}
	return nil
}
