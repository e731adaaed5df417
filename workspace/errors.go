package workspace

import (
	"errors"
	"fmt"

	"github.com/amonks/cserun/internal/lockfile"
	"github.com/amonks/cserun/internal/registry"
)

var (
	// ErrFileDoesNotExist indicates a user-supplied config file cannot be read.
	ErrFileDoesNotExist = errors.New("file does not exist")
	// ErrConfigCorrupt indicates the registry or a workspace config is malformed.
	ErrConfigCorrupt = registry.ErrCorrupt
	// ErrWorkspaceAlreadyExists indicates the root is already a registered workspace root.
	ErrWorkspaceAlreadyExists = errors.New("workspace already exists")
	// ErrInvalidRoot indicates the root does not exist or is not a directory.
	ErrInvalidRoot = errors.New("invalid root directory")
	// ErrLockTimeout indicates the registry lock could not be acquired in time.
	ErrLockTimeout = lockfile.ErrTimeout
	// ErrWorkspaceNotFound indicates no registered root contains the path.
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrRootChanged indicates an edited configuration names a different root.
	ErrRootChanged = errors.New("workspace root cannot be changed")
	// ErrAborted indicates the user ended the root confirmation without an answer.
	ErrAborted = errors.New("aborted")
)

// AlreadyExistsError reports a root that is already registered.
type AlreadyExistsError struct {
	Root string
	ID   string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("the directory at %s is already workspace %s; init cannot run there again", e.Root, e.ID)
}

// Is reports whether target is ErrWorkspaceAlreadyExists.
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrWorkspaceAlreadyExists
}

func corruptConfig(path string, err error) error {
	return &registry.CorruptError{Path: path, Err: err}
}
