package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// RootDirName is the name of the per-user root storage directory.
const RootDirName = ".cserunner"

// HomeDir returns the current user's home directory.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return home, nil
}

// DefaultRootDir returns the root storage directory holding the workspace
// registry and every workspace's configuration.
func DefaultRootDir() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, RootDirName), nil
}

// DefaultSettingsPath returns the path of the cserun settings file.
func DefaultSettingsPath() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "cserun", "config.toml"), nil
}

// WorkingDir returns the current working directory.
func WorkingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

// ResolveWithDefault returns override when set, otherwise the result of def.
func ResolveWithDefault(override string, def func() (string, error)) (string, error) {
	if override != "" {
		return override, nil
	}
	return def()
}

// Abs makes path absolute relative to base and cleans it.
func Abs(base, path string) string {
	if path == "" {
		return filepath.Clean(base)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path)
}
