package workspace

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/amonks/cserun/internal/atomicfile"
	"github.com/amonks/cserun/internal/paths"
)

// UpdateConfig replaces the configuration of a resolved workspace with data.
// The document must parse and validate. Its root may be omitted but may not
// name a different directory, since the registry keeps the root. The baseline
// copy is not touched, so the change shows up as drift.
//
// It reports whether the stored configuration changed.
func UpdateConfig(resolved *Resolved, data []byte) (*Config, bool, error) {
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}

	if cfg.Root == "" {
		cfg.Root = resolved.Root
	}
	if paths.Abs(resolved.Root, cfg.Root) != filepath.Clean(resolved.Root) {
		return nil, false, fmt.Errorf("%w: %s is registered at %s, not %s", ErrRootChanged, resolved.ID, resolved.Root, cfg.Root)
	}
	cfg.Root = resolved.Root

	if reflect.DeepEqual(cfg, resolved.Config) {
		return cfg, false, nil
	}

	encoded, err := cfg.Encode()
	if err != nil {
		return nil, false, err
	}
	if err := atomicfile.Write(filepath.Join(resolved.Dir, ConfigFileName), encoded, 0o600); err != nil {
		return nil, false, fmt.Errorf("write config: %w", err)
	}
	return cfg, true, nil
}
