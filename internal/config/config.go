// Package config loads cserun's own settings from config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/amonks/cserun/internal/lockfile"
)

// Config represents the settings file.
type Config struct {
	Lock Lock `toml:"lock"`
	Log  Log  `toml:"log"`
}

// Lock tunes how commands wait for the registry lock.
type Lock struct {
	// Timeout is how long to wait for another process to finish updating the
	// registry, as a Go duration string ("10s").
	Timeout Duration `toml:"timeout"`

	// PollInterval is the delay between attempts to take the lock.
	PollInterval Duration `toml:"poll-interval"`
}

// Log configures diagnostic logging.
type Log struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration %s is negative", parsed)
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads the settings file at path. A missing file yields an empty
// config, which selects every default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("parse config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Log.Level = strings.TrimSpace(cfg.Log.Level)

	return &cfg, nil
}

// LockOptions returns lock options for these settings. Unset values are left
// zero so the lockfile defaults apply.
func (c *Config) LockOptions() lockfile.Options {
	if c == nil {
		return lockfile.Options{}
	}
	return lockfile.Options{
		Timeout:      c.Lock.Timeout.Duration,
		PollInterval: c.Lock.PollInterval.Duration,
	}
}
