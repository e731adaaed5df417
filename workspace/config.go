package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// SyncType selects how the synchronization engine schedules transfers.
type SyncType string

const (
	// SyncEager synchronizes periodically within a maximum lifetime.
	SyncEager SyncType = "eager"
	// SyncLazy synchronizes every time a command runs.
	SyncLazy SyncType = "lazy"
)

// IsValid returns true if the sync type is a known value.
func (t SyncType) IsValid() bool {
	return t == SyncEager || t == SyncLazy
}

// MarshalText implements encoding.TextMarshaler.
func (t SyncType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid sync type %q", string(t))
	}
	return []byte(t), nil
}

// UnmarshalText accepts sync types in any letter case.
func (t *SyncType) UnmarshalText(text []byte) error {
	value := SyncType(strings.ToLower(string(text)))
	if !value.IsValid() {
		return fmt.Errorf("invalid sync type %q (want eager or lazy)", string(text))
	}
	*t = value
	return nil
}

// Config is a workspace's configuration document (config.json).
type Config struct {
	// Root is the directory the workspace governs. Empty means "the directory
	// init ran in".
	Root   string       `json:"root,omitempty" yaml:"root,omitempty"`
	Server ServerConfig `json:"server" yaml:"server"`
	Auth   AuthConfig   `json:"auth" yaml:"auth"`
	Sync   SyncConfig   `json:"sync" yaml:"sync"`
}

// ServerConfig holds the remote server's connection details.
type ServerConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     uint16 `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
}

// AuthConfig holds credentials for the remote server.
type AuthConfig struct {
	IdentityFile string `json:"identity_file" yaml:"identity_file"`
	Password     string `json:"password" yaml:"password"`
}

// SyncConfig holds the synchronization policy.
type SyncConfig struct {
	SyncType  SyncType `json:"sync_type" yaml:"sync_type"`
	Frequency uint8    `json:"frequency" yaml:"frequency"`
	EarlyStop uint16   `json:"early_stop" yaml:"early_stop"`
	Lifetime  uint16   `json:"lifetime" yaml:"lifetime"`

	IgnoreBinary    bool     `json:"ignore_binary" yaml:"ignore_binary"`
	Ignore          []string `json:"ignore" yaml:"ignore"`
	ExtraIgnoreFile []string `json:"extra_ignore_file" yaml:"extra_ignore_file"`

	// NThreads is the worker count; -1 lets the engine decide.
	NThreads int8 `json:"n_threads" yaml:"n_threads"`
	// RmAlert requests a notification when a sync removes files. The key
	// keeps its historical spelling.
	RmAlert bool   `json:"rm_alart" yaml:"rm_alart"`
	Timeout uint16 `json:"timeout" yaml:"timeout"`

	MaxSyncSpaceSize  uint32 `json:"max_sync_space_size" yaml:"max_sync_space_size"`
	MaxSyncSpaceUnit  string `json:"max_sync_space_unit" yaml:"max_sync_space_unit"`
	CompressWhileSync bool   `json:"compress_while_sync" yaml:"compress_while_sync"`
}

// DefaultConfig returns the configuration used when init is given no file.
// Root is left empty for the caller to fill in.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "localhost",
			Port:     22,
			Username: "root",
		},
		Auth: AuthConfig{
			IdentityFile: "~/.ssh/id_rsa",
			Password:     "password",
		},
		Sync: SyncConfig{
			SyncType:          SyncEager,
			Frequency:         5,
			EarlyStop:         20,
			Lifetime:          600,
			IgnoreBinary:      true,
			Ignore:            []string{"*.tmp", "target"},
			ExtraIgnoreFile:   []string{".gitignore"},
			NThreads:          -1,
			RmAlert:           true,
			Timeout:           30,
			MaxSyncSpaceSize:  1024,
			MaxSyncSpaceUnit:  "MB",
			CompressWhileSync: true,
		},
	}
}

var requiredConfigKeys = map[string][]string{
	"server": {"host", "port", "username"},
	"auth":   {"identity_file", "password"},
	"sync": {
		"sync_type", "frequency", "early_stop", "lifetime",
		"ignore_binary", "ignore", "extra_ignore_file",
		"n_threads", "rm_alart", "timeout",
		"max_sync_space_size", "max_sync_space_unit", "compress_while_sync",
	},
}

// ParseConfig decodes a JSON configuration document. Comments and trailing
// commas are allowed. Every section and field except root is required and
// unknown fields are rejected.
func ParseConfig(data []byte) (*Config, error) {
	stripped := jsonc.ToJSON(data)

	var doc map[string]any
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, err
	}
	if err := checkRequired(doc); err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after config object")
	}
	return &cfg, nil
}

// ParseYAMLConfig decodes a YAML configuration document with the same rules
// as ParseConfig.
func ParseYAMLConfig(data []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := checkRequired(doc); err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func checkRequired(doc map[string]any) error {
	if doc == nil {
		return fmt.Errorf("config must be an object")
	}
	for _, section := range []string{"server", "auth", "sync"} {
		value, ok := doc[section]
		if !ok || value == nil {
			return fmt.Errorf("missing field %s", section)
		}
		fields, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("field %s must be an object", section)
		}
		for _, key := range requiredConfigKeys[section] {
			if v, ok := fields[key]; !ok || v == nil {
				return fmt.Errorf("missing field %s.%s", section, key)
			}
		}
	}
	return nil
}

// Validate checks values the decoder cannot: the sync type and the ignore
// glob patterns.
func (c *Config) Validate() error {
	if !c.Sync.SyncType.IsValid() {
		return fmt.Errorf("invalid sync type %q", string(c.Sync.SyncType))
	}
	for _, pattern := range c.Sync.Ignore {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Encode returns the indented JSON form of the configuration.
func (c *Config) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append(data, '\n'), nil
}

// LoadConfigFile reads a user-supplied configuration file. Files ending in
// .yaml or .yml are parsed as YAML, anything else as JSON.
//
// An unreadable file yields ErrFileDoesNotExist; a malformed one
// ErrConfigCorrupt.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%w)", ErrFileDoesNotExist, path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAMLConfig(data)
	default:
		cfg, err = ParseConfig(data)
	}
	if err != nil {
		return nil, corruptConfig(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, corruptConfig(path, err)
	}
	return cfg, nil
}

// ReadConfig reads a stored workspace configuration document.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, corruptConfig(path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, corruptConfig(path, err)
	}
	return cfg, nil
}
