package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Error kinds reported by Load. Callers discriminate with errors.Is; any of
// them disables the backup run.
var (
	ErrNotFound  = errors.New("config file not found")
	ErrParse     = errors.New("config file could not be parsed")
	ErrMalformed = errors.New("config file is malformed")
)

// SourceDir is one game-save location to scan.
type SourceDir struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
}

// Config represents the complete saveguard configuration.
type Config struct {
	BackupDirectory   string      `json:"backup_directory" yaml:"backup_directory"`
	SourceDirectories []SourceDir `json:"source_directories" yaml:"source_directories"`
}

// Load reads and validates the configuration file. The format is JSON unless
// the file name ends in .yaml or .yml. Path values may contain environment
// variable references; they are returned verbatim and expanded at use time by
// the backup engine.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = parseYAML(data, &cfg)
	} else {
		err = parseJSON(data, &cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func isYAML(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// parseJSON decodes data, mapping syntax errors to ErrParse and type errors
// (a field holding the wrong JSON kind) to ErrMalformed.
func parseJSON(data []byte, cfg *Config) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

func parseYAML(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// Validate checks the configuration for errors. Validation stops at the first
// invalid source entry; there is no partial acceptance.
func (c *Config) Validate() error {
	if c.BackupDirectory == "" {
		return fmt.Errorf("%w: backup_directory is required", ErrMalformed)
	}
	if len(c.SourceDirectories) == 0 {
		return fmt.Errorf("%w: source_directories must contain at least one entry", ErrMalformed)
	}
	for i, src := range c.SourceDirectories {
		if src.Path == "" {
			return fmt.Errorf("%w: source_directories[%d] is missing a path", ErrMalformed, i)
		}
		if src.Name == "" {
			return fmt.Errorf("%w: source_directories[%d] is missing a name", ErrMalformed, i)
		}
	}
	return nil
}
