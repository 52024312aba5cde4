package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads skycast configuration from YAML files.
type Loader struct {
	// ExpandEnv enables environment variable expansion in file contents.
	ExpandEnv bool
	// StrictEnv fails if referenced env vars are missing.
	StrictEnv bool
}

// NewLoader creates a new configuration loader with default settings.
func NewLoader() *Loader {
	return &Loader{ExpandEnv: true}
}

// LoadFile loads configuration from the given path, layered over Default().
// A missing file is not an error; the defaults are returned.
func (l *Loader) LoadFile(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	content := string(data)
	if l.ExpandEnv {
		if l.StrictEnv {
			content, err = ExpandEnvStrict(content)
			if err != nil {
				return cfg, err
			}
		} else {
			content = ExpandEnv(content)
		}
	}

	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Load resolves the effective configuration: defaults, then the optional
// config file, then environment overrides.
func Load(path string) (Config, error) {
	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}
