// Package config provides configuration management for shwrap.
// It handles loading and saving user preferences and reading wrapper
// manifests.
//
// User preferences are stored in JSON format at ~/.shwrap.json and include:
//   - The artifact store directory
//   - The shell named in generated wrappers
//   - The shell that runs verification scripts
//   - The escaper used to quote values (shellquote or posix)
//
// The package gracefully handles missing configuration files by
// returning empty configurations, allowing the tool to work with
// sensible defaults when no explicit configuration exists.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
	"shwrap/pkg/logger"
)

const (
	// EnvStore overrides Config.StoreDir.
	EnvStore = "SHWRAP_STORE"
	// EnvShell overrides Config.Shell.
	EnvShell = "SHWRAP_SHELL"
)

// Config holds user preferences.
type Config struct {
	StoreDir    string `json:"store_dir,omitempty"`
	Shell       string `json:"shell,omitempty"`
	VerifyShell string `json:"verify_shell,omitempty"`
	Escaper     string `json:"escaper,omitempty"`
}

func home() string {
	h := os.Getenv("HOME")
	if h == "" {
		if wd, _ := os.Getwd(); wd != "" {
			return wd
		}
	}
	return h
}

// Path returns the absolute path to the configuration file (~/.shwrap.json).
func Path() string {
	return filepath.Join(home(), ".shwrap.json")
}

// Load reads configuration from disk and applies environment overrides.
// If the file is missing, the result holds only the overrides.
func Load() (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, e.Wrap(err, e.ErrInvalidConfig, "read config").WithContext("path", Path())
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			// parse issues are non-fatal
			logger.Warnf("ignoring unreadable config %s: %v", Path(), err)
			cfg = Config{}
		}
	}
	cfg.applyEnv()
	return &cfg, nil
}

// Save writes configuration to disk.
func Save(cfg *Config) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(), b, 0o644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvStore); v != "" {
		c.StoreDir = v
	}
	if v := os.Getenv(EnvShell); v != "" {
		c.Shell = v
	}
}

// StoreRoot returns the store directory, ~/.shwrap/store by default.
func (c *Config) StoreRoot() string {
	if c.StoreDir != "" {
		return c.StoreDir
	}
	return filepath.Join(home(), ".shwrap", "store")
}

// Escape returns the configured escaper.
func (c *Config) Escape() (exec.Escaper, error) {
	esc, err := exec.EscaperByName(c.Escaper)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidConfig, "invalid escaper in "+Path())
	}
	return esc, nil
}
