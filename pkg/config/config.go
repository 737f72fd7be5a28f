// Package config loads nbkernels configuration from a TOML file.
//
// Configuration is optional: every field has a default, and a missing config
// file is not an error. The file lives at ~/.config/nbkernels/config.toml
// (or $XDG_CONFIG_HOME/nbkernels/config.toml).
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nbkernels/nbkernels/pkg/errors"
)

// appName is the application name used for directories and display.
const appName = "nbkernels"

// DefaultNameFormat is the kernel display name template. Available
// placeholders: {language}, {environment}, {kernel}, {display_name},
// {provenance}.
const DefaultNameFormat = "{language} [{provenance}: {environment}]"

// Config holds all user-tunable settings.
type Config struct {
	// WorkspaceRoot bounds mutating registration operations. Empty means
	// the current working directory at startup.
	WorkspaceRoot string `toml:"workspace_root"`

	// CacheTTLSeconds is how long a synthesized kernel catalog stays fresh.
	// Zero or negative disables catalog caching entirely.
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`

	// RequireKernelspec makes registration fail and synthesis exclude
	// environments without a kernel.json (strict mode). Default false:
	// such environments are always shown, flagged as lacking a launcher.
	RequireKernelspec bool `toml:"require_kernelspec"`

	// EnvOnly hides kernels from the delegated (conda) catalog and system
	// kernels, listing only registered uv/venv environments.
	EnvOnly bool `toml:"env_only"`

	// NameFormat is the kernel display name template.
	NameFormat string `toml:"name_format"`

	// EnvFilter holds regex patterns; environments whose absolute path
	// matches any pattern are excluded from discovery and synthesis.
	EnvFilter []string `toml:"env_filter"`

	Scan     ScanConfig     `toml:"scan"`
	Registry RegistryConfig `toml:"registry"`
	Lock     LockConfig     `toml:"lock"`
}

// ScanConfig tunes directory discovery.
type ScanConfig struct {
	// MaxDepth bounds the tree walk; depth 0 is the scan root itself.
	MaxDepth int `toml:"max_depth"`

	// SkipDirs are directory names (or glob patterns) never descended into.
	// Appended to the built-in skip list rather than replacing it.
	SkipDirs []string `toml:"skip_dirs"`
}

// RegistryConfig overrides where registry files live. Used mainly by tests;
// production deployments keep the home-directory defaults.
type RegistryConfig struct {
	VenvDir string `toml:"venv_dir"`
	UVDir   string `toml:"uv_dir"`
}

// LockConfig tunes cross-process lock acquisition.
type LockConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		CacheTTLSeconds: 60,
		NameFormat:      DefaultNameFormat,
		Scan:            ScanConfig{MaxDepth: 3},
		Lock:            LockConfig{TimeoutSeconds: 5},
	}
}

// Load reads the config file at path, applying defaults for absent fields.
// A missing file returns the defaults with no error; a malformed file is
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	if cfg.NameFormat == "" {
		cfg.NameFormat = DefaultNameFormat
	}
	if cfg.Scan.MaxDepth <= 0 {
		cfg.Scan.MaxDepth = 3
	}
	if cfg.Lock.TimeoutSeconds <= 0 {
		cfg.Lock.TimeoutSeconds = 5
	}

	// Validate filters eagerly so a bad pattern fails at startup, not
	// mid-scan.
	for _, pat := range cfg.EnvFilter {
		if _, err := regexp.Compile(pat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid env_filter pattern %q", pat)
		}
	}

	return cfg, nil
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/nbkernels/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheTTL returns the catalog TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LockTimeout returns the lock acquisition bound as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Lock.TimeoutSeconds) * time.Second
}
