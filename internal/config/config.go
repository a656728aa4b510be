// Package config resolves the jsondb command-line configuration from
// defaults, JSONC config files, environment variables and flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/jsondb/pkg/jsondb"
)

// Config errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrHomeDirEmpty       = errors.New("home directory cannot be empty")
)

// Environment variables read by [Load].
const (
	EnvHome             = "JSONDB_HOME"
	EnvBackupKeepCount  = "JSONDB_BACKUP_KEEP_COUNT"
	EnvSuppressWarnings = "JSONDB_SUPPRESS_WARNINGS"
)

// Config holds all configuration options.
type Config struct {
	// HomeDir holds the registry and is where new databases are created
	// when no directory is given. Always absolute after [Load].
	HomeDir string `json:"home_dir"`

	// BackupKeepCount caps backups kept per database. Zero keeps none.
	BackupKeepCount int `json:"backup_keep_count"`

	// SuppressWarnings hides warning lines on stderr.
	SuppressWarnings bool `json:"suppress_warnings"`

	// Format is the default template for format and query. Empty means
	// the built-in template.
	Format string `json:"format,omitempty"`

	// Sources tracks where values came from (for print-config).
	Sources Sources `json:"-"`
}

// Sources tracks which config files and environment variables were used.
type Sources struct {
	Global   string   // Path to global config if loaded, empty otherwise
	Explicit string   // Path to -c/--config file if loaded, empty otherwise
	Env      []string // Names of environment variables that took effect
}

// fileConfig is the on-disk shape. Pointers tell "absent" from "zero".
type fileConfig struct {
	HomeDir          *string `json:"home_dir"`
	BackupKeepCount  *int    `json:"backup_keep_count"`
	SuppressWarnings *bool   `json:"suppress_warnings"`
	Format           *string `json:"format"`
}

// Default returns the configuration used when nothing overrides it.
// HomeDir is $HOME/Documents/jsondb, or empty when HOME is unset.
func Default(env map[string]string) Config {
	cfg := Config{BackupKeepCount: jsondb.DefaultBackupKeepCount}

	if home := env["HOME"]; home != "" {
		cfg.HomeDir = filepath.Join(home, "Documents", "jsondb")
	}

	return cfg
}

// GlobalPath returns the global config file path:
// $XDG_CONFIG_HOME/jsondb/config.json if set, otherwise
// ~/.config/jsondb/config.json. Empty if neither variable is set.
func GlobalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "jsondb", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "jsondb", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for [Load].
type LoadInput struct {
	WorkDir      string            // base for relative paths; if empty, os.Getwd() is used
	ConfigPath   string            // -c/--config flag value
	HomeOverride *string           // --home flag value; nil means not given
	Env          map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config (see [GlobalPath])
//  3. Explicit config file via ConfigPath (must exist)
//  4. Environment: JSONDB_HOME, JSONDB_BACKUP_KEEP_COUNT, JSONDB_SUPPRESS_WARNINGS
//  5. --home flag
//
// A JSONDB_BACKUP_KEEP_COUNT that is not a non-negative integer is ignored,
// the same values a config file rejects.
func Load(in LoadInput) (Config, error) {
	workDir := in.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolving working directory: %w", err)
	}

	cfg := Default(in.Env)

	if path := GlobalPath(in.Env); path != "" {
		fc, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, fc)
			cfg.Sources.Global = path
		}
	}

	if in.ConfigPath != "" {
		path := in.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		fc, _, err := loadFile(path, true)
		if err != nil {
			return Config{}, err
		}

		cfg = merge(cfg, fc)
		cfg.Sources.Explicit = path
	}

	cfg = applyEnv(cfg, in.Env)

	if in.HomeOverride != nil {
		cfg.HomeDir = *in.HomeOverride
	}

	if cfg.HomeDir == "" {
		return Config{}, ErrHomeDirEmpty
	}

	if !filepath.IsAbs(cfg.HomeDir) {
		cfg.HomeDir = filepath.Join(workDir, cfg.HomeDir)
	}

	return cfg, nil
}

// loadFile reads a JSONC config file. If mustExist is false, a missing
// file is not an error and loaded is false.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, false, nil
		}

		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}

		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigFileRead, path, err)
	}

	fc, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return fc, true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig

	err = json.Unmarshal(standardized, &fc)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if fc.HomeDir != nil && *fc.HomeDir == "" {
		return fileConfig{}, ErrHomeDirEmpty
	}

	if fc.BackupKeepCount != nil && *fc.BackupKeepCount < 0 {
		return fileConfig{}, fmt.Errorf("backup_keep_count must not be negative, got %d", *fc.BackupKeepCount)
	}

	return fc, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.HomeDir != nil {
		base.HomeDir = *overlay.HomeDir
	}

	if overlay.BackupKeepCount != nil {
		base.BackupKeepCount = *overlay.BackupKeepCount
	}

	if overlay.SuppressWarnings != nil {
		base.SuppressWarnings = *overlay.SuppressWarnings
	}

	if overlay.Format != nil {
		base.Format = *overlay.Format
	}

	return base
}

func applyEnv(cfg Config, env map[string]string) Config {
	if home := env[EnvHome]; home != "" {
		cfg.HomeDir = home
		cfg.Sources.Env = append(cfg.Sources.Env, EnvHome)
	}

	if raw := env[EnvBackupKeepCount]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n >= 0 {
			cfg.BackupKeepCount = n
			cfg.Sources.Env = append(cfg.Sources.Env, EnvBackupKeepCount)
		}
	}

	if env[EnvSuppressWarnings] != "" {
		cfg.SuppressWarnings = true
		cfg.Sources.Env = append(cfg.Sources.Env, EnvSuppressWarnings)
	}

	return cfg
}
