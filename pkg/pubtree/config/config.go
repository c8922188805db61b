// Package config loads pubtree configuration from the project and user
// config files and the environment, and resolves the XDG directories used
// for the digest cache, run history and log files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Defaults applied when neither config file nor environment provides a value.
const (
	DefaultOutputDir     = "."
	DefaultManager       = "auto"
	DefaultRetentionDays = 90
	DefaultLogLevel      = "info"
)

// PackageConfig declares one package to keep synchronized, with optional
// per-package filter patterns overriding the global ones.
type PackageConfig struct {
	Name            string   `mapstructure:"name"`
	Patterns        []string `mapstructure:"patterns"`
	ContentPatterns []string `mapstructure:"content_patterns"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	OutputDir       string          `mapstructure:"output_dir"`
	Manager         string          `mapstructure:"manager"`
	Packages        []PackageConfig `mapstructure:"packages"`
	Patterns        []string        `mapstructure:"patterns"`
	ContentPatterns []string        `mapstructure:"content_patterns"`
	Gitignore       bool            `mapstructure:"gitignore"`
	Cache           struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	History struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration for the project at cwd. Sources in precedence
// order: PUBTREE_ environment variables, .pubtree.yaml in cwd, then
// $XDG_CONFIG_HOME/pubtree/config.yaml. A missing config file is fine;
// defaults apply.
func Load(cwd string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(".pubtree")
	v.SetConfigType("yaml")
	if cwd != "" {
		v.AddConfigPath(cwd)
	}

	v.SetEnvPrefix("PUBTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Fall back to the global config file.
		gv := viper.New()
		gv.SetConfigName("config")
		gv.SetConfigType("yaml")
		gv.AddConfigPath(ConfigDir())
		gv.SetEnvPrefix("PUBTREE")
		gv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		gv.AutomaticEnv()
		SetDefaults(gv)
		if gerr := gv.ReadInConfig(); gerr != nil {
			if !errors.As(gerr, &notFound) && !os.IsNotExist(gerr) {
				return nil, fmt.Errorf("reading global config file: %w", gerr)
			}
		}
		v = gv
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath()
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}

	return &cfg, nil
}

// SetDefaults registers the default value for every key on a viper instance.
// The CLI uses it against the global viper; Load uses it internally.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("manager", DefaultManager)
	v.SetDefault("gitignore", false)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"sync":     "info",
		"marker":   "info",
		"resolver": "info",
		"watcher":  "warn",
		"cli":      "info",
	})
}

// ConfigDir returns $XDG_CONFIG_HOME/pubtree.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "pubtree")
}

// DataDir returns $XDG_DATA_HOME/pubtree (run history).
func DataDir() string {
	return filepath.Join(xdg.DataHome, "pubtree")
}

// StateDir returns $XDG_STATE_HOME/pubtree (log files).
func StateDir() string {
	return filepath.Join(xdg.StateHome, "pubtree")
}

// CacheDir returns $XDG_CACHE_HOME/pubtree (digest cache).
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "pubtree")
}

// DefaultHistoryPath returns the default run-history directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultCachePath returns the default digest-cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "digests")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "pubtree.log")
}

// EnsureDir creates a directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// WriteDefault writes a commented default config file to the global config
// directory. It does nothing when a config file already exists.
func WriteDefault() (string, error) {
	if err := EnsureDir(ConfigDir()); err != nil {
		return "", err
	}

	path := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# pubtree configuration

# Directory that receives extracted package files (relative to the project).
output_dir: %s

# Package manager: auto, npm, pnpm, yarn, bun
manager: %s

# Packages to keep synchronized.
# packages:
#   - name: "@acme/design-tokens"
#     patterns: ["**/*.json", "!internal/**"]

# Global filename patterns ("!" prefix excludes) and content regexes.
patterns: []
content_patterns: []

# Maintain .gitignore entries for extracted files.
gitignore: false

# Digest cache (speeds up repeated check runs).
cache:
  enabled: true

# Run history journal.
history:
  enabled: true
  retention_days: %d

# Logging configuration.
logging:
  level: %s
  # Log file path (empty means no log file)
  path: ""
  components:
    sync: info
    marker: info
    resolver: info
    watcher: warn
    cli: info
`, DefaultOutputDir, DefaultManager, DefaultRetentionDays, DefaultLogLevel)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}

	return path, nil
}
