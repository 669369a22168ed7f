// Package config loads tool configuration from TOML. Configuration is
// optional: a missing file yields working defaults, and command-line flags
// override whatever was loaded.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/vpath"
)

const appName = "levelforge"

// Config is the full tool configuration.
type Config struct {
	// GameDir is the game installation's content directory, used to chase
	// link references into shipped archives.
	GameDir string `toml:"game_dir"`

	// LevelsRoot is the directory holding the moddable level folders.
	LevelsRoot string `toml:"levels_root"`

	// ImageExtensions is the probe order for image references written
	// without a usable extension.
	ImageExtensions []string `toml:"image_extensions"`

	// ManagedFolders are the level-relative folders shrink mode may
	// delete from. Files outside them are never touched.
	ManagedFolders []string `toml:"managed_folders"`

	Cache   CacheConfig   `toml:"cache"`
	Reports ReportsConfig `toml:"reports"`
	API     APIConfig     `toml:"api"`
}

// CacheConfig selects where scan summaries are cached.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty selects the XDG cache
	// directory.
	Dir string `toml:"dir"`

	// RedisAddr is the redis backend's host:port.
	RedisAddr string `toml:"redis_addr"`
}

// ReportsConfig selects where run reports are stored.
type ReportsConfig struct {
	// Backend is "file" or "mongo".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty selects the XDG data
	// directory.
	Dir string `toml:"dir"`

	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Listen string `toml:"listen"`
}

// DefaultManagedFolders lists the level folders the engine owns outright.
// Everything else in a level (scripts, saves, custom data) is out of
// bounds for shrink deletion.
func DefaultManagedFolders() []string {
	return []string{"art/shapes", "art/forest", "art/decals", "art/terrains", "forest", "main"}
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ImageExtensions: append([]string(nil), vpath.DefaultImageExts...),
		ManagedFolders:  DefaultManagedFolders(),
		Cache:           CacheConfig{Backend: "file"},
		Reports:         ReportsConfig{Backend: "file", MongoDatabase: appName},
		API:             APIConfig{Listen: "127.0.0.1:8484"},
	}
}

// Load reads the configuration at path, or at [DefaultPath] when path is
// empty. A missing file is not an error; defaults apply and absent keys
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeIO, err, "read config %q", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeParse, err, "parse config %q", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache backend %q: want file, redis, or none", c.Cache.Backend)
	}
	switch c.Reports.Backend {
	case "", "file", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "reports backend %q: want file or mongo", c.Reports.Backend)
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the XDG config file location
// (~/.config/levelforge/config.toml).
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

// DefaultCacheDir returns the XDG cache directory (~/.cache/levelforge).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// DefaultReportsDir returns the XDG data directory for run reports
// (~/.local/share/levelforge/reports).
func DefaultReportsDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "reports"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "reports"), nil
}
