package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// Cache backends selectable via the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendOff   = "off"
)

// Config is the user configuration loaded from ~/.config/railgraph/config.toml.
// Every field is optional; zero values fall back to pipeline defaults.
type Config struct {
	// Output is the default output path for rendered files.
	Output string `toml:"output"`

	// Scale is the default SVG display scale.
	Scale float64 `toml:"scale"`

	// Remotes includes untracked remote branches by default.
	Remotes bool `toml:"remotes"`

	// TieBreak is the default rail ownership tie-break rule (name or head).
	TieBreak string `toml:"tie_break"`

	// GitHubLinks embeds the GitHub slug for commit and issue links.
	GitHubLinks bool `toml:"github_links"`

	// Cache selects and configures the cache backend.
	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects the cache backend. Backend is one of "file" (default),
// "redis", or "off".
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LoadConfig reads the TOML config file at path. A missing file is not an
// error and yields the zero config; a malformed file returns the zero
// config alongside the parse error so callers can warn and continue.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.TieBreak != "" {
		if err := pipeline.ValidateTieBreak(cfg.TieBreak); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	switch cfg.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendOff:
	default:
		return Config{}, fmt.Errorf("parse %s: invalid cache backend: %q", path, cfg.Cache.Backend)
	}
	return cfg, nil
}

// Apply copies the configured defaults onto opts, leaving fields the user
// already set on the command line alone.
func (cfg Config) Apply(opts *pipeline.Options) {
	if opts.Scale == 0 && cfg.Scale != 0 {
		opts.Scale = cfg.Scale
	}
	if opts.TieBreak == "" && cfg.TieBreak != "" {
		opts.TieBreak = cfg.TieBreak
	}
	if cfg.Remotes {
		opts.Remotes = true
	}
	if cfg.GitHubLinks {
		opts.GitHubLinks = true
	}
}

// configPath returns the config file path using XDG standard
// (~/.config/railgraph/config.toml).
func configPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}
