// Package config provides the daemon's YAML-based configuration with
// first-run defaults and environment overrides for secrets.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FreshnessConfig controls how long a cached week is trusted before being
// revalidated against the upstream API.
type FreshnessConfig struct {
	// InteractiveHours is the trust window for weeks with content.
	InteractiveHours int `yaml:"interactive_hours" json:"interactive_hours"`
	// EmptyHours is the shorter trust window for weeks cached empty, so a
	// late-published schedule shows up quickly.
	EmptyHours int `yaml:"empty_hours" json:"empty_hours"`
}

// Config is the top-level daemon configuration.
type Config struct {
	// Listen is the HTTP listen address for the local API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds the SQLite cache database.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// APIKey is the NEIS open API key. The NEIS_API_KEY environment
	// variable takes precedence so the key never has to live on disk.
	APIKey string `yaml:"api_key" json:"-"`

	// RefreshCron is a cron-style schedule for background revalidation of
	// the current week (e.g. "@every 30m").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DaySwitchTime is the default "HH:MM" day boundary used until the
	// user configures one.
	DaySwitchTime string `yaml:"day_switch_time" json:"day_switch_time"`

	Freshness FreshnessConfig `yaml:"freshness" json:"freshness"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8090",
		DataDir:       "./data",
		RefreshCron:   "@every 30m",
		DaySwitchTime: "00:00",
		Freshness: FreshnessConfig{
			InteractiveHours: 48,
			EmptyHours:       2,
		},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8090"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "@every 30m"
	}
	if c.DaySwitchTime == "" {
		c.DaySwitchTime = "00:00"
	}
	if c.Freshness.InteractiveHours <= 0 {
		c.Freshness.InteractiveHours = 48
	}
	if c.Freshness.EmptyHours <= 0 {
		c.Freshness.EmptyHours = 2
	}
	if env := os.Getenv("NEIS_API_KEY"); env != "" {
		c.APIKey = env
	}
}

// Load reads configuration from the given YAML path. A missing file is a
// first run: a default config is written with 0600 perms and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".timetabled-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
