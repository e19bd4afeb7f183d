package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string `mapstructure:"addr" yaml:"addr"`

	// RatePerSec and RateBurst parameterize the API token bucket.
	// RatePerSec <= 0 disables rate limiting.
	RatePerSec float64 `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`
	RateBurst  int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// StorageConfig holds database and attachment paths.
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path" yaml:"db_path"`
	UploadsDir string `mapstructure:"uploads_dir" yaml:"uploads_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// SchedulerConfig controls the optional embedded cron runner. When
// disabled, notification triggers only fire when an external caller
// hits the cron endpoint.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// AppConfig is the top-level process configuration. Runtime tunables
// (timezone, thresholds, destinations) are not here: they live in the
// database settings row and are editable over the API.
type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskboard", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{Addr: ":8000", RatePerSec: 50, RateBurst: 100},
		Storage: StorageConfig{DBPath: filepath.Join("data", "app.db"), UploadsDir: filepath.Join("data", "uploads")},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads configuration from the given YAML file path using Viper,
// with TASKBOARD_* environment variable overrides. A missing file
// yields the default configuration.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskboard")
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.rate_per_sec", 50)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("storage.db_path", filepath.Join("data", "app.db"))
	v.SetDefault("storage.uploads_dir", filepath.Join("data", "uploads"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("scheduler.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
