package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Environment names used for logger selection.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Default values
const (
	DefaultConfigPath  = "./config/config.yaml"
	DefaultDatabase    = "hlsget.db"
	DefaultMaxParallel = 2
)

// Config is the application configuration, read from a YAML file with
// environment variable overrides.
type Config struct {
	Env         string   `yaml:"env" env:"HLSGET_ENV" env-default:"local"`
	DownloadDir string   `yaml:"download_dir" env:"HLSGET_DOWNLOAD_DIR"`
	DatabaseDir string   `yaml:"database_dir" env:"HLSGET_DATABASE_DIR"`
	MaxParallel int      `yaml:"max_parallel" env:"HLSGET_MAX_PARALLEL" env-default:"2"`
	Resolver    Resolver `yaml:"resolver"`
	HTTP        HTTP     `yaml:"http"`
}

// Resolver configures source resolution retries and timeouts.
type Resolver struct {
	MaxRetries    int           `yaml:"max_retries" env-default:"3"`
	RaceTimeout   time.Duration `yaml:"race_timeout" env-default:"10s"`
	SettleTimeout time.Duration `yaml:"settle_timeout" env-default:"3s"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env-default:"30m"`
}

// HTTP configures the outbound client used for manifests and segments.
type HTTP struct {
	Timeout   time.Duration `yaml:"timeout" env-default:"30s"`
	UserAgent string        `yaml:"user_agent"`
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist. Environment variables override file values either way.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DownloadDir == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			c.DownloadDir = filepath.Join(dir, "Downloads")
		} else {
			c.DownloadDir = "downloads"
		}
	}
	if c.DatabaseDir == "" {
		c.DatabaseDir = "."
	}
	if c.MaxParallel < 1 {
		c.MaxParallel = DefaultMaxParallel
	}
}

// DatabasePath returns the full path of the bbolt database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DatabaseDir, DefaultDatabase)
}
