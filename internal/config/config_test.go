package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != EnvLocal {
		t.Errorf("Env = %q, expected %q", cfg.Env, EnvLocal)
	}
	if cfg.MaxParallel != DefaultMaxParallel {
		t.Errorf("MaxParallel = %d, expected %d", cfg.MaxParallel, DefaultMaxParallel)
	}
	if cfg.Resolver.MaxRetries != 3 {
		t.Errorf("Resolver.MaxRetries = %d, expected 3", cfg.Resolver.MaxRetries)
	}
	if cfg.Resolver.CacheTTL != 30*time.Minute {
		t.Errorf("Resolver.CacheTTL = %s, expected 30m", cfg.Resolver.CacheTTL)
	}
	if cfg.DownloadDir == "" {
		t.Error("DownloadDir must get a default")
	}
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `env: prod
download_dir: /data/media
database_dir: /data/db
max_parallel: 4
resolver:
  max_retries: 5
  race_timeout: 20s
http:
  timeout: 15s
  user_agent: hlsget-test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != EnvProd {
		t.Errorf("Env = %q, expected prod", cfg.Env)
	}
	if cfg.DownloadDir != "/data/media" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.MaxParallel != 4 {
		t.Errorf("MaxParallel = %d, expected 4", cfg.MaxParallel)
	}
	if cfg.Resolver.MaxRetries != 5 {
		t.Errorf("Resolver.MaxRetries = %d, expected 5", cfg.Resolver.MaxRetries)
	}
	if cfg.Resolver.RaceTimeout != 20*time.Second {
		t.Errorf("Resolver.RaceTimeout = %s", cfg.Resolver.RaceTimeout)
	}
	if cfg.HTTP.UserAgent != "hlsget-test" {
		t.Errorf("HTTP.UserAgent = %q", cfg.HTTP.UserAgent)
	}
	if cfg.DatabasePath() != filepath.Join("/data/db", DefaultDatabase) {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HLSGET_ENV", "dev")
	t.Setenv("HLSGET_MAX_PARALLEL", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != EnvDev {
		t.Errorf("Env = %q, expected dev", cfg.Env)
	}
	if cfg.MaxParallel != 7 {
		t.Errorf("MaxParallel = %d, expected 7", cfg.MaxParallel)
	}
}

func TestApplyDefaults_ClampsParallelism(t *testing.T) {
	cfg := &Config{MaxParallel: -1}
	cfg.applyDefaults()
	if cfg.MaxParallel != DefaultMaxParallel {
		t.Errorf("MaxParallel = %d, expected %d", cfg.MaxParallel, DefaultMaxParallel)
	}
}
