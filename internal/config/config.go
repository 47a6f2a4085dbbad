// Package config loads the cvectl client configuration from an
// optional YAML file with environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/lebnicolas/cvelistV5/internal/syncer"
)

// Config is the client-side configuration. Every field has a usable
// default so cvectl runs with no config file at all.
type Config struct {
	// Base URL of the cved query service.
	ServerURL string `yaml:"server_url"`
	// Base URL serving raw CVE JSON files laid out in bucket
	// directories, used for per-id fallback fetches.
	FilesURL string `yaml:"files_url"`
	// Local directory holding raw CVE JSON files, preferred over
	// FilesURL when set.
	FilesDir string `yaml:"files_dir"`

	// Discovery artifacts consulted when the service is unreachable.
	ManifestPath string `yaml:"manifest_path"`
	DeltaLogPath string `yaml:"delta_log_path"`

	// Directory for the durable cache database.
	CacheDir string `yaml:"cache_dir"`

	Sync SyncConfig `yaml:"sync"`
}

// SyncConfig carries the engine tuning overrides. Zero values fall
// back to the engine defaults.
type SyncConfig struct {
	InitialBatchSize int `yaml:"initial_batch_size"`
	MinBatchSize     int `yaml:"min_batch_size"`
	MaxBatchSize     int `yaml:"max_batch_size"`
	BatchSizeStep    int `yaml:"batch_size_step"`
	FastThresholdMS  int `yaml:"fast_threshold_ms"`
	SlowThresholdMS  int `yaml:"slow_threshold_ms"`
	FastStreak       int `yaml:"fast_streak"`
	SlowStreak       int `yaml:"slow_streak"`
	FlushEvery       int `yaml:"flush_every"`
	ChunkSize        int `yaml:"chunk_size"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cvectl.yaml"
	}
	return filepath.Join(home, ".config", "cvectl", "config.yaml")
}

// Default returns the built-in configuration.
func Default() Config {
	cacheDir := "cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".cache", "cvectl")
	}
	return Config{
		ServerURL: "http://localhost:3000",
		CacheDir:  cacheDir,
	}
}

// Load reads the config file at path, falling back to defaults when it
// does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CVECTL_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("CVECTL_FILES_URL"); v != "" {
		cfg.FilesURL = v
	}
	if v := os.Getenv("CVECTL_FILES_DIR"); v != "" {
		cfg.FilesDir = v
	}
	if v := os.Getenv("CVECTL_MANIFEST"); v != "" {
		cfg.ManifestPath = v
	}
	if v := os.Getenv("CVECTL_DELTA_LOG"); v != "" {
		cfg.DeltaLogPath = v
	}
	if v := os.Getenv("CVECTL_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
}

// EngineConfig maps the sync overrides onto the engine defaults.
func (c Config) EngineConfig() syncer.Config {
	ec := syncer.DefaultConfig()
	s := c.Sync
	if s.InitialBatchSize > 0 {
		ec.InitialBatchSize = s.InitialBatchSize
	}
	if s.MinBatchSize > 0 {
		ec.MinBatchSize = s.MinBatchSize
	}
	if s.MaxBatchSize > 0 {
		ec.MaxBatchSize = s.MaxBatchSize
	}
	if s.BatchSizeStep > 0 {
		ec.BatchSizeStep = s.BatchSizeStep
	}
	if s.FastThresholdMS > 0 {
		ec.FastThreshold = time.Duration(s.FastThresholdMS) * time.Millisecond
	}
	if s.SlowThresholdMS > 0 {
		ec.SlowThreshold = time.Duration(s.SlowThresholdMS) * time.Millisecond
	}
	if s.FastStreak > 0 {
		ec.FastStreak = s.FastStreak
	}
	if s.SlowStreak > 0 {
		ec.SlowStreak = s.SlowStreak
	}
	if s.FlushEvery > 0 {
		ec.FlushEvery = s.FlushEvery
	}
	if s.ChunkSize > 0 {
		ec.ChunkSize = s.ChunkSize
	}
	return ec
}

// CachePath returns the durable cache database file location.
func (c Config) CachePath() string {
	return filepath.Join(c.CacheDir, "cves.db")
}
