// Package config loads service configuration from a YAML file with
// environment variable overrides.
//
// Resolution order, later wins:
//
//	defaults -> config file -> MLTRACK_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/mltrack/artifact"
)

// EnvPrefix is prepended to upper-snake key names for environment lookup,
// e.g. listen_addr -> MLTRACK_LISTEN_ADDR.
const EnvPrefix = "MLTRACK_"

// Config holds the full service configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`

	// DataDir roots all on-disk state. DBPath, ArtifactsDir, and ModelsDir
	// derive from it when left empty.
	DataDir      string `yaml:"data_dir"`
	DBPath       string `yaml:"db_path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	ModelsDir    string `yaml:"models_dir"`

	// MaxUploadBytes caps a single request body (file or archive upload).
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Import bounds zip archive expansion.
	Import artifact.Quota `yaml:"import"`

	// Retention controls the gc sweep.
	Retention artifact.RetentionConfig `yaml:"retention"`

	// LogLevel is debug, info, warn, or error. LogFormat is text or json.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:     "127.0.0.1:5000",
		DataDir:        "data",
		MaxUploadBytes: 50 << 20, // 50 MiB
		Retention:      artifact.DefaultRetentionConfig(),
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the configuration. A missing file at path is only an error if
// the path was explicitly given; the empty path means defaults + env.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.derivePaths()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.ListenAddr, "LISTEN_ADDR")
	envString(&cfg.DataDir, "DATA_DIR")
	envString(&cfg.DBPath, "DB_PATH")
	envString(&cfg.ArtifactsDir, "ARTIFACTS_DIR")
	envString(&cfg.ModelsDir, "MODELS_DIR")
	envInt64(&cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.LogFormat, "LOG_FORMAT")
}

// derivePaths fills storage paths not set explicitly from DataDir.
func (c *Config) derivePaths() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "app.db")
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = filepath.Join(c.DataDir, "artifacts")
	}
	if c.ModelsDir == "" {
		c.ModelsDir = filepath.Join(c.DataDir, "models")
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func envInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
