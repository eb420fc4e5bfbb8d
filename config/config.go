package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		RateLimit      struct {
			RequestsPerMinute int `yaml:"requests_per_minute"`
			Clients           int `yaml:"clients"`
		} `yaml:"rate_limit"`
	} `yaml:"http"`
	Artifacts struct {
		ModelPath  string `yaml:"model_path"`
		ScalerPath string `yaml:"scaler_path"`
	} `yaml:"artifacts"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Http.Port = 8080
	cfg.Http.Timeout = 30 * time.Second
	cfg.Http.AllowedOrigins = []string{"*"}
	cfg.Http.RateLimit.RequestsPerMinute = 120
	cfg.Http.RateLimit.Clients = 1024
	cfg.Artifacts.ModelPath = "artifacts/heart_disease_model.json"
	cfg.Artifacts.ScalerPath = "artifacts/scaler.json"
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 50
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	cfg.Metrics.Enabled = true
	return cfg
}

// Load reads path on top of Default and applies HEARTRISK_* environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HEARTRISK_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HEARTRISK_HTTP_PORT: %w", err)
		}
		cfg.Http.Port = port
	}
	if v := os.Getenv("HEARTRISK_MODEL_PATH"); v != "" {
		cfg.Artifacts.ModelPath = v
	}
	if v := os.Getenv("HEARTRISK_SCALER_PATH"); v != "" {
		cfg.Artifacts.ScalerPath = v
	}
	if v := os.Getenv("HEARTRISK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Artifacts.ModelPath == "" || c.Artifacts.ScalerPath == "" {
		return errors.New("artifacts.model_path and artifacts.scaler_path are required")
	}
	return nil
}
