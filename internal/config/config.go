package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port        string        `yaml:"port"`
	TrackingURL string        `yaml:"tracking_url"`
	CrmURL      string        `yaml:"crm_url"`
	SpendURL    string        `yaml:"spend_url"`
	HTTPTimeout time.Duration `yaml:"-"`
	TimeoutSecs int           `yaml:"http_timeout_seconds"`
	IngestCron  string        `yaml:"ingest_cron"`
	SQLitePath  string        `yaml:"sqlite_path"`
	Model       string        `yaml:"default_model"`
	LogLevel    slog.Level    `yaml:"-"`
	LogLevelStr string        `yaml:"log_level"`
}

// Load reads config from a YAML file (missing file is fine), then applies
// environment variable overrides and defaults.
func Load(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.TrackingURL = envOr("TRACKING_API_URL", cfg.TrackingURL)
	cfg.CrmURL = envOr("CRM_API_URL", cfg.CrmURL)
	cfg.SpendURL = envOr("SPEND_API_URL", cfg.SpendURL)
	cfg.IngestCron = envOr("INGEST_CRON", cfg.IngestCron)
	cfg.SQLitePath = envOr("SQLITE_PATH", cfg.SQLitePath)
	cfg.Model = envOr("DEFAULT_MODEL", cfg.Model)
	cfg.LogLevelStr = envOr("LOG_LEVEL", cfg.LogLevelStr)
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			cfg.HTTPTimeout = d
		}
	}

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.HTTPTimeout == 0 {
		if cfg.TimeoutSecs > 0 {
			cfg.HTTPTimeout = time.Duration(cfg.TimeoutSecs) * time.Second
		} else {
			cfg.HTTPTimeout = 15 * time.Second
		}
	}
	cfg.LogLevel = slog.LevelInfo
	if cfg.LogLevelStr == "debug" {
		cfg.LogLevel = slog.LevelDebug
	}

	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
