package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills every zero-valued field with its documented default.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = "0.0.0.0:20050"
	}
	if cfg.Server.MaxRequestBytes == 0 {
		cfg.Server.MaxRequestBytes = 8192
	}
	if cfg.Server.MaxResponseBytes == 0 {
		cfg.Server.MaxResponseBytes = 128
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 60 * time.Second
	}
	if cfg.Server.SweepInterval == 0 {
		cfg.Server.SweepInterval = 500 * time.Millisecond
	}

	if cfg.Storage.RootDir == "" {
		cfg.Storage.RootDir = "../source"
	}

	if cfg.Auth.LoginsPath == "" {
		cfg.Auth.LoginsPath = cfg.Storage.RootDir + "/logins.json"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
