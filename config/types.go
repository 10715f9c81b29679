// Package config provides configuration management for the server.
package config

import "time"

// Config is the top-level server configuration.
type Config struct {
	Environment string        `yaml:"environment" json:"environment"`
	Server      ServerConfig  `yaml:"server" json:"server"`
	Storage     StorageConfig `yaml:"storage" json:"storage"`
	Auth        AuthConfig    `yaml:"auth" json:"auth"`
	Logging     LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServerConfig controls the TCP listener and session lifecycle.
type ServerConfig struct {
	ListenAddr       string        `yaml:"listen_addr" json:"listen_addr"`
	MaxRequestBytes  int           `yaml:"max_request_bytes" json:"max_request_bytes"`
	MaxResponseBytes int           `yaml:"max_response_bytes" json:"max_response_bytes"`
	SessionTTL       time.Duration `yaml:"session_ttl" json:"session_ttl"`
	SweepInterval    time.Duration `yaml:"sweep_interval" json:"sweep_interval"`

	// StrictDeleteConnectives, when true, makes Delete's WHERE clause honor
	// AND/OR the same way Select and Update do.
	StrictDeleteConnectives bool `yaml:"strict_delete_connectives" json:"strict_delete_connectives"`
}

// StorageConfig locates the data root on disk.
type StorageConfig struct {
	RootDir string `yaml:"root_dir" json:"root_dir"`
}

// AuthConfig locates the user-credentials file.
type AuthConfig struct {
	LoginsPath string `yaml:"logins_path" json:"logins_path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"` // default :9090
	Path    string `yaml:"path" json:"path"` // default /metrics
}
