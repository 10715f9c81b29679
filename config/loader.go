package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoaderOptions configures the configuration loader.
type LoaderOptions struct {
	// ConfigPath is the YAML file to read (default: config.yaml, ignored if
	// missing).
	ConfigPath string
	// EnvPath is an optional .env file loaded with godotenv before
	// environment overrides are applied.
	EnvPath string
	// SkipEnvSubstitution disables ${VAR:default} expansion.
	SkipEnvSubstitution bool
}

// DefaultLoaderOptions returns the default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigPath: "config.yaml"}
}

// Load reads YAML configuration, applies ${VAR:default} substitution, fills
// defaults, and overlays a .env file and process environment.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	cfg := &Config{}
	if data, err := os.ReadFile(options.ConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", options.ConfigPath, err)
		}
	}

	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}

	setDefaults(cfg)

	if options.EnvPath != "" {
		if err := godotenv.Load(options.EnvPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", options.EnvPath, err)
		}
	}
	applyEnvironmentOverrides(cfg)

	return cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// applyEnvironmentOverrides overlays process environment variables, taking
// precedence over both the YAML file and ${VAR:default} substitution.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("HEXDB_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("HEXDB_ROOT_DIR"); v != "" {
		cfg.Storage.RootDir = v
	}
	if v := os.Getenv("HEXDB_LOGINS_PATH"); v != "" {
		cfg.Auth.LoginsPath = v
	}
	if v := os.Getenv("HEXDB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HEXDB_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	switch os.Getenv("HEXDB_METRICS_ENABLED") {
	case "true":
		cfg.Metrics.Enabled = true
	case "false":
		cfg.Metrics.Enabled = false
	}
}
