package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPath: "/nonexistent/config.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:20050", cfg.Server.ListenAddr)
	assert.Equal(t, 8192, cfg.Server.MaxRequestBytes)
	assert.Equal(t, 128, cfg.Server.MaxResponseBytes)
	assert.Equal(t, 60*time.Second, cfg.Server.SessionTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.SweepInterval)
	assert.Equal(t, "../source", cfg.Storage.RootDir)
	assert.Equal(t, "../source/logins.json", cfg.Auth.LoginsPath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, SaveToFile(&Config{
		Server:  ServerConfig{ListenAddr: "127.0.0.1:20050"},
		Storage: StorageConfig{RootDir: "/data"},
	}, path))

	cfg, err := Load(LoaderOptions{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:20050", cfg.Server.ListenAddr)
	assert.Equal(t, "/data", cfg.Storage.RootDir)
}

func TestEnvironmentOverrideTakesPrecedence(t *testing.T) {
	t.Setenv("HEXDB_LISTEN_ADDR", "0.0.0.0:9999")
	cfg, err := Load(LoaderOptions{ConfigPath: "/nonexistent/config.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.ListenAddr)
}

func TestSubstituteEnvVarsUsesDefaultWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", SubstituteEnvVars("${HEXDB_TOTALLY_UNSET:fallback}"))
}

func TestSubstituteEnvVarsPrefersSetValue(t *testing.T) {
	t.Setenv("HEXDB_TEST_VAR", "actual")
	assert.Equal(t, "actual", SubstituteEnvVars("${HEXDB_TEST_VAR:fallback}"))
}
