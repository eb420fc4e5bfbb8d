package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
http:
  port: 9090
  timeout: 5s
  allowed_origins: ["https://clinic.example"]
artifacts:
  model_path: /srv/model.json
log:
  level: debug
  file: /var/log/heartrisk.log
metrics:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Http.Port)
	assert.Equal(t, 5*time.Second, cfg.Http.Timeout)
	assert.Equal(t, []string{"https://clinic.example"}, cfg.Http.AllowedOrigins)
	assert.Equal(t, "/srv/model.json", cfg.Artifacts.ModelPath)
	assert.Equal(t, "artifacts/scaler.json", cfg.Artifacts.ScalerPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/log/heartrisk.log", cfg.Log.File)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 120, cfg.Http.RateLimit.RequestsPerMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HEARTRISK_HTTP_PORT", "7000")
	t.Setenv("HEARTRISK_SCALER_PATH", "/tmp/scaler.json")
	t.Setenv("HEARTRISK_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Http.Port)
	assert.Equal(t, "/tmp/scaler.json", cfg.Artifacts.ScalerPath)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv("HEARTRISK_HTTP_PORT", "eighty")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 70000\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("http: [oops"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
