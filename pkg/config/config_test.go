package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(&EnvConfigSource{})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.HTTPHost)
	assert.Equal(t, 8501, cfg.HTTPPort)
	assert.Equal(t, 50, cfg.MaxUploadMB)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, 300, cfg.OutputTTLSeconds)
	assert.Equal(t, 5*time.Minute, cfg.OutputTTL())
	assert.Equal(t, 2*time.Minute, cfg.ConvertTimeout())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
	assert.Equal(t, "docpress", cfg.AppName)
	assert.True(t, cfg.OpenBrowser)
	// conversions run inside the request, the write timeout must outlast them
	assert.Greater(t, cfg.HTTPWriteTimeout, cfg.ConvertTimeoutSeconds)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Run("YAML values apply", func(t *testing.T) {
		path := writeConfigFile(t, "config.yaml", "HTTP_PORT: 9000\nMAX_UPLOAD_MB: 10\nOPEN_BROWSER: false\nSOFFICE_PATH: /opt/libreoffice/soffice\n")
		cfg, err := LoadConfigFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.HTTPPort)
		assert.Equal(t, 10, cfg.MaxUploadMB)
		assert.False(t, cfg.OpenBrowser)
		assert.Equal(t, "/opt/libreoffice/soffice", cfg.SofficePath)
	})

	t.Run("Env overrides file", func(t *testing.T) {
		path := writeConfigFile(t, "config.yaml", "HTTP_PORT: 9000\n")
		t.Setenv("HTTP_PORT", "7070")

		cfg, err := LoadConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.HTTPPort)
	})

	t.Run("Unknown extension rejected", func(t *testing.T) {
		path := writeConfigFile(t, "config.toml", "HTTP_PORT = 9000\n")
		_, err := LoadConfigFromFile(path)
		assert.Error(t, err)
	})
}

func TestFileConfigSourceDotNotation(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"server": {"port": "8501"}, "flat": 42}`)
	source, err := NewFileConfigSource(path)
	require.NoError(t, err)

	val, ok := source.Get("server.port")
	assert.True(t, ok)
	assert.Equal(t, "8501", val)

	val, ok = source.Get("flat")
	assert.True(t, ok)
	assert.Equal(t, "42", val)

	_, ok = source.Get("server.missing")
	assert.False(t, ok)
	assert.Equal(t, "fallback", source.GetWithDefault("server.missing", "fallback"))
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")
	t.Setenv("OPEN_BROWSER", "not-a-bool")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxUploadMB)
	assert.True(t, cfg.OpenBrowser)
}
