package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tish", cfg.Prompt)
	assert.Equal(t, 4096, cfg.MaxLineBytes)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
prompt = "%"
max_line_bytes = 1024

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "%", cfg.Prompt)
	assert.Equal(t, 1024, cfg.MaxLineBytes)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 4096, cfg.MaxScanBytes)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "tish", cfg.Prompt)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `prompt = "%"`)
	t.Setenv("TISH_PROMPT", "$")
	t.Setenv("TISH_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "$", cfg.Prompt)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateBounds(t *testing.T) {
	path := writeConfig(t, `max_line_bytes = 0`)
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `max_scan_bytes = -5`)
	_, err = Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `history_file = ""`)
	_, err = Load(path)
	assert.Error(t, err)
}
