package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "~/.config/webtally", cfg.Storage.Path)
	assert.Equal(t, "webtally.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, "wal", cfg.Storage.JournalMode)
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 7764, cfg.Daemon.Port)
	assert.Equal(t, 24, cfg.Retention.PruneIntervalHours)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "webtally.log", cfg.Logging.File)
}

func TestDaemonAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:7764", cfg.Daemon.Addr())
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
daemon:
  port: 9000
retention:
  prune_interval_hours: 6
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Daemon.Port)
	assert.Equal(t, 6, cfg.Retention.PruneIntervalHours)

	// Unset values keep defaults.
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, "webtally.db", cfg.Storage.SQLiteFile)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{not yaml"), 0644))

	_, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadOrCreateAt_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nested", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	// File now exists and loads back identically.
	reloaded, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x/y"), expanded)

	plain, err := ExpandPath("/tmp/z")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/z", plain)
}
