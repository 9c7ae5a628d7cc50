// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromWritesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "matchcurve")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "session.db"), cfg.DatabasePath)
	assert.Equal(t, filepath.Join(dir, "tracks"), cfg.TracksDir)
	assert.True(t, cfg.WatchTracks)
	assert.Equal(t, "info", cfg.LogLevel)

	// First load materializes the file and the tracks directory.
	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
	info, err := os.Stat(cfg.TracksDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadFromReadsExisting(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
data_dir: ` + dir + `
database_path: /tmp/custom.db
tracks_dir: ` + filepath.Join(dir, "plates") + `
watch_tracks: false
listen_addr: 127.0.0.1:9021
log_level: debug
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.DatabasePath)
	assert.False(t, cfg.WatchTracks)
	assert.Equal(t, "127.0.0.1:9021", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFromRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0644))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}
