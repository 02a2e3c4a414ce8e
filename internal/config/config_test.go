package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())

	_, err = os.Stat(path)
	assert.NoError(t, err)

	// the written file loads back to the same values
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\nstorage:\n  backend: sqlite\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 10, cfg.Editor.MaxSessions)
	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddr())
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7001")
	t.Setenv("DATA_DIR", "/srv/figures")
	t.Setenv("STORAGE_BACKEND", "duckdb")
	t.Setenv("IMAGE_SERVICE_URL", "https://images.example.org")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "/srv/figures", cfg.GetDataDir())
	assert.Equal(t, "duckdb", cfg.Storage.Backend)
	assert.Equal(t, "https://images.example.org", cfg.Images.ServiceURL)
}

func TestBadPortOverrideIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, 8089, cfg.Server.Port)
}

func TestResolvesCatalogPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("images:\n  catalogFile: images.yaml\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "images.yaml"), cfg.Images.CatalogFile)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDirectory = filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(cfg.GetDataDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
