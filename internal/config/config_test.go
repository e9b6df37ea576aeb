package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.ConfigPath)
	assert.NotEmpty(t, cfg.SessionSecret)
}

func TestLoadEnvCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("CONFIG_PATH", "/custom/config.json")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg := LoadEnv()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/config.json", cfg.ConfigPath)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.json"))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.False(t, cfg.Configured)
	assert.Empty(t, cfg.DBHost)
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.json"))

	in := &Config{
		Configured: true,
		DBHost:     "localhost",
		DBPort:     "3306",
		DBName:     "inventory_db",
		DBUser:     "inventory_user",
		DBPass:     "secret",
		LogoPath:   "uploads/company_logo.png",
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewStore(path)

	require.NoError(t, store.Save(&Config{Configured: true, DBHost: "a"}))
	require.NoError(t, store.Save(&Config{Configured: true, DBHost: "b"}))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "b", out.DBHost)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}
