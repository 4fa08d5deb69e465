package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "cardcrafter.db", cfg.DB)
	assert.Equal(t, "127.0.0.1:8484", cfg.Addr)
	assert.Equal(t, "repos", cfg.ReposDir)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{"--db", "/tmp/other.db", "--addr", "0.0.0.0:9000"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DB)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("CARDCRAFTER_REPOS_DIR", "/var/lib/cardcrafter/repos")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/cardcrafter/repos", cfg.ReposDir)
}

func TestLoadFlagsWinOverEnv(t *testing.T) {
	t.Setenv("CARDCRAFTER_ADDR", "10.0.0.1:1111")
	cfg, err := Load([]string{"--addr", "127.0.0.1:2222"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2222", cfg.Addr)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: /data/cards.db\naddr: 127.0.0.1:7777\n"), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "/data/cards.db", cfg.DB)
	assert.Equal(t, "127.0.0.1:7777", cfg.Addr)
}

func TestLoadTimezone(t *testing.T) {
	cfg, err := Load([]string{"--timezone", "America/New_York"})
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Location.String())
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	_, err := Load([]string{"--timezone", "Nowhere/Invalid"})
	assert.Error(t, err)
}

func TestLoadRejectsBadAddr(t *testing.T) {
	_, err := Load([]string{"--addr", "not an address"})
	assert.Error(t, err)
}
