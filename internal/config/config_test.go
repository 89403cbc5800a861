package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.True(t, cfg.AuthVerify)
	assert.Equal(t, 5*time.Minute, cfg.AuthCacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.JournalPath)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("GOOGLE_SHEET_ID", " sheet-123 ")
	t.Setenv("AUTH_VERIFY", "false")
	t.Setenv("AUTH_CACHE_TTL", "90s")
	t.Setenv("JOURNAL_PATH", "/data/journal.db")
	t.Setenv("API_URL", "https://ops.example.com/")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "sheet-123", cfg.SheetID)
	assert.False(t, cfg.AuthVerify)
	assert.Equal(t, 90*time.Second, cfg.AuthCacheTTL)
	assert.Equal(t, "/data/journal.db", cfg.JournalPath)
	assert.Equal(t, "https://ops.example.com", cfg.APIURL)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parrotops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("GOOGLE_SHEET_ID: from-file\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SheetID)
	assert.Equal(t, "warn", cfg.LogLevel, "environment overrides file")
}

func TestLoadConfigFileMissing(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestLoadExplicitOverride(t *testing.T) {
	v := viper.New()
	v.Set("LISTEN_ADDR", ":7070")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{LogFormat: "json"}
	assert.Error(t, cfg.ValidateServer())

	cfg.SheetID = "sheet-123"
	assert.NoError(t, cfg.ValidateServer())

	cfg.LogFormat = "xml"
	assert.Error(t, cfg.ValidateServer())
}
