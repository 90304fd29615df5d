package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, byte(29), cfg.XORKey)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"VIDSTORE_ADDR":           "127.0.0.1:8080",
		"VIDSTORE_STORAGE_DIR":    "/srv/videos",
		"VIDSTORE_LEDGER":         "/srv/mapping.txt",
		"VIDSTORE_PUBLIC_DIR":     "",
		"VIDSTORE_CACHE_TTL":      "90s",
		"VIDSTORE_XOR_KEY":        "0x2a",
		"VIDSTORE_LOG_LEVEL":      "debug",
		"VIDSTORE_LOG_FORMAT":     "json",
		"AWS_BUCKET_NAME":         "my-bucket",
		"VIDSTORE_ARCHIVE_PREFIX": "backups/",
	}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "/srv/videos", cfg.StorageDir)
	assert.Equal(t, "/srv/mapping.txt", cfg.LedgerPath)
	assert.Empty(t, cfg.PublicDir)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, byte(42), cfg.XORKey)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "my-bucket", cfg.BucketName)
	assert.Equal(t, "backups/", cfg.ArchivePrefix)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "Bad TTL", env: map[string]string{"VIDSTORE_CACHE_TTL": "soon"}},
		{name: "Zero TTL", env: map[string]string{"VIDSTORE_CACHE_TTL": "0s"}},
		{name: "Key too large", env: map[string]string{"VIDSTORE_XOR_KEY": "256"}},
		{name: "Bad level", env: map[string]string{"VIDSTORE_LOG_LEVEL": "loud"}},
		{name: "Bad format", env: map[string]string{"VIDSTORE_LOG_FORMAT": "xml"}},
		{name: "Empty storage dir", env: map[string]string{"VIDSTORE_STORAGE_DIR": " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VIDSTORE_ADDR=:4000\nVIDSTORE_CACHE_TTL=2m\n"), 0644))
	t.Setenv("VIDSTORE_ADDR", ":5000")
	// godotenv sets variables it loads; register them for cleanup.
	t.Setenv("VIDSTORE_CACHE_TTL", "")
	os.Unsetenv("VIDSTORE_CACHE_TTL")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr, "existing environment wins over .env")
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestAddFlagsOverride(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--storage-dir", "/data", "--log-level", "warn", "--log-format=json"}))
	assert.Equal(t, "/data", cfg.StorageDir)
	assert.Equal(t, "file-mapping.txt", cfg.LedgerPath)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())

	assert.Error(t, fs.Parse([]string{"--log-level", "loud"}))
}
