// Package config loads server and utility settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"vidstore/internal/cache"
	"vidstore/internal/pkg/crypto/xor"
)

type Config struct {
	Addr       string
	StorageDir string
	LedgerPath string
	PublicDir  string
	CacheTTL   time.Duration
	XORKey     byte
	LogLevel   slog.Level
	LogFormat  string

	BucketName    string
	ArchivePrefix string
}

func Default() Config {
	return Config{
		Addr:          ":3000",
		StorageDir:    "storage",
		LedgerPath:    "file-mapping.txt",
		PublicDir:     "public",
		CacheTTL:      cache.DefaultTTL,
		XORKey:        xor.DefaultKey,
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
		BucketName:    "vidstore-archive",
		ArchivePrefix: "archives/",
	}
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables already set, then builds a Config from Default
// and the VIDSTORE_* and AWS_BUCKET_NAME variables.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("VIDSTORE_ADDR", &cfg.Addr)
	str("VIDSTORE_STORAGE_DIR", &cfg.StorageDir)
	str("VIDSTORE_LEDGER", &cfg.LedgerPath)
	str("VIDSTORE_PUBLIC_DIR", &cfg.PublicDir)
	str("VIDSTORE_LOG_FORMAT", &cfg.LogFormat)
	str("AWS_BUCKET_NAME", &cfg.BucketName)
	str("VIDSTORE_ARCHIVE_PREFIX", &cfg.ArchivePrefix)

	if v, ok := lookup("VIDSTORE_CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid VIDSTORE_CACHE_TTL %q", v)
		}
		cfg.CacheTTL = ttl
	}
	if v, ok := lookup("VIDSTORE_XOR_KEY"); ok {
		key, err := strconv.ParseUint(strings.TrimSpace(v), 0, 8)
		if err != nil {
			return Config{}, fmt.Errorf("invalid VIDSTORE_XOR_KEY %q: %w", v, err)
		}
		cfg.XORKey = byte(key)
	}
	if v, ok := lookup("VIDSTORE_LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return Config{}, fmt.Errorf("invalid VIDSTORE_LOG_LEVEL %q: %w", v, err)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.StorageDir == "" {
		return errors.New("storage directory must be set")
	}
	if c.LedgerPath == "" {
		return errors.New("ledger path must be set")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// AddFlags registers the flags shared by every command on fs. Parsed
// flags override the values c was loaded with.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.StorageDir, "storage-dir", c.StorageDir, "directory holding stored files")
	fs.StringVar(&c.LedgerPath, "ledger", c.LedgerPath, "path of the name mapping ledger")
	fs.Var(&levelValue{level: &c.LogLevel}, "log-level", "log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
}

// levelValue adapts slog.Level to pflag.Value.
type levelValue struct {
	level *slog.Level
}

func (v *levelValue) String() string {
	if v.level == nil {
		return slog.LevelInfo.String()
	}
	return v.level.String()
}

func (v *levelValue) Set(s string) error {
	return v.level.UnmarshalText([]byte(s))
}

func (v *levelValue) Type() string {
	return "level"
}

// NewLogger builds the process logger described by c.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
