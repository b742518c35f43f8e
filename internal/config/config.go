// Package config loads fontmeta settings from defaults, an optional TOML
// file, the environment (including a .env file) and command-line overrides,
// in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	fmerrors "github.com/matzehuels/fontmeta/pkg/errors"
	"github.com/matzehuels/fontmeta/pkg/integrations/googlefonts"
)

const appName = "fontmeta"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Environment variables read by Load.
const (
	EnvMetadataURL  = "FONTMETA_METADATA_URL"
	EnvTimeout      = "FONTMETA_TIMEOUT"
	EnvRetries      = "FONTMETA_RETRIES"
	EnvCacheBackend = "FONTMETA_CACHE_BACKEND"
	EnvCacheTTL     = "FONTMETA_CACHE_TTL"
	EnvCacheDir     = "FONTMETA_CACHE_DIR"
	EnvRedisURL     = "FONTMETA_REDIS_URL"
)

// Metadata configures the METADATA.pb fetcher.
type Metadata struct {
	URLTemplate string        `toml:"url_template"`
	Timeout     time.Duration `toml:"timeout"`
	Retries     int           `toml:"retries"`
	RetryDelay  time.Duration `toml:"retry_delay"`
	UserAgent   string        `toml:"user_agent"`
}

// Cache configures where fetched metadata is kept between runs.
type Cache struct {
	Backend  string        `toml:"backend"`
	TTL      time.Duration `toml:"ttl"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
}

// Annotate configures the block written into cask files.
type Annotate struct {
	Style       string        `toml:"style"`
	Source      string        `toml:"source"`
	LockTimeout time.Duration `toml:"lock_timeout"`
}

// Config is the complete fontmeta configuration.
type Config struct {
	Metadata Metadata `toml:"metadata"`
	Cache    Cache    `toml:"cache"`
	Annotate Annotate `toml:"annotate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Metadata: Metadata{
			URLTemplate: googlefonts.DefaultURLTemplate,
			Timeout:     10 * time.Second,
			RetryDelay:  time.Second,
		},
		Cache: Cache{
			Backend: BackendFile,
			TTL:     24 * time.Hour,
		},
		Annotate: Annotate{
			Style:       "auto-detect-pending",
			Source:      "google-fonts",
			LockTimeout: 5 * time.Second,
		},
	}
}

// DefaultPath returns the config file location, honoring XDG_CONFIG_HOME
// (~/.config/fontmeta/config.toml otherwise).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load builds the configuration. An empty path selects DefaultPath, which
// may be absent; an explicit path must exist. It returns the resolved path
// and whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if _, err := toml.DecodeFile(resolved, &cfg); err != nil {
			return nil, "", false, fmerrors.Wrap(fmerrors.ErrCodeInvalidConfig, err, "parse config %s", resolved)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolvePath(path string) (string, bool, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			// No home directory: run on defaults.
			return "", false, nil
		}
		path = p
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return "", false, fmerrors.New(fmerrors.ErrCodeInvalidConfig, "config path %s is a directory", path)
	case err == nil:
		return path, true, nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return path, false, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", false, fmerrors.Wrap(fmerrors.ErrCodeFileNotFound, err, "config file not found: %s", path)
	default:
		return "", false, fmerrors.Wrap(fmerrors.ErrCodeInvalidConfig, err, "stat config %s", path)
	}
}

func (c *Config) applyEnv() error {
	if v := env(EnvMetadataURL); v != "" {
		c.Metadata.URLTemplate = v
	}
	if v := env(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(EnvTimeout, err)
		}
		c.Metadata.Timeout = d
	}
	if v := env(EnvRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvRetries, err)
		}
		c.Metadata.Retries = n
	}
	if v := env(EnvCacheBackend); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := env(EnvCacheTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(EnvCacheTTL, err)
		}
		c.Cache.TTL = d
	}
	if v := env(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	if v := env(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envError(key string, err error) error {
	return fmerrors.Wrap(fmerrors.ErrCodeInvalidConfig, err, "invalid %s", key)
}

// Validate reports the first setting that would make a run fail.
func (c *Config) Validate() error {
	if err := fmerrors.ValidateURLTemplate(c.Metadata.URLTemplate, googlefonts.Placeholder); err != nil {
		return fmerrors.Wrap(fmerrors.ErrCodeInvalidConfig, err, "metadata.url_template")
	}
	if c.Metadata.Timeout < 0 {
		return invalid("metadata.timeout must not be negative")
	}
	if c.Metadata.Retries < 0 {
		return invalid("metadata.retries must not be negative")
	}
	if c.Metadata.RetryDelay < 0 {
		return invalid("metadata.retry_delay must not be negative")
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl must not be negative")
	}
	if c.Annotate.LockTimeout < 0 {
		return invalid("annotate.lock_timeout must not be negative")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return invalid("cache.redis_url is required when cache.backend is %q", BackendRedis)
		}
	default:
		return invalid("unknown cache.backend %q (want file, redis or none)", c.Cache.Backend)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmerrors.New(fmerrors.ErrCodeInvalidConfig, format, args...)
}
