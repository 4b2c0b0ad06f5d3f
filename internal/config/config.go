package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Catalog source kinds.
const (
	SourceSample = "sample"
	SourceYAML   = "yaml"
	SourceICS    = "ics"
)

// CatalogConfig selects the provider of the static event catalog.
type CatalogConfig struct {
	// Source is one of "sample", "yaml" or "ics".
	Source string `yaml:"source" json:"source"`
	// Path is a local YAML or ICS file.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// URL is a remote ICS feed. Used only when Source is "ics" and Path is empty.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// CacheDir holds the ETag/Last-Modified cache for URL.
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
}

// SessionConfig controls the lifetime of in-memory browsing sessions.
type SessionConfig struct {
	// IdleTTL is how long an untouched session survives, e.g. "30m".
	IdleTTL string `yaml:"idle_ttl" json:"idle_ttl"`
	// Sweep is a cron schedule for dropping idle sessions.
	Sweep string `yaml:"sweep" json:"sweep"`
	// CookieName is the name of the session cookie.
	CookieName string `yaml:"cookie_name" json:"cookie_name"`
}

// LogConfig mirrors the logger options.
type LogConfig struct {
	Level    string `yaml:"level" json:"level"`
	Encoding string `yaml:"encoding" json:"encoding"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the whole server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to display event dates.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale selects the UI message language (e.g. "en", "fr").
	Locale string `yaml:"locale" json:"locale"`

	// HeaderHeight is the fixed navbar height in pixels. Scrolling to the
	// results region stops this far below the top of the viewport.
	HeaderHeight int `yaml:"header_height" json:"header_height"`

	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	Session SessionConfig `yaml:"session" json:"session"`
	Log     LogConfig     `yaml:"log" json:"log"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "UTC",
		Locale:       "en",
		HeaderHeight: 64,
		Catalog: CatalogConfig{
			Source: SourceSample,
		},
		Session: SessionConfig{
			IdleTTL:    "30m",
			Sweep:      "*/5 * * * *",
			CookieName: "notify_session",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.HeaderHeight <= 0 {
		c.HeaderHeight = def.HeaderHeight
	}

	switch c.Catalog.Source {
	case SourceSample, SourceYAML, SourceICS:
		// ok
	default:
		// Unknown or empty; the sample catalog always loads.
		c.Catalog.Source = SourceSample
	}
	if c.Catalog.Source == SourceICS && c.Catalog.CacheDir == "" {
		c.Catalog.CacheDir = "./cache/ics-cache"
	}

	if _, err := time.ParseDuration(c.Session.IdleTTL); err != nil {
		c.Session.IdleTTL = def.Session.IdleTTL
	}
	if c.Session.Sweep == "" {
		c.Session.Sweep = def.Session.Sweep
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = def.Session.CookieName
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Encoding != "json" {
		c.Log.Encoding = def.Log.Encoding
	}
}

// IdleTTL returns the parsed session idle timeout.
func (c *Config) IdleTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.IdleTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// In both cases environment overrides (see ApplyEnv) are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				cfg.ApplyEnv()
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// ApplyEnv overrides fields from NOTIFY_* environment variables. A .env file
// in the working directory is loaded first if present; variables already set
// in the environment win over the file.
func (c *Config) ApplyEnv() {
	// .env is optional.
	_ = godotenv.Load()

	if v := strings.TrimSpace(os.Getenv("NOTIFY_LISTEN")); v != "" {
		c.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTIFY_LOCALE")); v != "" {
		c.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTIFY_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTIFY_CATALOG_SOURCE")); v != "" {
		c.Catalog.Source = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTIFY_CATALOG_PATH")); v != "" {
		c.Catalog.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTIFY_CATALOG_URL")); v != "" {
		c.Catalog.URL = v
	}
	c.Normalize()
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".notify-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
