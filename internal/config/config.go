package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "dashkit.json"

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "DASHKIT_"

	// DefaultAddr is the default gateway listen address.
	DefaultAddr = ":8080"

	// DefaultMaxFileSize is the default gallery image limit.
	DefaultMaxFileSize = 5 << 20
)

// ErrNotFound is returned when no config file exists.
var ErrNotFound = errors.New("config: " + ConfigFileName + " not found")

// Duration is a time.Duration written as "15s" in JSON and environment.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the complete dashkit.json configuration.
type Config struct {
	// User is the user id commands act as when no session is present.
	User string `json:"user,omitempty" env:"USER"`

	// API configures the backend client.
	API APIConfig `json:"api" envPrefix:"API_"`

	// Upload configures gallery image storage.
	Upload UploadConfig `json:"upload" envPrefix:"UPLOAD_"`

	// Session configures token signing.
	Session SessionConfig `json:"session" envPrefix:"SESSION_"`

	// Server configures the gateway.
	Server ServerConfig `json:"server" envPrefix:"SERVER_"`

	// Log configures logging.
	Log LogConfig `json:"log" envPrefix:"LOG_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// APIConfig configures the REST backend client.
type APIConfig struct {
	// BaseURL is the fixed backend base URL.
	BaseURL string `json:"baseURL,omitempty" env:"BASE_URL"`

	// Token is a bearer token sent with every request.
	Token string `json:"token,omitempty" env:"TOKEN"`

	// Timeout is the per-request timeout.
	Timeout Duration `json:"timeout,omitempty" env:"TIMEOUT"`

	// RateLimit is requests per second; 0 disables the limiter.
	RateLimit float64 `json:"rateLimit,omitempty" env:"RATE_LIMIT"`

	// RateBurst is the limiter burst.
	RateBurst int `json:"rateBurst,omitempty" env:"RATE_BURST"`
}

// UploadConfig configures gallery uploads.
type UploadConfig struct {
	// Backend is "http", "s3" or "disk". Empty disables uploads.
	Backend string `json:"backend,omitempty" env:"BACKEND"`

	// MaxFileSize is the per-file limit in bytes.
	MaxFileSize int64 `json:"maxFileSize,omitempty" env:"MAX_FILE_SIZE"`

	// AllowedTypes lists accepted MIME types.
	AllowedTypes []string `json:"allowedTypes,omitempty" env:"ALLOWED_TYPES" envSeparator:","`

	// Endpoint is the object-storage URL for the http backend.
	Endpoint string `json:"endpoint,omitempty" env:"ENDPOINT"`

	// Field is the multipart field name for the http backend.
	Field string `json:"field,omitempty" env:"FIELD"`

	// Bearer, Username and Password authenticate the http backend.
	Bearer   string `json:"bearer,omitempty" env:"BEARER"`
	Username string `json:"username,omitempty" env:"USERNAME"`
	Password string `json:"password,omitempty" env:"PASSWORD"`

	// S3 configures the s3 backend.
	S3 S3Config `json:"s3,omitempty" envPrefix:"S3_"`

	// Dir and BaseURL configure the disk backend.
	Dir     string `json:"dir,omitempty" env:"DIR"`
	BaseURL string `json:"baseURL,omitempty" env:"BASE_URL"`
}

// S3Config configures the s3 upload backend.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" env:"BUCKET"`
	Prefix          string `json:"prefix,omitempty" env:"PREFIX"`
	Region          string `json:"region,omitempty" env:"REGION"`
	AccessKeyID     string `json:"accessKeyID,omitempty" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" env:"SECRET_ACCESS_KEY"`
	Endpoint        string `json:"endpoint,omitempty" env:"ENDPOINT"`
	PathStyle       bool   `json:"pathStyle,omitempty" env:"PATH_STYLE"`
	PublicBaseURL   string `json:"publicBaseURL,omitempty" env:"PUBLIC_BASE_URL"`
}

// SessionConfig configures session tokens.
type SessionConfig struct {
	// Secret signs tokens. Set it through DASHKIT_SESSION_SECRET rather
	// than the file.
	Secret string `json:"secret,omitempty" env:"SECRET"`

	// TTL is the token lifetime (default: 168h).
	TTL Duration `json:"ttl,omitempty" env:"TTL"`

	// CookieName is the session cookie.
	CookieName string `json:"cookieName,omitempty" env:"COOKIE_NAME"`

	// Issuer is the iss claim.
	Issuer string `json:"issuer,omitempty" env:"ISSUER"`

	// Secure forces Secure cookies.
	Secure bool `json:"secure,omitempty" env:"SECURE"`

	// DevLogin enables POST /api/session. Never enable in production.
	DevLogin bool `json:"devLogin,omitempty" env:"DEV_LOGIN"`
}

// ServerConfig configures the gateway.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" env:"ADDR"`

	// ReadTimeout bounds reading a request. WriteTimeout bounds each live
	// feed frame.
	ReadTimeout  Duration `json:"readTimeout,omitempty" env:"READ_TIMEOUT"`
	WriteTimeout Duration `json:"writeTimeout,omitempty" env:"WRITE_TIMEOUT"`

	// StaleTime is applied to every slice.
	StaleTime Duration `json:"staleTime,omitempty" env:"STALE_TIME"`

	// IdleTimeout closes dashboards unused for this long.
	IdleTimeout Duration `json:"idleTimeout,omitempty" env:"IDLE_TIMEOUT"`

	// AllowedOrigins lists origins accepted by the live feed. Empty means
	// same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		API: APIConfig{
			Timeout: Duration(15 * time.Second),
		},
		Upload: UploadConfig{
			MaxFileSize:  DefaultMaxFileSize,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			Field:        "file",
		},
		Session: SessionConfig{
			TTL:        Duration(7 * 24 * time.Hour),
			CookieName: "dashkit_session",
			Issuer:     "dashkit",
		},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
			IdleTimeout:  Duration(30 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. An explicit path must exist; with an
// empty path dashkit.json is searched for from the working directory up,
// and defaults are used when none is found. The environment is applied
// last.
func Load(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err := FindProjectRoot(wd); err == nil {
			path = filepath.Join(root, ConfigFileName)
		}
	}
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = New()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads configuration from the specified file path without
// applying the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overlays DASHKIT_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config: no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path. The session
// secret is never written.
func (c *Config) SaveTo(path string) error {
	out := *c
	out.Session.Secret = ""
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.API.Timeout <= 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.API.RateLimit > 0 && c.API.RateBurst <= 0 {
		c.API.RateBurst = 1
	}
	if c.Upload.MaxFileSize <= 0 {
		c.Upload.MaxFileSize = d.Upload.MaxFileSize
	}
	if c.Upload.Field == "" {
		c.Upload.Field = d.Upload.Field
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = d.Session.TTL
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = d.Session.CookieName
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.baseURL is required (DASHKIT_API_BASE_URL)"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("api.baseURL %q must be an http(s) URL", c.API.BaseURL))
	}
	switch c.Upload.Backend {
	case "":
	case "http":
		if c.Upload.Endpoint == "" {
			errs = append(errs, errors.New("upload.endpoint is required for the http backend"))
		}
	case "s3":
		if c.Upload.S3.Bucket == "" || c.Upload.S3.Region == "" {
			errs = append(errs, errors.New("upload.s3.bucket and upload.s3.region are required for the s3 backend"))
		}
		// Gallery URLs are stored permanently; presigned URLs expire.
		if c.Upload.S3.PublicBaseURL == "" {
			errs = append(errs, errors.New("upload.s3.publicBaseURL is required for the s3 backend"))
		}
	case "disk":
		if c.Upload.Dir == "" {
			errs = append(errs, errors.New("upload.dir is required for the disk backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("upload.backend %q is not one of http, s3, disk", c.Upload.Backend))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}

// Logger builds the slog logger described by Log, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if dashkit.json exists in the specified directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to find dashkit.json.
func FindProjectRoot(startDir string) (string, error) {
	dir := startDir
	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}
