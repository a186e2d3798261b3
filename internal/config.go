package internal

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/draftsmith/internal/render"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Backend BackendConfig     `yaml:"backend"`
	Render  RenderConfig      `yaml:"render"`
	Cache   CacheConfig       `yaml:"cache"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// BackendConfig locates the notes REST API.
type BackendConfig struct {
	Scheme  string        `yaml:"scheme"`
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// URL returns the base URL of the backend.
func (c *BackendConfig) URL() string {
	return fmt.Sprintf("%s://%s", c.Scheme, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Scheme, validation.Required, validation.In("http", "https")),
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

// RenderConfig holds the default render options.
type RenderConfig struct {
	CSSDir            string `yaml:"css_dir"`
	DarkMode          bool   `yaml:"dark_mode"`
	ContentEditable   bool   `yaml:"content_editable"`
	LocalMathAssets   bool   `yaml:"local_math_assets"`
	MathAssetsDir     string `yaml:"math_assets_dir"`
	WrapTransclusions bool   `yaml:"wrap_transclusions"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MathAssetsDir, validation.When(c.LocalMathAssets, validation.Required)),
	)
}

// Options converts the section into renderer options.
func (c *RenderConfig) Options() render.RenderOptions {
	return render.RenderOptions{
		CSSDir:             c.CSSDir,
		DarkMode:           c.DarkMode,
		ContentEditable:    c.ContentEditable,
		UseLocalMathAssets: c.LocalMathAssets,
		WrapTransclusions:  c.WrapTransclusions,
	}
}

// CacheConfig holds the offline note mirror configuration.
type CacheConfig struct {
	Path         string        `yaml:"path"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.SyncInterval, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8000,
			},
		},
		Backend: BackendConfig{
			Scheme:  "http",
			Host:    "localhost",
			Port:    37238,
			Timeout: 10 * time.Second,
		},
		Render: RenderConfig{
			CSSDir:            "./static/css",
			MathAssetsDir:     "./static",
			WrapTransclusions: true,
		},
		Cache: CacheConfig{
			Path:         "./draftsmith.db",
			SyncInterval: 5 * time.Minute,
		},
	}
}
