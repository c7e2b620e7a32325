// Package config provides configuration loading for jrblog.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable Load reads.
const EnvPrefix = "JRBLOG_"

// FontMode says whether the Open Sans web font is loaded.
type FontMode string

const (
	FontsOn  FontMode = "on"
	FontsOff FontMode = "off"

	// FontsAuto leaves the decision to the translation catalog of the
	// site's locale.
	FontsAuto FontMode = "auto"
)

// Subset is an extra Open Sans character subset.
type Subset string

const (
	// SubsetAuto takes the subset from the translation catalog of the
	// site's locale.
	SubsetAuto       Subset = ""
	SubsetNone       Subset = "none"
	SubsetGreek      Subset = "greek"
	SubsetCyrillic   Subset = "cyrillic"
	SubsetVietnamese Subset = "vietnamese"
)

// Config represents the complete jrblog configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site" envPrefix:"SITE_"`
	Theme   ThemeConfig   `yaml:"theme" envPrefix:"THEME_"`
	Content ContentConfig `yaml:"content" envPrefix:"CONTENT_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
}

// SiteConfig describes where the site lives.
type SiteConfig struct {
	// BaseURL is prefixed to every link the theme generates.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`

	// Locale picks the translation catalog, e.g. "en-US" or "ru".
	Locale string `yaml:"locale" env:"LOCALE"`

	// Secure makes protocol-relative assets, like the web font, use
	// https.
	Secure bool `yaml:"secure" env:"SECURE"`
}

// ThemeConfig configures the presentation.
type ThemeConfig struct {
	// AssetURL is where the theme's stylesheets and scripts are served
	// from.
	AssetURL string `yaml:"asset_url" env:"ASSET_URL"`

	// AssetDir holds the theme's stylesheets and scripts. When it's set
	// and AssetURL is a path, the server serves the directory there.
	AssetDir string `yaml:"asset_dir" env:"ASSET_DIR"`

	// ContentWidth is the width, in pixels, embedded media may take up
	// next to a sidebar.
	ContentWidth int `yaml:"content_width" env:"CONTENT_WIDTH"`

	// FullContentWidth replaces ContentWidth on full-width views.
	FullContentWidth int `yaml:"full_content_width" env:"FULL_CONTENT_WIDTH"`

	Fonts      FontMode `yaml:"fonts" env:"FONTS"`
	FontSubset Subset   `yaml:"font_subset" env:"FONT_SUBSET"`

	ThreadComments  bool `yaml:"thread_comments" env:"THREAD_COMMENTS"`
	MaxCommentDepth int  `yaml:"max_comment_depth" env:"MAX_COMMENT_DEPTH"`

	PostsPerPage int `yaml:"posts_per_page" env:"POSTS_PER_PAGE"`

	// DefaultBackground is used when the site doesn't set a background
	// colour.
	DefaultBackground string `yaml:"default_background" env:"DEFAULT_BACKGROUND"`
}

// ContentConfig says where content is read from and written to.
type ContentConfig struct {
	Dir       string `yaml:"dir" env:"DIR"`
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`

	// Templates replaces the built-in templates with the ones in this
	// directory, which must be laid out the same way.
	Templates string `yaml:"templates" env:"TEMPLATES"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`

	// Watch reloads content and templates when files change.
	Watch bool `yaml:"watch" env:"WATCH"`

	// PreviewToken turns on customizer previews for requests carrying
	// ?preview=<token>. Empty means nobody can preview.
	PreviewToken string `yaml:"preview_token" env:"PREVIEW_TOKEN"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL: "http://localhost:8080",
			Locale:  "en-US",
		},
		Theme: ThemeConfig{
			AssetURL:          "/theme",
			ContentWidth:      625,
			FullContentWidth:  960,
			Fonts:             FontsAuto,
			FontSubset:        SubsetAuto,
			ThreadComments:    true,
			MaxCommentDepth:   5,
			PostsPerPage:      10,
			DefaultBackground: "e6e6e6",
		},
		Content: ContentConfig{
			Dir:       "content",
			OutputDir: "public",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds a Config from the defaults, then the YAML file at path if path
// isn't empty, then JRBLOG_-prefixed environment variables, and validates
// the result.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads a Config from a YAML file, on top of the defaults. It
// doesn't read the environment or validate the result.
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.loadFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if _, err := url.Parse(c.Site.BaseURL); err != nil || c.Site.BaseURL == "" {
		errs = append(errs, fmt.Errorf("site.base_url must be a URL, got %q", c.Site.BaseURL))
	}
	if c.Site.Locale == "" {
		errs = append(errs, errors.New("site.locale is required"))
	}
	if c.Theme.ContentWidth <= 0 {
		errs = append(errs, fmt.Errorf("theme.content_width must be positive, got %d", c.Theme.ContentWidth))
	}
	if c.Theme.FullContentWidth < c.Theme.ContentWidth {
		errs = append(errs, fmt.Errorf("theme.full_content_width (%d) can't be less than theme.content_width (%d)", c.Theme.FullContentWidth, c.Theme.ContentWidth))
	}
	switch c.Theme.Fonts {
	case FontsOn, FontsOff, FontsAuto:
	default:
		errs = append(errs, fmt.Errorf("theme.fonts must be on, off or auto, got %q", c.Theme.Fonts))
	}
	switch c.Theme.FontSubset {
	case SubsetAuto, SubsetNone, SubsetGreek, SubsetCyrillic, SubsetVietnamese:
	default:
		errs = append(errs, fmt.Errorf("theme.font_subset must be empty, none, greek, cyrillic or vietnamese, got %q", c.Theme.FontSubset))
	}
	if c.Theme.MaxCommentDepth < 1 {
		errs = append(errs, fmt.Errorf("theme.max_comment_depth must be at least 1, got %d", c.Theme.MaxCommentDepth))
	}
	if c.Theme.PostsPerPage < 1 {
		errs = append(errs, fmt.Errorf("theme.posts_per_page must be at least 1, got %d", c.Theme.PostsPerPage))
	}
	if strings.HasPrefix(c.Theme.DefaultBackground, "#") {
		errs = append(errs, fmt.Errorf("theme.default_background is a hex colour without the #, got %q", c.Theme.DefaultBackground))
	}
	if c.Content.Dir == "" {
		errs = append(errs, errors.New("content.dir is required"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	return errors.Join(errs...)
}
