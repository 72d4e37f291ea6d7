// Package config loads the pagelens YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/entrhq/pagelens/pkg/browser"
	"gopkg.in/yaml.v3"
)

// TokenEnv overrides Discord.Token when set.
const TokenEnv = "PAGELENS_DISCORD_TOKEN"

// Config is the full process configuration.
type Config struct {
	Discord     DiscordConfig     `yaml:"discord" json:"discord"`
	Permissions PermissionsConfig `yaml:"permissions" json:"permissions"`
	Browser     BrowserConfig     `yaml:"browser" json:"browser"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// DiscordConfig configures the gateway connection.
type DiscordConfig struct {
	Token    string   `yaml:"token" json:"token"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	OwnerIDs []string `yaml:"owner_ids" json:"owner_ids"`
}

// PermissionsConfig locates the permission list files.
type PermissionsConfig struct {
	BlacklistPath string `yaml:"blacklist_path" json:"blacklist_path"`
	AdminsPath    string `yaml:"admins_path" json:"admins_path"`
}

// BrowserConfig mirrors browser.Options.
type BrowserConfig struct {
	Headless          bool             `yaml:"headless" json:"headless"`
	Install           bool             `yaml:"install" json:"install"`
	NavigationTimeout time.Duration    `yaml:"navigation_timeout" json:"navigation_timeout"`
	FindTimeout       time.Duration    `yaml:"find_timeout" json:"find_timeout"`
	Viewport          browser.Viewport `yaml:"viewport" json:"viewport"`
	DeviceScaleFactor float64          `yaml:"device_scale_factor" json:"device_scale_factor"`
	CSSPixels         bool             `yaml:"css_pixels" json:"css_pixels"`
	AllowedURLs       []string         `yaml:"allowed_urls" json:"allowed_urls"`
	MaxTextLength     int              `yaml:"max_text_length" json:"max_text_length"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Dir holds session log files; empty means ~/.pagelens/logs
	Dir string `yaml:"dir" json:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			Prefix: "!",
		},
		Permissions: PermissionsConfig{
			BlacklistPath: "data/blacklist.json",
			AdminsPath:    "data/admins.json",
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: browser.DefaultNavigationTimeout,
			FindTimeout:       browser.DefaultFindTimeout,
			Viewport: browser.Viewport{
				Width:  browser.DefaultViewportWidth,
				Height: browser.DefaultViewportHeight,
			},
			DeviceScaleFactor: browser.DefaultDeviceScaleFactor,
			MaxTextLength:     browser.DefaultMaxTextLength,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Discord.Token = token
	}

	return cfg, nil
}

// Validate checks the configuration. It does not require a token, since
// the one-shot CLI runs without Discord.
func (c *Config) Validate() error {
	var errs []error

	if c.Discord.Prefix == "" {
		errs = append(errs, errors.New("discord.prefix must not be empty"))
	}
	if c.Permissions.BlacklistPath == "" {
		errs = append(errs, errors.New("permissions.blacklist_path is required"))
	}
	if c.Permissions.AdminsPath == "" {
		errs = append(errs, errors.New("permissions.admins_path is required"))
	}
	if c.Permissions.BlacklistPath != "" && c.Permissions.BlacklistPath == c.Permissions.AdminsPath {
		errs = append(errs, errors.New("permissions.blacklist_path and admins_path must differ"))
	}
	if c.Browser.NavigationTimeout < 0 || c.Browser.FindTimeout < 0 {
		errs = append(errs, errors.New("browser timeouts must not be negative"))
	}
	if c.Browser.DeviceScaleFactor < 0 {
		errs = append(errs, errors.New("browser.device_scale_factor must not be negative"))
	}
	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		errs = append(errs, errors.New("browser.viewport must not be negative"))
	}
	if _, err := browser.NewURLMatcher(c.Browser.AllowedURLs); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// BrowserOptions converts the browser section to driver options.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:          c.Browser.Headless,
		Install:           c.Browser.Install,
		NavigationTimeout: c.Browser.NavigationTimeout,
		FindTimeout:       c.Browser.FindTimeout,
		Viewport:          c.Browser.Viewport,
		DeviceScaleFactor: c.Browser.DeviceScaleFactor,
		CSSPixels:         c.Browser.CSSPixels,
		AllowedURLs:       c.Browser.AllowedURLs,
		MaxTextLength:     c.Browser.MaxTextLength,
	}
}
