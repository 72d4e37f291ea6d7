package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/pagelens/pkg/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagelens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Browser.Headless)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := writeConfig(t, `
discord:
  token: file-token
  prefix: "?"
  owner_ids: ["42"]
permissions:
  blacklist_path: /var/lib/pagelens/blacklist.json
  admins_path: /var/lib/pagelens/admins.json
browser:
  navigation_timeout: 45s
  find_timeout: 2s
  viewport:
    width: 800
    height: 600
  device_scale_factor: 2
  css_pixels: true
  allowed_urls:
    - "https://*.example.com/*"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "file-token", cfg.Discord.Token)
	assert.Equal(t, "?", cfg.Discord.Prefix)
	assert.Equal(t, []string{"42"}, cfg.Discord.OwnerIDs)
	assert.True(t, cfg.Browser.Headless, "unset keys keep their defaults")

	opts := cfg.BrowserOptions()
	assert.Equal(t, 45*time.Second, opts.NavigationTimeout)
	assert.Equal(t, 2*time.Second, opts.FindTimeout)
	assert.Equal(t, browser.Viewport{Width: 800, Height: 600}, opts.Viewport)
	assert.Equal(t, 2.0, opts.DeviceScaleFactor)
	assert.True(t, opts.CSSPixels)
	assert.Equal(t, []string{"https://*.example.com/*"}, opts.AllowedURLs)
}

func TestTokenEnvOverride(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")
	path := writeConfig(t, "discord:\n  token: file-token\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Discord.Token)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "discord: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prefix", func(c *Config) { c.Discord.Prefix = "" }},
		{"missing blacklist path", func(c *Config) { c.Permissions.BlacklistPath = "" }},
		{"missing admins path", func(c *Config) { c.Permissions.AdminsPath = "" }},
		{"shared path", func(c *Config) { c.Permissions.AdminsPath = c.Permissions.BlacklistPath }},
		{"negative timeout", func(c *Config) { c.Browser.FindTimeout = -time.Second }},
		{"negative scale", func(c *Config) { c.Browser.DeviceScaleFactor = -1 }},
		{"bad url pattern", func(c *Config) { c.Browser.AllowedURLs = []string{"[a-"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
