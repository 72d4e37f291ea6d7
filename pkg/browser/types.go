package browser

import (
	"time"
)

// Default values for driver options.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultFindTimeout       = 10 * time.Second
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
	DefaultDeviceScaleFactor = 1.0
	DefaultMaxTextLength     = 10000
)

// LaunchArgs are always passed to Chromium.
var LaunchArgs = []string{
	"--disable-gpu",
	"--no-sandbox",
}

// Options configures a Driver.
type Options struct {
	// Headless runs Chromium without a window
	Headless bool

	// Install downloads the Playwright driver and Chromium before starting
	Install bool

	// NavigationTimeout bounds every Navigate call
	NavigationTimeout time.Duration

	// FindTimeout is the wait used by ScreenshotElement
	FindTimeout time.Duration

	// Viewport sets the page size in CSS pixels
	Viewport Viewport

	// DeviceScaleFactor is the device pixel ratio of the page
	DeviceScaleFactor float64

	// CSSPixels scales high-DPI crops back down to CSS pixel size
	CSSPixels bool

	// AllowedURLs restricts navigation to URLs matching one of these globs.
	// Empty allows everything.
	AllowedURLs []string

	// MaxTextLength truncates Text output (characters)
	MaxTextLength int
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	if o.FindTimeout <= 0 {
		o.FindTimeout = DefaultFindTimeout
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.DeviceScaleFactor <= 0 {
		o.DeviceScaleFactor = DefaultDeviceScaleFactor
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = DefaultMaxTextLength
	}
	return o
}

// milliseconds converts d to the float milliseconds Playwright expects.
func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
