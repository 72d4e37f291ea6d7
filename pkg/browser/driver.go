package browser

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/entrhq/pagelens/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// page is the subset of playwright.Page the driver uses.
type page interface {
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
	Content() (string, error)
	WaitForSelector(selector string, options ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error)
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
	URL() string
}

// Driver owns one headless browser session.
type Driver struct {
	mu      sync.Mutex
	opts    Options
	allow   *URLMatcher
	logger  *logging.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    page
	closed  bool
}

// New starts Playwright, launches Chromium and opens a single page.
// The returned driver must be closed to release the browser process.
func New(opts Options, logger *logging.Logger) (*Driver, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.Discard("browser")
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   logger.Writer(),
		Stderr:   logger.Writer(),
	}
	if opts.Install {
		logger.Infof("installing playwright driver and chromium")
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     LaunchArgs,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
		DeviceScaleFactor: playwright.Float(opts.DeviceScaleFactor),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	pg, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	pg.SetDefaultNavigationTimeout(milliseconds(opts.NavigationTimeout))

	d, err := newDriver(pg, opts, logger)
	if err != nil {
		ctx.Close()
		browser.Close()
		pw.Stop()
		return nil, err
	}
	d.pw = pw
	d.browser = browser
	d.context = ctx

	logger.Infof("browser started (headless=%v, viewport=%dx%d, scale=%.2f)",
		opts.Headless, opts.Viewport.Width, opts.Viewport.Height, opts.DeviceScaleFactor)
	return d, nil
}

func newDriver(p page, opts Options, logger *logging.Logger) (*Driver, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.Discard("browser")
	}

	allow, err := NewURLMatcher(opts.AllowedURLs)
	if err != nil {
		return nil, err
	}

	return &Driver{
		opts:   opts,
		allow:  allow,
		logger: logger,
		page:   p,
	}, nil
}

// Close shuts down the page, context, browser and Playwright driver.
// Calling Close more than once is a no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.context != nil {
		if err := d.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}

	d.logger.Infof("browser closed")
	return errors.Join(errs...)
}

// Options returns the effective driver options.
func (d *Driver) Options() Options {
	return d.opts
}

// URL returns the address of the loaded document.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ""
	}
	return d.page.URL()
}

// Navigate loads rawURL and blocks until the load event fires or the
// navigation timeout elapses.
func (d *Driver) Navigate(rawURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.navigateLocked(rawURL, true)
}

func (d *Driver) navigateLocked(rawURL string, checkAllowed bool) error {
	if checkAllowed && !d.allow.Allowed(rawURL) {
		return fmt.Errorf("%w: %s", ErrURLNotAllowed, rawURL)
	}

	waitUntil := playwright.WaitUntilState("load")
	timeout := milliseconds(d.opts.NavigationTimeout)

	start := time.Now()
	resp, err := d.page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &timeout,
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return &NavigationError{URL: rawURL, Err: ErrNavigationTimeout}
		}
		return &NavigationError{URL: rawURL, Err: err}
	}

	if resp != nil && resp.Status() >= 400 {
		d.logger.Warnf("navigation to %s returned HTTP %d", logURL(rawURL), resp.Status())
	}
	d.logger.Debugf("navigated to %s in %s", logURL(rawURL), time.Since(start).Round(time.Millisecond))
	return nil
}

// HTML returns the rendered markup of the current document. If rawURL is
// not empty it is loaded first.
func (d *Driver) HTML(rawURL string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}
	return d.htmlLocked(rawURL)
}

func (d *Driver) htmlLocked(rawURL string) (string, error) {
	if rawURL != "" {
		if err := d.navigateLocked(rawURL, true); err != nil {
			return "", err
		}
	}

	content, err := d.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// Text returns the visible text of the current document, loading rawURL
// first when it is not empty. Output is truncated to MaxTextLength.
func (d *Driver) Text(rawURL string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	markup, err := d.htmlLocked(rawURL)
	if err != nil {
		return "", err
	}
	return extractText(markup, d.opts.MaxTextLength)
}

// WaitFor waits until an element matching selector is visible.
// It returns false, not an error, when timeout elapses first. A timeout
// of zero or less waits DefaultFindTimeout.
func (d *Driver) WaitFor(selector string, timeout time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false, ErrClosed
	}
	el, err := d.findElementLocked(selector, timeout)
	return el != nil, err
}

// FindElement waits up to timeout for selector to become visible and
// returns the first match. A nil handle with a nil error means the wait
// timed out. A timeout of zero or less waits DefaultFindTimeout.
func (d *Driver) FindElement(selector string, timeout time.Duration) (playwright.ElementHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	return d.findElementLocked(selector, timeout)
}

func (d *Driver) findElementLocked(selector string, timeout time.Duration) (playwright.ElementHandle, error) {
	if selector == "" {
		return nil, fmt.Errorf("selector is required")
	}
	if timeout <= 0 {
		timeout = DefaultFindTimeout
	}

	state := playwright.WaitForSelectorState("visible")
	ms := milliseconds(timeout)

	el, err := d.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   &state,
		Timeout: &ms,
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			d.logger.Debugf("selector %q not visible after %s", selector, timeout)
			return nil, nil
		}
		return nil, fmt.Errorf("wait for %q failed: %w", selector, err)
	}
	return el, nil
}

// LoadHTMLContent renders markup directly through a data: URL, without a
// network fetch. The allow-list does not apply.
func (d *Driver) LoadHTMLContent(markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.navigateLocked(dataURL(markup), false)
}

func dataURL(markup string) string {
	return "data:text/html;charset=utf-8," + url.PathEscape(markup)
}

// ScreenshotElementPNG scrolls the element matching selector into view,
// captures the viewport and returns the PNG-encoded crop of the element.
// An element taller or wider than the viewport yields ErrExceedsViewport.
func (d *Driver) ScreenshotElementPNG(selector string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	el, err := d.findElementLocked(selector, d.opts.FindTimeout)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	if err := el.ScrollIntoViewIfNeeded(playwright.ElementHandleScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(milliseconds(d.opts.FindTimeout)),
	}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return nil, fmt.Errorf("failed to scroll %q into view: %w", selector, err)
	}

	rect, err := el.BoundingBox()
	if err != nil {
		return nil, fmt.Errorf("failed to read bounding box of %q: %w", selector, err)
	}
	if rect == nil {
		// Detached or no longer rendered since the wait.
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	raw, err := d.page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	box := Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
	cropped, err := Crop(src, box, d.opts.DeviceScaleFactor, d.opts.CSSPixels)
	if err != nil {
		return nil, fmt.Errorf("crop %q: %w", selector, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}

	d.logger.Debugf("captured %q at %s (%dx%d)", selector, CropRect(box, d.opts.DeviceScaleFactor),
		cropped.Bounds().Dx(), cropped.Bounds().Dy())
	return buf.Bytes(), nil
}

// ScreenshotElement writes the cropped element screenshot to dest as PNG,
// replacing any existing file.
func (d *Driver) ScreenshotElement(selector, dest string) error {
	data, err := d.ScreenshotElementPNG(selector)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// logURL shortens long URLs, mostly data: URLs, for log lines.
func logURL(rawURL string) string {
	const limit = 120
	if len(rawURL) > limit {
		return rawURL[:limit] + "..."
	}
	return rawURL
}
