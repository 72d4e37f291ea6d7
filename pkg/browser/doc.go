// Package browser drives a single headless Chromium session through Playwright.
//
// A Driver owns exactly one browser, context and page. Every public method
// takes the driver's lock, so commands from concurrent callers run one after
// another and a navigation can never land between another caller's wait and
// screenshot.
//
// # Waiting
//
// WaitFor and FindElement treat a timeout as an ordinary outcome: WaitFor
// returns false and FindElement returns a nil handle. Only
// ScreenshotElement turns a missing element into ErrElementNotFound.
//
// # Screenshots
//
// ScreenshotElement scrolls the element into view, captures the viewport and
// crops it to the element's bounding box. An element bigger than the
// viewport fails with ErrExceedsViewport instead of yielding a partial crop. Bounding boxes are reported in CSS pixels while the capture
// is in device pixels, so the crop is multiplied by the configured
// DeviceScaleFactor. The context is always created with an explicit factor
// so the two never silently disagree.
//
// # Example Usage
//
//	driver, err := browser.New(browser.Options{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer driver.Close()
//
//	if err := driver.Navigate("https://example.com"); err != nil {
//	    return err
//	}
//	err = driver.ScreenshotElement("h1", "heading.png")
package browser
