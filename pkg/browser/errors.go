package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound is returned when a selector matches no visible element in time.
	ErrElementNotFound = errors.New("no such element")
	// ErrNavigationTimeout is returned when a page does not finish loading in time.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrURLNotAllowed is returned for URLs outside the allow-list.
	ErrURLNotAllowed = errors.New("url not allowed")
	// ErrOutsideViewport is returned when an element's box does not overlap the capture.
	ErrOutsideViewport = errors.New("element is outside the viewport")
	// ErrExceedsViewport is returned when an element is larger than the
	// viewport, so only part of it could be captured.
	ErrExceedsViewport = errors.New("element does not fit in the viewport")
	// ErrClosed is returned by operations on a closed driver.
	ErrClosed = errors.New("browser driver closed")
)

// NavigationError wraps a failed page load.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}
