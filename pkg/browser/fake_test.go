package browser

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/playwright-community/playwright-go"
)

// fakeElement embeds the interface so only the methods the driver calls
// need an implementation. Scrolling moves the box to scrolled when set.
type fakeElement struct {
	playwright.ElementHandle
	box       *playwright.Rect
	scrolled  *playwright.Rect
	scrollErr error
	scrolls   int
}

func (e *fakeElement) ScrollIntoViewIfNeeded(options ...playwright.ElementHandleScrollIntoViewIfNeededOptions) error {
	e.scrolls++
	if e.scrollErr != nil {
		return e.scrollErr
	}
	if e.scrolled != nil {
		e.box = e.scrolled
	}
	return nil
}

func (e *fakeElement) BoundingBox() (*playwright.Rect, error) {
	return e.box, nil
}

// fakePage serves a fixed set of visible elements and a synthetic capture in
// which pixel (x, y) has red=x and green=y.
type fakePage struct {
	url        string
	content    string
	elements   map[string]*fakeElement
	width      int
	height     int
	gotoErr    error
	waitErr    error
	visited    []string
	waitedFor  []float64
	screenshot int
}

func newFakePage() *fakePage {
	return &fakePage{
		url:      "about:blank",
		content:  "<html><head></head><body></body></html>",
		elements: map[string]*fakeElement{},
		width:    200,
		height:   100,
	}
}

func (p *fakePage) addElement(selector string, x, y, w, h float64) *fakeElement {
	el := &fakeElement{box: &playwright.Rect{X: x, Y: y, Width: w, Height: h}}
	p.elements[selector] = el
	return el
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.visited = append(p.visited, url)
	if p.gotoErr != nil {
		return nil, p.gotoErr
	}
	p.url = url
	return nil, nil
}

func (p *fakePage) Content() (string, error) {
	return p.content, nil
}

func (p *fakePage) WaitForSelector(selector string, options ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
	for _, o := range options {
		if o.Timeout != nil {
			p.waitedFor = append(p.waitedFor, *o.Timeout)
		}
	}
	if p.waitErr != nil {
		return nil, p.waitErr
	}
	if el, ok := p.elements[selector]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: waiting for locator(%q) to be visible", playwright.ErrTimeout, selector)
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	p.screenshot++
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *fakePage) URL() string {
	return p.url
}

func timeoutError() error {
	return fmt.Errorf("%w: Timeout 30000ms exceeded", playwright.ErrTimeout)
}
