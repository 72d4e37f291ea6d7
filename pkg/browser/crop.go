package browser

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Box is an element's position and size in CSS pixels, origin top-left.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CropRect converts box to the device-pixel rectangle
// (x, y, x+w, y+h) * scale, rounded to whole pixels.
func CropRect(box Box, scale float64) image.Rectangle {
	if scale <= 0 {
		scale = 1
	}
	return image.Rect(
		int(math.Round(box.X*scale)),
		int(math.Round(box.Y*scale)),
		int(math.Round((box.X+box.Width)*scale)),
		int(math.Round((box.Y+box.Height)*scale)),
	)
}

// cropSlack is how far, in device pixels, a crop may overhang the capture
// before it counts as exceeding it. It absorbs rounding of fractional boxes.
const cropSlack = 1

// Crop cuts box out of src, a capture taken at the given device scale.
// A box that misses src entirely yields ErrOutsideViewport. A box that only
// partly fits yields ErrExceedsViewport rather than a truncated image. With
// cssPixels set and scale above 1 the result is resampled down to the box's
// CSS pixel size.
func Crop(src image.Image, box Box, scale float64, cssPixels bool) (image.Image, error) {
	bounds := src.Bounds()
	want := CropRect(box, scale).Add(bounds.Min)
	r := want.Intersect(bounds)
	if r.Empty() {
		return nil, ErrOutsideViewport
	}
	if want.Dx()-r.Dx() > cropSlack || want.Dy()-r.Dy() > cropSlack {
		return nil, fmt.Errorf("%w: element is %dx%d, visible part %dx%d",
			ErrExceedsViewport, want.Dx(), want.Dy(), r.Dx(), r.Dy())
	}

	if cssPixels && scale > 1 {
		w := max(1, int(math.Round(float64(r.Dx())/scale)))
		h := max(1, int(math.Round(float64(r.Dy())/scale)))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, r, draw.Src, nil)
		return dst, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst, nil
}
