// Package crop isolates the plate region selected by the candidate selector.
package crop

import (
	"errors"
	"fmt"
	"image"

	"github.com/wudi/platekit/geom"
)

// ErrEmptyRegion is returned when a plate quad covers no pixel of the image
// or is not a quadrilateral at all.
var ErrEmptyRegion = errors.New("empty plate region")

// Region is the tight grayscale crop around a plate mask.
type Region struct {
	Image  *image.Gray
	Bounds image.Rectangle // position of Image within the source raster
}

// Empty reports whether the region holds no pixels.
func (r Region) Empty() bool {
	return r.Image == nil || r.Bounds.Empty()
}

// Mask rasterizes quad onto a zero raster of the given size. Pixels on the
// outline and inside it are 255.
func Mask(size image.Rectangle, quad geom.Contour) *image.Gray {
	mask := image.NewGray(size)
	geom.FillPolygon(mask, quad.Points, 255)
	return mask
}

// Bounds returns the smallest rectangle holding every set pixel of mask.
// ok is false when the mask is blank.
func Bounds(mask *image.Gray) (image.Rectangle, bool) {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):]
		for i := 0; i < b.Dx(); i++ {
			if row[i] == 0 {
				continue
			}
			x := b.Min.X + i
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Crop masks gray with quad and copies out the bounding rectangle of the mask.
// The copy owns its pixels; gray is left untouched.
func Crop(gray *image.Gray, quad geom.Contour) (Region, error) {
	if gray == nil {
		return Region{}, fmt.Errorf("crop: nil image: %w", ErrEmptyRegion)
	}
	if len(quad.Points) != 4 {
		return Region{}, fmt.Errorf("crop: quad has %d vertices: %w", len(quad.Points), ErrEmptyRegion)
	}
	mask := Mask(gray.Bounds(), quad)
	r, ok := Bounds(mask)
	if !ok {
		return Region{}, fmt.Errorf("crop: quad %v lies outside %v: %w", quad.Points, gray.Bounds(), ErrEmptyRegion)
	}
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := gray.Pix[gray.PixOffset(r.Min.X, r.Min.Y+y):]
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], src[:r.Dx()])
	}
	return Region{Image: out, Bounds: r}, nil
}

// Apply keeps the pixels of img where mask is set and blacks out the rest.
func Apply(img *image.RGBA, mask *image.Gray) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !(image.Point{X: x, Y: y}).In(mask.Bounds()) || mask.GrayAt(x, y).Y == 0 {
				continue
			}
			si, di := img.PixOffset(x, y), out.PixOffset(x, y)
			copy(out.Pix[di:di+4], img.Pix[si:si+4])
		}
	}
	return out
}
