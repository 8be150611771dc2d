// Package preprocess normalizes an arbitrary photo into the fixed working
// raster used by the localization stages: decode, resize to the working size,
// luminance grayscale and an edge-preserving bilateral smoothing pass.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage reports empty, malformed or undecodable input.
var ErrInvalidImage = errors.New("invalid image")

// Working raster size used by every preset.
const (
	DefaultWidth  = 600
	DefaultHeight = 400
)

// Options controls the preprocessing stage.
type Options struct {
	Width     int
	Height    int
	Bilateral Params
}

// DefaultOptions returns the 600x400 working size with a 19px bilateral window.
func DefaultOptions() Options {
	return Options{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Bilateral: DefaultParams(),
	}
}

// Decode parses an encoded raster (PNG, JPEG, GIF, BMP, TIFF or WebP).
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := validateImageBounds(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// Run converts raw into the working color raster and its smoothed grayscale
// counterpart. raw is only read.
func Run(raw image.Image, opts Options) (*image.RGBA, *image.Gray, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := raw.Bounds()
	if err := validateImageBounds(b.Dx(), b.Dy()); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, nil, fmt.Errorf("working size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	working := Resize(raw, opts.Width, opts.Height)
	gray := Grayscale(working)
	return working, Bilateral(gray, opts.Bilateral), nil
}

// Resize scales img to exactly width x height, ignoring the aspect ratio.
func Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Grayscale converts src with BT.601 luminance weights in 14-bit fixed point.
func Grayscale(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := uint32(row[4*x]), uint32(row[4*x+1]), uint32(row[4*x+2])
			out[x] = uint8((r*4899 + g*9617 + bl*1868 + 1<<13) >> 14)
		}
	}
	return dst
}
