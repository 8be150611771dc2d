package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/draw"

	"github.com/wudi/platekit/geom"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawOverlay copies working and strokes quad on it. When label is non-empty
// it is written just above the quad.
func drawOverlay(working *image.RGBA, quad geom.Contour, label string, cfg Config) *image.RGBA {
	out := image.NewRGBA(working.Bounds())
	draw.Draw(out, out.Bounds(), working, working.Bounds().Min, draw.Src)
	if len(quad.Points) == 0 {
		return out
	}
	geom.DrawPolyline(out, quad.Points, true, cfg.OverlayColor, cfg.OverlayThickness)
	if !cfg.OverlayLabel || label == "" {
		return out
	}
	face := basicfont.Face7x13
	box := geom.BoundingRect(quad.Points)
	x := max(box.Min.X, out.Bounds().Min.X)
	y := box.Min.Y - cfg.OverlayThickness - 2
	if y-face.Ascent < out.Bounds().Min.Y {
		y = box.Max.Y + face.Ascent + cfg.OverlayThickness
	}
	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(cfg.OverlayColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
	return out
}

// digest fingerprints a grayscale raster with BLAKE2b-256 over its size and
// pixels.
func digest(img *image.Gray) string {
	if img == nil {
		return ""
	}
	h, _ := blake2b.New256(nil)
	b := img.Bounds()
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(hdr[4:], uint32(b.Dy()))
	h.Write(hdr[:])
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[off : off+b.Dx()])
	}
	return hex.EncodeToString(h.Sum(nil))
}
