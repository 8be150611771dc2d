package preprocess

import (
	"image"
	"math"
)

// Params configures the bilateral filter. Diameter is the window size in
// pixels; the window is the disc of radius Diameter/2.
type Params struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// DefaultParams returns diameter 19 with both sigmas at 15.
func DefaultParams() Params {
	return Params{Diameter: 19, SigmaColor: 15, SigmaSpace: 15}
}

// Bilateral smooths src while keeping strong intensity steps: each output
// pixel is the average of its disc neighbourhood weighted by both spatial
// distance and intensity difference. Borders are mirrored without repeating
// the edge pixel (reflect-101).
func Bilateral(src *image.Gray, p Params) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	sigmaColor, sigmaSpace := p.SigmaColor, p.SigmaSpace
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := p.Diameter / 2
	if p.Diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	if radius < 1 {
		radius = 1
	}

	var colorWeight [256]float32
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	for i := range colorWeight {
		colorWeight[i] = float32(math.Exp(float64(i*i) * colorCoeff))
	}

	type tap struct {
		dx, dy int
		w      float32
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, w: float32(math.Exp(r * r * spaceCoeff))})
		}
	}

	// padded copy so the inner loop never branches on borders
	pw, ph := w+2*radius, h+2*radius
	pad := make([]uint8, pw*ph)
	for y := 0; y < ph; y++ {
		sy := reflect101(y-radius, h)
		srow := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+sy):]
		for x := 0; x < pw; x++ {
			pad[y*pw+x] = srow[reflect101(x-radius, w)]
		}
	}
	offsets := make([]int, len(taps))
	for i, t := range taps {
		offsets[i] = t.dy*pw + t.dx
	}

	for y := 0; y < h; y++ {
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			c := (y+radius)*pw + x + radius
			center := int(pad[c])
			var sum, wsum float32
			for i, off := range offsets {
				v := int(pad[c+off])
				d := v - center
				if d < 0 {
					d = -d
				}
				wt := taps[i].w * colorWeight[d]
				sum += wt * float32(v)
				wsum += wt
			}
			out[x] = uint8(math.Round(float64(sum / wsum)))
		}
	}
	return dst
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
