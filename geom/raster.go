package geom

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
)

// Line visits every pixel of the Bresenham line from a to b, endpoints
// included.
func Line(a, b Point, visit func(x, y int)) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		visit(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// FillPolygon sets every pixel on or inside the closed polygon pts to value.
// Interior spans come from an even-odd scanline pass; the outline is drawn
// separately so boundary pixels are always included.
func FillPolygon(dst *image.Gray, pts []Point, value uint8) {
	if len(pts) == 0 {
		return
	}
	b := dst.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(b) {
			dst.Pix[dst.PixOffset(x, y)] = value
		}
	}

	box := BoundingRect(pts)
	minY, maxY := max(box.Min.Y, b.Min.Y), min(box.Max.Y-1, b.Max.Y-1)
	xs := make([]float64, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		fy := float64(y)
		for i := range pts {
			p, q := pts[i], pts[(i+1)%len(pts)]
			if p.Y == q.Y {
				continue
			}
			if p.Y > q.Y {
				p, q = q, p
			}
			// half-open on the upper end so shared vertices count once
			if y < p.Y || y >= q.Y {
				continue
			}
			t := (fy - float64(p.Y)) / float64(q.Y-p.Y)
			xs = append(xs, float64(p.X)+t*float64(q.X-p.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i]))
			x1 := int(math.Floor(xs[i+1]))
			for x := max(x0, b.Min.X); x <= min(x1, b.Max.X-1); x++ {
				dst.Pix[dst.PixOffset(x, y)] = value
			}
		}
	}

	for i := range pts {
		Line(pts[i], pts[(i+1)%len(pts)], set)
	}
}

// DrawPolyline strokes the polyline through pts with a square pen of the
// given thickness.
func DrawPolyline(dst draw.Image, pts []Point, closed bool, c color.Color, thickness int) {
	if len(pts) == 0 {
		return
	}
	if thickness < 1 {
		thickness = 1
	}
	b := dst.Bounds()
	lo := -(thickness - 1) / 2
	hi := lo + thickness
	stamp := func(x, y int) {
		for oy := lo; oy < hi; oy++ {
			for ox := lo; ox < hi; ox++ {
				if p := image.Pt(x+ox, y+oy); p.In(b) {
					dst.Set(p.X, p.Y, c)
				}
			}
		}
	}
	if len(pts) == 1 {
		stamp(pts[0].X, pts[0].Y)
		return
	}
	for i := 1; i < len(pts); i++ {
		Line(pts[i-1], pts[i], stamp)
	}
	if closed {
		Line(pts[len(pts)-1], pts[0], stamp)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
