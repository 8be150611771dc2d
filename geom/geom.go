// Package geom holds the integer point and contour types shared by the
// localization stages, together with the planar measurements the selector
// relies on (area, perimeter, polygon approximation) and the rasterizers used
// to build masks and overlays.
package geom

import (
	"image"
	"math"
)

// Point is a pixel coordinate with the origin in the upper-left corner.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Image converts p to an image.Point.
func (p Point) Image() image.Point { return image.Point{X: p.X, Y: p.Y} }

// Contour is a closed boundary traced from a binary image. Parent is the index
// of the enclosing contour in the same slice, or -1 for top-level borders.
type Contour struct {
	Points []Point
	Parent int
	Hole   bool
}

// Len returns the number of points in the contour.
func (c Contour) Len() int { return len(c.Points) }

// Area returns the absolute polygon area enclosed by pts (shoelace formula).
// Fewer than three points enclose nothing.
func Area(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int64
	prev := pts[len(pts)-1]
	for _, p := range pts {
		sum += int64(prev.X)*int64(p.Y) - int64(p.X)*int64(prev.Y)
		prev = p
	}
	return math.Abs(float64(sum)) / 2
}

// ArcLength returns the length of the polyline through pts. When closed is
// set the segment from the last point back to the first is included.
func ArcLength(pts []Point, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(pts); i++ {
		total += dist(pts[i-1], pts[i])
	}
	if closed {
		total += dist(pts[len(pts)-1], pts[0])
	}
	return total
}

// BoundingRect returns the smallest rectangle containing every point. The
// result is half-open, so a single point yields a 1x1 rectangle.
func BoundingRect(pts []Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(pts[0].X, pts[0].Y, pts[0].X+1, pts[0].Y+1)
	for _, p := range pts[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X+1 > r.Max.X {
			r.Max.X = p.X + 1
		}
		if p.Y+1 > r.Max.Y {
			r.Max.Y = p.Y + 1
		}
	}
	return r
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
