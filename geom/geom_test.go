package geom

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func rectPoints(x0, y0, x1, y1 int) []Point {
	return []Point{Pt(x0, y0), Pt(x0, y1), Pt(x1, y1), Pt(x1, y0)}
}

// densePerimeter walks the border of the rectangle pixel by pixel, as a traced
// contour would before chain compression.
func densePerimeter(x0, y0, x1, y1 int) []Point {
	var pts []Point
	for x := x0; x < x1; x++ {
		pts = append(pts, Pt(x, y0))
	}
	for y := y0; y < y1; y++ {
		pts = append(pts, Pt(x1, y))
	}
	for x := x1; x > x0; x-- {
		pts = append(pts, Pt(x, y1))
	}
	for y := y1; y > y0; y-- {
		pts = append(pts, Pt(x0, y))
	}
	return pts
}

func TestAreaAndArcLength(t *testing.T) {
	pts := rectPoints(10, 20, 110, 70)
	if got := Area(pts); got != 5000 {
		t.Fatalf("Area() = %v, want 5000", got)
	}
	reversed := []Point{pts[3], pts[2], pts[1], pts[0]}
	if got := Area(reversed); got != 5000 {
		t.Fatalf("Area() must ignore orientation, got %v", got)
	}
	if got := ArcLength(pts, true); got != 300 {
		t.Fatalf("ArcLength(closed) = %v, want 300", got)
	}
	if got := ArcLength(pts, false); got != 250 {
		t.Fatalf("ArcLength(open) = %v, want 250", got)
	}
	if Area(pts[:2]) != 0 {
		t.Fatalf("two points enclose no area")
	}
}

func TestBoundingRect(t *testing.T) {
	r := BoundingRect([]Point{Pt(5, 9), Pt(2, 3), Pt(7, 4)})
	if r != image.Rect(2, 3, 8, 10) {
		t.Fatalf("BoundingRect() = %v", r)
	}
	if !BoundingRect(nil).Empty() {
		t.Fatalf("expected empty rectangle for no points")
	}
}

func TestApproxPolyDPRectangle(t *testing.T) {
	pts := densePerimeter(100, 150, 300, 250)
	eps := 0.018 * ArcLength(pts, true)
	got := ApproxPolyDP(pts, eps, true)
	if len(got) != 4 {
		t.Fatalf("expected 4 vertices, got %d: %v", len(got), got)
	}
	want := map[Point]bool{Pt(100, 150): true, Pt(300, 150): true, Pt(300, 250): true, Pt(100, 250): true}
	for _, p := range got {
		if !want[p] {
			t.Fatalf("unexpected vertex %v in %v", p, got)
		}
	}
}

func TestApproxPolyDPStartIndependent(t *testing.T) {
	pts := densePerimeter(0, 0, 80, 40)
	eps := 0.018 * ArcLength(pts, true)
	for _, shift := range []int{0, 7, 33, 101, len(pts) - 1} {
		rotated := append(append([]Point(nil), pts[shift:]...), pts[:shift]...)
		if got := ApproxPolyDP(rotated, eps, true); len(got) != 4 {
			t.Fatalf("shift %d: expected 4 vertices, got %v", shift, got)
		}
	}
}

func TestApproxPolyDPCircleKeepsManyVertices(t *testing.T) {
	var pts []Point
	for i := 0; i < 360; i += 2 {
		a := float64(i) * math.Pi / 180
		pts = append(pts, Pt(int(math.Round(100+60*math.Cos(a))), int(math.Round(100+60*math.Sin(a)))))
	}
	got := ApproxPolyDP(pts, 0.018*ArcLength(pts, true), true)
	if len(got) <= 4 {
		t.Fatalf("circle should not reduce to a quadrilateral, got %d vertices", len(got))
	}
}

func TestApproxPolyDPOpenKeepsEndpoints(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(1, 0), Pt(2, 1), Pt(3, 0), Pt(10, 0)}
	got := ApproxPolyDP(pts, 2, false)
	if len(got) != 2 || got[0] != pts[0] || got[1] != pts[len(pts)-1] {
		t.Fatalf("unexpected open simplification: %v", got)
	}
}

func TestFillPolygonInclusive(t *testing.T) {
	dst := image.NewGray(image.Rect(0, 0, 20, 20))
	FillPolygon(dst, rectPoints(3, 4, 9, 12), 255)
	count := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			on := dst.GrayAt(x, y).Y == 255
			inside := x >= 3 && x <= 9 && y >= 4 && y <= 12
			if on != inside {
				t.Fatalf("pixel (%d,%d) on=%v inside=%v", x, y, on, inside)
			}
			if on {
				count++
			}
		}
	}
	if count != 7*9 {
		t.Fatalf("filled %d pixels, want %d", count, 7*9)
	}
}

func TestFillPolygonClipsToBounds(t *testing.T) {
	dst := image.NewGray(image.Rect(0, 0, 10, 10))
	FillPolygon(dst, rectPoints(-5, -5, 4, 4), 255)
	if dst.GrayAt(0, 0).Y != 255 || dst.GrayAt(4, 4).Y != 255 || dst.GrayAt(5, 5).Y != 0 {
		t.Fatalf("unexpected clipped fill")
	}
}

func TestDrawPolylineThickness(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	blue := color.RGBA{B: 255, A: 255}
	DrawPolyline(dst, rectPoints(10, 10, 30, 30), true, blue, 3)
	for _, p := range []image.Point{{9, 20}, {10, 20}, {11, 20}, {20, 31}} {
		if dst.RGBAAt(p.X, p.Y) != blue {
			t.Fatalf("expected stroke at %v", p)
		}
	}
	if dst.RGBAAt(20, 20) == blue || dst.RGBAAt(12, 20) == blue {
		t.Fatalf("stroke leaked into the interior")
	}
}
