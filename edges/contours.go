package edges

import (
	"image"

	"github.com/wudi/platekit/geom"
)

// neighbour steps in counter-clockwise order on screen (y grows downward),
// starting east.
var steps = [8]image.Point{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

type border struct {
	hole  bool
	index int // position in the output slice, -1 for the image frame
}

// FindContours traces every border of the non-zero regions of edgeMap with
// Suzuki-Abe border following. Both outer borders and hole borders are
// returned, linked to their enclosing border through Contour.Parent, in the
// order a raster scan discovers them. Straight runs are compressed to their
// end points.
func FindContours(edgeMap *image.Gray) []geom.Contour {
	b := edgeMap.Bounds()
	w, h := b.Dx()+2, b.Dy()+2
	f := make([]int32, w*h)
	for y := 0; y < b.Dy(); y++ {
		row := edgeMap.Pix[edgeMap.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				f[(y+1)*w+x+1] = 1
			}
		}
	}

	var offs [8]int
	for d, s := range steps {
		offs[d] = s.Y*w + s.X
	}

	var contours []geom.Contour
	// borders[nbd] describes the border labelled nbd; label 1 is the frame.
	borders := []border{{}, {hole: true, index: -1}}
	nbd := int32(1)

	for y := 1; y < h-1; y++ {
		lnbd := int32(1)
		for x := 1; x < w-1; x++ {
			p := y*w + x
			v := f[p]
			if v == 0 {
				continue
			}
			var hole bool
			var from int
			switch {
			case v == 1 && f[p-1] == 0:
				from = 4
			case v >= 1 && f[p+1] == 0:
				hole, from = true, 0
				if v > 1 {
					lnbd = v
				}
			default:
				if v != 1 {
					lnbd = abs32(v)
				}
				continue
			}

			nbd++
			ref := borders[lnbd]
			parent := ref.index
			if hole == ref.hole && ref.index >= 0 {
				parent = contours[ref.index].Parent
			} else if hole == ref.hole {
				parent = -1
			}

			raw := follow(f, offs, p, from, nbd)
			pts := make([]geom.Point, len(raw))
			for i, q := range raw {
				pts[i] = geom.Pt(q%w-1+b.Min.X, q/w-1+b.Min.Y)
			}
			contours = append(contours, geom.Contour{
				Points: compress(pts),
				Parent: parent,
				Hole:   hole,
			})
			borders = append(borders, border{hole: hole, index: len(contours) - 1})

			if f[p] != 1 {
				lnbd = abs32(f[p])
			}
		}
	}
	return contours
}

// follow traces one border starting at p, whose zero neighbour lies in
// direction from, labelling visited pixels with nbd. It returns the flat
// indices of the border pixels in tracing order.
func follow(f []int32, offs [8]int, p, from int, nbd int32) []int {
	first := -1
	for k := 0; k < 8; k++ {
		d := (from - k + 8) % 8
		if f[p+offs[d]] != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		f[p] = -nbd
		return []int{p}
	}

	p1 := p + offs[first]
	prev := p1
	cur := p
	var out []int
	for {
		back := direction(offs, prev-cur)
		eastZero := false
		next := -1
		// counter-clockwise scan starting after the previous pixel
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			q := cur + offs[d]
			if f[q] != 0 {
				next = q
				break
			}
			if d == 0 {
				eastZero = true
			}
		}
		if eastZero {
			f[cur] = -nbd
		} else if f[cur] == 1 {
			f[cur] = nbd
		}
		out = append(out, cur)
		if next == p && cur == p1 {
			return out
		}
		prev, cur = cur, next
	}
}

func direction(offs [8]int, delta int) int {
	for d, o := range offs {
		if o == delta {
			return d
		}
	}
	return 0
}

// compress keeps the first point and every point where the step direction
// changes, dropping interior points of horizontal, vertical and diagonal runs.
func compress(pts []geom.Point) []geom.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	stepDir := func(a, b geom.Point) image.Point {
		return image.Pt(sign(b.X-a.X), sign(b.Y-a.Y))
	}
	out := []geom.Point{pts[0]}
	for i := 1; i < n; i++ {
		in := stepDir(pts[i-1], pts[i])
		outDir := stepDir(pts[i], pts[(i+1)%n])
		if in != outDir {
			out = append(out, pts[i])
		}
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
