package geom

import "math"

// ApproxPolyDP reduces pts to its dominant vertices with the Douglas-Peucker
// algorithm: every removed point lies within epsilon of the simplified
// polyline. For closed curves the split is anchored on two mutually distant
// points so the result does not depend on where tracing started, and a final
// pass drops vertices that sit within epsilon of the chord joining their
// neighbours.
func ApproxPolyDP(pts []Point, epsilon float64, closed bool) []Point {
	if len(pts) < 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	if !closed {
		return simplifyChain(pts, epsilon)
	}

	a := farthestFrom(pts, pts[0])
	b := farthestFrom(pts, pts[a])
	if dist(pts[a], pts[b]) <= epsilon {
		return []Point{pts[a]}
	}

	n := len(pts)
	first := make([]Point, 0, n)
	for i := a; ; i = (i + 1) % n {
		first = append(first, pts[i])
		if i == b {
			break
		}
	}
	second := make([]Point, 0, n)
	for i := b; ; i = (i + 1) % n {
		second = append(second, pts[i])
		if i == a {
			break
		}
	}

	left := simplifyChain(first, epsilon)
	right := simplifyChain(second, epsilon)
	out := make([]Point, 0, len(left)+len(right))
	out = append(out, left[:len(left)-1]...)
	out = append(out, right[:len(right)-1]...)
	return dropCollinear(out, epsilon)
}

// simplifyChain runs Douglas-Peucker on an open chain, always keeping both
// endpoints.
func simplifyChain(chain []Point, epsilon float64) []Point {
	last := len(chain) - 1
	if last < 2 {
		return append([]Point(nil), chain...)
	}
	keep := make([]bool, len(chain))
	keep[0], keep[last] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}
		idx, d := -1, 0.0
		for i := s.lo + 1; i < s.hi; i++ {
			if dd := lineDistance(chain[i], chain[s.lo], chain[s.hi]); dd > d {
				idx, d = i, dd
			}
		}
		if idx >= 0 && d > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make([]Point, 0, len(chain))
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// dropCollinear removes vertices of a closed polygon that lie within epsilon
// of the line through their neighbours, repeating until stable.
func dropCollinear(poly []Point, epsilon float64) []Point {
	for len(poly) > 3 {
		removed := false
		for i := 0; i < len(poly) && len(poly) > 3; i++ {
			prev := poly[(i+len(poly)-1)%len(poly)]
			next := poly[(i+1)%len(poly)]
			if lineDistance(poly[i], prev, next) <= epsilon {
				poly = append(poly[:i], poly[i+1:]...)
				removed = true
				i--
			}
		}
		if !removed {
			break
		}
	}
	return poly
}

func farthestFrom(pts []Point, origin Point) int {
	idx, best := 0, -1.0
	for i, p := range pts {
		dx, dy := float64(p.X-origin.X), float64(p.Y-origin.Y)
		if d := dx*dx + dy*dy; d > best {
			idx, best = i, d
		}
	}
	return idx
}

// lineDistance is the distance from p to the infinite line through a and b,
// falling back to the point distance when a and b coincide.
func lineDistance(p, a, b Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return dist(p, a)
	}
	return math.Abs(dx*float64(p.Y-a.Y)-dy*float64(p.X-a.X)) / length
}
