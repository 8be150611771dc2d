// Package selector picks the plate boundary among traced contours. Contours
// are ranked by enclosed area and the first one whose polygon approximation
// has exactly four vertices wins.
//
// The rule is greedy and order dependent: there is no minimum area or aspect
// ratio check, so a large four-sided noise contour beats a smaller true plate.
package selector

import (
	"sort"

	"github.com/wudi/platekit/geom"
)

// Defaults used by every preset.
const (
	DefaultTopN        = 10
	DefaultApproxRatio = 0.018
)

// Options tunes candidate ranking and polygon approximation.
type Options struct {
	// TopN bounds how many of the largest contours are examined.
	TopN int
	// ApproxRatio scales the approximation tolerance with the perimeter.
	ApproxRatio float64
}

// DefaultOptions returns TopN 10 and ApproxRatio 0.018.
func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, ApproxRatio: DefaultApproxRatio}
}

func (o Options) normalized() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.ApproxRatio <= 0 {
		o.ApproxRatio = DefaultApproxRatio
	}
	return o
}

// Candidate is a contour together with its rank inputs.
type Candidate struct {
	Index   int // position in the detection-ordered input
	Area    float64
	Contour geom.Contour
}

// Evaluation records the outcome of the vertex-count test for one candidate.
type Evaluation struct {
	Candidate
	Perimeter float64
	Approx    []geom.Point
	Accepted  bool
}

// Vertices is the vertex count of the approximated polygon.
func (e Evaluation) Vertices() int { return len(e.Approx) }

// Rank orders contours by area, largest first, and keeps the topN. Equal
// areas keep their detection order.
func Rank(contours []geom.Contour, topN int) []Candidate {
	ranked := make([]Candidate, len(contours))
	for i, c := range contours {
		ranked[i] = Candidate{Index: i, Area: geom.Area(c.Points), Contour: c}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Area > ranked[j].Area })
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Select returns the approximated quadrilateral of the first ranked candidate
// that reduces to four vertices. ok is false when none does; that is the
// normal "no plate" outcome, not an error.
func Select(contours []geom.Contour, opts Options) (quad geom.Contour, ok bool) {
	opts = opts.normalized()
	for _, c := range Rank(contours, opts.TopN) {
		approx := approximate(c.Contour, opts.ApproxRatio)
		if len(approx) == 4 {
			return geom.Contour{Points: approx, Parent: c.Contour.Parent, Hole: c.Contour.Hole}, true
		}
	}
	return geom.Contour{}, false
}

// Trace walks the same ranked candidates as Select and reports every test
// up to and including the accepted one.
func Trace(contours []geom.Contour, opts Options) []Evaluation {
	opts = opts.normalized()
	ranked := Rank(contours, opts.TopN)
	evals := make([]Evaluation, 0, len(ranked))
	for _, c := range ranked {
		perimeter := geom.ArcLength(c.Contour.Points, true)
		approx := approximate(c.Contour, opts.ApproxRatio)
		ev := Evaluation{Candidate: c, Perimeter: perimeter, Approx: approx, Accepted: len(approx) == 4}
		evals = append(evals, ev)
		if ev.Accepted {
			break
		}
	}
	return evals
}

func approximate(c geom.Contour, ratio float64) []geom.Point {
	perimeter := geom.ArcLength(c.Points, true)
	return geom.ApproxPolyDP(c.Points, ratio*perimeter, true)
}
