// Package edges turns a smoothed grayscale raster into closed contour
// candidates: a Canny edge map followed by hierarchy-aware border tracing.
// Contours come back unranked, in detection order.
package edges

import (
	"errors"
	"image"

	"github.com/wudi/platekit/geom"
)

// ErrNoEdges reports an edge map with no edge pixel at all.
var ErrNoEdges = errors.New("no edges found")

// Extract runs Canny with th over gray and traces the resulting edge map.
// A completely blank edge map returns an empty slice together with
// ErrNoEdges; otherwise the error is nil and the slice may still be empty.
func Extract(gray *image.Gray, th Thresholds) ([]geom.Contour, error) {
	contours, _, err := ExtractWithMap(gray, th)
	return contours, err
}

// ExtractWithMap is Extract that also hands back the edge map for callers
// that render or measure it.
func ExtractWithMap(gray *image.Gray, th Thresholds) ([]geom.Contour, *image.Gray, error) {
	edgeMap := Canny(gray, th)
	if Count(edgeMap) == 0 {
		return []geom.Contour{}, edgeMap, ErrNoEdges
	}
	contours := FindContours(edgeMap)
	if contours == nil {
		contours = []geom.Contour{}
	}
	return contours, edgeMap, nil
}
