package pipeline

import (
	"image"
	"time"

	"github.com/wudi/platekit/crop"
	"github.com/wudi/platekit/geom"
	"github.com/wudi/platekit/selector"
)

// Outcome is the three-way result of a detection.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNoPlate Outcome = "no_plate"
	OutcomeFailure Outcome = "failure"
)

// Reasons attached to OutcomeNoPlate.
const (
	ReasonNoQuadrilateral = "no quadrilateral contour among top candidates"
	ReasonNoEdges         = "no edges found in image"
)

const messageNoPlate = "no plate detected, try a clearer image"

// StageTiming is the wall time spent in one stage.
type StageTiming struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// Result is everything a detection produced. Images are nil when the run
// stopped before they were built.
type Result struct {
	RunID   string  `json:"run_id"`
	Backend string  `json:"backend"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
	Err     *Error  `json:"error,omitempty"`

	Overlay *image.RGBA  `json:"-"`
	Masked  *image.RGBA  `json:"-"`
	Crop    crop.Region  `json:"-"`
	Quad    geom.Contour `json:"quad"`

	Text           string  `json:"text"`
	RawText        string  `json:"raw_text"`
	Confidence     float64 `json:"confidence"`
	PatternMatched bool    `json:"pattern_matched"`
	Digest         string  `json:"digest,omitempty"`

	Candidates []selector.Evaluation `json:"-"`
	Stages     []StageTiming         `json:"stages"`
}

// Failure returns the run error, or nil unless Outcome is OutcomeFailure.
func (r Result) Failure() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// UserMessage is the caller-facing summary of the outcome.
func (r Result) UserMessage() string {
	switch r.Outcome {
	case OutcomeSuccess:
		if r.Text == "" {
			return "plate found, no characters recognized"
		}
		return "plate: " + r.Text
	case OutcomeNoPlate:
		return messageNoPlate
	}
	if r.Err == nil {
		return "detection failed"
	}
	switch r.Err.Kind {
	case KindEmptyRegion:
		return messageNoPlate
	case KindInvalidImage:
		return "the file is not a readable image"
	case KindNoEdgesFound:
		return "the image has no visible edges"
	case KindRecognition:
		return "plate found but text recognition failed"
	case KindCanceled:
		return "detection canceled"
	case KindInvalidConfig:
		return "the detector is misconfigured"
	}
	return "detection failed"
}
