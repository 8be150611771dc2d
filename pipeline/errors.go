package pipeline

import "fmt"

// Kind classifies a failed detection.
type Kind string

const (
	KindInvalidImage  Kind = "invalid_image"
	KindNoEdgesFound  Kind = "no_edges_found"
	KindEmptyRegion   Kind = "empty_region"
	KindRecognition   Kind = "recognition"
	KindCanceled      Kind = "canceled"
	KindInvalidConfig Kind = "invalid_config"
)

// Error is the failure carried by a Result with OutcomeFailure.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
