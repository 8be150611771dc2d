package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const ImageFormatPNG ImageFormat = "image/png"

// Region describes a rectangular area in pixel coordinates with the origin in
// the upper-left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is a single image submitted for recognition.
type Input struct {
	// ID is echoed back in the corresponding Result.
	ID string
	// Image is the encoded payload in Format.
	Image  []byte
	Format ImageFormat
	// DPI is the effective resolution hint; zero means unknown.
	DPI int
	// Languages lists trained-data names such as "eng".
	Languages []string
	// Metadata carries engine-specific variables (tessedit_* for Tesseract).
	Metadata map[string]string
}

// TextWord represents a single recognized token.
type TextWord struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// TextLine groups words that share a baseline.
type TextLine struct {
	Text       string
	Bounds     Region
	Words      []TextWord
	Confidence float64
}

// TextBlock aggregates lines that form a logical block.
type TextBlock struct {
	Text       string
	Bounds     Region
	Lines      []TextLine
	Confidence float64
}

// Result captures engine output for a single input.
type Result struct {
	InputID   string
	PlainText string
	Blocks    []TextBlock
	Language  string
}

// Confidence is the mean block confidence in [0,1], or 0 without blocks.
func (r Result) Confidence() float64 {
	if len(r.Blocks) == 0 {
		return 0
	}
	var sum float64
	for _, b := range r.Blocks {
		sum += b.Confidence
	}
	return sum / float64(len(r.Blocks))
}

// Engine is the OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
