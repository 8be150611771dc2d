package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// InputOption mutates an OCR input.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata replaces the engine-specific metadata with a copy of metadata.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromGray encodes a grayscale crop as PNG and applies opts.
func InputFromGray(id string, img *image.Gray, opts ...InputOption) (Input, error) {
	if img == nil || img.Bounds().Empty() {
		return Input{}, fmt.Errorf("encode %s: empty image", id)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode %s: %w", id, err)
	}
	in := Input{
		ID:     id,
		Image:  buf.Bytes(),
		Format: ImageFormatPNG,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
