package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wudi/platekit/crop"
)

// Config controls how a plate crop is handed to an engine.
type Config struct {
	// PSM is the Tesseract page segmentation mode; zero leaves the engine default.
	PSM int
	// Whitelist restricts the output alphabet. Empty disables filtering.
	Whitelist string
	Languages []string
	DPI       int
}

// Recognition is the normalized text read from a plate region.
type Recognition struct {
	Text       string
	Region     crop.Region
	Confidence float64
	// Raw is the engine output before normalization.
	Raw string
}

// Recognize runs engine over region and normalizes the text. An empty string
// is a valid recognition.
func Recognize(ctx context.Context, engine Engine, region crop.Region, cfg Config) (Recognition, error) {
	if region.Empty() {
		return Recognition{}, fmt.Errorf("recognize: %w", crop.ErrEmptyRegion)
	}
	if engine == nil {
		engine = DefaultEngine()
	}
	opts := []InputOption{WithDPI(cfg.DPI)}
	if len(cfg.Languages) > 0 {
		opts = append(opts, WithLanguages(cfg.Languages...))
	}
	if cfg.PSM > 0 {
		opts = append(opts, WithTesseractPSM(cfg.PSM))
	}
	if cfg.Whitelist != "" {
		opts = append(opts, WithTesseractWhitelist(cfg.Whitelist))
	}
	in, err := InputFromGray("plate", region.Image, opts...)
	if err != nil {
		return Recognition{}, err
	}
	res, err := engine.Recognize(ctx, in)
	if err != nil {
		return Recognition{}, fmt.Errorf("recognize with %s: %w", engine.Name(), err)
	}
	return Recognition{
		Text:       Normalize(res.PlainText, cfg.Whitelist),
		Region:     region,
		Confidence: res.Confidence(),
		Raw:        res.PlainText,
	}, nil
}

// Normalize trims text and folds whitespace runs to a single space. With a
// non-empty whitelist every rune outside it is dropped, spaces included.
func Normalize(text, whitelist string) string {
	text = strings.Join(strings.Fields(text), " ")
	if whitelist == "" {
		return text
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(whitelist, r) {
			return r
		}
		return -1
	}, text)
}

// MatchPattern reports whether text looks like a plate according to the
// regular expression pattern. Spaces, dashes and dots are ignored and letters
// are upper-cased before matching. An empty pattern never matches.
func MatchPattern(text, pattern string) (bool, error) {
	if pattern == "" {
		return false, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("plate pattern: %w", err)
	}
	compact := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(strings.ToUpper(text))
	return re.MatchString(compact), nil
}
