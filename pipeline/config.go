package pipeline

import (
	"fmt"
	"image/color"
	"regexp"
	"sort"

	"github.com/wudi/platekit/edges"
	"github.com/wudi/platekit/ocr"
	"github.com/wudi/platekit/preprocess"
	"github.com/wudi/platekit/selector"
)

// Config holds every tunable of a detection run. The zero value is not
// usable; start from DefaultConfig or a preset.
type Config struct {
	Width     int
	Height    int
	Bilateral preprocess.Params

	EdgeLow  float64
	EdgeHigh float64
	// StrictEdges turns a blank edge map into a KindNoEdgesFound failure
	// instead of a "no plate" outcome.
	StrictEdges bool

	TopN        int
	ApproxRatio float64

	PSM       int
	Whitelist string
	Languages []string
	DPI       int
	// PlatePattern is an optional regular expression reported through
	// Result.PatternMatched. It never rejects a recognition.
	PlatePattern string

	OverlayColor     color.RGBA
	OverlayThickness int
	OverlayLabel     bool
}

// Preset names.
const (
	PresetCharacter    = "character"
	PresetBlock        = "block"
	PresetConservative = "conservative"
)

// Presets holds the built-in configurations keyed by name.
var Presets = map[string]Config{
	PresetCharacter:    preset(edges.Aggressive, ocr.PSMSingleChar, 19),
	PresetBlock:        preset(edges.Aggressive, ocr.PSMSingleBlock, 19),
	PresetConservative: preset(edges.Conservative, ocr.PSMSingleBlock, 15),
}

func preset(th edges.Thresholds, psm, diameter int) Config {
	return Config{
		Width:            preprocess.DefaultWidth,
		Height:           preprocess.DefaultHeight,
		Bilateral:        preprocess.Params{Diameter: diameter, SigmaColor: 15, SigmaSpace: 15},
		EdgeLow:          th.Low,
		EdgeHigh:         th.High,
		TopN:             selector.DefaultTopN,
		ApproxRatio:      selector.DefaultApproxRatio,
		PSM:              psm,
		Whitelist:        ocr.PlateWhitelist,
		Languages:        []string{"eng"},
		OverlayColor:     color.RGBA{B: 255, A: 255},
		OverlayThickness: 3,
		OverlayLabel:     true,
	}
}

// DefaultConfig returns the character preset.
func DefaultConfig() Config {
	return Preset(PresetCharacter)
}

// Preset returns a copy of the named preset. Unknown names yield the zero
// Config, which Validate rejects.
func Preset(name string) Config {
	cfg, ok := Presets[name]
	if !ok {
		return Config{}
	}
	cfg.Languages = append([]string(nil), cfg.Languages...)
	return cfg
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("working size %dx%d must be positive", c.Width, c.Height)
	case c.Bilateral.Diameter <= 0:
		return fmt.Errorf("bilateral diameter %d must be positive", c.Bilateral.Diameter)
	case c.EdgeLow < 0 || c.EdgeHigh <= 0:
		return fmt.Errorf("edge thresholds %v/%v must be positive", c.EdgeLow, c.EdgeHigh)
	case c.EdgeLow > c.EdgeHigh:
		return fmt.Errorf("edge low threshold %v exceeds high threshold %v", c.EdgeLow, c.EdgeHigh)
	case c.TopN <= 0:
		return fmt.Errorf("top-n %d must be positive", c.TopN)
	case c.ApproxRatio <= 0 || c.ApproxRatio >= 1:
		return fmt.Errorf("approximation ratio %v must be in (0,1)", c.ApproxRatio)
	case c.PSM < 0 || c.PSM > 13:
		return fmt.Errorf("page segmentation mode %d out of range", c.PSM)
	}
	if c.PlatePattern != "" {
		if _, err := regexp.Compile(c.PlatePattern); err != nil {
			return fmt.Errorf("plate pattern: %w", err)
		}
	}
	return nil
}

func (c Config) preprocessOptions() preprocess.Options {
	return preprocess.Options{Width: c.Width, Height: c.Height, Bilateral: c.Bilateral}
}

func (c Config) thresholds() edges.Thresholds {
	return edges.Thresholds{Low: c.EdgeLow, High: c.EdgeHigh}
}

func (c Config) selectorOptions() selector.Options {
	return selector.Options{TopN: c.TopN, ApproxRatio: c.ApproxRatio}
}
