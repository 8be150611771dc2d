// Package tesseract provides the gosseract-backed plate recognizer. Importing
// it installs the engine as ocr.DefaultEngine.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/wudi/platekit/ocr"
)

func init() {
	ocr.SetDefaultEngine(New())
}

// Option configures an Engine.
type Option func(*Engine)

// WithTessdataPrefix points the engine at a trained-data directory instead
// of the library default.
func WithTessdataPrefix(dir string) Option {
	return func(e *Engine) { e.tessdataPrefix = dir }
}

// WithVariables sets Tesseract variables applied to every call before the
// per-input metadata.
func WithVariables(vars map[string]string) Option {
	return func(e *Engine) {
		for k, v := range vars {
			e.vars[k] = v
		}
	}
}

// Engine implements ocr.Engine. Each call gets its own gosseract client, so
// an Engine is safe for concurrent use.
type Engine struct {
	newClient      func() *gosseract.Client
	tessdataPrefix string
	vars           map[string]string
}

// New constructs a Tesseract-backed engine.
func New(opts ...Option) *Engine {
	e := &Engine{newClient: gosseract.NewClient, vars: map[string]string{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "tesseract" }

// Variables returns a copy of the variables applied to every call.
func (e *Engine) Variables() map[string]string {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Version reports the linked Tesseract library version.
func Version() string {
	c := gosseract.NewClient()
	defer c.Close()
	return c.Version()
}

// Recognize reads the plate crop carried by in.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	c := e.newClient()
	defer c.Close()
	if err := e.configure(c, in); err != nil {
		return ocr.Result{}, err
	}
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: load crop: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: recognize: %w", err)
	}
	text = strings.TrimSpace(text)

	var words []ocr.TextWord
	if boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		words = wordsFrom(boxes)
	}
	line := ocr.TextLine{Text: text, Bounds: mergeBounds(words), Words: words, Confidence: meanConfidence(words)}
	res := ocr.Result{
		InputID:   in.ID,
		PlainText: text,
		Blocks:    []ocr.TextBlock{{Text: text, Bounds: line.Bounds, Lines: []ocr.TextLine{line}, Confidence: line.Confidence}},
	}
	if len(in.Languages) > 0 {
		res.Language = in.Languages[0]
	}
	return res, nil
}

// configure applies tessdata, languages and one merged settings table of
// DPI, engine variables and input metadata; later sources win. The page
// segmentation mode must stay in that table: gosseract replays variables
// after its lazy Init, which discards SetPageSegMode calls made before it.
func (e *Engine) configure(c *gosseract.Client, in ocr.Input) error {
	if e.tessdataPrefix != "" {
		c.SetTessdataPrefix(e.tessdataPrefix)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return fmt.Errorf("tesseract: languages %v: %w", in.Languages, err)
		}
	}
	settings, err := e.settings(in)
	if err != nil {
		return err
	}
	for k, v := range settings {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return fmt.Errorf("tesseract: variable %s: %w", k, err)
		}
	}
	return nil
}

func (e *Engine) settings(in ocr.Input) (map[string]string, error) {
	settings := map[string]string{}
	if in.DPI > 0 {
		settings[ocr.VarDPI] = strconv.Itoa(in.DPI)
	}
	for _, src := range []map[string]string{e.vars, in.Metadata} {
		for k, v := range src {
			settings[k] = v
		}
	}
	if v, ok := settings[ocr.VarPageSegMode]; ok {
		mode, err := strconv.Atoi(v)
		if err != nil || mode < 0 || mode > 13 {
			return nil, fmt.Errorf("tesseract: page segmentation mode %q is not in 0..13", v)
		}
	}
	return settings, nil
}

// wordsFrom converts gosseract word boxes; confidences become fractions.
func wordsFrom(boxes []gosseract.BoundingBox) []ocr.TextWord {
	words := make([]ocr.TextWord, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		words = append(words, ocr.TextWord{
			Text:       b.Word,
			Bounds:     regionOf(b.Box),
			Confidence: b.Confidence / 100,
		})
	}
	return words
}

func meanConfidence(words []ocr.TextWord) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

func mergeBounds(words []ocr.TextWord) ocr.Region {
	var r image.Rectangle
	for _, w := range words {
		r = r.Union(rectOf(w.Bounds))
	}
	return regionOf(r)
}

func regionOf(r image.Rectangle) ocr.Region {
	return ocr.Region{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

func rectOf(r ocr.Region) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}
