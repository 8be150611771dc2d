// Package pipeline runs plate localization end to end: decode, preprocess,
// edge and contour extraction, quadrilateral selection, mask crop and OCR.
//
// A Pipeline is immutable once built and may be shared between goroutines.
// Every Detect call allocates its own rasters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/platekit/crop"
	"github.com/wudi/platekit/edges"
	"github.com/wudi/platekit/geom"
	"github.com/wudi/platekit/observability"
	"github.com/wudi/platekit/ocr"
	"github.com/wudi/platekit/preprocess"
	"github.com/wudi/platekit/selector"
)

// Pipeline is a configured plate detector.
type Pipeline struct {
	cfg    Config
	stages Stages
	engine ocr.Engine
	logger observability.Logger
	tracer observability.Tracer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l observability.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer sets the tracer that receives one span per stage.
func WithTracer(t observability.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithEngine overrides ocr.DefaultEngine.
func WithEngine(e ocr.Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithStages replaces the native raster backend.
func WithStages(s Stages) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.stages = s
		}
	}
}

// New validates cfg and builds a Pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	cfg.Languages = append([]string(nil), cfg.Languages...)
	p := &Pipeline{
		cfg:    cfg,
		stages: NativeStages(cfg),
		engine: ocr.DefaultEngine(),
		logger: observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config {
	cfg := p.cfg
	cfg.Languages = append([]string(nil), cfg.Languages...)
	return cfg
}

// DetectPlate runs DefaultConfig with the default OCR engine.
func DetectPlate(ctx context.Context, raw []byte, charset *string) Result {
	return detectWith(ctx, DefaultConfig(), raw, charset)
}

// detectWith builds a one-off Pipeline for cfg. A configuration that does not
// validate is reported as KindInvalidConfig, never as a bad image.
func detectWith(ctx context.Context, cfg Config, raw []byte, charset *string) Result {
	p, err := New(cfg)
	if err != nil {
		return Result{Outcome: OutcomeFailure, Err: newError(KindInvalidConfig, "build pipeline", err)}
	}
	return p.Detect(ctx, raw, charset)
}

// Detect localizes and reads the plate in the encoded image raw. A nil
// charset keeps the configured whitelist; a pointer to "" disables
// filtering. The returned Result always has an Outcome; failures carry a
// *Error.
func (p *Pipeline) Detect(ctx context.Context, raw []byte, charset *string) Result {
	res := Result{RunID: uuid.NewString(), Backend: p.stages.Name()}
	log := p.logger.With(observability.String("run_id", res.RunID), observability.String("backend", res.Backend))
	started := time.Now()
	defer func() {
		fields := []observability.Field{
			observability.String("outcome", string(res.Outcome)),
			observability.Duration("elapsed", time.Since(started)),
		}
		switch res.Outcome {
		case OutcomeSuccess:
			log.Info("plate detected", append(fields,
				observability.String("text", res.Text),
				observability.Float64("confidence", res.Confidence),
				observability.String("digest", res.Digest))...)
		case OutcomeNoPlate:
			log.Info("no plate", append(fields, observability.String("reason", res.Reason))...)
		default:
			log.Warn("detection failed", append(fields, observability.Error("error", res.Err))...)
		}
	}()

	whitelist := p.cfg.Whitelist
	if charset != nil {
		whitelist = *charset
	}

	var src image.Image
	if err := p.stage(ctx, &res, observability.MetricDecodeTime, func() (err error) {
		src, err = preprocess.Decode(raw)
		return err
	}); err != nil {
		return p.fail(&res, kindOf(err, KindInvalidImage), "decode image", err)
	}

	var working *image.RGBA
	var gray *image.Gray
	if err := p.stage(ctx, &res, observability.MetricPreprocessTime, func() (err error) {
		working, gray, err = p.stages.Preprocess(src)
		return err
	}); err != nil {
		return p.fail(&res, kindOf(err, KindInvalidImage), "preprocess", err)
	}

	var contours []geom.Contour
	err := p.stage(ctx, &res, observability.MetricContourTime, func() (err error) {
		contours, err = p.stages.ExtractContours(gray)
		return err
	})
	switch {
	case errors.Is(err, edges.ErrNoEdges):
		if p.cfg.StrictEdges {
			return p.fail(&res, KindNoEdgesFound, "extract contours", err)
		}
		return p.noPlate(&res, working, ReasonNoEdges)
	case err != nil:
		return p.fail(&res, kindOf(err, KindInvalidImage), "extract contours", err)
	}
	log.Debug("contours extracted", observability.Int(observability.MetricContourCount, len(contours)))

	var quad geom.Contour
	found := false
	if err := p.stage(ctx, &res, observability.MetricSelectTime, func() error {
		res.Candidates = selector.Trace(contours, p.cfg.selectorOptions())
		for _, ev := range res.Candidates {
			log.Debug("candidate",
				observability.Int("index", ev.Index),
				observability.Float64("area", ev.Area),
				observability.Float64("perimeter", ev.Perimeter),
				observability.Int("vertices", ev.Vertices()))
			if ev.Accepted {
				quad = geom.Contour{Points: ev.Approx, Parent: ev.Contour.Parent, Hole: ev.Contour.Hole}
				found = true
			}
		}
		return nil
	}); err != nil {
		return p.fail(&res, KindCanceled, "select", err)
	}
	if !found {
		return p.noPlate(&res, working, ReasonNoQuadrilateral)
	}
	res.Quad = quad

	var region crop.Region
	if err := p.stage(ctx, &res, observability.MetricCropTime, func() (err error) {
		region, err = crop.Crop(gray, quad)
		if err != nil {
			return err
		}
		res.Masked = crop.Apply(working, crop.Mask(working.Bounds(), quad))
		return nil
	}); err != nil {
		if errors.Is(err, crop.ErrEmptyRegion) {
			log.Error("selected quadrilateral covers no pixels", observability.Error("error", err))
		}
		res.Overlay = drawOverlay(working, quad, "", p.cfg)
		return p.fail(&res, kindOf(err, KindEmptyRegion), "crop plate region", err)
	}
	res.Crop = region
	res.Digest = digest(region.Image)

	var rec ocr.Recognition
	if err := p.stage(ctx, &res, observability.MetricOCRTime, func() (err error) {
		rec, err = ocr.Recognize(ctx, p.engine, region, ocr.Config{
			PSM:       p.cfg.PSM,
			Whitelist: whitelist,
			Languages: p.cfg.Languages,
			DPI:       p.cfg.DPI,
		})
		return err
	}); err != nil {
		res.Overlay = drawOverlay(working, quad, "", p.cfg)
		return p.fail(&res, kindOf(err, KindRecognition), "recognize text", err)
	}
	res.Text = rec.Text
	res.RawText = rec.Raw
	res.Confidence = rec.Confidence
	if p.cfg.PlatePattern != "" {
		// the pattern was validated in New
		res.PatternMatched, _ = ocr.MatchPattern(rec.Text, p.cfg.PlatePattern)
	}
	res.Overlay = drawOverlay(working, quad, rec.Text, p.cfg)
	res.Outcome = OutcomeSuccess
	return res
}

// stage runs fn inside a span, records its timing and checks ctx before
// starting.
func (p *Pipeline) stage(ctx context.Context, res *Result, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, span := p.tracer.StartSpan(ctx, name)
	start := time.Now()
	err := fn()
	res.Stages = append(res.Stages, StageTiming{Name: name, Elapsed: time.Since(start)})
	if err != nil {
		span.SetError(err)
	}
	span.Finish()
	return err
}

func (p *Pipeline) fail(res *Result, kind Kind, msg string, err error) Result {
	res.Outcome = OutcomeFailure
	res.Err = newError(kind, msg, err)
	return *res
}

func (p *Pipeline) noPlate(res *Result, working *image.RGBA, reason string) Result {
	res.Outcome = OutcomeNoPlate
	res.Reason = reason
	res.Overlay = drawOverlay(working, geom.Contour{}, "", p.cfg)
	return *res
}

// kindOf maps context errors to KindCanceled and everything else to def.
func kindOf(err error, def Kind) Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return def
}
