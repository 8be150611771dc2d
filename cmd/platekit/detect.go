package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/wudi/platekit/config"
	"github.com/wudi/platekit/observability"
	"github.com/wudi/platekit/ocr"
	"github.com/wudi/platekit/ocr/tesseract"
	"github.com/wudi/platekit/pipeline"
	"github.com/wudi/platekit/report"
)

type detectFlags struct {
	preset      string
	backend     string
	engine      string
	edgeLow     float64
	edgeHigh    float64
	strictEdges bool
	psm         int
	whitelist   string
	noWhitelist bool
	workers     int
	out         string
	report      string
	jsonOut     bool
	quiet       bool
}

func (a *app) detectCmd() *cobra.Command {
	var f detectFlags
	cmd := &cobra.Command{
		Use:   "detect [flags] IMAGE...",
		Short: "Detect and read the license plate in each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.detect(cmd, f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.preset, "preset", "p", "", "tuning preset (see `platekit presets`)")
	fl.StringVar(&f.backend, "backend", "", "raster backend: native, or opencv when built with -tags gocv")
	fl.StringVar(&f.engine, "engine", "", "ocr engine: tesseract or noop")
	fl.Float64Var(&f.edgeLow, "edge-low", 0, "Canny low threshold")
	fl.Float64Var(&f.edgeHigh, "edge-high", 0, "Canny high threshold")
	fl.BoolVar(&f.strictEdges, "strict-edges", false, "treat an image without edges as a failure")
	fl.IntVar(&f.psm, "psm", 0, "tesseract page segmentation mode")
	fl.StringVar(&f.whitelist, "whitelist", "", "restrict recognized characters to this set")
	fl.BoolVar(&f.noWhitelist, "no-whitelist", false, "keep every recognized character")
	fl.IntVarP(&f.workers, "workers", "w", 0, "concurrent detections (default: number of CPUs)")
	fl.StringVarP(&f.out, "out", "o", "", "directory for crop, overlay and JSON files")
	fl.StringVar(&f.report, "report", "", "write an HTML report to this path")
	fl.BoolVar(&f.jsonOut, "json", false, "print results as JSON lines")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "hide progress")
	cmd.MarkFlagsMutuallyExclusive("whitelist", "no-whitelist")
	return cmd
}

// apply copies the flags the user set onto cfg.
func (f detectFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("preset") {
		cfg.Preset = f.preset
	}
	if changed("backend") {
		cfg.Backend = f.backend
	}
	if changed("engine") {
		cfg.OCR.Engine = f.engine
	}
	if changed("edge-low") {
		cfg.Pipeline.Edges.Low = f.edgeLow
	}
	if changed("edge-high") {
		cfg.Pipeline.Edges.High = f.edgeHigh
	}
	if changed("strict-edges") {
		cfg.Pipeline.Edges.Strict = f.strictEdges
	}
	if changed("psm") {
		cfg.OCR.PSM = f.psm
	}
	if changed("whitelist") {
		w := f.whitelist
		cfg.OCR.Whitelist = &w
	}
	if f.noWhitelist {
		empty := ""
		cfg.OCR.Whitelist = &empty
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("out") {
		cfg.OutputDir = f.out
	}
}

type job struct {
	index int
	file  string
}

func (a *app) detect(cmd *cobra.Command, f detectFlags, files []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}
	pc, err := cfg.PipelineConfig()
	if err != nil {
		return usageError(err)
	}

	logger := a.logger(cfg)
	stages, ok, err := pipeline.Backend(cfg.Backend, pc)
	if !ok {
		return usageError(fmt.Errorf("unknown backend %q", cfg.Backend))
	}
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("backend %s: %w", cfg.Backend, err)}
	}
	p, err := pipeline.New(pc,
		pipeline.WithStages(stages),
		pipeline.WithEngine(engineFor(cfg.OCR)),
		pipeline.WithLogger(logger),
		pipeline.WithTracer(observability.NewLogTracer(logger)),
	)
	if err != nil {
		return usageError(err)
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return &exitError{code: exitFailure, err: fmt.Errorf("create output dir: %w", err)}
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(files))

	results := a.runAll(cmd.Context(), p, files, workers, logger, f.quiet || f.jsonOut)

	failed := 0
	stems := artifactStems(files)
	enc := json.NewEncoder(a.stdout)
	for i, r := range results {
		if r.Outcome == pipeline.OutcomeFailure {
			failed++
		}
		if f.jsonOut {
			if err := enc.Encode(jsonLine{File: files[i], Result: r}); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
		} else {
			printResult(a.stdout, files[i], r)
		}
		if cfg.OutputDir != "" {
			if err := writeArtifacts(filepath.Join(cfg.OutputDir, stems[i]), files[i], r); err != nil {
				logger.Error("write artifacts", observability.String("file", files[i]), observability.Error("error", err))
				failed++
			}
		}
	}

	if f.report != "" {
		if err := writeReport(f.report, files, results); err != nil {
			return &exitError{code: exitFailure, err: err}
		}
	}
	if failed > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("%d of %d images failed", failed, len(files))}
	}
	return nil
}

// runAll fans files out to workers and returns results in input order.
func (a *app) runAll(ctx context.Context, p *pipeline.Pipeline, files []string, workers int, logger observability.Logger, quiet bool) []pipeline.Result {
	results := make([]pipeline.Result, len(files))
	prog := newProgress(a.stderr, len(files), quiet)

	jobs := make(chan job)
	var wg sync.WaitGroup
	var mu sync.Mutex
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := detectFile(ctx, p, j.file)
				results[j.index] = r
				mu.Lock()
				prog.Done()
				mu.Unlock()
			}
		}()
	}
	for i, file := range files {
		jobs <- job{index: i, file: file}
	}
	close(jobs)
	wg.Wait()
	prog.Finish()
	logger.Debug("batch finished", observability.Int("images", len(files)), observability.Int("workers", workers))
	return results
}

func detectFile(ctx context.Context, p *pipeline.Pipeline, file string) pipeline.Result {
	raw, err := os.ReadFile(file)
	if err != nil {
		return pipeline.Result{
			Outcome: pipeline.OutcomeFailure,
			Err:     &pipeline.Error{Kind: pipeline.KindInvalidImage, Message: "read image file", Err: err},
		}
	}
	return p.Detect(ctx, raw, nil)
}

func engineFor(c config.OCRConfig) ocr.Engine {
	if c.Engine == "noop" {
		return ocr.NoopEngine()
	}
	var opts []tesseract.Option
	if c.TessdataPrefix != "" {
		opts = append(opts, tesseract.WithTessdataPrefix(c.TessdataPrefix))
	}
	if len(c.Variables) > 0 {
		opts = append(opts, tesseract.WithVariables(c.Variables))
	}
	return tesseract.New(opts...)
}

type jsonLine struct {
	File string `json:"file"`
	pipeline.Result
}

// artifactStems names each input's output files after its base name. Inputs
// sharing a base name (a/car.jpg, b/car.jpg) get their 1-based position
// appended so none overwrites another.
func artifactStems(files []string) []string {
	stems := make([]string, len(files))
	seen := map[string]int{}
	for i, file := range files {
		stems[i] = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		seen[stems[i]]++
	}
	for i, stem := range stems {
		if seen[stem] < 2 {
			continue
		}
		name := fmt.Sprintf("%s-%d", stem, i+1)
		for seen[name] > 0 {
			name += "_"
		}
		seen[name]++
		stems[i] = name
	}
	return stems
}

// writeArtifacts stores <stem>.crop.png, <stem>.overlay.png and <stem>.json
// for one input.
func writeArtifacts(stem, file string, r pipeline.Result) error {
	if !r.Crop.Empty() {
		if err := writePNG(stem+".crop.png", r.Crop.Image); err != nil {
			return err
		}
	}
	if r.Overlay != nil {
		if err := writePNG(stem+".overlay.png", r.Overlay); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(jsonLine{File: file, Result: r}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(stem+".json", append(data, '\n'), 0o644)
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}

func writeReport(path string, files []string, results []pipeline.Result) error {
	entries := make([]report.Entry, len(files))
	for i := range files {
		entries[i] = report.Entry{File: files[i], Result: results[i]}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.Render(out, "Plate detection report", entries); err != nil {
		out.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return out.Close()
}
