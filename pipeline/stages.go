package pipeline

import (
	"image"
	"sort"

	"github.com/wudi/platekit/edges"
	"github.com/wudi/platekit/geom"
	"github.com/wudi/platekit/preprocess"
)

// Stages is the raster backend behind a Pipeline: everything from the decoded
// image up to the unranked contour list.
type Stages interface {
	Name() string
	Preprocess(raw image.Image) (*image.RGBA, *image.Gray, error)
	// ExtractContours returns edges.ErrNoEdges when the edge map is blank.
	ExtractContours(gray *image.Gray) ([]geom.Contour, error)
}

// StageFactory builds a backend for a configuration.
type StageFactory func(Config) (Stages, error)

var backends = map[string]StageFactory{
	"native": func(cfg Config) (Stages, error) { return NativeStages(cfg), nil },
}

// RegisterBackend makes a stage backend selectable by name. It is meant to be
// called from init functions.
func RegisterBackend(name string, factory StageFactory) {
	backends[name] = factory
}

// Backend builds the named backend for cfg.
func Backend(name string, cfg Config) (Stages, bool, error) {
	factory, ok := backends[name]
	if !ok {
		return nil, false, nil
	}
	st, err := factory(cfg)
	return st, true, err
}

// BackendNames lists the registered backends in sorted order.
func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NativeStages returns the pure Go backend.
func NativeStages(cfg Config) Stages {
	return nativeStages{opts: cfg.preprocessOptions(), th: cfg.thresholds()}
}

type nativeStages struct {
	opts preprocess.Options
	th   edges.Thresholds
}

func (nativeStages) Name() string { return "native" }

func (s nativeStages) Preprocess(raw image.Image) (*image.RGBA, *image.Gray, error) {
	return preprocess.Run(raw, s.opts)
}

func (s nativeStages) ExtractContours(gray *image.Gray) ([]geom.Contour, error) {
	return edges.Extract(gray, s.th)
}
