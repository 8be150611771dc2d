// Package config loads CLI configuration from YAML, .env files and PLATEKIT_*
// environment variables, and turns it into a pipeline.Config.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wudi/platekit/pipeline"
)

// Config is the file and environment facing configuration. Zero values in
// the pipeline section mean "keep the preset value".
type Config struct {
	Preset    string       `yaml:"preset"`
	Backend   string       `yaml:"backend"`
	Workers   int          `yaml:"workers"`
	OutputDir string       `yaml:"output_dir"`
	Pipeline  DetectConfig `yaml:"pipeline"`
	OCR       OCRConfig    `yaml:"ocr"`
	Log       LogConfig    `yaml:"log"`
}

type DetectConfig struct {
	Width     int             `yaml:"width"`
	Height    int             `yaml:"height"`
	Bilateral BilateralConfig `yaml:"bilateral"`
	Edges     EdgeConfig      `yaml:"edges"`
	Selector  SelectorConfig  `yaml:"selector"`
	Overlay   OverlayConfig   `yaml:"overlay"`
}

type BilateralConfig struct {
	Diameter   int     `yaml:"diameter"`
	SigmaColor float64 `yaml:"sigma_color"`
	SigmaSpace float64 `yaml:"sigma_space"`
}

type EdgeConfig struct {
	Low    float64 `yaml:"low"`
	High   float64 `yaml:"high"`
	Strict bool    `yaml:"strict"`
}

type SelectorConfig struct {
	TopN        int     `yaml:"top_n"`
	ApproxRatio float64 `yaml:"approx_ratio"`
}

type OverlayConfig struct {
	Color     string `yaml:"color"` // #rrggbb
	Thickness int    `yaml:"thickness"`
	Label     *bool  `yaml:"label"`
}

type OCRConfig struct {
	Engine    string   `yaml:"engine"` // tesseract or noop
	Languages []string `yaml:"languages"`
	PSM       int      `yaml:"psm"`
	// Whitelist nil keeps the preset alphabet; an empty string disables it.
	Whitelist      *string `yaml:"whitelist"`
	TessdataPrefix string  `yaml:"tessdata_prefix"`
	DPI            int     `yaml:"dpi"`
	PlatePattern   string  `yaml:"plate_pattern"`
	// Variables are extra Tesseract variables applied on every call, such
	// as load_system_dawg: "0".
	Variables map[string]string `yaml:"variables"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns the character preset on the native backend with
// Tesseract.
func DefaultConfig() *Config {
	return &Config{
		Preset:  pipeline.PresetCharacter,
		Backend: "native",
		OCR:     OCRConfig{Engine: "tesseract"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (optional), applies .env and environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped; with
// no arguments ./.env is tried.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PLATEKIT_PRESET"); v != "" {
		cfg.Preset = v
	}
	if v := os.Getenv("PLATEKIT_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("PLATEKIT_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("PLATEKIT_OCR_ENGINE"); v != "" {
		cfg.OCR.Engine = v
	}
	if v := os.Getenv("PLATEKIT_LANGUAGES"); v != "" {
		cfg.OCR.Languages = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("PLATEKIT_WHITELIST"); ok {
		cfg.OCR.Whitelist = &v
	}
	if v := os.Getenv("PLATEKIT_PLATE_PATTERN"); v != "" {
		cfg.OCR.PlatePattern = v
	}
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" && cfg.OCR.TessdataPrefix == "" {
		cfg.OCR.TessdataPrefix = v
	}
	if v := os.Getenv("PLATEKIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PLATEKIT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"PLATEKIT_WORKERS", &cfg.Workers},
		{"PLATEKIT_PSM", &cfg.OCR.PSM},
		{"PLATEKIT_DPI", &cfg.OCR.DPI},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = n
		}
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"PLATEKIT_EDGE_LOW", &cfg.Pipeline.Edges.Low},
		{"PLATEKIT_EDGE_HIGH", &cfg.Pipeline.Edges.High},
		{"PLATEKIT_APPROX_RATIO", &cfg.Pipeline.Selector.ApproxRatio},
	}
	for _, e := range floats {
		if v := os.Getenv(e.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = f
		}
	}
	return nil
}

// Validate checks the settings that PipelineConfig does not cover and then
// the resulting pipeline configuration.
func (c *Config) Validate() error {
	if _, ok := pipeline.Presets[c.Preset]; !ok {
		return fmt.Errorf("unknown preset %q (have %s)", c.Preset, strings.Join(pipeline.PresetNames(), ", "))
	}
	if c.Backend == "" {
		return errors.New("backend must be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must not be negative", c.Workers)
	}
	switch c.OCR.Engine {
	case "tesseract", "noop":
	default:
		return fmt.Errorf("unknown ocr engine %q", c.OCR.Engine)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	pc, err := c.PipelineConfig()
	if err != nil {
		return err
	}
	return pc.Validate()
}

// PipelineConfig starts from the selected preset and applies every non-zero
// override.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	pc := pipeline.Preset(c.Preset)
	d := c.Pipeline
	setInt(&pc.Width, d.Width)
	setInt(&pc.Height, d.Height)
	setInt(&pc.Bilateral.Diameter, d.Bilateral.Diameter)
	setFloat(&pc.Bilateral.SigmaColor, d.Bilateral.SigmaColor)
	setFloat(&pc.Bilateral.SigmaSpace, d.Bilateral.SigmaSpace)
	setFloat(&pc.EdgeLow, d.Edges.Low)
	setFloat(&pc.EdgeHigh, d.Edges.High)
	pc.StrictEdges = pc.StrictEdges || d.Edges.Strict
	setInt(&pc.TopN, d.Selector.TopN)
	setFloat(&pc.ApproxRatio, d.Selector.ApproxRatio)
	setInt(&pc.OverlayThickness, d.Overlay.Thickness)
	if d.Overlay.Label != nil {
		pc.OverlayLabel = *d.Overlay.Label
	}
	if d.Overlay.Color != "" {
		col, err := ParseColor(d.Overlay.Color)
		if err != nil {
			return pipeline.Config{}, err
		}
		pc.OverlayColor = col
	}

	setInt(&pc.PSM, c.OCR.PSM)
	setInt(&pc.DPI, c.OCR.DPI)
	if c.OCR.Whitelist != nil {
		pc.Whitelist = *c.OCR.Whitelist
	}
	if len(c.OCR.Languages) > 0 {
		pc.Languages = append([]string(nil), c.OCR.Languages...)
	}
	if c.OCR.PlatePattern != "" {
		pc.PlatePattern = c.OCR.PlatePattern
	}
	return pc, nil
}

// ParseColor parses #rrggbb into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
