package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/platekit/ocr"
	"github.com/wudi/platekit/pipeline"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// chdir changes the working directory for the test and restores it on
// cleanup, like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestDefaultConfigMatchesCharacterPreset(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	pc, err := cfg.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultConfig(), pc)
}

func TestLoadYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "platekit.yaml", `
preset: conservative
backend: native
workers: 3
output_dir: out
pipeline:
  width: 800
  edges:
    high: 250
    strict: true
  selector:
    top_n: 5
  overlay:
    color: "#ff0000"
    label: false
ocr:
  engine: noop
  psm: 7
  whitelist: ""
  languages: [eng, deu]
  plate_pattern: "^[A-Z0-9]+$"
  variables:
    load_system_dawg: "0"
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "noop", cfg.OCR.Engine)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, map[string]string{"load_system_dawg": "0"}, cfg.OCR.Variables)

	pc, err := cfg.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, 800, pc.Width)
	assert.Equal(t, 400, pc.Height)
	assert.Equal(t, 30.0, pc.EdgeLow)
	assert.Equal(t, 250.0, pc.EdgeHigh)
	assert.True(t, pc.StrictEdges)
	assert.Equal(t, 5, pc.TopN)
	assert.Equal(t, 0.018, pc.ApproxRatio)
	assert.Equal(t, ocr.PSMSingleLine, pc.PSM)
	assert.Equal(t, "", pc.Whitelist)
	assert.Equal(t, []string{"eng", "deu"}, pc.Languages)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, pc.OverlayColor)
	assert.False(t, pc.OverlayLabel)
	assert.Equal(t, "^[A-Z0-9]+$", pc.PlatePattern)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PLATEKIT_PRESET", "block")
	t.Setenv("PLATEKIT_EDGE_LOW", "120")
	t.Setenv("PLATEKIT_PSM", "11")
	t.Setenv("PLATEKIT_WORKERS", "2")
	t.Setenv("PLATEKIT_WHITELIST", "0123456789")
	t.Setenv("TESSDATA_PREFIX", "/opt/tessdata")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "block", cfg.Preset)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "/opt/tessdata", cfg.OCR.TessdataPrefix)

	pc, err := cfg.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, 120.0, pc.EdgeLow)
	assert.Equal(t, 600.0, pc.EdgeHigh)
	assert.Equal(t, 11, pc.PSM)
	assert.Equal(t, "0123456789", pc.Whitelist)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PLATEKIT_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv("PLATEKIT_LOG_LEVEL", "")
	os.Unsetenv("PLATEKIT_LOG_LEVEL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "preset: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "preset.yaml", "preset: fastest\n"))
	assert.ErrorContains(t, err, "unknown preset")

	_, err = Load(writeFile(t, "edges.yaml", "pipeline:\n  edges:\n    low: 700\n"))
	assert.ErrorContains(t, err, "exceeds")

	t.Setenv("PLATEKIT_WORKERS", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "PLATEKIT_WORKERS")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"backend": func(c *Config) { c.Backend = "" },
		"workers": func(c *Config) { c.Workers = -1 },
		"engine":  func(c *Config) { c.OCR.Engine = "cloud" },
		"format":  func(c *Config) { c.Log.Format = "xml" },
		"color":   func(c *Config) { c.Pipeline.Overlay.Color = "blue" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#0000ff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, c)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)
}
