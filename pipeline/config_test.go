package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/platekit/ocr"
)

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{PresetBlock, PresetCharacter, PresetConservative}, PresetNames())

	char := Preset(PresetCharacter)
	assert.Equal(t, 200.0, char.EdgeLow)
	assert.Equal(t, 600.0, char.EdgeHigh)
	assert.Equal(t, ocr.PSMSingleChar, char.PSM)
	assert.Equal(t, 19, char.Bilateral.Diameter)

	block := Preset(PresetBlock)
	assert.Equal(t, ocr.PSMSingleBlock, block.PSM)

	cons := Preset(PresetConservative)
	assert.Equal(t, 30.0, cons.EdgeLow)
	assert.Equal(t, 200.0, cons.EdgeHigh)
	assert.Equal(t, 15, cons.Bilateral.Diameter)

	for _, name := range PresetNames() {
		cfg := Preset(name)
		require.NoError(t, cfg.Validate(), name)
		assert.Equal(t, 600, cfg.Width)
		assert.Equal(t, 400, cfg.Height)
		assert.Equal(t, 10, cfg.TopN)
		assert.Equal(t, 0.018, cfg.ApproxRatio)
		assert.Equal(t, ocr.PlateWhitelist, cfg.Whitelist)
	}
	assert.Equal(t, char, DefaultConfig())
}

func TestPresetReturnsCopy(t *testing.T) {
	cfg := Preset(PresetBlock)
	cfg.Languages[0] = "deu"
	assert.Equal(t, "eng", Preset(PresetBlock).Languages[0])
	assert.Error(t, Preset("missing").Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"size":     func(c *Config) { c.Width = 0 },
		"diameter": func(c *Config) { c.Bilateral.Diameter = 0 },
		"edges":    func(c *Config) { c.EdgeHigh = 0 },
		"inverted": func(c *Config) { c.EdgeLow, c.EdgeHigh = 300, 100 },
		"topn":     func(c *Config) { c.TopN = 0 },
		"ratio":    func(c *Config) { c.ApproxRatio = 1.5 },
		"psm":      func(c *Config) { c.PSM = 20 },
		"pattern":  func(c *Config) { c.PlatePattern = "([" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
		_, err := New(cfg)
		assert.Error(t, err, name)
	}
}

func TestBackendRegistry(t *testing.T) {
	st, ok, err := Backend("native", DefaultConfig())
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "native", st.Name())

	_, ok, _ = Backend("missing", DefaultConfig())
	assert.False(t, ok)
	assert.Contains(t, BackendNames(), "native")
}
