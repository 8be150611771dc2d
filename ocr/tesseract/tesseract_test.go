package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os/exec"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/platekit/crop"
	"github.com/wudi/platekit/ocr"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func plateCrop(text string) crop.Region {
	small := image.NewGray(image.Rect(0, 0, 60, 20))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 15),
	}
	d.DrawString(text)
	big := image.NewGray(image.Rect(0, 0, 240, 80))
	xdraw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), xdraw.Src, nil)
	return crop.Region{Image: big, Bounds: big.Bounds()}
}

func TestEngineRecognizesPlateText(t *testing.T) {
	ensureTesseractAvailable(t)

	rec, err := ocr.Recognize(context.Background(), New(), plateCrop("AB12"), ocr.Config{
		PSM:       ocr.PSMSingleLine,
		Whitelist: ocr.PlateWhitelist,
		Languages: []string{"eng"},
		DPI:       300,
	})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !strings.Contains(rec.Text, "AB12") {
		t.Fatalf("unexpected OCR output: %q (raw %q)", rec.Text, rec.Raw)
	}
	for _, r := range rec.Text {
		if !strings.ContainsRune(ocr.PlateWhitelist, r) {
			t.Fatalf("rune %q outside whitelist in %q", r, rec.Text)
		}
	}
}

func TestRegisteredAsDefault(t *testing.T) {
	if got := ocr.DefaultEngine().Name(); got != "tesseract" {
		t.Fatalf("default engine = %q, want tesseract", got)
	}
}

func TestMergeBounds(t *testing.T) {
	words := []ocr.TextWord{
		{Bounds: ocr.Region{X: 10, Y: 5, Width: 20, Height: 10}},
		{Bounds: ocr.Region{X: 40, Y: 2, Width: 10, Height: 20}},
	}
	got := mergeBounds(words)
	want := ocr.Region{X: 10, Y: 2, Width: 40, Height: 20}
	if got != want {
		t.Fatalf("mergeBounds() = %+v, want %+v", got, want)
	}
	if !mergeBounds(nil).IsEmpty() {
		t.Fatalf("expected empty region without words")
	}
}

func TestConfigureKeepsPageSegModeAsVariable(t *testing.T) {
	e := New(WithTessdataPrefix("/opt/tessdata"), WithVariables(map[string]string{
		ocr.VarWhitelist:   "0123456789",
		"load_system_dawg": "0",
	}))
	in := ocr.Input{DPI: 300, Languages: []string{"eng"}}
	ocr.WithTesseractPSM(ocr.PSMSingleChar)(&in)
	ocr.WithTesseractWhitelist("AB12")(&in)

	c := gosseract.NewClient()
	defer c.Close()
	if err := e.configure(c, in); err != nil {
		t.Fatalf("configure() error = %v", err)
	}
	want := map[gosseract.SettableVariable]string{
		gosseract.SettableVariable(ocr.VarPageSegMode): "10",
		gosseract.SettableVariable(ocr.VarWhitelist):   "AB12",
		gosseract.SettableVariable(ocr.VarDPI):         "300",
		"load_system_dawg":                             "0",
	}
	for k, v := range want {
		if got := c.Variables[k]; got != v {
			t.Fatalf("variable %s = %q, want %q", k, got, v)
		}
	}
	if c.TessdataPrefix != "/opt/tessdata" {
		t.Fatalf("tessdata prefix = %q", c.TessdataPrefix)
	}
}

func TestSettingsRejectsBadPageSegMode(t *testing.T) {
	for _, v := range []string{"single", "-1", "14"} {
		_, err := New().settings(ocr.Input{Metadata: map[string]string{ocr.VarPageSegMode: v}})
		if err == nil {
			t.Fatalf("settings() accepted page segmentation mode %q", v)
		}
	}
	got, err := New(WithVariables(map[string]string{ocr.VarPageSegMode: "6"})).
		settings(ocr.Input{Metadata: map[string]string{ocr.VarPageSegMode: "7"}})
	if err != nil || got[ocr.VarPageSegMode] != "7" {
		t.Fatalf("input metadata should override engine variables: %v %v", got, err)
	}
}

func TestWordsFrom(t *testing.T) {
	words := wordsFrom([]gosseract.BoundingBox{
		{Box: image.Rect(4, 2, 30, 20), Word: "KA01", Confidence: 90},
		{Box: image.Rect(0, 0, 1, 1), Word: " ", Confidence: 10},
		{Box: image.Rect(36, 3, 60, 21), Word: "AB", Confidence: 70},
	})
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 (blank dropped)", len(words))
	}
	if got := meanConfidence(words); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("meanConfidence() = %v, want 0.8", got)
	}
	want := ocr.Region{X: 4, Y: 2, Width: 56, Height: 19}
	if got := mergeBounds(words); got != want {
		t.Fatalf("mergeBounds() = %+v, want %+v", got, want)
	}
	if meanConfidence(nil) != 0 {
		t.Fatalf("mean of no words should be 0")
	}
}
