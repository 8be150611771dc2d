package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/wudi/platekit/crop"
)

type fakeEngine struct {
	text string
	conf float64
	err  error
	last Input
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	f.last = in
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{InputID: in.ID, PlainText: f.text, Blocks: []TextBlock{{Text: f.text, Confidence: f.conf}}}, nil
}

func region() crop.Region {
	return crop.Region{Image: image.NewGray(image.Rect(0, 0, 40, 12)), Bounds: image.Rect(10, 10, 50, 22)}
}

func TestRecognizeAppliesWhitelist(t *testing.T) {
	eng := &fakeEngine{text: "  ab-12 \n CD  34 ", conf: 0.8}
	rec, err := Recognize(context.Background(), eng, region(), Config{PSM: PSMSingleBlock, Whitelist: PlateWhitelist, Languages: []string{"eng"}})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if rec.Text != "12CD34" {
		t.Fatalf("unexpected text %q", rec.Text)
	}
	if rec.Raw != eng.text || rec.Confidence != 0.8 {
		t.Fatalf("unexpected raw/confidence: %q %v", rec.Raw, rec.Confidence)
	}
	if eng.last.Metadata[VarPageSegMode] != "6" || eng.last.Metadata[VarWhitelist] != PlateWhitelist {
		t.Fatalf("engine variables not forwarded: %+v", eng.last.Metadata)
	}
	if rec.Region.Bounds != region().Bounds {
		t.Fatalf("region not carried through")
	}
}

func TestRecognizeWithoutWhitelist(t *testing.T) {
	eng := &fakeEngine{text: " ab  12\n"}
	rec, err := Recognize(context.Background(), eng, region(), Config{})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if rec.Text != "ab 12" {
		t.Fatalf("unexpected text %q", rec.Text)
	}
	if _, ok := eng.last.Metadata[VarWhitelist]; ok {
		t.Fatalf("whitelist variable should be absent")
	}
}

func TestRecognizeEmptyTextIsValid(t *testing.T) {
	rec, err := Recognize(context.Background(), &fakeEngine{text: "?!"}, region(), Config{Whitelist: PlateWhitelist})
	if err != nil || rec.Text != "" {
		t.Fatalf("expected empty text without error, got %q %v", rec.Text, err)
	}
}

func TestRecognizeErrors(t *testing.T) {
	if _, err := Recognize(context.Background(), &fakeEngine{}, crop.Region{}, Config{}); !errors.Is(err, crop.ErrEmptyRegion) {
		t.Fatalf("expected ErrEmptyRegion, got %v", err)
	}
	boom := errors.New("boom")
	if _, err := Recognize(context.Background(), &fakeEngine{err: boom}, region(), Config{}); !errors.Is(err, boom) {
		t.Fatalf("expected engine error to be wrapped, got %v", err)
	}
}

func TestDefaultEngine(t *testing.T) {
	prev := DefaultEngine()
	defer SetDefaultEngine(prev)

	SetDefaultEngine(nil)
	if DefaultEngine().Name() != "noop" {
		t.Fatalf("nil engine should fall back to noop")
	}
	rec, err := Recognize(context.Background(), nil, region(), Config{})
	if err != nil || rec.Text != "" {
		t.Fatalf("noop engine should recognize nothing, got %q %v", rec.Text, err)
	}
}

func TestMatchPattern(t *testing.T) {
	pattern := `^[0-9]{2}[A-Z]{1,2}[0-9]{3,5}$`
	cases := map[string]bool{
		"29A-123.45": true,
		"51g 12345":  true,
		"ABC123":     false,
		"":           false,
	}
	for text, want := range cases {
		got, err := MatchPattern(text, pattern)
		if err != nil {
			t.Fatalf("MatchPattern(%q) error = %v", text, err)
		}
		if got != want {
			t.Fatalf("MatchPattern(%q) = %v, want %v", text, got, want)
		}
	}
	if ok, err := MatchPattern("29A12345", ""); ok || err != nil {
		t.Fatalf("empty pattern should never match")
	}
	if _, err := MatchPattern("x", "("); err == nil {
		t.Fatalf("expected compile error")
	}
}
