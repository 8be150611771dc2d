// Package report renders a batch of detection results as a self-contained
// HTML page. The body is written as Markdown and converted with goldmark;
// images are inlined as PNG data URIs.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/platekit/pipeline"
)

// Entry is one processed file.
type Entry struct {
	File   string
	Result pipeline.Result
}

// Markdown builds the report body.
func Markdown(title string, entries []Entry) (string, error) {
	var b strings.Builder
	counts := map[pipeline.Outcome]int{}
	for _, e := range entries {
		counts[e.Result.Outcome]++
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%d files: %d plates, %d without plate, %d failed.\n\n",
		len(entries), counts[pipeline.OutcomeSuccess], counts[pipeline.OutcomeNoPlate], counts[pipeline.OutcomeFailure])

	b.WriteString("| File | Outcome | Text | Confidence | Digest | Message |\n")
	b.WriteString("|---|---|---|---:|---|---|\n")
	for _, e := range entries {
		r := e.Result
		digest := r.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s | %s |\n",
			cell(e.File), r.Outcome, cell(r.Text), r.Confidence, digest, cell(r.UserMessage()))
	}

	for _, e := range entries {
		r := e.Result
		if r.Overlay == nil && r.Crop.Image == nil {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", cell(e.File))
		if r.Err != nil {
			fmt.Fprintf(&b, "Error: `%s`\n\n", strings.ReplaceAll(r.Err.Error(), "`", "'"))
		}
		if len(r.Quad.Points) == 4 {
			p := r.Quad.Points
			fmt.Fprintf(&b, "Corners: (%d,%d) (%d,%d) (%d,%d) (%d,%d)\n\n",
				p[0].X, p[0].Y, p[1].X, p[1].Y, p[2].X, p[2].Y, p[3].X, p[3].Y)
		}
		for _, img := range []struct {
			alt string
			src image.Image
		}{{"overlay", overlayImage(r)}, {"plate", plateImage(r)}} {
			if img.src == nil {
				continue
			}
			uri, err := dataURI(img.src)
			if err != nil {
				return "", fmt.Errorf("%s %s: %w", e.File, img.alt, err)
			}
			fmt.Fprintf(&b, "![%s](%s)\n\n", img.alt, uri)
		}
	}
	return b.String(), nil
}

// Render writes the HTML report for entries to w.
func Render(w io.Writer, title string, entries []Entry) error {
	src, err := Markdown(title, entries)
	if err != nil {
		return err
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
		),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(src), &body); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = fmt.Fprintf(w, page, html.EscapeString(title), body.String())
	return err
}

const page = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; }
img { max-width: 600px; display: block; margin: 8px 0; }
</style>
</head>
<body>
%s</body>
</html>
`

func overlayImage(r pipeline.Result) image.Image {
	if r.Overlay == nil {
		return nil
	}
	return r.Overlay
}

func plateImage(r pipeline.Result) image.Image {
	if r.Crop.Image == nil {
		return nil
	}
	return r.Crop.Image
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func dataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
