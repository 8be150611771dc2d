package main

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/wudi/platekit/pipeline"
)

// progress reports per-file completion: a spinner for a single file, a bar
// for batches.
type progress interface {
	Done()
	Finish()
}

func newProgress(w io.Writer, total int, quiet bool) progress {
	switch {
	case quiet:
		return nopProgress{}
	case total == 1:
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		s.Suffix = " detecting plate"
		s.Start()
		return spinnerProgress{s}
	default:
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("detecting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowIts(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
			progressbar.OptionSetRenderBlankState(true),
		)
		return barProgress{bar}
	}
}

type nopProgress struct{}

func (nopProgress) Done()   {}
func (nopProgress) Finish() {}

type spinnerProgress struct{ s *spinner.Spinner }

func (p spinnerProgress) Done()   {}
func (p spinnerProgress) Finish() { p.s.Stop() }

type barProgress struct{ bar *progressbar.ProgressBar }

func (p barProgress) Done()   { _ = p.bar.Add(1) }
func (p barProgress) Finish() { _ = p.bar.Finish() }

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// printResult writes one colored status line for file.
func printResult(w io.Writer, file string, r pipeline.Result) {
	switch r.Outcome {
	case pipeline.OutcomeSuccess:
		text := r.Text
		if text == "" {
			text = "(no characters)"
		}
		okColor.Fprintf(w, "✓ %s: %s", file, text)
		dimColor.Fprintf(w, "  conf=%.2f digest=%.12s\n", r.Confidence, r.Digest)
	case pipeline.OutcomeNoPlate:
		warnColor.Fprintf(w, "⚠ %s: %s", file, r.UserMessage())
		dimColor.Fprintf(w, "  (%s)\n", r.Reason)
	default:
		failColor.Fprintf(w, "✗ %s: %s", file, r.UserMessage())
		if r.Err != nil {
			dimColor.Fprintf(w, "  (%v)", r.Err)
		}
		fmt.Fprintln(w)
	}
}
