// Package observability holds the logging and tracing hooks used across
// platekit. Library packages depend only on the interfaces; the zerolog
// adapter and log tracer are wired in by the CLI and the pipeline options.
package observability

import (
	"context"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one structured key/value pair attached to a log line or span.
type Field interface {
	Key() string
	Value() any
}

type field struct {
	key string
	val any
}

func (f field) Key() string { return f.key }
func (f field) Value() any  { return f.val }

// Any wraps a value of arbitrary type; adapters fall back to reflection.
func Any(key string, value any) Field { return field{key, value} }

func String(key, value string) Field                 { return field{key, value} }
func Int(key string, value int) Field                { return field{key, value} }
func Int64(key string, value int64) Field            { return field{key, value} }
func Float64(key string, value float64) Field        { return field{key, value} }
func Bool(key string, value bool) Field              { return field{key, value} }
func Duration(key string, value time.Duration) Field { return field{key, value} }
func Error(key string, err error) Field              { return field{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Tracer provides tracing hooks around pipeline stages.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value any)
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, any) {}
func (nopSpan) SetError(error)     {}
func (nopSpan) Finish()            {}

// Span names emitted by the detection pipeline.
const (
	MetricDecodeTime     = "plate.decode.duration"
	MetricPreprocessTime = "plate.preprocess.duration"
	MetricContourTime    = "plate.contours.duration"
	MetricSelectTime     = "plate.select.duration"
	MetricCropTime       = "plate.crop.duration"
	MetricOCRTime        = "plate.ocr.duration"

	MetricContourCount = "plate.contours.count"
)
