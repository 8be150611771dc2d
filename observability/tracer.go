package observability

import (
	"context"
	"time"
)

// NewLogTracer returns a Tracer that logs every finished span at debug level
// with its duration, tags and error.
func NewLogTracer(logger Logger) Tracer {
	if logger == nil {
		logger = NopLogger{}
	}
	return logTracer{logger: logger}
}

type logTracer struct{ logger Logger }

func (t logTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{logger: t.logger, name: name, start: time.Now()}
}

type logSpan struct {
	logger Logger
	name   string
	start  time.Time
	fields []Field
	err    error
}

func (s *logSpan) SetTag(key string, value any) {
	s.fields = append(s.fields, Any(key, value))
}

func (s *logSpan) SetError(err error) { s.err = err }

func (s *logSpan) Finish() {
	fields := append([]Field{String("span", s.name), Duration("elapsed", time.Since(s.start))}, s.fields...)
	if s.err != nil {
		fields = append(fields, Error("error", s.err))
	}
	s.logger.Debug("span finished", fields...)
}
