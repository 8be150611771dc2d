package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds zerolog adapter configuration.
type LogConfig struct {
	Level   string
	Format  string // json or console
	Output  io.Writer
	NoColor bool
	Service string
}

type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger returns a Logger that writes through zerolog. The level is
// set on the returned logger only; the zerolog global level is left alone.
func NewZerologLogger(cfg LogConfig) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: cfg.NoColor})
	} else {
		zl = zerolog.New(out)
	}
	ctx := zl.With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return &zerologLogger{zl: ctx.Logger().Level(ParseLevel(cfg.Level))}
}

// ParseLevel converts a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func (l *zerologLogger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			ctx = ctx.Str(f.Key(), v)
		case int:
			ctx = ctx.Int(f.Key(), v)
		case int64:
			ctx = ctx.Int64(f.Key(), v)
		case float64:
			ctx = ctx.Float64(f.Key(), v)
		case bool:
			ctx = ctx.Bool(f.Key(), v)
		case time.Duration:
			ctx = ctx.Dur(f.Key(), v)
		case error:
			ctx = ctx.AnErr(f.Key(), v)
		default:
			ctx = ctx.Interface(f.Key(), v)
		}
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) emit(evt *zerolog.Event, msg string, fields []Field) {
	if evt == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			evt = evt.Str(f.Key(), v)
		case int:
			evt = evt.Int(f.Key(), v)
		case int64:
			evt = evt.Int64(f.Key(), v)
		case float64:
			evt = evt.Float64(f.Key(), v)
		case bool:
			evt = evt.Bool(f.Key(), v)
		case time.Duration:
			evt = evt.Dur(f.Key(), v)
		case error:
			evt = evt.AnErr(f.Key(), v)
		default:
			evt = evt.Interface(f.Key(), v)
		}
	}
	evt.Msg(msg)
}
