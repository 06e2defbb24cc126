// Package logger wraps zerolog behind a small leveled interface so engine
// packages stay decoupled from the concrete logging backend.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the leveled, structured logging interface used across droidloop.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// Options controls logger construction.
type Options struct {
	Level string // trace, debug, info, warn, error

	// Console, when true, renders human-readable output instead of JSON.
	Console bool

	// File sink; empty FilePath disables file logging.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type zerologAdapter struct {
	l *zerolog.Logger
}

func (z *zerologAdapter) addFields(ev *zerolog.Event, fields ...any) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case int64:
			ev = ev.Int64(key, v)
		case float64:
			ev = ev.Float64(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

func (z *zerologAdapter) Debug(msg string, fields ...any) {
	z.addFields(z.l.Debug(), fields...).Msg(msg)
}

func (z *zerologAdapter) Info(msg string, fields ...any) {
	z.addFields(z.l.Info(), fields...).Msg(msg)
}

func (z *zerologAdapter) Warn(msg string, fields ...any) {
	z.addFields(z.l.Warn(), fields...).Msg(msg)
}

func (z *zerologAdapter) Error(msg string, fields ...any) {
	z.addFields(z.l.Error(), fields...).Msg(msg)
}

// New builds a logger from options. Unknown levels fall back to info.
func New(opts Options) Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		writers = append(writers, os.Stderr)
	}

	if opts.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	l := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	return &zerologAdapter{l: &l}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() Logger {
	l := zerolog.Nop()
	return &zerologAdapter{l: &l}
}
