// Package log configures the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type LogLevel = slog.Level

const (
	DebugLevel = slog.LevelDebug
	InfoLevel  = slog.LevelInfo
	WarnLevel  = slog.LevelWarn
	ErrorLevel = slog.LevelError
)

// Option is a logger option.
type Option func(*options)

type options struct {
	level     LogLevel
	json      bool
	addSource bool
	writer    io.Writer
}

func defaultOptions() *options {
	return &options{
		level:  WarnLevel,
		writer: os.Stderr,
	}
}

// WithLevel sets the log level. The default is WarnLevel so that command
// output is not interleaved with routine logs.
func WithLevel(level LogLevel) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSON switches to the JSON handler.
func WithJSON(json bool) Option {
	return func(o *options) {
		o.json = json
	}
}

// WithSource adds the calling file and line to each record.
func WithSource() Option {
	return func(o *options) {
		o.addSource = true
	}
}

// WithWriter redirects log output. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// New builds a logger from opts.
func New(opts ...Option) *slog.Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	replace := func(groups []string, a slog.Attr) slog.Attr {
		// Remove the directory from the source's filename.
		if a.Key == slog.SourceKey {
			if s, ok := a.Value.Any().(*slog.Source); ok {
				s.File = filepath.Base(s.File)
			}
		}
		return a
	}
	handlerOpts := &slog.HandlerOptions{
		AddSource:   o.addSource,
		Level:       o.level,
		ReplaceAttr: replace,
	}

	if o.json {
		return slog.New(slog.NewJSONHandler(o.writer, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(o.writer, handlerOpts))
}

// Init builds a logger and installs it as the slog default.
func Init(opts ...Option) *slog.Logger {
	logger := New(opts...)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug, info, warn or error to a level.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %q", s)
	}
}
