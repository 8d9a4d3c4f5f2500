// Package logging builds the process logger and carries it through contexts.
//
// Components log through logr, taken from the context. The backend is zap.
// Process-level code logs through slog, bridged onto the same backend.
package logging

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FormatJSON emits one JSON object per line
	FormatJSON = "json"

	// FormatConsole emits human-readable lines
	FormatConsole = "console"
)

var global atomic.Pointer[logr.Logger]

// SetLogger sets the logger returned by FromContext when the context carries none
func SetLogger(l logr.Logger) {
	global.Store(&l)
}

// FromContext returns the logger stored in ctx, falling back to the process logger
func FromContext(ctx context.Context) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	if l := global.Load(); l != nil {
		return *l
	}
	return logr.Discard()
}

// NewContext returns a copy of ctx carrying l
func NewContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// Options configures New
type Options struct {
	// Level is one of debug, info, warn or error
	Level string

	// Format is json or console
	Format string
}

// New builds a zap-backed logr.Logger. The returned sync function flushes
// buffered entries and should be deferred by the caller.
func New(opts Options) (logr.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return logr.Discard(), func() {}, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	switch strings.ToLower(opts.Format) {
	case "", FormatJSON:
		cfg.Encoding = FormatJSON
	case FormatConsole:
		cfg.Encoding = FormatConsole
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return logr.Discard(), func() {}, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("failed to build logger: %w", err)
	}

	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}

// ParseLevel maps a level name to a zap level. The empty string means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
}
