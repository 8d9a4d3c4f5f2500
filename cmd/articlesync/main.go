// Package main is the entry point for the articlesync command.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/articlesync/articlesync/cmd/articlesync/app"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/logging"
)

// logSettings reads ARTICLESYNC_LOG_LEVEL and ARTICLESYNC_LOG_FORMAT.
// The level falls back to LOG_LEVEL for backward compatibility.
func logSettings() logging.Options {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	level := v.GetString("LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	return logging.Options{Level: level, Format: v.GetString("LOG_FORMAT")}
}

// traceHandler wraps an slog.Handler to automatically inject OpenTelemetry
// trace_id and span_id into every log record, enabling log-trace correlation.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

func main() {
	opts := logSettings()
	logger, flush, err := logging.New(opts)
	if err != nil {
		// Fall back to info level JSON so a typo in the environment does not block runs
		fmt.Fprintf(os.Stderr, "invalid logging settings, using defaults: %v\n", err)
		logger, flush, err = logging.New(logging.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
	}

	// Logs go to stderr so stdout stays clean for commands that output data
	handler := &traceHandler{Handler: logr.ToSlogHandler(logger)}
	slog.SetDefault(slog.New(handler))
	logging.SetLogger(logr.FromSlogHandler(handler))

	err = app.NewRootCmd().Execute()
	flush()
	if err != nil {
		os.Exit(1)
	}
}
