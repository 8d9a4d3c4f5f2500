package logging

import (
	"context"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "", want: zapcore.InfoLevel},
		{in: "INFO", want: zapcore.InfoLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "verbose", want: zapcore.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	logger, sync, err := New(Options{Level: "debug", Format: FormatConsole})
	require.NoError(t, err)
	defer sync()
	assert.True(t, logger.V(1).Enabled())

	_, _, err = New(Options{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log format")
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var lines []string
	logger := funcr.New(func(_, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	ctx := NewContext(context.Background(), logger)
	FromContext(ctx).Info("hello", "key", "value")

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg"="hello"`)
	assert.Contains(t, lines[0], `"key"="value"`)

	// without a logger in the context the process logger is used, which is never nil
	assert.NotPanics(t, func() { FromContext(context.Background()).Info("ignored") })
}
