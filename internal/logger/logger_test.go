package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

// TestFromContext falls back to the global logger and returns the stored one otherwise.
func TestFromContext(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core).Sugar()

	ctx := ToContext(context.Background(), l)
	ctx = WithName(ctx, "engine")
	ctx = WithKV(ctx, "session", "s-1")

	InfoKV(ctx, "state changed", "to", "danger")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "engine", entries[0].LoggerName)
	require.Equal(t, "state changed", entries[0].Message)
	require.Equal(t, "s-1", entries[0].ContextMap()["session"])
	require.Equal(t, "danger", entries[0].ContextMap()["to"])
}

// TestLeveled checks a derived logger filters by its own level, including
// loggers derived from it afterwards, and follows later level changes.
func TestLeveled(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l, override := Leveled(zap.New(core).Sugar(), zapcore.WarnLevel)
	require.Equal(t, zapcore.WarnLevel, override.Level())

	ctx := ToContext(context.Background(), l)
	Debug(ctx, "dropped")
	Infof(ctx, "dropped %d", 1)
	Warnf(ctx, "kept %d", 2)
	ErrorKV(ctx, "kept", "n", 3)

	require.Equal(t, 2, logs.Len())

	child := WithKV(WithName(ctx, "engine"), "session", "s-1")
	Info(child, "dropped")

	override.SetLevel(zapcore.DebugLevel)
	DebugKV(child, "kept", "n", 4)

	entries := logs.TakeAll()
	require.Len(t, entries, 3)
	require.Equal(t, "s-1", entries[2].ContextMap()["session"])
}
