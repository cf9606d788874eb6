package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(DevelopmentMode, zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))
	return l, logs
}

func TestCallerIsCallSite(t *testing.T) {
	l, logs := newObserved(t)

	l.Logger.Info("direct")
	l.WithContext(context.Background()).Info("with context")

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.True(t, e.Caller.Defined, e.Message)
		assert.Equal(t, "logger_test.go", filepath.Base(e.Caller.File), e.Message)
	}
}

func TestWithContextFields(t *testing.T) {
	l, logs := newObserved(t)

	ctx := context.WithValue(context.Background(), RequestIdKey, "req-1")
	ctx = context.WithValue(ctx, UsernameKey, "alice")
	l.WithContext(ctx).Warn("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "alice", fields["username"])
}
