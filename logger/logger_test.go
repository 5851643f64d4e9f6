package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/pawaaan9/ictb-donations/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", logger.RequestID(ctx))
	assert.Equal(t, "unknown", logger.RequestID(context.Background()))
}

func TestFor_AddsRequestIDField(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := logger.WithRequestID(context.Background(), "req-7")
	logger.For(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-7", logs.All()[0].ContextMap()[logger.RequestIDKey])
}

func TestNew_TeesToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New("production", &buf)
	require.NoError(t, err)

	log.Info("bricks updated", zap.Int64("bricks", 5))
	_ = log.Sync()

	assert.Contains(t, buf.String(), `"msg":"bricks updated"`)
	assert.Contains(t, buf.String(), `"bricks":5`)
}
