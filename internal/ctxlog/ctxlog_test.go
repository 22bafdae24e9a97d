package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith_AddsAttributes(t *testing.T) {
	// --- Arrange ---
	buf := &bytes.Buffer{}
	base := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithLogger(context.Background(), base)

	// --- Act ---
	ctx, logger := With(ctx, "adaptor", "local")
	FromContext(ctx).Info("bound")

	// --- Assert ---
	require.NotNil(t, logger)
	assert.Contains(t, buf.String(), "adaptor=local")
	assert.Contains(t, buf.String(), "msg=bound")
}
