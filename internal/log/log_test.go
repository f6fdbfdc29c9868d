package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeview/internal/log"
)

func TestNewHandlerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	h, err := log.NewHandler("pipeview", log.Options{Writer: &buf, Level: "warn"})
	require.NoError(t, err)

	logger := slog.New(h)
	logger.Info("hidden")
	logger.Warn("fetch failed", "seq", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "pipeview")
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "seq=3")
}

func TestNewHandlerInvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := log.NewHandler("pipeview", log.Options{Level: "loud"})
	require.Error(t, err)
}

func TestSubLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	h, err := log.NewHandler("pipeview", log.Options{Writer: &buf, Level: "info"})
	require.NoError(t, err)

	sub := log.SubLogger(slog.New(h), "poller")
	sub.Debug("hidden")
	sub.Info("started")

	assert.Contains(t, buf.String(), "pipeview/poller")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Default(), log.FromContext(context.Background()))

	logger := log.Discard()
	ctx := log.IntoContext(context.Background(), logger)
	assert.Same(t, logger, log.FromContext(ctx))
}
