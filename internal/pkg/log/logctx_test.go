package log

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInto_From_Roundtrip(t *testing.T) {
	t.Parallel()

	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := Into(context.Background(), base)

	require.Same(t, base, From(ctx))
}

func TestFrom_EmptyContext_ReturnsDefault(t *testing.T) {
	t.Parallel()

	require.Same(t, slog.Default(), From(context.Background()))
}

func TestFrom_NilLogger_ReturnsDefault(t *testing.T) {
	t.Parallel()

	ctx := Into(context.Background(), nil)
	require.Same(t, slog.Default(), From(ctx))
}

func TestInto_Overwrite_LastWins(t *testing.T) {
	t.Parallel()

	first := slog.New(slog.NewTextHandler(io.Discard, nil))
	second := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := Into(context.Background(), first)
	ctx = Into(ctx, second)

	require.Same(t, second, From(ctx))
}
