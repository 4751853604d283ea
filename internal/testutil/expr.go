package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/reader"
)

// Expr parses src as a single expression, failing the test on error.
func Expr(t testing.TB, src string) ir.Expr {
	t.Helper()
	e, err := reader.Parse(src)
	require.NoError(t, err, "parse %q", src)
	return e
}

// Exprs parses each source as a single expression.
func Exprs(t testing.TB, srcs ...string) []ir.Expr {
	t.Helper()
	out := make([]ir.Expr, len(srcs))
	for i, src := range srcs {
		out[i] = Expr(t, src)
	}
	return out
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
