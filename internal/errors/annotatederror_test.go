package errors

import (
	"github.com/stretchr/testify/require"
	"log/slog"
	"slices"
	"testing"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := err.Wrap(sentinel)
	require.ErrorIs(t, wrapped, sentinel)

	// Ensure log values are coming through.
	group := err.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrap(t *testing.T) {
	sentinel := NewSentinel("boom")
	err := Wrap(sentinel, "open case file", slog.String("path", "case.yaml"))
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, "open case file: boom", err.Error())

	// Wrapping nil stays nil so callers can wrap unconditionally.
	require.NoError(t, Wrap(nil, "ignored"))

	// Attributes from the full chain surface in the log value.
	outer := Wrap(err, "load case")
	var annotated AnnotatedError
	require.ErrorAs(t, outer, &annotated)
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("path", "case.yaml"))
}

func TestSlogError(t *testing.T) {
	err := Wrap(NewSentinel("boom"), "save state", slog.String("player", "p1"))
	attr := SlogError(err)
	require.Equal(t, "error", attr.Key)

	// Plain errors fall back to their message.
	plain := SlogError(NewSentinel("boom"))
	require.Equal(t, "boom", plain.Value.String())
}
