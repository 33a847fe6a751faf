package random_test

import (
	"github.com/myrjola/culprit/internal/random"
	"github.com/stretchr/testify/require"
	"testing"
	"unicode"
)

func TestLetters(t *testing.T) {
	s, err := random.Letters(20)
	require.NoError(t, err)
	require.Len(t, s, 20)
	for _, r := range s {
		require.True(t, unicode.IsLetter(r), "unexpected rune %q", r)
	}

	empty, err := random.Letters(0)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestBytes(t *testing.T) {
	a, err := random.Bytes(32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := random.Bytes(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "two random ids should not collide")
}
