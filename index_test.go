package strand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/errors"
)

func TestIndexTranslationUTF8(t *testing.T) {
	// c a f é s -> bytes 0..3 are c,a,f then é spans 3..4, s at 5.
	s := mustDecode(t, []byte("cafés"), codec.UTF8, true)

	tests := []struct {
		cp  int
		raw int
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 5},
	}
	for _, tt := range tests {
		raw, err := s.CodePointIndexToRaw(tt.cp, false)
		require.NoError(t, err)
		assert.Equal(t, tt.raw, raw, "codepoint %d", tt.cp)

		cp, err := s.RawIndexToCodePoint(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.cp, cp, "raw %d", tt.raw)
	}

	// A raw index inside é resolves to é's codepoint index.
	cp, err := s.RawIndexToCodePoint(4)
	require.NoError(t, err)
	assert.Equal(t, 3, cp)

	// Length translation.
	raw, err := s.CodePointIndexToRaw(5, true)
	require.NoError(t, err)
	assert.Equal(t, 6, raw)
	cp, err = s.RawIndexToCodePoint(6)
	require.NoError(t, err)
	assert.Equal(t, 5, cp)

	// Off the end without isLength.
	_, err = s.CodePointIndexToRaw(5, false)
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindOutOfBounds, se.Kind)
}

func TestIndexTranslationFixedWidth(t *testing.T) {
	s := mustDecode(t, utf16le('a', 0xE9, 0x4E2D), codec.UTF16LE, true)
	for i := 0; i <= 3; i++ {
		raw, err := s.CodePointIndexToRaw(i, true)
		require.NoError(t, err)
		assert.Equal(t, i, raw)
	}
	_, err := s.CodePointIndexToRaw(4, true)
	require.Error(t, err)
	_, err = s.RawIndexToCodePoint(-1)
	require.Error(t, err)
}

func TestIndexTranslationUTF16Astral(t *testing.T) {
	// 🙂 a 🙂 -> units: pair, 'a', pair.
	s := mustDecode(t, utf16le(0xD83D, 0xDE42, 'a', 0xD83D, 0xDE42), codec.UTF16LE, true)

	n, err := s.CodePointLength()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	for _, tt := range [][2]int{{0, 0}, {1, 2}, {2, 3}} {
		raw, err := s.CodePointIndexToRaw(tt[0], false)
		require.NoError(t, err)
		assert.Equal(t, tt[1], raw)
	}

	// The trailing half of a pair belongs to the pair's codepoint.
	cp, err := s.RawIndexToCodePoint(1)
	require.NoError(t, err)
	assert.Equal(t, 0, cp)
	cp, err = s.RawIndexToCodePoint(4)
	require.NoError(t, err)
	assert.Equal(t, 2, cp)
}

func TestIndexTranslationBrokenContent(t *testing.T) {
	// Lone high surrogate counts as one codepoint.
	s := mustDecode(t, utf16le('a', 0xD800, 'b'), codec.UTF16LE, true)

	n, err := s.CodePointLength()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	raw, err := s.CodePointIndexToRaw(2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, raw)

	cp, err := s.RawIndexToCodePoint(1)
	require.NoError(t, err)
	assert.Equal(t, 1, cp)
}
