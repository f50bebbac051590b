package strand

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
)

func TestAttributesConcurrentFirstUse(t *testing.T) {
	// Many goroutines race the first classification, count and hash of one
	// instance; every reader must see the same values.
	s := mustDecode(t, []byte("caféteria ☕ strings"), codec.UTF8, false)

	const workers = 16
	var wg sync.WaitGroup
	ranges := make([]coderange.Value, workers)
	counts := make([]int, workers)
	hashes := make([]uint64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			cr, err := s.CodeRange()
			assert.NoError(t, err)
			n, err := s.CodePointLength()
			assert.NoError(t, err)
			h, err := s.HashCode()
			assert.NoError(t, err)
			ranges[w], counts[w], hashes[w] = cr, n, h
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		assert.Equal(t, ranges[0], ranges[w])
		assert.Equal(t, counts[0], counts[w])
		assert.Equal(t, hashes[0], hashes[w])
	}
	assert.Equal(t, coderange.RValidMulti, ranges[0].Range())
	assert.True(t, ranges[0].IsPrecise())
	assert.Equal(t, 19, counts[0])
}

func TestIsFixedWidthShortcuts(t *testing.T) {
	tests := []struct {
		name string
		s    *String
		want bool
	}{
		{"latin1 always fixed", mustDecode(t, []byte{1, 2, 0xFE}, codec.Latin1, false), true},
		{"utf32 fixed", mustDecode(t, utf32le(0x1F600), codec.UTF32LE, false), true},
		{"utf16 no surrogates", mustDecode(t, utf16le('a', 0x4E2D), codec.UTF16LE, false), true},
		{"utf16 with pair", mustDecode(t, utf16le(0xD83D, 0xDE00), codec.UTF16LE, false), false},
		{"ascii utf8", FromGoString("plain"), true},
		{"multibyte utf8", FromGoString("café"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.s.IsFixedWidth()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodeRangeRefinesLazyView(t *testing.T) {
	parent := mustDecode(t, []byte("no cafés"), codec.UTF8, true)
	sub, err := parent.Substring(0, 6, true)
	require.NoError(t, err)

	// The view starts with only an upper bound; the first query pins the
	// precise range and later queries reuse it.
	cr1, err := sub.CodeRange()
	require.NoError(t, err)
	cr2, err := sub.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, cr1, cr2)
	assert.True(t, cr1.IsPrecise())
	assert.Equal(t, coderange.R7Bit, cr1.Range())
}
