package strand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
)

func TestSubstringIdentity(t *testing.T) {
	s := mustDecode(t, []byte("whole string"), codec.UTF8, true)

	whole, err := s.Substring(0, s.Length(), true)
	require.NoError(t, err)
	assert.Same(t, s, whole)

	empty, err := s.Substring(4, 0, false)
	require.NoError(t, err)
	assert.Same(t, Empty(codec.UTF8), empty)
}

func TestSubstringBounds(t *testing.T) {
	s := mustDecode(t, []byte("abc"), codec.UTF8, true)
	for _, tc := range [][2]int{{-1, 1}, {0, -1}, {2, 2}, {4, 0}} {
		_, err := s.Substring(tc[0], tc[1], true)
		var se *errors.Error
		require.ErrorAs(t, err, &se, "from=%d length=%d", tc[0], tc[1])
		assert.Equal(t, errors.KindOutOfBounds, se.Kind)
	}
}

func TestSubstringLazyView(t *testing.T) {
	s := mustDecode(t, []byte("caf\xc3\xa9s"), codec.UTF8, true)

	// A lazy slice through the middle of é is a view with a downgraded
	// classification; querying it reclassifies precisely.
	sub, err := s.Substring(0, 4, true)
	require.NoError(t, err)
	cr, err := sub.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.RBrokenMulti, cr.Range())
	assert.True(t, cr.IsPrecise())

	// 7-bit parents hand the precise range straight down.
	a := mustDecode(t, []byte("plain"), codec.UTF8, true)
	sub, err = a.Substring(1, 3, true)
	require.NoError(t, err)
	cr, err = sub.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.R7Bit, cr.Range())
}

func TestSubstringEagerCompacts(t *testing.T) {
	// BMP string with an ASCII tail: the eager tail narrows to stride 0.
	s := mustDecode(t, utf16le(0x4E2D, 'o', 'k'), codec.UTF16LE, true)
	require.Equal(t, 1, s.Stride())

	tail, err := s.Substring(1, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 0, tail.Stride())
	assert.Equal(t, 2, tail.Length())

	lazyTail, err := s.Substring(1, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 1, lazyTail.Stride())

	eq, err := tail.Equal(lazyTail)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestSubstringSingleUnitInterned(t *testing.T) {
	s := mustDecode(t, []byte("xyz"), codec.UTF8, true)
	y1, err := s.Substring(1, 1, true)
	require.NoError(t, err)
	y2, err := s.Substring(1, 1, false)
	require.NoError(t, err)
	assert.Same(t, y1, y2)
	assert.Same(t, mustDecode(t, []byte{'y'}, codec.UTF8, true), y1)
}

func TestConcatBasics(t *testing.T) {
	a := mustDecode(t, []byte("foo"), codec.UTF8, true)
	b := mustDecode(t, []byte("bar"), codec.UTF8, true)

	ab, err := Concat(a, b)
	require.NoError(t, err)
	got, err := ab.GoString()
	require.NoError(t, err)
	assert.Equal(t, "foobar", got)

	n, err := ab.CodePointLength()
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// Empty operands short-circuit to the other side.
	same, err := Concat(a, Empty(codec.UTF8))
	require.NoError(t, err)
	assert.Same(t, a, same)
	same, err = Concat(Empty(codec.UTF8), b)
	require.NoError(t, err)
	assert.Same(t, b, same)
}

func TestConcatEncodingMismatch(t *testing.T) {
	a := mustDecode(t, []byte("a"), codec.UTF8, true)
	b := mustDecode(t, []byte{0xE9}, codec.Latin1, true)
	_, err := Concat(a, b)
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindUnsupported, se.Kind)
}

func TestConcatRestrides(t *testing.T) {
	// ASCII (stride 0 after compaction) + BMP (stride 1) widens the result.
	a := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, true)
	b := mustDecode(t, utf16le(0x4E2D), codec.UTF16LE, true)
	require.Equal(t, 0, a.Stride())
	require.Equal(t, 1, b.Stride())

	ab, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, ab.Stride())
	assert.Equal(t, 3, ab.Length())

	cr, err := ab.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.R16Bit, cr.Range())

	n, err := ab.CodePointLength()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestConcatHealsBrokenSeam(t *testing.T) {
	// A lone high surrogate followed by a lone low surrogate pairs up
	// across the seam into one valid astral codepoint.
	hi := mustDecode(t, utf16le(0xD83D), codec.UTF16LE, true)
	lo := mustDecode(t, utf16le(0xDE00), codec.UTF16LE, true)

	crHi, err := hi.CodeRange()
	require.NoError(t, err)
	require.True(t, crHi.IsBroken())

	ab, err := Concat(hi, lo)
	require.NoError(t, err)

	cr, err := ab.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.RValidMulti, cr.Range())

	n, err := ab.CodePointLength()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r, w, err := ab.CodePointAt(0)
	require.NoError(t, err)
	assert.Equal(t, rune(0x1F600), r)
	assert.Equal(t, 2, w)
}

func TestConcatCarriesReplacedFlag(t *testing.T) {
	broken := mustDecode(t, utf16le(0xD800), codec.UTF16LE, true)
	fixed, err := broken.Transcode(codec.UTF8, Default)
	require.NoError(t, err)
	require.True(t, fixed.Replaced())

	clean := mustDecode(t, []byte("ok"), codec.UTF8, true)
	out, err := Concat(clean, fixed)
	require.NoError(t, err)
	assert.True(t, out.Replaced())
}
