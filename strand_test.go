package strand

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
)

func mustDecode(t *testing.T, b []byte, enc codec.Encoding, copied bool) *String {
	t.Helper()
	s, err := Decode(b, enc, copied)
	require.NoError(t, err)
	return s
}

func utf16le(units ...uint16) []byte {
	b := make([]byte, len(units)*2)
	for i, u := range units {
		b[i*2] = byte(u)
		b[i*2+1] = byte(u >> 8)
	}
	return b
}

func utf32le(cps ...uint32) []byte {
	b := make([]byte, len(cps)*4)
	for i, c := range cps {
		b[i*4] = byte(c)
		b[i*4+1] = byte(c >> 8)
		b[i*4+2] = byte(c >> 16)
		b[i*4+3] = byte(c >> 24)
	}
	return b
}

func TestDecodeUTF8Cafe(t *testing.T) {
	s := mustDecode(t, []byte("café"), codec.UTF8, true)

	assert.Equal(t, 5, s.ByteLength())
	assert.Equal(t, 5, s.Length())
	assert.Equal(t, 0, s.Stride())
	assert.False(t, s.Replaced())

	cr, err := s.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.RValidMulti, cr.Range())
	assert.True(t, cr.IsPrecise())

	n, err := s.CodePointLength()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	fixed, err := s.IsFixedWidth()
	require.NoError(t, err)
	assert.False(t, fixed)
}

func TestDecodeCompaction(t *testing.T) {
	tests := []struct {
		name       string
		b          []byte
		enc        codec.Encoding
		wantStride int
		wantRange  coderange.Range
		wantUnits  int
	}{
		{"ascii utf16 narrows to bytes", utf16le('h', 'i', '!'), codec.UTF16LE, 0, coderange.R7Bit, 3},
		{"latin1 utf16 narrows to bytes", utf16le('c', 'a', 'f', 0xE9), codec.UTF16LE, 0, coderange.R8Bit, 4},
		{"bmp utf16 keeps units", utf16le(0x4E2D, 0x6587), codec.UTF16LE, 1, coderange.R16Bit, 2},
		{"astral utf16 stays wide", utf16le(0xD83D, 0xDE00), codec.UTF16LE, 1, coderange.RValidMulti, 2},
		{"ascii utf32 narrows to bytes", utf32le('o', 'k'), codec.UTF32LE, 0, coderange.R7Bit, 2},
		{"astral utf32 keeps units", utf32le(0x1F600), codec.UTF32LE, 2, coderange.RValidFixed, 1},
		{"utf8 never widens", []byte("caf\xc3\xa9"), codec.UTF8, 0, coderange.RValidMulti, 5},
		{"latin1 bytes", []byte{0x61, 0xE9}, codec.Latin1, 0, coderange.R8Bit, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustDecode(t, tt.b, tt.enc, true)
			assert.Equal(t, tt.wantStride, s.Stride())
			assert.Equal(t, tt.wantUnits, s.Length())
			cr, err := s.CodeRange()
			require.NoError(t, err)
			assert.Equal(t, tt.wantRange, cr.Range())
			assert.True(t, cr.IsPrecise())
		})
	}
}

func TestDecodeForeignEndianKeepsStride(t *testing.T) {
	// "hi" as UTF-16BE.
	s := mustDecode(t, []byte{0x00, 'h', 0x00, 'i'}, codec.UTF16BE, true)
	assert.Equal(t, 1, s.Stride())
	cr, err := s.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.R7Bit, cr.Range())
	assert.True(t, cr.IsForeignEndian())
}

func TestDecodeUnitSizeMismatch(t *testing.T) {
	_, err := Decode([]byte{0x61}, codec.UTF16LE, true)
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindInvalidEncoding, se.Kind)

	_, err = Decode([]byte{0x61, 0x00, 0x00}, codec.UTF32LE, false)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindInvalidEncoding, se.Kind)
}

func TestDecodeViewStaysLazy(t *testing.T) {
	b := []byte("plain ascii")
	s := mustDecode(t, b, codec.UTF8, false)
	assert.Equal(t, 0, s.Stride())

	// Classification happens on first query, not at construction.
	cr, err := s.CodeRange()
	require.NoError(t, err)
	assert.Equal(t, coderange.R7Bit, cr.Range())
}

func TestInternedSingletons(t *testing.T) {
	a1 := mustDecode(t, []byte{'a'}, codec.UTF8, true)
	a2 := mustDecode(t, []byte{'a'}, codec.UTF8, true)
	assert.Same(t, a1, a2)

	// The same codepoint reached through substring and transcode.
	abc := mustDecode(t, []byte("xa"), codec.UTF8, true)
	sub, err := abc.Substring(1, 1, false)
	require.NoError(t, err)
	assert.Same(t, a1, sub)

	l1 := mustDecode(t, []byte{0xE9}, codec.Latin1, true)
	l2 := mustDecode(t, []byte{0xE9}, codec.Latin1, true)
	assert.Same(t, l1, l2)

	assert.Same(t, Empty(codec.UTF8), Empty(codec.UTF8))
	e, err := Decode(nil, codec.UTF16LE, true)
	require.NoError(t, err)
	assert.Same(t, Empty(codec.UTF16LE), e)
}

func TestEqualAcrossStrides(t *testing.T) {
	// Same content, one compacted and one still at natural stride.
	compact := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, true)
	view := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, false)
	require.Equal(t, 0, compact.Stride())
	require.Equal(t, 1, view.Stride())

	eq, err := compact.Equal(view)
	require.NoError(t, err)
	assert.True(t, eq)

	other := mustDecode(t, utf16le('h', 'o'), codec.UTF16LE, false)
	eq, err = compact.Equal(other)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestCodePointAt(t *testing.T) {
	s := mustDecode(t, []byte("café"), codec.UTF8, true)

	r, w, err := s.CodePointAt(3)
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	assert.Equal(t, 2, w)

	_, _, err = s.CodePointAt(5)
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindOutOfBounds, se.Kind)

	// Malformed position yields the replacement character, not an error.
	broken := mustDecode(t, []byte{0x61, 0xFF}, codec.UTF8, false)
	r, w, err = broken.CodePointAt(1)
	require.NoError(t, err)
	assert.Equal(t, '�', r)
	assert.Equal(t, 1, w)
}

func TestGoStringRoundTrip(t *testing.T) {
	for _, in := range []string{"", "ascii", "café", "中文 text", "🙂 emoji"} {
		s := FromGoString(in)
		out, err := s.GoString()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestHashCode(t *testing.T) {
	a := mustDecode(t, []byte("hash me"), codec.UTF8, true)
	b := mustDecode(t, []byte("hash me"), codec.UTF8, false)

	ha, err := a.HashCode()
	require.NoError(t, err)
	hb, err := b.HashCode()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.NotZero(t, ha)

	// Same bytes under a different encoding hash differently.
	c := mustDecode(t, []byte("hash me"), codec.Latin1, true)
	hc, err := c.HashCode()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)

	// Equal content hashes equal regardless of storage width.
	compact := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, true)
	wide := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, false)
	require.NotEqual(t, compact.Stride(), wide.Stride())
	h1, err := compact.HashCode()
	require.NoError(t, err)
	h2, err := wide.HashCode()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestMaterializeView(t *testing.T) {
	b := []byte("shared backing")
	view := mustDecode(t, b, codec.UTF8, false)
	owned, err := view.Materialize()
	require.NoError(t, err)

	got, err := owned.Bytes()
	require.NoError(t, err)
	assert.Equal(t, b, got)

	again, err := owned.Materialize()
	require.NoError(t, err)
	eq, err := owned.Equal(again)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestFromNativeArena(t *testing.T) {
	backing := []byte("native bytes")
	released := false
	arena := NewArena(func() { released = true })

	s, err := FromNative(unsafe.Pointer(&backing[0]), len(backing), codec.Bytes, arena)
	require.NoError(t, err)
	assert.True(t, s.IsNative())

	got, err := s.Bytes()
	require.NoError(t, err)
	assert.Equal(t, backing, got)
	assert.False(t, released)

	arena.Close()
	assert.True(t, released)

	_, err = s.Bytes()
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindArenaClosed, se.Kind)
}

func TestFromNativeMaterializeOutlivesArena(t *testing.T) {
	backing := utf16le('o', 'k')
	arena := NewArena(nil)
	s, err := FromNative(unsafe.Pointer(&backing[0]), len(backing), codec.UTF16LE, arena)
	require.NoError(t, err)

	owned, err := s.Materialize()
	require.NoError(t, err)
	arena.Close()

	assert.False(t, owned.IsNative())
	got, err := owned.Bytes()
	require.NoError(t, err)
	assert.Equal(t, backing, got)
}

func TestCompareBytes(t *testing.T) {
	abc := FromGoString("abc")

	got, err := abc.CompareBytes(FromGoString("abd"))
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	got, err = FromGoString("abd").CompareBytes(abc)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = abc.CompareBytes(FromGoString("abc"))
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	// A prefix orders before the longer string.
	got, err = FromGoString("ab").CompareBytes(abc)
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	// Unit values compare the same whether compacted or not.
	compact := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, true)
	wide := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, false)
	require.NotEqual(t, compact.Stride(), wide.Stride())
	got, err = compact.CompareBytes(wide)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = abc.CompareBytes(mustDecode(t, []byte("abc"), codec.Latin1, true))
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindUnsupported, se.Kind)
}

func TestRegionEqual(t *testing.T) {
	hay := FromGoString("the café")
	needle := FromGoString("café")

	eq, err := hay.RegionEqual(4, needle, 0, needle.Length())
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = hay.RegionEqual(0, needle, 0, needle.Length())
	require.NoError(t, err)
	assert.False(t, eq)

	// Operands at different strides compare by widened unit.
	compact := mustDecode(t, utf16le('x', 'h', 'i'), codec.UTF16LE, true)
	wide := mustDecode(t, utf16le('h', 'i'), codec.UTF16LE, false)
	require.NotEqual(t, compact.Stride(), wide.Stride())
	eq, err = compact.RegionEqual(1, wide, 0, 2)
	require.NoError(t, err)
	assert.True(t, eq)

	_, err = hay.RegionEqual(5, needle, 0, needle.Length())
	var se *errors.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindOutOfBounds, se.Kind)

	_, err = hay.RegionEqual(0, needle, 2, needle.Length())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.KindOutOfBounds, se.Kind)
}
