package strand

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/storage"
)

// MaxByteLength is the largest backing buffer the engine will materialize.
const MaxByteLength = storage.MaxByteLength

// Arena anchors a native allocation for the lifetime of raw accesses; see
// FromNative. Close it when the allocation is released.
type Arena = storage.Arena

// NewArena creates an arena. release, if non-nil, runs exactly once when the
// arena is closed and the last concurrent access has ended.
func NewArena(release func()) *Arena {
	return storage.NewArena(release)
}

var builtinEncodings = []codec.Encoding{
	codec.UTF8, codec.UTF16LE, codec.UTF16BE, codec.UTF32LE, codec.UTF32BE,
	codec.ASCII, codec.Latin1, codec.Bytes,
}

// Shared singletons, indexed by encoding ordinal.
var emptyStrings [8]*String

// internedSingle holds the shared single-codepoint single-byte instances for
// the stride-0-capable encodings. Nil entries are not interned.
var internedSingle [8][256]*String

func init() {
	for _, enc := range builtinEncodings {
		e := newString(storage.FromBytes(nil), enc, enc.NaturalStride(), false)
		e.setCodeRange(emptyRange(enc))
		e.setCodePointLength(0)
		emptyStrings[enc] = e
	}
	internEnc := func(enc codec.Encoding, maxValue int) {
		for v := 0; v <= maxValue; v++ {
			s := newString(storage.FromBytes([]byte{byte(v)}), enc, 0, false)
			if v <= 0x7F {
				s.setCodeRange(coderange.Make(coderange.R7Bit))
			} else {
				s.setCodeRange(coderange.Make(coderange.R8Bit))
			}
			s.setCodePointLength(1)
			internedSingle[enc][v] = s
		}
	}
	internEnc(codec.ASCII, 0x7F)
	internEnc(codec.UTF8, 0x7F)
	internEnc(codec.Latin1, 0xFF)
	internEnc(codec.Bytes, 0xFF)
	internEnc(codec.UTF16LE, 0xFF)
	internEnc(codec.UTF32LE, 0xFF)
}

func emptyRange(enc codec.Encoding) coderange.Value {
	v := coderange.Make(coderange.R7Bit)
	if enc.IsForeignEndian() {
		v = v.WithForeignEndian()
	}
	return v
}

// Empty returns the shared zero-length string for enc.
func Empty(enc codec.Encoding) *String {
	return emptyStrings[enc]
}

func interned(enc codec.Encoding, unit byte) *String {
	return internedSingle[enc][unit]
}

// Decode constructs a String from raw bytes in the given encoding.
//
// With copy set, the bytes are copied into an owned buffer at the narrowest
// stride that represents the content, classifying eagerly. Without copy, the
// String is a zero-copy view over the caller's slice at the encoding's
// natural stride; the caller must not mutate the slice afterwards, and
// classification stays lazy.
//
// A byte length that is not a multiple of the encoding's unit size is a hard
// construction error.
func Decode(b []byte, enc codec.Encoding, copy bool) (*String, error) {
	if !enc.Valid() {
		return nil, errors.Unsupported(errors.PhaseDecode, "unknown encoding")
	}
	if len(b) > MaxByteLength {
		return nil, errors.ResourceExhausted(errors.PhaseDecode, len(b))
	}
	if len(b)&(enc.UnitSize()-1) != 0 {
		return nil, errors.InvalidEncoding(errors.PhaseDecode, enc.String(),
			fmt.Sprintf("byte length %d is not a multiple of the unit size", len(b)))
	}
	if len(b) == 0 {
		return Empty(enc), nil
	}
	if !copy {
		return newString(storage.FromBytes(b), enc, enc.NaturalStride(), false), nil
	}

	probe := newString(storage.FromBytes(b), enc, enc.NaturalStride(), false)
	cr, err := probe.CodeRange()
	if err != nil {
		return nil, err
	}
	cpLen, err := probe.CodePointLength()
	if err != nil {
		return nil, err
	}
	return compactCopy(b, enc, enc.NaturalStride(), cr, cpLen), nil
}

// FromGoString wraps a Go string as a UTF-8 String without copying. Safe
// because both representations are immutable.
func FromGoString(str string) *String {
	if len(str) == 0 {
		return Empty(codec.UTF8)
	}
	b := unsafe.Slice(unsafe.StringData(str), len(str))
	return newString(storage.FromBytes(b), codec.UTF8, 0, false)
}

// FromNative wraps byteLen bytes of raw memory as a String. The arena must
// stay open for as long as any operation dereferences the pointer; every
// access pins it. Unit-size validation matches Decode.
func FromNative(ptr unsafe.Pointer, byteLen int, enc codec.Encoding, arena *Arena) (*String, error) {
	if !enc.Valid() {
		return nil, errors.Unsupported(errors.PhaseDecode, "unknown encoding")
	}
	if byteLen < 0 || byteLen > MaxByteLength {
		return nil, errors.ResourceExhausted(errors.PhaseDecode, byteLen)
	}
	if byteLen&(enc.UnitSize()-1) != 0 {
		return nil, errors.InvalidEncoding(errors.PhaseDecode, enc.String(),
			fmt.Sprintf("byte length %d is not a multiple of the unit size", byteLen))
	}
	if byteLen == 0 {
		return Empty(enc), nil
	}
	return newString(storage.FromNative(ptr, byteLen, arena), enc, enc.NaturalStride(), false), nil
}
