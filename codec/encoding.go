package codec

import (
	"github.com/wippyai/strand/coderange"
)

// Encoding identifies one of the built-in encodings.
type Encoding uint8

const (
	UTF8 Encoding = iota
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
	ASCII
	Latin1
	// Bytes is uninterpreted 8-bit data: every byte is its own codepoint.
	Bytes

	numEncodings
)

// Native-order aliases. Unit byte order throughout the engine is
// little-endian; the BE variants carry the foreign-endian marker.
const (
	UTF16 = UTF16LE
	UTF32 = UTF32LE
)

// Properties is the static descriptor of a built-in encoding.
type Properties struct {
	Name string
	// NaturalStride is the stride of uncompacted content (0, 1 or 2).
	NaturalStride int
	// MaxCodePoint is the largest codepoint the encoding can represent.
	MaxCodePoint uint32
	// ForeignEndian marks byte-swapped 16/32-bit storage.
	ForeignEndian bool
	// MaxCompatibleRange is the widest precise code range whose content can
	// be reinterpreted in this encoding without decoding (modulo re-striding).
	MaxCompatibleRange coderange.Range
}

var properties = [numEncodings]Properties{
	UTF8:    {Name: "utf-8", NaturalStride: 0, MaxCodePoint: 0x10FFFF, MaxCompatibleRange: coderange.R7Bit},
	UTF16LE: {Name: "utf-16le", NaturalStride: 1, MaxCodePoint: 0x10FFFF, MaxCompatibleRange: coderange.R16Bit},
	UTF16BE: {Name: "utf-16be", NaturalStride: 1, MaxCodePoint: 0x10FFFF, ForeignEndian: true, MaxCompatibleRange: coderange.R7Bit},
	UTF32LE: {Name: "utf-32le", NaturalStride: 2, MaxCodePoint: 0x10FFFF, MaxCompatibleRange: coderange.R16Bit},
	UTF32BE: {Name: "utf-32be", NaturalStride: 2, MaxCodePoint: 0x10FFFF, ForeignEndian: true, MaxCompatibleRange: coderange.R7Bit},
	ASCII:   {Name: "ascii", NaturalStride: 0, MaxCodePoint: 0x7F, MaxCompatibleRange: coderange.R7Bit},
	Latin1:  {Name: "latin-1", NaturalStride: 0, MaxCodePoint: 0xFF, MaxCompatibleRange: coderange.R8Bit},
	Bytes:   {Name: "bytes", NaturalStride: 0, MaxCodePoint: 0xFF, MaxCompatibleRange: coderange.R8Bit},
}

// Props returns the descriptor for e.
func Props(e Encoding) Properties {
	return properties[e]
}

// Valid reports whether e names a built-in encoding.
func (e Encoding) Valid() bool {
	return e < numEncodings
}

func (e Encoding) String() string {
	if !e.Valid() {
		return "invalid"
	}
	return properties[e].Name
}

// NaturalStride returns the stride of uncompacted content.
func (e Encoding) NaturalStride() int {
	return properties[e].NaturalStride
}

// MaxCodePoint returns the largest representable codepoint.
func (e Encoding) MaxCodePoint() uint32 {
	return properties[e].MaxCodePoint
}

// IsForeignEndian reports byte-swapped storage.
func (e Encoding) IsForeignEndian() bool {
	return properties[e].ForeignEndian
}

// IsFixedWidth reports whether every unit is always one codepoint.
func (e Encoding) IsFixedWidth() bool {
	switch e {
	case ASCII, Latin1, Bytes, UTF32LE, UTF32BE:
		return true
	default:
		return false
	}
}

// UnitSize returns the byte size of one storage unit.
func (e Encoding) UnitSize() int {
	return 1 << properties[e].NaturalStride
}

// CompatibleWith reports whether content precisely classified as r can be
// reinterpreted in e without decoding.
func (e Encoding) CompatibleWith(r coderange.Range) bool {
	return r <= properties[e].MaxCompatibleRange
}
