// Package coderange implements the content-classification lattice shared by
// the classifier, the builders, and the transcoder.
//
// A string's code range describes the narrowest category its content is known
// to fit, ordered from most to least restrictive:
//
//	7-bit < 8-bit < 16-bit < valid-fixed < broken-fixed < valid-multi < broken-multi
//
// A value additionally carries a precision flag (an imprecise value is only an
// upper bound, typically inherited during concatenation) and an orthogonal
// foreign-endian marker for byte-swapped 16/32-bit storage. Values only ever
// refine after construction: toward a more restrictive category or from
// imprecise to precise, never the other way.
package coderange

// Range is the lattice ordinal.
type Range uint8

const (
	// R7Bit covers content where every codepoint is <= 0x7F.
	R7Bit Range = iota
	// R8Bit covers content where every codepoint is <= 0xFF.
	R8Bit
	// R16Bit covers content where every codepoint is <= 0xFFFF and, for
	// UTF-16, no surrogate code unit appears.
	R16Bit
	// RValidFixed covers fixed-width content (one unit per codepoint) that
	// is fully valid but exceeds the 16-bit category.
	RValidFixed
	// RBrokenFixed covers fixed-width content containing invalid units.
	RBrokenFixed
	// RValidMulti covers valid variable-width content (multi-unit sequences).
	RValidMulti
	// RBrokenMulti covers variable-width content with malformed sequences.
	RBrokenMulti
)

const rangeMask = 0x07

// Flag bits, orthogonal to the lattice ordinal.
const (
	// FlagImprecise marks a value that is only an upper bound.
	FlagImprecise uint8 = 1 << 3
	// FlagForeignEndian marks byte-swapped 16/32-bit storage.
	FlagForeignEndian uint8 = 1 << 4
)

// Value packs a Range ordinal with its flag bits.
type Value uint8

// Make builds a precise Value.
func Make(r Range) Value {
	return Value(r)
}

// MakeImprecise builds an upper-bound Value.
func MakeImprecise(r Range) Value {
	return Value(uint8(r) | FlagImprecise)
}

// Range returns the lattice ordinal.
func (v Value) Range() Range {
	return Range(uint8(v) & rangeMask)
}

// IsPrecise reports whether the value is exact rather than an upper bound.
func (v Value) IsPrecise() bool {
	return uint8(v)&FlagImprecise == 0
}

// IsForeignEndian reports the byte-swap marker.
func (v Value) IsForeignEndian() bool {
	return uint8(v)&FlagForeignEndian != 0
}

// WithForeignEndian returns the value with the byte-swap marker set.
func (v Value) WithForeignEndian() Value {
	return Value(uint8(v) | FlagForeignEndian)
}

// AsPrecise returns the value with the imprecise flag cleared.
func (v Value) AsPrecise() Value {
	return Value(uint8(v) &^ FlagImprecise)
}

// AsImprecise returns the value with the imprecise flag set.
func (v Value) AsImprecise() Value {
	return Value(uint8(v) | FlagImprecise)
}

// IsFixedWidth reports whether every storage unit encodes exactly one
// codepoint under this classification.
func (v Value) IsFixedWidth() bool {
	return v.Range() <= RBrokenFixed
}

// IsBroken reports whether the content is known to contain malformed units
// or sequences. Meaningful only for precise values.
func (v Value) IsBroken() bool {
	r := v.Range()
	return r == RBrokenFixed || r == RBrokenMulti
}

// IsValidOrFixed reports whether codepoint boundaries are unambiguous:
// either the content is fixed width or it is valid variable-width.
func (v Value) IsValidOrFixed() bool {
	return v.Range() != RBrokenMulti
}

// AtMost reports whether the classification is at least as restrictive as r.
func (v Value) AtMost(r Range) bool {
	return v.Range() <= r
}

// MinStride returns the narrowest stride able to represent content of this
// range, capped by the encoding's natural stride.
func (v Value) MinStride(naturalStride int) int {
	switch {
	case naturalStride == 0 || v.Range() <= R8Bit:
		return 0
	case naturalStride == 1 || v.Range() <= R16Bit:
		return 1
	default:
		return 2
	}
}

// Union combines the classifications of two operands being concatenated.
// The result is the coarser ordinal; it is precise only when both inputs are
// precise and the coarser category is closed under concatenation.
func Union(a, b Value) Value {
	r := a.Range()
	if b.Range() > r {
		r = b.Range()
	}
	out := Make(r)
	if !a.IsPrecise() || !b.IsPrecise() {
		out = out.AsImprecise()
	}
	if a.IsForeignEndian() || b.IsForeignEndian() {
		out = out.WithForeignEndian()
	}
	return out
}

// Refined reports whether next is an acceptable successor of prev: equal, or
// strictly more precise/restrictive. Used to keep cached attributes from
// regressing under concurrent recomputation.
func Refined(prev, next Value) bool {
	if prev.IsForeignEndian() != next.IsForeignEndian() {
		return false
	}
	if prev.IsPrecise() {
		return prev.AsPrecise() == next.AsPrecise() && next.IsPrecise()
	}
	// An imprecise value is an upper bound: any precise value at or below
	// it, or a tighter upper bound, refines it.
	return next.Range() <= prev.Range()
}

// String names the ordinal for logs and errors.
func (v Value) String() string {
	var s string
	switch v.Range() {
	case R7Bit:
		s = "7bit"
	case R8Bit:
		s = "8bit"
	case R16Bit:
		s = "16bit"
	case RValidFixed:
		s = "valid-fixed"
	case RBrokenFixed:
		s = "broken-fixed"
	case RValidMulti:
		s = "valid-multi"
	case RBrokenMulti:
		s = "broken-multi"
	default:
		s = "unknown"
	}
	if !v.IsPrecise() {
		s += "(imprecise)"
	}
	if v.IsForeignEndian() {
		s += "(swapped)"
	}
	return s
}
