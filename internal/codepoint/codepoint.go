// Package codepoint implements single-codepoint encoding and decoding over
// strided buffers, the forward and backward iterators built on them, and
// raw-index to codepoint-index translation.
package codepoint

import (
	"unicode/utf8"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/internal/safepoint"
	"github.com/wippyai/strand/internal/storage"
)

const (
	surrMin    = 0xD800
	surrLowMin = 0xDC00
	surrMax    = 0xDFFF

	// Replacement is substituted for malformed input under default error
	// handling.
	Replacement = 0xFFFD
)

// IsSurrogate reports whether cp falls in the UTF-16 surrogate range.
func IsSurrogate(cp uint32) bool {
	return cp >= surrMin && cp <= surrMax
}

// UTF8Len returns the encoded byte length of cp, treating unpaired
// surrogates as 3-byte sequences (their extended, WTF-8 style form).
func UTF8Len(cp uint32) int {
	switch {
	case cp < 0x80:
		return 1
	case cp < 0x800:
		return 2
	case cp < 0x10000:
		return 3
	default:
		return 4
	}
}

// AppendUTF8 appends cp to dst. Surrogate values are written in their
// extended 3-byte form; the caller decides whether they are permitted.
func AppendUTF8(dst []byte, cp uint32) []byte {
	switch {
	case cp < 0x80:
		return append(dst, byte(cp))
	case cp < 0x800:
		return append(dst, byte(0xC0|cp>>6), byte(0x80|cp&0x3F))
	case cp < 0x10000:
		return append(dst, byte(0xE0|cp>>12), byte(0x80|cp>>6&0x3F), byte(0x80|cp&0x3F))
	default:
		return append(dst, byte(0xF0|cp>>18), byte(0x80|cp>>12&0x3F), byte(0x80|cp>>6&0x3F), byte(0x80|cp&0x3F))
	}
}

// UTF16Units returns the number of 16-bit units encoding cp.
func UTF16Units(cp uint32) int {
	if cp >= 0x10000 {
		return 2
	}
	return 1
}

// PutUTF16 writes cp at unit index i and returns the units written.
func PutUTF16(b []byte, i int, cp uint32, swapped bool) int {
	put := func(j int, u uint32) {
		if swapped {
			u = storage.SwapUnit(u, 1)
		}
		storage.WriteUnit(b, j, 1, u)
	}
	if cp < 0x10000 {
		put(i, cp)
		return 1
	}
	cp -= 0x10000
	put(i, surrMin|cp>>10)
	put(i+1, surrLowMin|cp&0x3FF)
	return 2
}

// PutUTF32 writes cp at unit index i.
func PutUTF32(b []byte, i int, cp uint32, swapped bool) {
	if swapped {
		cp = storage.SwapUnit(cp, 2)
	}
	storage.WriteUnit(b, i, 2, cp)
}

// Decoder reads codepoints from a raw window of one of the built-in
// encodings at an arbitrary stride. The zero value is not usable; fill every
// field.
type Decoder struct {
	B       []byte
	Enc     codec.Encoding
	Stride  int
	Swapped bool
}

// Len returns the window length in storage units.
func (d Decoder) Len() int {
	return storage.UnitLen(d.B, d.Stride)
}

func (d Decoder) unit(i int) uint32 {
	u := storage.ReadUnit(d.B, i, d.Stride)
	if d.Swapped {
		u = storage.SwapUnit(u, d.Stride)
	}
	return u
}

// DecodeAt decodes the codepoint starting at unit index i. units is the
// number of storage units consumed; ok is false at a malformed position, in
// which case cp is the raw offending value and units is 1 (or, for UTF-8,
// the unicode/utf8 error size).
func (d Decoder) DecodeAt(i int) (cp uint32, units int, ok bool) {
	switch d.Enc {
	case codec.UTF8:
		// Compacted UTF-8 (stride > 0) holds one codepoint per unit.
		if d.Stride > 0 {
			return d.unit(i), 1, true
		}
		if c := d.B[i]; c < utf8.RuneSelf {
			return uint32(c), 1, true
		}
		r, size := utf8.DecodeRune(d.B[i:])
		if r == utf8.RuneError && size == 1 {
			return uint32(d.B[i]), 1, false
		}
		return uint32(r), size, true
	case codec.UTF16LE, codec.UTF16BE:
		if d.Stride == 0 {
			return d.unit(i), 1, true
		}
		u := d.unit(i)
		if !IsSurrogate(u) {
			return u, 1, true
		}
		if u < surrLowMin && i+1 < d.Len() {
			if lo := d.unit(i + 1); lo >= surrLowMin && lo <= surrMax {
				return 0x10000 + (u-surrMin)<<10 + (lo - surrLowMin), 2, true
			}
		}
		return u, 1, false
	case codec.UTF32LE, codec.UTF32BE:
		u := d.unit(i)
		if d.Stride == 2 && (u > 0x10FFFF || IsSurrogate(u)) {
			return u, 1, false
		}
		return u, 1, true
	case codec.ASCII:
		u := d.unit(i)
		return u, 1, u <= 0x7F
	default: // Latin1, Bytes
		return d.unit(i), 1, true
	}
}

// DecodeBefore decodes the codepoint ending just before unit index i.
func (d Decoder) DecodeBefore(i int) (cp uint32, units int, ok bool) {
	switch d.Enc {
	case codec.UTF8:
		if d.Stride > 0 {
			return d.unit(i - 1), 1, true
		}
		if c := d.B[i-1]; c < utf8.RuneSelf {
			return uint32(c), 1, true
		}
		// Walk back over at most three continuation bytes to the lead.
		start := i - 1
		for lim := max(i-4, 0); start > lim && d.B[start]&0xC0 == 0x80; start-- {
		}
		cp, units, ok = d.DecodeAt(start)
		if ok && start+units == i {
			return cp, units, true
		}
		return uint32(d.B[i-1]), 1, false
	case codec.UTF16LE, codec.UTF16BE:
		if d.Stride == 0 {
			return d.unit(i - 1), 1, true
		}
		u := d.unit(i - 1)
		if u >= surrLowMin && u <= surrMax && i >= 2 {
			if hi := d.unit(i - 2); hi >= surrMin && hi < surrLowMin {
				return 0x10000 + (hi-surrMin)<<10 + (u - surrLowMin), 2, true
			}
		}
		if !IsSurrogate(u) {
			return u, 1, true
		}
		return u, 1, false
	default:
		return d.DecodeAt(i - 1)
	}
}

// CodePointCount counts codepoints in the window. contentValid tells the
// decoder the content is known free of malformed sequences, enabling the
// arithmetic fast paths; broken content takes the per-codepoint slow path.
func (d Decoder) CodePointCount(contentValid bool) int {
	n := d.Len()
	if d.Stride > 0 && d.Enc != codec.UTF16LE && d.Enc != codec.UTF16BE {
		return n
	}
	switch d.Enc {
	case codec.UTF8:
		if d.Stride > 0 {
			return n
		}
		if contentValid {
			// Count non-continuation bytes.
			cp := 0
			for _, c := range d.B {
				if c&0xC0 != 0x80 {
					cp++
				}
			}
			return cp
		}
	case codec.UTF16LE, codec.UTF16BE:
		if d.Stride == 0 {
			return n
		}
		if contentValid {
			// Every low surrogate is the second half of a pair.
			cp := n
			for i := 0; i < n; i++ {
				if u := d.unit(i); u >= surrLowMin && u <= surrMax {
					cp--
				}
			}
			return cp
		}
	default:
		return n
	}
	// Broken variable-width content: decode one codepoint at a time.
	cp := 0
	for i := 0; i < n; cp++ {
		_, units, _ := d.DecodeAt(i)
		i += units
		safepoint.Poll(cp)
	}
	return cp
}

// RawIndex translates a codepoint index into a raw (storage-unit) index.
// isLength permits cpIndex to equal the codepoint count, yielding the raw
// length; otherwise the translation reports ok=false when cpIndex is out of
// range.
func (d Decoder) RawIndex(cpIndex int, contentValid, isLength bool) (raw int, ok bool) {
	n := d.Len()
	if fixedWidth(d.Enc, d.Stride) {
		if cpIndex < n || (isLength && cpIndex == n) {
			return cpIndex, true
		}
		return n, false
	}
	cp := 0
	for i := 0; i < n; {
		if cp == cpIndex {
			return i, true
		}
		var units int
		if contentValid {
			units = d.validWidthAt(i)
		} else {
			_, units, _ = d.DecodeAt(i)
		}
		i += units
		cp++
		safepoint.Poll(cp)
	}
	if cp == cpIndex && isLength {
		return n, true
	}
	return n, false
}

// CodePointIndex translates a raw index into the index of the codepoint
// containing that unit.
func (d Decoder) CodePointIndex(rawIndex int, contentValid bool) int {
	if fixedWidth(d.Enc, d.Stride) {
		return rawIndex
	}
	cp := 0
	for i := 0; i < rawIndex; cp++ {
		var units int
		if contentValid {
			units = d.validWidthAt(i)
		} else {
			_, units, _ = d.DecodeAt(i)
		}
		if i+units > rawIndex {
			break
		}
		i += units
		safepoint.Poll(cp)
	}
	return cp
}

// validWidthAt returns the unit width of the codepoint at i for content known
// to be valid, without materializing the codepoint value.
func (d Decoder) validWidthAt(i int) int {
	switch d.Enc {
	case codec.UTF8:
		c := d.B[i]
		switch {
		case c < 0x80:
			return 1
		case c < 0xE0:
			return 2
		case c < 0xF0:
			return 3
		default:
			return 4
		}
	default: // UTF-16
		if u := d.unit(i); u >= surrMin && u < surrLowMin {
			return 2
		}
		return 1
	}
}

func fixedWidth(enc codec.Encoding, stride int) bool {
	if enc.IsFixedWidth() {
		return true
	}
	// Compacted variable-width content is one codepoint per unit, except
	// UTF-16 at its natural stride and UTF-8 at stride 0.
	switch enc {
	case codec.UTF8:
		return stride > 0
	default:
		return stride == 0
	}
}
