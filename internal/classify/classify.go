// Package classify computes code ranges and codepoint counts for the
// built-in encoding families.
//
// Every scanner runs over a raw byte window and returns a precise
// coderange.Value together with the codepoint count where the count falls out
// of the same pass. Scanners take the byte-swap marker as a parameter and
// stamp it on the result, so callers never re-derive it.
package classify

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/internal/storage"
)

const (
	surrMin     = 0xD800
	surrLowMin  = 0xDC00
	surrMax     = 0xDFFF
	maxCP       = 0x10FFFF
	hiBitsMask  = 0x8080808080808080
	ff80BitMask = 0xFF80FF80FF80FF80
)

// Is7Bit reports whether every byte is <= 0x7F, eight bytes at a time.
func Is7Bit(b []byte) bool {
	i := 0
	for ; i+8 <= len(b); i += 8 {
		if binary.LittleEndian.Uint64(b[i:])&hiBitsMask != 0 {
			return false
		}
	}
	for ; i < len(b); i++ {
		if b[i] > 0x7F {
			return false
		}
	}
	return true
}

// Latin1 classifies Latin-1 or raw-bytes content: always valid, 7-bit or
// 8-bit. Codepoint count equals the byte count.
func Latin1(b []byte) coderange.Value {
	if Is7Bit(b) {
		return coderange.Make(coderange.R7Bit)
	}
	return coderange.Make(coderange.R8Bit)
}

// ASCII classifies 7-bit content; any byte above 0x7F is broken.
func ASCII(b []byte) coderange.Value {
	if Is7Bit(b) {
		return coderange.Make(coderange.R7Bit)
	}
	return coderange.Make(coderange.RBrokenFixed)
}

// UTF8 classifies UTF-8 content and counts its codepoints in one pass.
// Malformed positions follow unicode/utf8 semantics: each rejected byte is
// one codepoint. The 7-bit check short-circuits without running the decoder.
func UTF8(b []byte) (coderange.Value, int) {
	if Is7Bit(b) {
		return coderange.Make(coderange.R7Bit), len(b)
	}
	n := 0
	broken := false
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			i++
			n++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			broken = true
		}
		i += size
		n++
	}
	if broken {
		return coderange.Make(coderange.RBrokenMulti), n
	}
	return coderange.Make(coderange.RValidMulti), n
}

func utf16Unit(b []byte, i int, swapped bool) uint32 {
	u := storage.ReadUnit(b, i, 1)
	if swapped {
		u = storage.SwapUnit(u, 1)
	}
	return u
}

// UTF16HasSurrogates reports whether any unit falls in the surrogate range.
// It answers the cheap "up to 16 bit?" question without pairing.
func UTF16HasSurrogates(b []byte, swapped bool) bool {
	n := storage.UnitLen(b, 1)
	if !swapped {
		// Native order: surrogate units have the form 0xD8xx..0xDFxx, which
		// requires a byte >= 0xD8 in the high position. Word-scan for any
		// high byte with the 0x80 bit set first.
		i := 0
		for ; i+4 <= n; i += 4 {
			if binary.LittleEndian.Uint64(b[i<<1:])&ff80BitMask == 0 {
				continue
			}
			for j := i; j < i+4; j++ {
				u := utf16Unit(b, j, false)
				if u >= surrMin && u <= surrMax {
					return true
				}
			}
		}
		for ; i < n; i++ {
			u := utf16Unit(b, i, false)
			if u >= surrMin && u <= surrMax {
				return true
			}
		}
		return false
	}
	for i := 0; i < n; i++ {
		u := utf16Unit(b, i, true)
		if u >= surrMin && u <= surrMax {
			return true
		}
	}
	return false
}

// UTF16 classifies UTF-16 content and counts its codepoints in one pass.
// Unpaired surrogates make the content broken; each counts as one codepoint.
func UTF16(b []byte, swapped bool) (coderange.Value, int) {
	n := storage.UnitLen(b, 1)
	var max uint32
	cp := 0
	broken := false
	multi := false
	for i := 0; i < n; {
		u := utf16Unit(b, i, swapped)
		switch {
		case u < surrMin || u > surrMax:
			if u > max {
				max = u
			}
			i++
		case u < surrLowMin:
			// High surrogate: needs a low surrogate right after.
			if i+1 < n {
				if lo := utf16Unit(b, i+1, swapped); lo >= surrLowMin && lo <= surrMax {
					multi = true
					i += 2
					break
				}
			}
			broken = true
			i++
		default:
			// Low surrogate with no preceding high.
			broken = true
			i++
		}
		cp++
	}

	var v coderange.Value
	switch {
	case broken:
		v = coderange.Make(coderange.RBrokenMulti)
	case multi:
		v = coderange.Make(coderange.RValidMulti)
	case max <= 0x7F:
		v = coderange.Make(coderange.R7Bit)
	case max <= 0xFF:
		v = coderange.Make(coderange.R8Bit)
	default:
		v = coderange.Make(coderange.R16Bit)
	}
	if swapped {
		v = v.WithForeignEndian()
	}
	return v, cp
}

// Fixed classifies known-valid fixed-width or compacted content by value
// range alone: content at a narrowed stride was proven valid when it was
// compacted, so only the maximum unit matters.
func Fixed(b []byte, stride int, swapped bool) coderange.Value {
	if stride == 0 {
		return Latin1(b)
	}
	n := storage.UnitLen(b, stride)
	var max uint32
	for i := 0; i < n; i++ {
		u := storage.ReadUnit(b, i, stride)
		if swapped {
			u = storage.SwapUnit(u, stride)
		}
		if u > max {
			max = u
		}
	}
	var v coderange.Value
	switch {
	case max <= 0x7F:
		v = coderange.Make(coderange.R7Bit)
	case max <= 0xFF:
		v = coderange.Make(coderange.R8Bit)
	case max <= 0xFFFF:
		v = coderange.Make(coderange.R16Bit)
	default:
		v = coderange.Make(coderange.RValidFixed)
	}
	if swapped {
		v = v.WithForeignEndian()
	}
	return v
}

// UTF32 classifies UTF-32 content. Fixed width: the codepoint count is the
// unit count. Surrogate values and codepoints beyond U+10FFFF are broken.
func UTF32(b []byte, swapped bool) coderange.Value {
	n := storage.UnitLen(b, 2)
	var max uint32
	broken := false
	for i := 0; i < n; i++ {
		u := storage.ReadUnit(b, i, 2)
		if swapped {
			u = storage.SwapUnit(u, 2)
		}
		if u > maxCP || (u >= surrMin && u <= surrMax) {
			broken = true
			continue
		}
		if u > max {
			max = u
		}
	}

	var v coderange.Value
	switch {
	case broken:
		v = coderange.Make(coderange.RBrokenFixed)
	case max <= 0x7F:
		v = coderange.Make(coderange.R7Bit)
	case max <= 0xFF:
		v = coderange.Make(coderange.R8Bit)
	case max <= 0xFFFF:
		v = coderange.Make(coderange.R16Bit)
	default:
		v = coderange.Make(coderange.RValidFixed)
	}
	if swapped {
		v = v.WithForeignEndian()
	}
	return v
}
