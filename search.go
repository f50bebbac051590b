package strand

import (
	"bytes"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/codepoint"
	"github.com/wippyai/strand/internal/safepoint"
	"github.com/wippyai/strand/internal/storage"
)

// maxForRange is the largest codepoint content of range r in encoding enc
// could contain.
func maxForRange(r coderange.Range, enc codec.Encoding) uint32 {
	switch r {
	case coderange.R7Bit:
		return 0x7F
	case coderange.R8Bit:
		return 0xFF
	case coderange.R16Bit:
		return 0xFFFF
	default:
		return enc.MaxCodePoint()
	}
}

func (s *String) checkSearchRange(from, to int) error {
	if from < 0 || to < from || to > s.length {
		return errors.RegionOutOfBounds(errors.PhaseSearch, from, to-from, s.length)
	}
	return nil
}

// IndexOf returns the smallest raw index in [from, to) where codepoint cp
// starts, or -1.
func (s *String) IndexOf(cp rune, from, to int) (int, error) {
	if err := s.checkSearchRange(from, to); err != nil {
		return 0, err
	}
	if from == to || cp < 0 {
		return -1, nil
	}
	cr, err := s.CodeRange()
	if err != nil {
		return 0, err
	}
	c := uint32(cp)
	if !s.needleCanOccur(c, cr) {
		return -1, nil
	}

	b, release, err := s.acquire(errors.PhaseSearch)
	if err != nil {
		return 0, err
	}
	defer release()

	switch {
	case cr.IsFixedWidth() && !cr.IsBroken():
		return indexOfUnit(b, s.stride, s.swapped(), c, from, to), nil
	case s.enc == codec.UTF8 && s.stride == 0 && !cr.IsBroken():
		return indexOfUTF8(b, c, from, to), nil
	case s.isUTF16() && s.stride == 1 && !cr.IsBroken():
		if c < 0x10000 {
			return indexOfUnit(b, 1, s.swapped(), c, from, to), nil
		}
		return s.indexOfSurrogatePair(b, c, from, to), nil
	default:
		return s.indexOfDecoding(b, c, from, to), nil
	}
}

// needleCanOccur reports whether codepoint c can appear when the content is
// read through the decoder: malformed positions surface U+FFFD, so the
// replacement codepoint can occur in any broken content, surrogate values
// never occur, and everything else is bounded by the classification.
func (s *String) needleCanOccur(c uint32, cr coderange.Value) bool {
	if codepoint.IsSurrogate(c) {
		return false
	}
	if c == codepoint.Replacement && cr.IsBroken() {
		return true
	}
	return c <= maxForRange(cr.Range(), s.enc)
}

// LastIndexOf returns the largest raw index in [from, to) where codepoint cp
// starts, or -1.
func (s *String) LastIndexOf(cp rune, from, to int) (int, error) {
	if err := s.checkSearchRange(from, to); err != nil {
		return 0, err
	}
	if from == to || cp < 0 {
		return -1, nil
	}
	cr, err := s.CodeRange()
	if err != nil {
		return 0, err
	}
	c := uint32(cp)
	if !s.needleCanOccur(c, cr) {
		return -1, nil
	}

	b, release, err := s.acquire(errors.PhaseSearch)
	if err != nil {
		return 0, err
	}
	defer release()

	switch {
	case cr.IsFixedWidth() && !cr.IsBroken():
		return lastIndexOfUnit(b, s.stride, s.swapped(), c, from, to), nil
	case s.enc == codec.UTF8 && s.stride == 0 && !cr.IsBroken():
		needle := codepoint.AppendUTF8(nil, c)
		if i := bytes.LastIndex(b[from:to], needle); i >= 0 {
			return from + i, nil
		}
		return -1, nil
	case s.isUTF16() && s.stride == 1 && !cr.IsBroken() && c < 0x10000:
		return lastIndexOfUnit(b, 1, s.swapped(), c, from, to), nil
	default:
		// Track the last match on a single forward pass; backward decoding
		// is ambiguous in broken content.
		d := s.decoder(b)
		found := -1
		for i, n := from, 0; i < to; n++ {
			v, units := decodeSubstituted(d, i)
			if v == c && i+units <= to {
				found = i
			}
			i += units
			safepoint.Poll(n)
		}
		return found, nil
	}
}

// decodeSubstituted reads one codepoint with the same malformed-position
// substitution CodePointAt applies, so searches see the decoded content.
func decodeSubstituted(d codepoint.Decoder, i int) (uint32, int) {
	v, units, ok := d.DecodeAt(i)
	if !ok {
		v = codepoint.Replacement
	}
	return v, units
}

func (s *String) isUTF16() bool {
	return s.enc == codec.UTF16LE || s.enc == codec.UTF16BE
}

func (s *String) swapped() bool {
	return s.enc.IsForeignEndian()
}

func indexOfUnit(b []byte, stride int, swapped bool, c uint32, from, to int) int {
	if stride == 0 {
		if c > 0xFF {
			return -1
		}
		if i := bytes.IndexByte(b[from:to], byte(c)); i >= 0 {
			return from + i
		}
		return -1
	}
	want := c
	if swapped {
		want = storage.SwapUnit(c, stride)
	}
	for i := from; i < to; i++ {
		if storage.ReadUnit(b, i, stride) == want {
			return i
		}
	}
	return -1
}

func lastIndexOfUnit(b []byte, stride int, swapped bool, c uint32, from, to int) int {
	if stride == 0 {
		if c > 0xFF {
			return -1
		}
		if i := bytes.LastIndexByte(b[from:to], byte(c)); i >= 0 {
			return from + i
		}
		return -1
	}
	want := c
	if swapped {
		want = storage.SwapUnit(c, stride)
	}
	for i := to - 1; i >= from; i-- {
		if storage.ReadUnit(b, i, stride) == want {
			return i
		}
	}
	return -1
}

// indexOfUTF8 searches valid UTF-8 bytes. Multi-byte needles can use a raw
// byte search because UTF-8 is self-synchronizing: an encoded sequence never
// matches in the middle of another.
func indexOfUTF8(b []byte, c uint32, from, to int) int {
	if c < 0x80 {
		if i := bytes.IndexByte(b[from:to], byte(c)); i >= 0 {
			return from + i
		}
		return -1
	}
	needle := codepoint.AppendUTF8(nil, c)
	if i := bytes.Index(b[from:to], needle); i >= 0 && from+i+len(needle) <= to {
		return from + i
	}
	return -1
}

func (s *String) indexOfSurrogatePair(b []byte, c uint32, from, to int) int {
	v := c - 0x10000
	hi := uint32(0xD800 | v>>10)
	lo := uint32(0xDC00 | v&0x3FF)
	if s.swapped() {
		hi = storage.SwapUnit(hi, 1)
		lo = storage.SwapUnit(lo, 1)
	}
	for i := from; i+1 < to; i++ {
		if storage.ReadUnit(b, i, 1) == hi && storage.ReadUnit(b, i+1, 1) == lo {
			return i
		}
	}
	return -1
}

func (s *String) indexOfDecoding(b []byte, c uint32, from, to int) int {
	d := s.decoder(b)
	for i, n := from, 0; i < to; n++ {
		v, units := decodeSubstituted(d, i)
		if v == c && i+units <= to {
			return i
		}
		i += units
		safepoint.Poll(n)
	}
	return -1
}

// IndexOfString returns the smallest raw index in [from, to) where needle
// occurs, or -1. The needle must share the haystack's encoding. An empty
// needle matches at from.
func (s *String) IndexOfString(needle *String, from, to int) (int, error) {
	ok, hayB, hayRelease, needleB, needleRelease, err := s.prepareStringSearch(needle, from, to)
	if err != nil || !ok {
		if err == nil && needle.length == 0 {
			return from, nil
		}
		return -1, err
	}
	defer hayRelease()
	defer needleRelease()

	if fast, idx := s.fastStringSearch(needle, hayB, needleB, from, to, false); fast {
		return idx, nil
	}

	ncps := decodeAll(needle.decoder(needleB))
	d := s.decoder(hayB)
	for i, n := from, 0; i+needle.length <= to; n++ {
		if matchCodePoints(d, i, to, ncps) {
			return i, nil
		}
		_, units, _ := d.DecodeAt(i)
		i += units
		safepoint.Poll(n)
	}
	return -1, nil
}

// LastIndexOfString returns the largest raw index in [from, to) where needle
// occurs, or -1.
func (s *String) LastIndexOfString(needle *String, from, to int) (int, error) {
	ok, hayB, hayRelease, needleB, needleRelease, err := s.prepareStringSearch(needle, from, to)
	if err != nil || !ok {
		if err == nil && needle.length == 0 && from <= to {
			return to, nil
		}
		return -1, err
	}
	defer hayRelease()
	defer needleRelease()

	if fast, idx := s.fastStringSearch(needle, hayB, needleB, from, to, true); fast {
		return idx, nil
	}

	ncps := decodeAll(needle.decoder(needleB))
	d := s.decoder(hayB)
	found := -1
	for i, n := from, 0; i+needle.length <= to; n++ {
		if matchCodePoints(d, i, to, ncps) {
			found = i
		}
		_, units, _ := d.DecodeAt(i)
		i += units
		safepoint.Poll(n)
	}
	return found, nil
}

// prepareStringSearch validates operands and acquires both windows. ok is
// false for trivially decided searches; callers resolve the empty-needle
// case themselves and treat every other false as not-found.
func (s *String) prepareStringSearch(needle *String, from, to int) (ok bool, hayB []byte, hayRelease func(), needleB []byte, needleRelease func(), err error) {
	if needle.enc != s.enc {
		return false, nil, nil, nil, nil, errors.New(errors.PhaseSearch, errors.KindUnsupported).
			Source(s.enc.String()).
			Target(needle.enc.String()).
			Detail("substring search requires matching encodings").
			Build()
	}
	if err := s.checkSearchRange(from, to); err != nil {
		return false, nil, nil, nil, nil, err
	}
	if needle.length == 0 || needle.length > to-from {
		return false, nil, nil, nil, nil, nil
	}

	hayCR, err := s.CodeRange()
	if err != nil {
		return false, nil, nil, nil, nil, err
	}
	needleCR, err := needle.CodeRange()
	if err != nil {
		return false, nil, nil, nil, nil, err
	}
	// The needle needs units the haystack cannot contain. A broken needle
	// decodes with replacement substitution, so only valid needles qualify.
	if maxForRange(needleCR.Range(), needle.enc) > maxForRange(hayCR.Range(), s.enc) &&
		!hayCR.IsBroken() && needleCR.IsPrecise() && !needleCR.IsBroken() {
		return false, nil, nil, nil, nil, nil
	}

	hayB, hayRelease, err = s.acquire(errors.PhaseSearch)
	if err != nil {
		return false, nil, nil, nil, nil, err
	}
	needleB, needleRelease, err = needle.acquire(errors.PhaseSearch)
	if err != nil {
		hayRelease()
		return false, nil, nil, nil, nil, err
	}
	return true, hayB, hayRelease, needleB, needleRelease, nil
}

// fastStringSearch covers the direct-memory strategies: raw byte search when
// widths cannot mismatch. It reports whether it handled the search.
func (s *String) fastStringSearch(needle *String, hayB, needleB []byte, from, to int, last bool) (bool, int) {
	// Same stride and unambiguous unit boundaries: valid UTF-8 at stride 0
	// (self-synchronizing), or both operands fixed width.
	if s.stride != needle.stride {
		return false, -1
	}
	hayCR, _ := s.codeRangeHint()
	needleCR, _ := needle.codeRangeHint()
	utf8Fast := s.enc == codec.UTF8 && s.stride == 0 && !hayCR.IsBroken() && !needleCR.IsBroken()
	fixedFast := hayCR.IsFixedWidth() && needleCR.IsFixedWidth() &&
		!hayCR.IsBroken() && !needleCR.IsBroken()
	if !utf8Fast && !fixedFast {
		return false, -1
	}

	window := hayB[from<<s.stride : to<<s.stride]
	var bi int
	if last {
		bi = bytes.LastIndex(window, needleB)
		// Misaligned matches can only occur at stride > 0; step back to the
		// previous aligned occurrence.
		for bi >= 0 && bi&(1<<s.stride-1) != 0 {
			bi = bytes.LastIndex(window[:bi+len(needleB)-1], needleB)
		}
	} else {
		bi = bytes.Index(window, needleB)
		for bi >= 0 && bi&(1<<s.stride-1) != 0 {
			off := bi + 1
			rest := bytes.Index(window[off:], needleB)
			if rest < 0 {
				bi = -1
				break
			}
			bi = off + rest
		}
	}
	if bi < 0 {
		return true, -1
	}
	return true, from + (bi >> s.stride)
}

func decodeAll(d codepoint.Decoder) []uint32 {
	out := make([]uint32, 0, d.Len())
	for i, n := 0, 0; i < d.Len(); n++ {
		v, units := decodeSubstituted(d, i)
		out = append(out, v)
		i += units
		safepoint.Poll(n)
	}
	return out
}

func matchCodePoints(d codepoint.Decoder, at, to int, want []uint32) bool {
	i := at
	for _, w := range want {
		if i >= to {
			return false
		}
		v, units := decodeSubstituted(d, i)
		if v != w {
			return false
		}
		i += units
	}
	return i <= to
}
