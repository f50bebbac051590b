package strand

import (
	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/storage"
)

// Substring returns the region [from, from+length) in storage units.
//
// The whole region returns the receiver unchanged; a zero-length region
// returns the shared empty string. With lazy set, the result is a zero-copy
// view sharing the receiver's buffer (and keeping it alive); otherwise the
// region is copied into an owned buffer at the narrowest stride for its
// content. Single-codepoint single-byte results come from the shared
// interned table either way.
func (s *String) Substring(from, length int, lazy bool) (*String, error) {
	if from < 0 || length < 0 || from+length > s.length {
		return nil, errors.RegionOutOfBounds(errors.PhaseBuild, from, length, s.length)
	}
	if length == 0 {
		return Empty(s.enc), nil
	}
	if from == 0 && length == s.length {
		return s, nil
	}

	if s.stride == 0 && length == 1 {
		b, release, err := s.acquire(errors.PhaseBuild)
		if err != nil {
			return nil, err
		}
		u := b[from]
		release()
		if is := interned(s.enc, u); is != nil {
			return is, nil
		}
	}

	if lazy {
		sub, err := s.store.Slice(from<<s.stride, length<<s.stride)
		if err != nil {
			return nil, err
		}
		out := newString(sub, s.enc, s.stride, false)
		out.setCodeRange(s.inheritedRange())
		if fixed, okFixed := s.cachedFixedWidth(); okFixed && fixed {
			out.setCodePointLength(length)
		}
		return out, nil
	}

	// Eager: classify the region precisely, then copy at the narrowest
	// stride.
	sub, err := s.Substring(from, length, true)
	if err != nil {
		return nil, err
	}
	cr, err := sub.CodeRange()
	if err != nil {
		return nil, err
	}
	cpLen, err := sub.CodePointLength()
	if err != nil {
		return nil, err
	}
	b, release, err := sub.acquire(errors.PhaseBuild)
	if err != nil {
		return nil, err
	}
	defer release()
	return compactCopy(b, s.enc, s.stride, cr, cpLen), nil
}

// inheritedRange derives the child classification a view starts with: 7-bit
// content stays precisely 7-bit under any slicing, fixed-width categories
// degrade to an upper bound, and multi-unit content degrades all the way to
// possibly-broken since the cut can land inside a sequence.
func (s *String) inheritedRange() coderange.Value {
	hint, ok := s.codeRangeHint()
	if !ok {
		hint = worstRange(s.enc)
	}
	if hint.IsPrecise() && hint.Range() == coderange.R7Bit {
		return hint
	}
	if hint.Range() >= coderange.RValidMulti {
		hint = coderange.MakeImprecise(coderange.RBrokenMulti)
		if s.enc.IsForeignEndian() {
			hint = hint.WithForeignEndian()
		}
		return hint
	}
	return hint.AsImprecise()
}

// cachedFixedWidth answers fixed-width from the cache alone, without
// triggering classification.
func (s *String) cachedFixedWidth() (fixed, ok bool) {
	hint, has := s.codeRangeHint()
	if !has {
		return false, false
	}
	if hint.IsPrecise() {
		return hint.IsFixedWidth(), true
	}
	if hint.AtMost(coderange.R16Bit) {
		return true, true
	}
	return false, false
}

// worstRange is the coarsest upper bound for unclassified content.
func worstRange(enc codec.Encoding) coderange.Value {
	var v coderange.Value
	if enc.IsFixedWidth() {
		v = coderange.MakeImprecise(coderange.RBrokenFixed)
	} else {
		v = coderange.MakeImprecise(coderange.RBrokenMulti)
	}
	if enc.IsForeignEndian() {
		v = v.WithForeignEndian()
	}
	return v
}

// compactCopy copies a window at stride cur into an owned buffer at the
// narrowest stride for its precise code range. Foreign-endian content keeps
// its stride and byte order.
func compactCopy(b []byte, enc codec.Encoding, cur int, cr coderange.Value, cpLen int) *String {
	target := cur
	if !cr.IsForeignEndian() {
		target = cr.MinStride(cur)
	}

	units := storage.UnitLen(b, cur)
	if units == 1 && target == 0 {
		if u := storage.ReadUnit(b, 0, cur); u <= 0xFF {
			if s := interned(enc, byte(u)); s != nil {
				return s
			}
		}
	}

	var out *String
	if target == cur {
		owned := make([]byte, len(b))
		copy(owned, b)
		out = newString(storage.FromBytes(owned), enc, cur, false)
	} else {
		owned := make([]byte, units<<target)
		for i := 0; i < units; i++ {
			storage.WriteUnit(owned, i, target, storage.ReadUnit(b, i, cur))
		}
		out = newString(storage.FromBytes(owned), enc, target, false)
	}
	out.setCodeRange(cr)
	if cpLen >= 0 {
		out.setCodePointLength(cpLen)
	}
	return out
}
