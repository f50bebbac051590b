package strand

import (
	"go.uber.org/zap"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/classify"
	"github.com/wippyai/strand/internal/storage"
)

// Attribute cache. Every cell is write-once-refining: recomputation is a
// pure function of the immutable backing bytes, so concurrent stores are
// idempotent and need no coordination beyond the refinement CAS that keeps a
// precise code range from regressing to an upper bound.

func (s *String) setCodeRange(v coderange.Value) {
	for {
		old := s.codeRange.Load()
		if old != 0 && !coderange.Refined(coderange.Value(old-1), v) {
			return
		}
		if s.codeRange.CompareAndSwap(old, uint32(v)+1) {
			return
		}
	}
}

func (s *String) setCodePointLength(n int) {
	s.cpLength.Store(int64(n))
}

// codeRangeHint returns the cached classification, which may be imprecise or
// missing.
func (s *String) codeRangeHint() (coderange.Value, bool) {
	v := s.codeRange.Load()
	if v == 0 {
		return 0, false
	}
	return coderange.Value(v - 1), true
}

// copyAttrsFrom transfers whatever the source has already computed.
func (s *String) copyAttrsFrom(src *String) {
	if v, ok := src.codeRangeHint(); ok {
		s.setCodeRange(v)
	}
	if n := src.cpLength.Load(); n >= 0 {
		s.cpLength.Store(n)
	}
	if h := src.hash.Load(); h != 0 {
		s.hash.Store(h)
	}
}

// CodeRange returns the precise code range, classifying the content if the
// cache holds nothing or only an upper bound.
func (s *String) CodeRange() (coderange.Value, error) {
	if v, ok := s.codeRangeHint(); ok && v.IsPrecise() {
		return v, nil
	}
	return s.classify()
}

// IsFixedWidth reports whether every storage unit is one codepoint.
func (s *String) IsFixedWidth() (bool, error) {
	// The cheap question first: a precise or upper-bound classification at
	// or below 16-bit already answers without a full validity scan.
	if v, ok := s.codeRangeHint(); ok {
		if v.IsPrecise() {
			return v.IsFixedWidth(), nil
		}
		if v.AtMost(coderange.R16Bit) {
			return true, nil
		}
	}
	if s.enc == codec.UTF16LE || s.enc == codec.UTF16BE {
		if s.stride == 0 {
			return true, nil
		}
		// Surrogate presence decides fixed-width for UTF-16 without the
		// pairing scan.
		b, release, err := s.acquire(errors.PhaseClassify)
		if err != nil {
			return false, err
		}
		defer release()
		return !classify.UTF16HasSurrogates(b, s.enc.IsForeignEndian()), nil
	}
	v, err := s.CodeRange()
	if err != nil {
		return false, err
	}
	return v.IsFixedWidth(), nil
}

// CodePointLength returns the number of codepoints, computing and caching it
// on first use.
func (s *String) CodePointLength() (int, error) {
	if n := s.cpLength.Load(); n >= 0 {
		return int(n), nil
	}
	cr, err := s.CodeRange()
	if err != nil {
		return 0, err
	}
	if cr.IsFixedWidth() {
		s.setCodePointLength(s.length)
		return s.length, nil
	}
	b, release, err := s.acquire(errors.PhaseClassify)
	if err != nil {
		return 0, err
	}
	defer release()
	n := s.decoder(b).CodePointCount(!cr.IsBroken())
	s.setCodePointLength(n)
	return n, nil
}

// HashCode returns the lazily cached FNV-1a hash of the content mixed with
// the encoding tag. Hashing widened units rather than raw bytes keeps the
// hash independent of how narrowly the content happens to be stored, so
// equal strings hash equal.
func (s *String) HashCode() (uint64, error) {
	if h := s.hash.Load(); h != 0 {
		return h, nil
	}
	b, release, err := s.acquire(errors.PhaseClassify)
	if err != nil {
		return 0, err
	}
	defer release()

	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	h ^= uint64(s.enc)
	h *= prime64
	for i := 0; i < s.length; i++ {
		u := storage.ReadUnit(b, i, s.stride)
		h ^= uint64(u)
		h *= prime64
	}
	if h == 0 {
		h = 1
	}
	s.hash.Store(h)
	return h, nil
}

// classify runs the full scanner for the string's encoding and stride and
// refines the cache with the precise result. Codepoint counts that fall out
// of the same pass are cached too.
func (s *String) classify() (coderange.Value, error) {
	b, release, err := s.acquire(errors.PhaseClassify)
	if err != nil {
		return 0, err
	}
	defer release()

	if hint, ok := s.codeRangeHint(); ok && !hint.IsPrecise() {
		Logger().Debug("reclassifying imprecise code range",
			zap.String("encoding", s.enc.String()),
			zap.String("hint", hint.String()),
			zap.Int("units", s.length))
	}

	swapped := s.enc.IsForeignEndian()
	var v coderange.Value
	cpLen := -1
	switch s.enc {
	case codec.UTF8:
		v, cpLen = classify.UTF8(b)
	case codec.UTF16LE, codec.UTF16BE:
		if s.stride < 1 {
			v = classify.Fixed(b, s.stride, false)
			cpLen = s.length
		} else {
			v, cpLen = classify.UTF16(b, swapped)
		}
	case codec.UTF32LE, codec.UTF32BE:
		if s.stride < 2 {
			v = classify.Fixed(b, s.stride, false)
		} else {
			v = classify.UTF32(b, swapped)
		}
		cpLen = s.length
	case codec.ASCII:
		v = classify.ASCII(b)
		cpLen = s.length
	default: // Latin1, Bytes
		v = classify.Latin1(b)
		cpLen = s.length
	}

	s.setCodeRange(v)
	if cpLen >= 0 {
		s.setCodePointLength(cpLen)
	}
	return v, nil
}
