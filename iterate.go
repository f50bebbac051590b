package strand

import (
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/codepoint"
)

// CodePointIterator walks a string's codepoints in one direction. Malformed
// positions yield U+FFFD, matching CodePointAt. The iterator pins the
// backing window until Close; it is not safe for concurrent use.
type CodePointIterator struct {
	d        codepoint.Decoder
	release  func()
	pos      int
	backward bool
}

// CodePoints returns a forward iterator positioned before the first
// codepoint.
func (s *String) CodePoints() (*CodePointIterator, error) {
	b, release, err := s.acquire(errors.PhaseIndex)
	if err != nil {
		return nil, err
	}
	return &CodePointIterator{d: s.decoder(b), release: release}, nil
}

// CodePointsBackward returns an iterator positioned after the last
// codepoint, walking toward the start.
func (s *String) CodePointsBackward() (*CodePointIterator, error) {
	b, release, err := s.acquire(errors.PhaseIndex)
	if err != nil {
		return nil, err
	}
	return &CodePointIterator{d: s.decoder(b), release: release, pos: s.length, backward: true}, nil
}

// Next returns the next codepoint, the raw index it starts at, and the
// number of storage units it spans. ok is false once the iterator is
// exhausted or closed.
func (it *CodePointIterator) Next() (cp rune, rawIndex, units int, ok bool) {
	if it.backward {
		if it.pos <= 0 {
			return 0, 0, 0, false
		}
		v, n, valid := it.d.DecodeBefore(it.pos)
		if !valid {
			v = codepoint.Replacement
		}
		it.pos -= n
		return rune(v), it.pos, n, true
	}
	if it.pos >= it.d.Len() {
		return 0, 0, 0, false
	}
	v, n, valid := it.d.DecodeAt(it.pos)
	if !valid {
		v = codepoint.Replacement
	}
	at := it.pos
	it.pos += n
	return rune(v), at, n, true
}

// Close unpins the backing window. Subsequent Next calls report exhaustion.
func (it *CodePointIterator) Close() {
	if it.release == nil {
		return
	}
	it.release()
	it.release = nil
	it.d.B = nil
	it.pos = 0
}
