package strand

import (
	"github.com/wippyai/strand/errors"
)

// CodePointIndexToRaw translates a codepoint index into the raw index of the
// unit that starts that codepoint. With isLength set, an index equal to the
// codepoint count is allowed and yields the raw length; anything else out of
// range is a bounds error.
//
// Fixed-width content translates arithmetically. Valid variable-width
// content scans widths without decoding; broken content decodes one
// codepoint at a time, since codepoint positions are ambiguous near
// malformed units.
func (s *String) CodePointIndexToRaw(cpIndex int, isLength bool) (int, error) {
	if cpIndex < 0 {
		return 0, errors.OutOfBounds(errors.PhaseIndex, cpIndex, s.length)
	}
	fixed, err := s.IsFixedWidth()
	if err != nil {
		return 0, err
	}
	if fixed {
		if cpIndex < s.length || (isLength && cpIndex == s.length) {
			return cpIndex, nil
		}
		return 0, errors.OutOfBounds(errors.PhaseIndex, cpIndex, s.length)
	}

	cr, err := s.CodeRange()
	if err != nil {
		return 0, err
	}
	b, release, err := s.acquire(errors.PhaseIndex)
	if err != nil {
		return 0, err
	}
	defer release()
	raw, ok := s.decoder(b).RawIndex(cpIndex, !cr.IsBroken(), isLength)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseIndex, cpIndex, s.length)
	}
	return raw, nil
}

// RawIndexToCodePoint translates a raw index into the index of the codepoint
// containing that unit. A raw index equal to the length yields the codepoint
// count.
func (s *String) RawIndexToCodePoint(rawIndex int) (int, error) {
	if rawIndex < 0 || rawIndex > s.length {
		return 0, errors.OutOfBounds(errors.PhaseIndex, rawIndex, s.length)
	}
	fixed, err := s.IsFixedWidth()
	if err != nil {
		return 0, err
	}
	if fixed {
		return rawIndex, nil
	}
	cr, err := s.CodeRange()
	if err != nil {
		return 0, err
	}
	b, release, err := s.acquire(errors.PhaseIndex)
	if err != nil {
		return 0, err
	}
	defer release()
	return s.decoder(b).CodePointIndex(rawIndex, !cr.IsBroken()), nil
}
