package strand

import (
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/storage"
)

// Concat returns the concatenation of a and b, which must share an encoding.
//
// The target stride and code range are speculated from the operands' known
// attributes: the result carries the union of the operand classifications,
// marked imprecise whenever a broken or unclassified operand means the
// boundary could pair up (or further break) a multi-unit sequence. The
// precise classification is then recomputed lazily if anything asks for it.
func Concat(a, b *String) (*String, error) {
	if a.enc != b.enc {
		return nil, errors.New(errors.PhaseBuild, errors.KindUnsupported).
			Source(a.enc.String()).
			Target(b.enc.String()).
			Detail("concat requires matching encodings").
			Build()
	}
	if a.length == 0 {
		return b, nil
	}
	if b.length == 0 {
		return a, nil
	}

	enc := a.enc
	ha := hintOrWorst(a)
	hb := hintOrWorst(b)
	union := coderange.Union(ha, hb)
	if !enc.IsFixedWidth() && (ha.IsBroken() || hb.IsBroken()) {
		// Broken halves can heal across the seam.
		union = union.AsImprecise()
	}

	target := max(a.stride, b.stride)
	if !union.IsForeignEndian() {
		if ms := union.MinStride(enc.NaturalStride()); ms > target {
			target = ms
		}
	}

	total := a.length + b.length
	if total<<target > MaxByteLength {
		return nil, errors.ResourceExhausted(errors.PhaseBuild, total<<target)
	}

	ab, aRelease, err := a.acquire(errors.PhaseBuild)
	if err != nil {
		return nil, err
	}
	defer aRelease()
	bb, bRelease, err := b.acquire(errors.PhaseBuild)
	if err != nil {
		return nil, err
	}
	defer bRelease()

	owned := make([]byte, total<<target)
	copyRestride(owned, 0, ab, a.stride, a.length, target)
	copyRestride(owned, a.length, bb, b.stride, b.length, target)

	out := newString(storage.FromBytes(owned), enc, target, a.replaced || b.replaced)
	out.setCodeRange(union)
	if union.IsPrecise() && !union.IsBroken() {
		na := a.cpLength.Load()
		nb := b.cpLength.Load()
		if na >= 0 && nb >= 0 {
			out.setCodePointLength(int(na + nb))
		}
	}
	return out, nil
}

func hintOrWorst(s *String) coderange.Value {
	if v, ok := s.codeRangeHint(); ok {
		return v
	}
	return worstRange(s.enc)
}

func copyRestride(dst []byte, dstOff int, src []byte, srcStride, units, dstStride int) {
	if srcStride == dstStride {
		copy(dst[dstOff<<dstStride:], src[:units<<srcStride])
		return
	}
	for i := 0; i < units; i++ {
		storage.WriteUnit(dst, dstOff+i, dstStride, storage.ReadUnit(src, i, srcStride))
	}
}
