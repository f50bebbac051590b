package strand

import (
	"unicode/utf8"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/coderange"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/classify"
	"github.com/wippyai/strand/internal/codepoint"
	"github.com/wippyai/strand/internal/safepoint"
	"github.com/wippyai/strand/internal/storage"
)

// TranscodeError describes one malformed or unrepresentable position handed
// to a custom error handler.
type TranscodeError struct {
	// ByteOffset and ByteLength locate the offending region in the source.
	ByteOffset int
	ByteLength int
	Source     codec.Encoding
	Target     codec.Encoding
}

// ErrorHandlerFunc maps an offending region to a replacement (a Go string,
// encoded into the target) and the number of source bytes to consume, which
// lets a handler resynchronize past malformed input. Consuming fewer bytes
// than the reported region consumes the region anyway.
type ErrorHandlerFunc func(e TranscodeError) (replacement string, consumedBytes int)

// ErrorHandler selects the transcoding error policy.
type ErrorHandler struct {
	custom         ErrorHandlerFunc
	keepSurrogates bool
}

// Default replaces malformed or unrepresentable input with U+FFFD, or '?'
// in targets that cannot represent U+FFFD.
var Default = ErrorHandler{}

// KeepSurrogates passes unpaired surrogates through between the Unicode
// encodings, using UTF-8's extended 3-byte form.
var KeepSurrogates = ErrorHandler{keepSurrogates: true}

// CustomErrors wraps an ErrorHandlerFunc as a policy.
func CustomErrors(f ErrorHandlerFunc) ErrorHandler {
	return ErrorHandler{custom: f}
}

// Transcode converts the string to the target encoding.
//
// Dispatch keys on (source encoding, target encoding, source code range):
// sources already within the target's representable range reinterpret
// zero-copy (re-striding only when the unit width differs), 8-bit fixed
// sources widen per unit without decoding, pure endianness changes byte-swap,
// and everything else decodes codepoint by codepoint under the error policy.
// Results that substituted any replacement report Replaced.
func (s *String) Transcode(target codec.Encoding, h ErrorHandler) (*String, error) {
	if !target.Valid() {
		return nil, errors.Unsupported(errors.PhaseTranscode, "unknown target encoding")
	}
	if s.enc == target {
		return s, nil
	}
	if s.length == 0 {
		return Empty(target), nil
	}
	cr, err := s.CodeRange()
	if err != nil {
		return nil, err
	}

	// Zero-copy reinterpretation.
	if !cr.IsForeignEndian() && !target.IsForeignEndian() && target.CompatibleWith(cr.Range()) {
		return s.reinterpret(target, cr)
	}

	// Pure endianness change within one unit width.
	if swapPair(s.enc) == target {
		return s.byteSwapped(target, cr)
	}

	// 8-bit fixed content that fits the target: widen per unit, no decode.
	if cr.AtMost(coderange.R8Bit) && !cr.IsForeignEndian() &&
		target != codec.UTF8 && maxForRange(cr.Range(), s.enc) <= target.MaxCodePoint() {
		return s.widenTo(target, cr)
	}

	return s.transcodeDecoding(target, h)
}

// ToValid returns the string itself when its content is valid, otherwise a
// re-encoded copy with every malformed sequence replaced under the policy.
func (s *String) ToValid(h ErrorHandler) (*String, error) {
	cr, err := s.CodeRange()
	if err != nil {
		return nil, err
	}
	if !cr.IsBroken() {
		return s, nil
	}
	return s.transcodeDecoding(s.enc, h)
}

func swapPair(e codec.Encoding) codec.Encoding {
	switch e {
	case codec.UTF16LE:
		return codec.UTF16BE
	case codec.UTF16BE:
		return codec.UTF16LE
	case codec.UTF32LE:
		return codec.UTF32BE
	case codec.UTF32BE:
		return codec.UTF32LE
	default:
		return e
	}
}

// reinterpret shares the backing when the stride already matches the
// compacted form in the target, otherwise re-strides into a copy.
func (s *String) reinterpret(target codec.Encoding, cr coderange.Value) (*String, error) {
	desired := cr.MinStride(target.NaturalStride())
	if s.stride == desired {
		out := newString(s.store, target, s.stride, s.replaced)
		out.setCodeRange(cr)
		if n := s.cpLength.Load(); n >= 0 {
			out.setCodePointLength(int(n))
		}
		return out, nil
	}
	b, release, err := s.acquire(errors.PhaseTranscode)
	if err != nil {
		return nil, err
	}
	defer release()
	cpLen := -1
	if n := s.cpLength.Load(); n >= 0 {
		cpLen = int(n)
	}
	out := compactCopy(b, target, s.stride, cr, cpLen)
	if cpLen < 0 && cr.IsFixedWidth() {
		out.setCodePointLength(s.length)
	}
	return out, nil
}

// byteSwapped flips unit byte order between an encoding and its swapped
// twin. Swapping toward native order re-compacts; swapping away keeps the
// natural stride.
func (s *String) byteSwapped(target codec.Encoding, cr coderange.Value) (*String, error) {
	b, release, err := s.acquire(errors.PhaseTranscode)
	if err != nil {
		return nil, err
	}
	defer release()

	natural := target.NaturalStride()
	owned := make([]byte, s.length<<natural)
	for i := 0; i < s.length; i++ {
		u := storage.ReadUnit(b, i, s.stride)
		if s.stride == natural {
			// Same width on both sides: one swap flips the order.
			u = storage.SwapUnit(u, natural)
		} else if target.IsForeignEndian() {
			// Widening compacted native content into swapped form.
			u = storage.SwapUnit(u, natural)
		}
		storage.WriteUnit(owned, i, natural, u)
	}

	flipped := cr.AsPrecise()
	if target.IsForeignEndian() {
		flipped = flipped.WithForeignEndian()
	} else {
		flipped = coderange.Make(flipped.Range())
	}
	cpLen := -1
	if n := s.cpLength.Load(); n >= 0 {
		cpLen = int(n)
	}
	if !target.IsForeignEndian() {
		return compactCopy(owned, target, natural, flipped, cpLen), nil
	}
	out := newString(storage.FromBytes(owned), target, natural, s.replaced)
	out.setCodeRange(flipped)
	if cpLen >= 0 {
		out.setCodePointLength(cpLen)
	}
	return out, nil
}

// widenTo converts 8-bit fixed content by widening each unit, without
// decoding.
func (s *String) widenTo(target codec.Encoding, cr coderange.Value) (*String, error) {
	b, release, err := s.acquire(errors.PhaseTranscode)
	if err != nil {
		return nil, err
	}
	defer release()

	natural := target.NaturalStride()
	stride := natural
	if !target.IsForeignEndian() {
		stride = cr.MinStride(natural)
	}
	owned := make([]byte, s.length<<stride)
	for i := 0; i < s.length; i++ {
		u := storage.ReadUnit(b, i, s.stride)
		if target.IsForeignEndian() {
			u = storage.SwapUnit(u, stride)
		}
		storage.WriteUnit(owned, i, stride, u)
	}

	v := coderange.Make(cr.Range())
	if target.IsForeignEndian() {
		v = v.WithForeignEndian()
	}
	if s.length == 1 && stride == 0 {
		if is := interned(target, owned[0]); is != nil {
			return is, nil
		}
	}
	out := newString(storage.FromBytes(owned), target, stride, s.replaced)
	out.setCodeRange(v)
	out.setCodePointLength(s.length)
	return out, nil
}

// transcodeDecoding is the general slow path: decode each source codepoint,
// apply the error policy, and emit into a target builder.
func (s *String) transcodeDecoding(target codec.Encoding, h ErrorHandler) (*String, error) {
	cpTotal, err := s.CodePointLength()
	if err != nil {
		return nil, err
	}
	// Pre-flight the target's worst-case output size instead of overflowing
	// mid-build.
	if cpTotal > MaxByteLength/worstBytesPerCodePoint(target) {
		return nil, errors.New(errors.PhaseTranscode, errors.KindResourceExhausted).
			Source(s.enc.String()).
			Target(target.String()).
			Detail("worst-case expansion of %d codepoints exceeds the maximum buffer size", cpTotal).
			Build()
	}

	b, release, err := s.acquire(errors.PhaseTranscode)
	if err != nil {
		return nil, err
	}
	defer release()

	bld := newBuilder(target, cpTotal)
	d := s.decoder(b)
	n := d.Len()
	replaced := false
	for i, iter := 0, 0; i < n; iter++ {
		v, units, ok := d.DecodeAt(i)
		safepoint.Poll(iter)
		if ok && v <= target.MaxCodePoint() && !(codepoint.IsSurrogate(v) && rejectsSurrogates(target, h)) {
			bld.append(v)
			i += units
			continue
		}

		if h.keepSurrogates && codepoint.IsSurrogate(v) && surrogateCapable(target) {
			bld.appendSurrogate(v)
			i += units
			continue
		}
		// WTF-8 style sources carry surrogates as extended 3-byte sequences
		// the strict decoder rejects byte by byte; resynchronize over the
		// whole triple.
		if h.keepSurrogates && s.enc == codec.UTF8 && s.stride == 0 && surrogateCapable(target) {
			if sp, ok := wtf8Surrogate(b, i); ok {
				bld.appendSurrogate(sp)
				i += 3
				continue
			}
		}

		if h.custom != nil {
			e := TranscodeError{
				ByteOffset: i << s.stride,
				ByteLength: units << s.stride,
				Source:     s.enc,
				Target:     target,
			}
			rep, consumed := h.custom(e)
			for _, r := range rep {
				if uint32(r) <= target.MaxCodePoint() {
					bld.append(uint32(r))
				} else {
					bld.append(replacementFor(target))
				}
			}
			consumedUnits := consumed >> s.stride
			if consumedUnits < units {
				consumedUnits = units
			}
			if i+consumedUnits > n {
				consumedUnits = n - i
			}
			i += consumedUnits
			replaced = true
			continue
		}

		bld.append(replacementFor(target))
		i += units
		replaced = true
	}

	if bld.byteLen() > MaxByteLength {
		return nil, errors.ResourceExhausted(errors.PhaseTranscode, bld.byteLen())
	}
	out := bld.finish(s.replaced || replaced)
	return out, nil
}

// worstBytesPerCodePoint bounds how many target bytes one source codepoint
// can become: four for UTF-8 and UTF-32, two 16-bit units for UTF-16, one
// byte for the fixed 8-bit targets.
func worstBytesPerCodePoint(target codec.Encoding) int {
	switch target {
	case codec.UTF8, codec.UTF16LE, codec.UTF16BE, codec.UTF32LE, codec.UTF32BE:
		return 4
	default:
		return 1
	}
}

// wtf8Surrogate decodes the extended 3-byte surrogate form at byte i.
func wtf8Surrogate(b []byte, i int) (uint32, bool) {
	if i+2 >= len(b) || b[i] != 0xED || b[i+1] < 0xA0 || b[i+1] > 0xBF || b[i+2]&0xC0 != 0x80 {
		return 0, false
	}
	return 0xD000 | uint32(b[i+1]&0x3F)<<6 | uint32(b[i+2]&0x3F), true
}

func rejectsSurrogates(target codec.Encoding, h ErrorHandler) bool {
	if h.keepSurrogates {
		return false
	}
	return surrogateCapable(target)
}

// surrogateCapable lists the targets where a surrogate codepoint is even
// expressible; elsewhere the max-codepoint check already rejects it.
func surrogateCapable(target codec.Encoding) bool {
	switch target {
	case codec.UTF8, codec.UTF16LE, codec.UTF16BE, codec.UTF32LE, codec.UTF32BE:
		return true
	default:
		return false
	}
}

func replacementFor(target codec.Encoding) uint32 {
	if target.MaxCodePoint() >= codepoint.Replacement {
		return codepoint.Replacement
	}
	return '?'
}

// builder accumulates transcoded output at the target's natural stride and
// tracks what the result's classification will be, so no second scan is
// needed.
type builder struct {
	target    codec.Encoding
	buf       []byte
	units     int
	cpCount   int
	maxCP     uint32
	surrogate bool
	swapped   bool
}

func newBuilder(target codec.Encoding, cpHint int) *builder {
	return &builder{
		target:  target,
		buf:     make([]byte, 0, cpHint<<target.NaturalStride()),
		swapped: target.IsForeignEndian(),
	}
}

func (bl *builder) append(cp uint32) {
	if cp > bl.maxCP {
		bl.maxCP = cp
	}
	bl.cpCount++
	switch bl.target {
	case codec.UTF8:
		bl.buf = codepoint.AppendUTF8(bl.buf, cp)
		bl.units = len(bl.buf)
	case codec.UTF16LE, codec.UTF16BE:
		w := codepoint.UTF16Units(cp)
		bl.buf = append(bl.buf, make([]byte, w*2)...)
		codepoint.PutUTF16(bl.buf, bl.units, cp, bl.swapped)
		bl.units += w
	case codec.UTF32LE, codec.UTF32BE:
		bl.buf = append(bl.buf, 0, 0, 0, 0)
		codepoint.PutUTF32(bl.buf, bl.units, cp, bl.swapped)
		bl.units++
	default:
		bl.buf = append(bl.buf, byte(cp))
		bl.units = len(bl.buf)
	}
}

func (bl *builder) appendSurrogate(cp uint32) {
	bl.surrogate = true
	if cp > bl.maxCP {
		bl.maxCP = cp
	}
	bl.cpCount++
	switch bl.target {
	case codec.UTF8:
		bl.buf = codepoint.AppendUTF8(bl.buf, cp)
		bl.units = len(bl.buf)
	case codec.UTF16LE, codec.UTF16BE:
		bl.buf = append(bl.buf, 0, 0)
		u := cp
		if bl.swapped {
			u = storage.SwapUnit(u, 1)
		}
		storage.WriteUnit(bl.buf, bl.units, 1, u)
		bl.units++
	default: // UTF-32 variants
		bl.buf = append(bl.buf, 0, 0, 0, 0)
		codepoint.PutUTF32(bl.buf, bl.units, cp, bl.swapped)
		bl.units++
	}
}

func (bl *builder) byteLen() int {
	return len(bl.buf)
}

// resultRange derives the precise classification from what was emitted.
func (bl *builder) resultRange() coderange.Value {
	var v coderange.Value
	switch bl.target {
	case codec.UTF8:
		switch {
		case bl.surrogate:
			v = coderange.Make(coderange.RBrokenMulti)
		case bl.maxCP <= 0x7F:
			v = coderange.Make(coderange.R7Bit)
		default:
			v = coderange.Make(coderange.RValidMulti)
		}
	case codec.UTF16LE, codec.UTF16BE:
		switch {
		case bl.surrogate:
			v = coderange.Make(coderange.RBrokenMulti)
		case bl.maxCP <= 0x7F:
			v = coderange.Make(coderange.R7Bit)
		case bl.maxCP <= 0xFF:
			v = coderange.Make(coderange.R8Bit)
		case bl.maxCP <= 0xFFFF:
			v = coderange.Make(coderange.R16Bit)
		default:
			v = coderange.Make(coderange.RValidMulti)
		}
	case codec.UTF32LE, codec.UTF32BE:
		switch {
		case bl.surrogate:
			v = coderange.Make(coderange.RBrokenFixed)
		case bl.maxCP <= 0x7F:
			v = coderange.Make(coderange.R7Bit)
		case bl.maxCP <= 0xFF:
			v = coderange.Make(coderange.R8Bit)
		case bl.maxCP <= 0xFFFF:
			v = coderange.Make(coderange.R16Bit)
		default:
			v = coderange.Make(coderange.RValidFixed)
		}
	default:
		if bl.maxCP <= 0x7F {
			v = coderange.Make(coderange.R7Bit)
		} else {
			v = coderange.Make(coderange.R8Bit)
		}
	}
	if bl.swapped {
		v = v.WithForeignEndian()
	}
	return v
}

func (bl *builder) finish(replaced bool) *String {
	cr := bl.resultRange()
	natural := bl.target.NaturalStride()
	if len(bl.buf) == 0 {
		return Empty(bl.target)
	}
	var out *String
	if !bl.swapped && cr.MinStride(natural) < natural {
		out = compactCopy(bl.buf, bl.target, natural, cr, bl.cpCount)
	} else {
		out = newString(storage.FromBytes(bl.buf), bl.target, natural, false)
		out.setCodeRange(cr)
		out.setCodePointLength(bl.cpCount)
	}
	if replaced && !out.replaced {
		// Interned singletons stay pristine; flag a private copy instead.
		if flagged := out.withReplacedFlag(); flagged != nil {
			out = flagged
		}
	}
	return out
}

// withReplacedFlag returns a copy of the instance carrying the replaced
// marker, sharing the backing buffer.
func (s *String) withReplacedFlag() *String {
	out := newString(s.store, s.enc, s.stride, true)
	out.copyAttrsFrom(s)
	return out
}

// DecodeWith constructs a UTF-8 String from bytes in an encoding handled by
// a pluggable codec.
func DecodeWith(c codec.Codec, b []byte) (*String, error) {
	out, replaced, err := c.DecodeToUTF8(b)
	if err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidEncoding).
			Source(c.Name()).
			Cause(err).
			Build()
	}
	if len(out) > MaxByteLength {
		return nil, errors.ResourceExhausted(errors.PhaseDecode, len(out))
	}
	if len(out) == 0 {
		return Empty(codec.UTF8), nil
	}
	s := newString(storage.FromBytes(out), codec.UTF8, 0, replaced)
	if utf8.Valid(out) {
		if classify.Is7Bit(out) {
			s.setCodeRange(coderange.Make(coderange.R7Bit))
		} else {
			s.setCodeRange(coderange.Make(coderange.RValidMulti))
		}
	}
	return s, nil
}

// EncodeWith converts the string into a pluggable codec's encoding. The
// bool result reports replacement of unrepresentable content anywhere along
// the chain.
func (s *String) EncodeWith(c codec.Codec) ([]byte, bool, error) {
	u, err := s.Transcode(codec.UTF8, Default)
	if err != nil {
		return nil, false, err
	}
	b, release, err := u.acquire(errors.PhaseTranscode)
	if err != nil {
		return nil, false, err
	}
	defer release()
	out, replaced, err := c.EncodeFromUTF8(b)
	if err != nil {
		return nil, false, errors.New(errors.PhaseTranscode, errors.KindInvalidEncoding).
			Source(codec.UTF8.String()).
			Target(c.Name()).
			Cause(err).
			Build()
	}
	return out, replaced || u.Replaced(), nil
}
