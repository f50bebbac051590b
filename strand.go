package strand

import (
	"sync/atomic"

	"github.com/wippyai/strand/codec"
	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/codepoint"
	"github.com/wippyai/strand/internal/storage"
)

// String is an immutable, compactly stored string in one of the built-in
// encodings. Instances are created by Decode, FromGoString, FromNative and
// the substring/concat/transcode operations; the zero value is not usable.
//
// A String may be a view sharing another string's buffer, or may be backed
// by native memory anchored through a storage arena. All attribute fields
// are lazily derived caches; see the package documentation for the
// concurrency model.
type String struct {
	store    storage.Storage
	enc      codec.Encoding
	length   int // storage units
	stride   int
	replaced bool

	// Lazy attribute cells. codeRange holds coderange.Value+1 (0 unknown),
	// cpLength holds the codepoint count (-1 unknown), hash is forced
	// nonzero (0 unknown).
	codeRange atomic.Uint32
	cpLength  atomic.Int64
	hash      atomic.Uint64
}

func newString(store storage.Storage, enc codec.Encoding, stride int, replaced bool) *String {
	s := &String{
		store:    store,
		enc:      enc,
		length:   store.ByteLen() >> stride,
		stride:   stride,
		replaced: replaced,
	}
	s.cpLength.Store(-1)
	return s
}

// Length returns the string length in storage units.
func (s *String) Length() int {
	return s.length
}

// ByteLength returns length << stride.
func (s *String) ByteLength() int {
	return s.length << s.stride
}

// Stride returns the log2 byte width of one storage unit (0, 1 or 2).
func (s *String) Stride() int {
	return s.stride
}

// Encoding returns the encoding tag.
func (s *String) Encoding() codec.Encoding {
	return s.enc
}

// IsNative reports whether the backing is raw native memory.
func (s *String) IsNative() bool {
	return s.store.IsNative()
}

// Replaced reports whether this string was produced by an operation that
// substituted a replacement for malformed or unrepresentable input.
func (s *String) Replaced() bool {
	return s.replaced
}

// IsEmpty reports a zero-length string.
func (s *String) IsEmpty() bool {
	return s.length == 0
}

// acquire brackets raw access to the backing bytes.
func (s *String) acquire(phase errors.Phase) ([]byte, func(), error) {
	b, release, err := s.store.Acquire()
	if err != nil {
		return nil, nil, errors.New(phase, errors.KindArenaClosed).
			Source(s.enc.String()).
			Cause(err).
			Detail("backing allocation no longer live").
			Build()
	}
	return b, release, nil
}

// decoder builds a codepoint decoder over an acquired window.
func (s *String) decoder(b []byte) codepoint.Decoder {
	return codepoint.Decoder{
		B:       b,
		Enc:     s.enc,
		Stride:  s.stride,
		Swapped: s.enc.IsForeignEndian(),
	}
}

// Bytes returns a copy of the backing window.
func (s *String) Bytes() ([]byte, error) {
	b, release, err := s.acquire(errors.PhaseStorage)
	if err != nil {
		return nil, err
	}
	defer release()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Materialize copies the string into a freshly owned managed buffer,
// severing any view or native-memory relationship. Attributes carry over.
func (s *String) Materialize() (*String, error) {
	store, err := s.store.Materialize()
	if err != nil {
		return nil, errors.New(errors.PhaseStorage, errors.KindArenaClosed).
			Source(s.enc.String()).
			Cause(err).
			Build()
	}
	out := newString(store, s.enc, s.stride, s.replaced)
	out.copyAttrsFrom(s)
	return out, nil
}

// Equal reports unit-wise equality: same encoding, same length, and the same
// widened unit at every index, regardless of stride.
func (s *String) Equal(o *String) (bool, error) {
	if s == o {
		return true, nil
	}
	if s.enc != o.enc || s.length != o.length {
		return false, nil
	}
	sb, sRelease, err := s.acquire(errors.PhaseStorage)
	if err != nil {
		return false, err
	}
	defer sRelease()
	ob, oRelease, err := o.acquire(errors.PhaseStorage)
	if err != nil {
		return false, err
	}
	defer oRelease()

	if s.stride == o.stride {
		return bytesEqual(sb, ob), nil
	}
	for i := 0; i < s.length; i++ {
		if storage.ReadUnit(sb, i, s.stride) != storage.ReadUnit(ob, i, o.stride) {
			return false, nil
		}
	}
	return true, nil
}

// CompareBytes lexicographically orders two strings of the same encoding by
// widened unit value, regardless of stride. The result is -1, 0 or 1; when
// one string is a prefix of the other, the shorter orders first.
func (s *String) CompareBytes(o *String) (int, error) {
	if o.enc != s.enc {
		return 0, compareEncodingMismatch(s, o)
	}
	if s == o {
		return 0, nil
	}
	sb, sRelease, err := s.acquire(errors.PhaseStorage)
	if err != nil {
		return 0, err
	}
	defer sRelease()
	ob, oRelease, err := o.acquire(errors.PhaseStorage)
	if err != nil {
		return 0, err
	}
	defer oRelease()

	n := s.length
	if o.length < n {
		n = o.length
	}
	for i := 0; i < n; i++ {
		su := storage.ReadUnit(sb, i, s.stride)
		ou := storage.ReadUnit(ob, i, o.stride)
		if su != ou {
			if su < ou {
				return -1, nil
			}
			return 1, nil
		}
	}
	switch {
	case s.length < o.length:
		return -1, nil
	case s.length > o.length:
		return 1, nil
	default:
		return 0, nil
	}
}

// RegionEqual reports whether length units of s starting at at equal the
// length units of o starting at oAt, compared by widened unit value so the
// operands may sit at different strides.
func (s *String) RegionEqual(at int, o *String, oAt, length int) (bool, error) {
	if o.enc != s.enc {
		return false, compareEncodingMismatch(s, o)
	}
	if length < 0 || at < 0 || at+length > s.length {
		return false, errors.RegionOutOfBounds(errors.PhaseIndex, at, length, s.length)
	}
	if oAt < 0 || oAt+length > o.length {
		return false, errors.RegionOutOfBounds(errors.PhaseIndex, oAt, length, o.length)
	}
	sb, sRelease, err := s.acquire(errors.PhaseStorage)
	if err != nil {
		return false, err
	}
	defer sRelease()
	ob, oRelease, err := o.acquire(errors.PhaseStorage)
	if err != nil {
		return false, err
	}
	defer oRelease()

	for i := 0; i < length; i++ {
		if storage.ReadUnit(sb, at+i, s.stride) != storage.ReadUnit(ob, oAt+i, o.stride) {
			return false, nil
		}
	}
	return true, nil
}

func compareEncodingMismatch(s, o *String) error {
	return errors.New(errors.PhaseIndex, errors.KindUnsupported).
		Source(s.enc.String()).
		Target(o.enc.String()).
		Detail("comparison requires matching encodings").
		Build()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CodePointAt decodes the codepoint starting at raw index i. Malformed
// positions yield U+FFFD. The second result is the number of storage units
// the codepoint occupies.
func (s *String) CodePointAt(i int) (rune, int, error) {
	if i < 0 || i >= s.length {
		return 0, 0, errors.OutOfBounds(errors.PhaseIndex, i, s.length)
	}
	b, release, err := s.acquire(errors.PhaseIndex)
	if err != nil {
		return 0, 0, err
	}
	defer release()
	cp, units, ok := s.decoder(b).DecodeAt(i)
	if !ok {
		return codepoint.Replacement, units, nil
	}
	return rune(cp), units, nil
}

// GoString materializes the content as a Go string, transcoding to UTF-8
// with default error handling when needed.
func (s *String) GoString() (string, error) {
	u, err := s.Transcode(codec.UTF8, Default)
	if err != nil {
		return "", err
	}
	b, release, err := u.acquire(errors.PhaseTranscode)
	if err != nil {
		return "", err
	}
	defer release()
	return string(b), nil
}
