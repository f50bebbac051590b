package storage

import (
	"encoding/binary"
	"math/bits"
	"unsafe"

	"github.com/wippyai/strand/errors"
)

// MaxByteLength caps every buffer the engine will materialize.
const MaxByteLength = (1 << 30) - 1

// Storage is the byte backing of a string.
//
// Managed backings hold their window directly in data. Native backings hold
// a raw pointer plus the arena that anchors the allocation; data is nil.
type Storage struct {
	data  []byte
	ptr   unsafe.Pointer
	arena *Arena
	size  int
}

// FromBytes wraps a managed window. The caller decides sharing semantics:
// pass a sub-slice to share, a fresh copy to own.
func FromBytes(b []byte) Storage {
	return Storage{data: b, size: len(b)}
}

// FromNative wraps a raw allocation of byteLen bytes anchored by arena.
func FromNative(ptr unsafe.Pointer, byteLen int, arena *Arena) Storage {
	return Storage{ptr: ptr, arena: arena, size: byteLen}
}

// IsNative reports whether the backing is a raw allocation.
func (s Storage) IsNative() bool {
	return s.arena != nil
}

// ByteLen returns the window length in bytes.
func (s Storage) ByteLen() int {
	return s.size
}

// Acquire returns the backing bytes and a release function bracketing the
// access. For native backings it pins the arena; release must be called as
// soon as the returned slice is no longer dereferenced. For managed backings
// the release is a no-op and may be called at any point.
func (s Storage) Acquire() ([]byte, func(), error) {
	if s.arena == nil {
		return s.data, func() {}, nil
	}
	if err := s.arena.Pin(); err != nil {
		return nil, nil, err
	}
	b := unsafe.Slice((*byte)(s.ptr), s.size)
	return b, s.arena.Unpin, nil
}

// Materialize copies the window into a freshly owned managed buffer,
// severing any view or native relationship.
func (s Storage) Materialize() (Storage, error) {
	b, release, err := s.Acquire()
	if err != nil {
		return Storage{}, err
	}
	defer release()
	owned := make([]byte, len(b))
	copy(owned, b)
	return FromBytes(owned), nil
}

// Slice returns a sub-window [byteOff, byteOff+byteLen) sharing the backing.
func (s Storage) Slice(byteOff, byteLen int) (Storage, error) {
	if byteOff < 0 || byteLen < 0 || byteOff+byteLen > s.size {
		return Storage{}, errors.RegionOutOfBounds(errors.PhaseStorage, byteOff, byteLen, s.size)
	}
	if s.arena == nil {
		return FromBytes(s.data[byteOff : byteOff+byteLen]), nil
	}
	return Storage{
		ptr:   unsafe.Add(s.ptr, byteOff),
		arena: s.arena,
		size:  byteLen,
	}, nil
}

// ReadUnit reads the unit at index i from a buffer of the given stride,
// widened to uint32. Units are little-endian.
func ReadUnit(b []byte, i, stride int) uint32 {
	switch stride {
	case 0:
		return uint32(b[i])
	case 1:
		return uint32(binary.LittleEndian.Uint16(b[i<<1:]))
	default:
		return binary.LittleEndian.Uint32(b[i<<2:])
	}
}

// WriteUnit writes unit u at index i into a buffer of the given stride.
// Values wider than the stride are truncated; callers guarantee fit.
func WriteUnit(b []byte, i, stride int, u uint32) {
	switch stride {
	case 0:
		b[i] = byte(u)
	case 1:
		binary.LittleEndian.PutUint16(b[i<<1:], uint16(u))
	default:
		binary.LittleEndian.PutUint32(b[i<<2:], u)
	}
}

// SwapUnit reverses the byte order of a unit at the given stride.
func SwapUnit(u uint32, stride int) uint32 {
	switch stride {
	case 0:
		return u
	case 1:
		return uint32(bits.ReverseBytes16(uint16(u)))
	default:
		return bits.ReverseBytes32(u)
	}
}

// UnitLen returns the number of stride-sized units in b.
func UnitLen(b []byte, stride int) int {
	return len(b) >> stride
}
