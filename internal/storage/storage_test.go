package storage

import (
	"bytes"
	"errors"
	"testing"
	"unsafe"

	stranderr "github.com/wippyai/strand/errors"
)

func TestReadWriteUnit(t *testing.T) {
	tests := []struct {
		name   string
		stride int
		units  []uint32
	}{
		{"stride 0", 0, []uint32{0, 0x41, 0x7F, 0xFF}},
		{"stride 1", 1, []uint32{0, 0x41, 0xD800, 0xFFFF}},
		{"stride 2", 2, []uint32{0, 0x41, 0x10FFFF, 0xFFFFFFFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]byte, len(tt.units)<<tt.stride)
			for i, u := range tt.units {
				WriteUnit(b, i, tt.stride, u)
			}
			if got := UnitLen(b, tt.stride); got != len(tt.units) {
				t.Fatalf("UnitLen = %d, want %d", got, len(tt.units))
			}
			for i, u := range tt.units {
				if got := ReadUnit(b, i, tt.stride); got != u {
					t.Errorf("unit %d = %#x, want %#x", i, got, u)
				}
			}
		})
	}
}

func TestSwapUnit(t *testing.T) {
	if got := SwapUnit(0x1234, 1); got != 0x3412 {
		t.Errorf("swap16 = %#x", got)
	}
	if got := SwapUnit(0x12345678, 2); got != 0x78563412 {
		t.Errorf("swap32 = %#x", got)
	}
	if got := SwapUnit(0xAB, 0); got != 0xAB {
		t.Errorf("swap8 must be identity, got %#x", got)
	}
}

func TestSliceSharesBacking(t *testing.T) {
	base := []byte("hello world")
	s := FromBytes(base)

	sub, err := s.Slice(6, 5)
	if err != nil {
		t.Fatal(err)
	}
	b, release, err := sub.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer release()
	if !bytes.Equal(b, []byte("world")) {
		t.Errorf("window = %q", b)
	}
	// Same backing array, not a copy.
	if &b[0] != &base[6] {
		t.Error("slice copied instead of sharing")
	}

	if _, err := s.Slice(8, 10); err == nil {
		t.Error("out-of-range slice must fail")
	}
}

func TestMaterializeSevers(t *testing.T) {
	base := []byte("abc")
	s := FromBytes(base)
	owned, err := s.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	b, release, _ := owned.Acquire()
	defer release()
	if &b[0] == &base[0] {
		t.Error("materialize must copy")
	}
	if !bytes.Equal(b, base) {
		t.Errorf("materialized = %q", b)
	}
}

func TestNativeRoundTrip(t *testing.T) {
	raw := []byte{0x63, 0x61, 0x66, 0xC3, 0xA9}
	released := false
	arena := NewArena(func() { released = true })
	s := FromNative(unsafe.Pointer(&raw[0]), len(raw), arena)

	if !s.IsNative() {
		t.Fatal("native storage not flagged native")
	}
	b, release, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, raw) {
		t.Errorf("native window = %x", b)
	}
	release()

	sub, err := s.Slice(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	sb, subRelease, err := sub.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sb, raw[3:]) {
		t.Errorf("native sub-window = %x", sb)
	}

	// Close while pinned: release deferred until the pin drops.
	arena.Close()
	if released {
		t.Error("arena released while pinned")
	}
	subRelease()
	if !released {
		t.Error("arena not released after last unpin")
	}

	if _, _, err := s.Acquire(); err == nil {
		t.Error("acquire after close must fail")
	} else {
		var se *stranderr.Error
		if !errors.As(err, &se) || se.Kind != stranderr.KindArenaClosed {
			t.Errorf("wrong error kind: %v", err)
		}
	}
}

func TestArenaCloseIdempotent(t *testing.T) {
	n := 0
	a := NewArena(func() { n++ })
	a.Close()
	a.Close()
	if n != 1 {
		t.Errorf("release ran %d times", n)
	}
}
