package storage

import (
	"sync"

	"github.com/wippyai/strand/errors"
)

// Arena anchors a native allocation for the lifetime of raw accesses.
//
// The holder of a native pointer creates an Arena around it and closes the
// arena when the allocation is released. Readers pin the arena for the
// duration of every dereference; Close defers the release callback until the
// last pin drops. A pin attempted after Close is a hard error, never a
// dangling read.
type Arena struct {
	mu      sync.Mutex
	pins    int
	closed  bool
	release func()
}

// NewArena creates an arena. release, if non-nil, runs exactly once: at Close
// when unpinned, or when the last concurrent pin drops after Close.
func NewArena(release func()) *Arena {
	return &Arena{release: release}
}

// Pin marks the start of a raw access.
func (a *Arena) Pin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.ArenaClosed()
	}
	a.pins++
	return nil
}

// Unpin marks the end of a raw access started by a successful Pin.
func (a *Arena) Unpin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pins <= 0 {
		panic("storage: arena unpin without pin")
	}
	a.pins--
	if a.closed && a.pins == 0 {
		a.runRelease()
	}
}

// Close marks the backing allocation as released. Idempotent.
func (a *Arena) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.pins == 0 {
		a.runRelease()
	}
}

func (a *Arena) runRelease() {
	if a.release != nil {
		r := a.release
		a.release = nil
		r()
	}
}
