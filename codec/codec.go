package codec

import (
	"sync"
)

// Codec converts between an external encoding and UTF-8. The engine calls it
// only when no built-in fast path applies and treats its output opaquely.
type Codec interface {
	Name() string
	// DecodeToUTF8 converts raw bytes into valid UTF-8. replaced reports
	// whether any malformed or unmappable input was substituted.
	DecodeToUTF8(b []byte) (out []byte, replaced bool, err error)
	// EncodeFromUTF8 converts valid UTF-8 into the codec's byte form.
	// replaced reports substitution of unrepresentable codepoints.
	EncodeFromUTF8(b []byte) (out []byte, replaced bool, err error)
	// CodePointLength counts the codepoints the raw bytes decode to.
	CodePointLength(b []byte) (int, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Codec{}
)

// Register makes a codec available under its name, replacing any previous
// registration.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name()] = c
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}
