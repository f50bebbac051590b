package codec

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// xtextCodec adapts a golang.org/x/text encoding into a Codec.
type xtextCodec struct {
	name string
	enc  encoding.Encoding
}

// FromXText wraps any x/text encoding.Encoding as a Codec. Call Register on
// the result to make it available to the engine.
func FromXText(name string, enc encoding.Encoding) Codec {
	return &xtextCodec{name: name, enc: enc}
}

func (c *xtextCodec) Name() string {
	return c.name
}

func (c *xtextCodec) DecodeToUTF8(b []byte) ([]byte, bool, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, false, err
	}
	// x/text decoders substitute U+FFFD for undecodable input instead of
	// failing. Input that legitimately encodes U+FFFD is indistinguishable
	// from a substitution here; the flag is an upper bound.
	replaced := bytes.ContainsRune(out, utf8.RuneError)
	return out, replaced, nil
}

func (c *xtextCodec) EncodeFromUTF8(b []byte) ([]byte, bool, error) {
	out, err := c.enc.NewEncoder().Bytes(b)
	if err == nil {
		return out, false, nil
	}
	// Strict pass failed on an unrepresentable codepoint. Redo with
	// substitution and report the replacement.
	out, err = encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes(b)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *xtextCodec) CodePointLength(b []byte) (int, error) {
	out, _, err := c.DecodeToUTF8(b)
	if err != nil {
		return 0, err
	}
	return utf8.RuneCount(out), nil
}
