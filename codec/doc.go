// Package codec defines the encoding boundary of the string engine.
//
// The built-in encodings (UTF-8, UTF-16 and UTF-32 in both byte orders,
// ASCII, Latin-1, and raw bytes) are a closed enum with static descriptors:
// natural stride, maximum codepoint, byte-order marker, and the widest code
// range accepted for zero-copy reinterpretation.
//
// Everything else routes through the pluggable Codec interface. A Codec only
// needs to move bytes to and from UTF-8 and count codepoints; the engine
// treats its results opaquely. FromXText adapts any golang.org/x/text
// encoding.Encoding (charmap, japanese, korean, ...) into a Codec:
//
//	codec.Register(codec.FromXText("shift-jis", japanese.ShiftJIS))
//	c, ok := codec.Lookup("shift-jis")
package codec
