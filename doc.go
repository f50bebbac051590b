// Package strand implements a compact multi-encoding string engine.
//
// A strand String is an immutable sequence of storage units in one of the
// built-in encodings (UTF-8, UTF-16 and UTF-32 in both byte orders, ASCII,
// Latin-1, raw bytes). Storage adapts to content: a string holds the
// narrowest stride (1, 2 or 4 bytes per unit) that can represent it, and
// derived attributes such as the codepoint count, the code range
// classification, and the hash are computed lazily and cached on first use.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	strand/              Root package: the String type and its operations
//	├── coderange/       Content-classification lattice values
//	├── codec/           Encoding descriptors and the pluggable codec registry
//	├── errors/          Structured error types
//	└── internal/
//	    ├── storage/     Byte buffers, native memory, arena anchoring
//	    ├── classify/    Per-encoding validity and width scanners
//	    ├── codepoint/   Codepoint codecs, iterators, index translation
//	    └── safepoint/   Cooperative yield hook for slow decode loops
//
// # Quick Start
//
// Decode bytes, inspect, search, transcode:
//
//	s, err := strand.Decode([]byte("café"), codec.UTF8, true)
//	s.Length()          // 5 storage units (bytes)
//	s.CodePointLength() // 4 codepoints
//	s.CodeRange()       // valid-multi
//
//	i, _ := s.IndexOf('é', 0, s.Length())
//	t, _ := s.Transcode(codec.UTF16LE, strand.Default)
//
// # Immutability and Sharing
//
// Strings are safe to share across goroutines without synchronization. The
// only mutation is the idempotent attribute cache: concurrent readers may
// compute the same attribute redundantly and race to store an identical (or
// equally precise) value. Substring views share the parent's buffer and keep
// it alive; Materialize severs the relationship.
//
// Native-memory-backed strings anchor their allocation with a storage arena:
// every raw access pins the arena, and releasing the allocation while pinned
// is deferred until the access ends.
package strand
