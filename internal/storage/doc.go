// Package storage owns the byte backings of strings.
//
// A Storage is either a managed byte slice (owned, or a shared window into
// another string's buffer) or a raw native allocation. Native backings are
// anchored by an Arena: every raw access pins the arena for its duration, so
// the allocation cannot be released out from under a reader. Managed windows
// keep their owning array alive through ordinary slice aliasing.
//
// All unit reads and writes go through ReadUnit/WriteUnit, which widen to
// uint32 regardless of stride. Unit byte order is little-endian; byte-swapped
// (foreign-endian) content is handled by callers via SwapUnit.
package storage
