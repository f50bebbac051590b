// Package errors provides structured error types for the strand library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: the encodings involved, the offending byte
// offset, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTranscode, errors.KindResourceExhausted).
//		Source("utf-8").
//		Target("utf-32le").
//		Offset(1 << 30).
//		Detail("worst-case expansion exceeds maximum buffer size").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseIndex, 10, 5)
//	err := errors.InvalidEncoding(errors.PhaseDecode, "utf-16le", "byte length 7 is not a multiple of 2")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
