package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode    Phase = "decode"    // bytes to string construction
	PhaseClassify  Phase = "classify"  // code range computation
	PhaseIndex     Phase = "index"     // raw/codepoint index translation
	PhaseSearch    Phase = "search"    // indexOf/lastIndexOf
	PhaseBuild     Phase = "build"     // substring/concat
	PhaseTranscode Phase = "transcode" // encoding conversion
	PhaseParse     Phase = "parse"     // numeric parsing
	PhaseStorage   Phase = "storage"   // buffer/native memory access
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidEncoding   Kind = "invalid_encoding"
	KindResourceExhausted Kind = "resource_exhausted"
	KindUnsupported       Kind = "unsupported"
	KindNotANumber        Kind = "not_a_number"
	KindArenaClosed       Kind = "arena_closed"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Source    string
	Target    string
	Detail    string
	Offset    int
	HasOrigin bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Source != "" || e.Target != "" {
		b.WriteString(": ")
		if e.Source != "" && e.Target != "" {
			b.WriteString(e.Source)
			b.WriteString(" -> ")
			b.WriteString(e.Target)
		} else if e.Source != "" {
			b.WriteString(e.Source)
		} else {
			b.WriteString(e.Target)
		}
	}

	if e.HasOrigin {
		fmt.Fprintf(&b, " at byte %d", e.Offset)
	}

	if e.Detail != "" {
		if e.Source != "" || e.Target != "" || e.HasOrigin {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Source sets the source encoding name
func (b *Builder) Source(name string) *Builder {
	b.err.Source = name
	return b
}

// Target sets the target encoding name
func (b *Builder) Target(name string) *Builder {
	b.err.Target = name
	return b
}

// Offset sets the byte offset the error originates at
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	b.err.HasOrigin = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common patterns

// OutOfBounds creates an out-of-bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// RegionOutOfBounds creates an out-of-bounds error for a [from, from+length) region
func RegionOutOfBounds(phase Phase, from, regionLength, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("region [%d, %d) out of bounds (length %d)", from, from+regionLength, length),
		Value:  from,
	}
}

// InvalidEncoding creates a construction error for bytes incompatible
// with the requested encoding
func InvalidEncoding(phase Phase, encoding, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEncoding,
		Source: encoding,
		Detail: detail,
	}
}

// ResourceExhausted creates an error for results exceeding the maximum
// representable buffer size
func ResourceExhausted(phase Phase, byteLength int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindResourceExhausted,
		Detail: fmt.Sprintf("result of %d bytes exceeds maximum buffer size", byteLength),
		Value:  byteLength,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotANumber creates a parse failure error
func NotANumber(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindNotANumber,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// ArenaClosed creates an error for raw-memory access after the backing
// arena has been released
func ArenaClosed() *Error {
	return &Error{
		Phase:  PhaseStorage,
		Kind:   KindArenaClosed,
		Detail: "native allocation released while still referenced",
	}
}
