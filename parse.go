package strand

import (
	"math"
	"strconv"

	"github.com/wippyai/strand/errors"
	"github.com/wippyai/strand/internal/storage"
)

// ParseInt interprets the string as a signed integer in the given radix.
// The digit scan runs directly over storage units at any stride; an optional
// leading '+' or '-' is accepted, nothing else around the digits is.
func (s *String) ParseInt(radix int) (int64, error) {
	if radix < 2 || radix > 36 {
		return 0, errors.Unsupported(errors.PhaseParse, "radix out of range")
	}
	b, release, err := s.acquire(errors.PhaseParse)
	if err != nil {
		return 0, err
	}
	defer release()

	i, neg, err := parseSign(b, s)
	if err != nil {
		return 0, err
	}
	mag, err := parseMagnitude(b, s, i, radix)
	if err != nil {
		return 0, err
	}
	if neg {
		if mag > uint64(math.MaxInt64)+1 {
			return 0, errors.NotANumber("value underflows int64")
		}
		return -int64(mag), nil
	}
	if mag > math.MaxInt64 {
		return 0, errors.NotANumber("value overflows int64")
	}
	return int64(mag), nil
}

// ParseUint is ParseInt without the sign.
func (s *String) ParseUint(radix int) (uint64, error) {
	if radix < 2 || radix > 36 {
		return 0, errors.Unsupported(errors.PhaseParse, "radix out of range")
	}
	b, release, err := s.acquire(errors.PhaseParse)
	if err != nil {
		return 0, err
	}
	defer release()
	return parseMagnitude(b, s, 0, radix)
}

// ParseFloat interprets the string as a decimal floating point number. The
// content must be pure ASCII; the materialized digits defer to strconv for
// the actual conversion.
func (s *String) ParseFloat() (float64, error) {
	if s.length == 0 {
		return 0, errors.NotANumber("empty string")
	}
	b, release, err := s.acquire(errors.PhaseParse)
	if err != nil {
		return 0, err
	}
	defer release()

	ascii := make([]byte, s.length)
	for i := 0; i < s.length; i++ {
		u := storage.ReadUnit(b, i, s.stride)
		if s.enc.IsForeignEndian() {
			u = storage.SwapUnit(u, s.stride)
		}
		if u > 0x7F {
			return 0, errors.NotANumber("non-ASCII unit at index %d", i)
		}
		ascii[i] = byte(u)
	}
	f, err := strconv.ParseFloat(string(ascii), 64)
	if err != nil {
		return 0, errors.NotANumber("%s", err.(*strconv.NumError).Err)
	}
	return f, nil
}

func parseSign(b []byte, s *String) (int, bool, error) {
	if s.length == 0 {
		return 0, false, errors.NotANumber("empty string")
	}
	switch unitAt(b, s, 0) {
	case '-':
		return 1, true, nil
	case '+':
		return 1, false, nil
	}
	return 0, false, nil
}

// parseMagnitude accumulates radix digits from unit index i to the end.
func parseMagnitude(b []byte, s *String, i, radix int) (uint64, error) {
	if i >= s.length {
		return 0, errors.NotANumber("no digits")
	}
	cutoff := math.MaxUint64/uint64(radix) + 1
	var mag uint64
	for ; i < s.length; i++ {
		u := unitAt(b, s, i)
		var d uint32
		switch {
		case u >= '0' && u <= '9':
			d = u - '0'
		case u >= 'a' && u <= 'z':
			d = u - 'a' + 10
		case u >= 'A' && u <= 'Z':
			d = u - 'A' + 10
		default:
			return 0, errors.NotANumber("invalid digit at index %d", i)
		}
		if d >= uint32(radix) {
			return 0, errors.NotANumber("digit at index %d exceeds radix %d", i, radix)
		}
		if mag >= cutoff {
			return 0, errors.NotANumber("value overflows uint64")
		}
		next := mag*uint64(radix) + uint64(d)
		if next < mag {
			return 0, errors.NotANumber("value overflows uint64")
		}
		mag = next
	}
	return mag, nil
}

func unitAt(b []byte, s *String, i int) uint32 {
	u := storage.ReadUnit(b, i, s.stride)
	if s.enc.IsForeignEndian() {
		u = storage.SwapUnit(u, s.stride)
	}
	return u
}
