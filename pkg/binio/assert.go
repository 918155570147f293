package binio

import (
	"bytes"
	"fmt"
	"slices"
)

func assertValue[T comparable](r *Reader, kind string, start int, got T, format string, allowed []T) T {
	if r.err != nil || slices.Contains(allowed, got) {
		return got
	}
	expected := make([]string, len(allowed))
	for i, v := range allowed {
		expected[i] = fmt.Sprintf(format, v)
	}
	r.Fail(&AssertError{
		Offset:   start,
		Kind:     kind,
		Got:      fmt.Sprintf(format, got),
		Expected: expected,
	})
	return got
}

// AssertByte reads a byte that must be one of allowed.
func (r *Reader) AssertByte(allowed ...byte) byte {
	start := r.pos
	return assertValue(r, "byte", start, r.Byte(), "0x%02X", allowed)
}

// AssertBool reads a boolean that must equal want.
func (r *Reader) AssertBool(want bool) bool {
	start := r.pos
	return assertValue(r, "bool", start, r.Bool(), "%t", []bool{want})
}

// AssertInt16 reads a signed 16-bit integer that must be one of allowed.
func (r *Reader) AssertInt16(allowed ...int16) int16 {
	start := r.pos
	return assertValue(r, "int16", start, r.Int16(), "%d", allowed)
}

// AssertUint16 reads an unsigned 16-bit integer that must be one of allowed.
func (r *Reader) AssertUint16(allowed ...uint16) uint16 {
	start := r.pos
	return assertValue(r, "uint16", start, r.Uint16(), "0x%X", allowed)
}

// AssertInt32 reads a signed 32-bit integer that must be one of allowed.
func (r *Reader) AssertInt32(allowed ...int32) int32 {
	start := r.pos
	return assertValue(r, "int32", start, r.Int32(), "%d", allowed)
}

// AssertUint32 reads an unsigned 32-bit integer that must be one of allowed.
func (r *Reader) AssertUint32(allowed ...uint32) uint32 {
	start := r.pos
	return assertValue(r, "uint32", start, r.Uint32(), "0x%X", allowed)
}

// AssertInt64 reads a signed 64-bit integer that must be one of allowed.
func (r *Reader) AssertInt64(allowed ...int64) int64 {
	start := r.pos
	return assertValue(r, "int64", start, r.Int64(), "%d", allowed)
}

// AssertASCII reads len(allowed[0]) bytes that must spell one of allowed.
// All allowed strings must have the same length.
func (r *Reader) AssertASCII(allowed ...string) string {
	if len(allowed) == 0 {
		panic("binio: AssertASCII needs at least one allowed value")
	}
	start := r.pos
	return assertValue(r, "ascii", start, r.ASCII(len(allowed[0])), "%q", allowed)
}

// AssertPattern reads n bytes that must all equal b.
func (r *Reader) AssertPattern(n int, b byte) {
	start := r.pos
	got := r.take(n)
	if got == nil {
		return
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{b}, n)) {
		r.Fail(&AssertError{
			Offset:   start,
			Kind:     fmt.Sprintf("pattern[%d]", n),
			Got:      fmt.Sprintf("% X", got),
			Expected: []string{fmt.Sprintf("%d x 0x%02X", n, b)},
		})
	}
}
