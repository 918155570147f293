// Package binio implements positioned binary reading and writing over
// in-memory buffers: typed primitive access, scoped seeks, assertion reads
// for reserved and enumerated fields, and a named reservation table for
// offsets that are only known after the data they point at is written.
package binio

import (
	"errors"
	"fmt"
	"strings"
)

// Cursor errors.
var (
	ErrTruncated  = errors.New("binio: read past end of data")
	ErrOutOfRange = errors.New("binio: position out of range")
	ErrAssert     = errors.New("binio: assertion failed")
	ErrBoolean    = errors.New("binio: invalid boolean byte")
	ErrStepOut    = errors.New("binio: step out without step in")
)

// AssertError reports a field whose observed value is not among the values
// the format allows there.
type AssertError struct {
	// Offset is the absolute position of the field.
	Offset int
	// Kind names the primitive that was read, such as "int32".
	Kind     string
	Got      string
	Expected []string
}

func (err *AssertError) Error() string {
	return fmt.Sprintf("binio: %s at 0x%X is %s, expected %s",
		err.Kind, err.Offset, err.Got, strings.Join(err.Expected, " or "))
}

func (err *AssertError) Unwrap() error {
	return ErrAssert
}

// PositionError attaches an absolute position to a cause.
type PositionError struct {
	Offset int
	Cause  error
}

func (err *PositionError) Error() string {
	return fmt.Sprintf("at 0x%X: %s", err.Offset, err.Cause.Error())
}

func (err *PositionError) Unwrap() error {
	return err.Cause
}
