// Package msb reads and writes the model table of MSB scene files. Each
// model names an asset that scene parts place; its position in the table is
// the index parts refer to it by.
package msb

import (
	"errors"
	"fmt"
)

// Model table errors.
var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrZeroOffset       = errors.New("model string offset is zero")
	ErrTypeDataOffset   = errors.New("unexpected model type data offset")
	ErrParamName        = errors.New("unexpected param name")
	ErrParamVersion     = errors.New("unsupported model param version")
)

// UnknownTypeError reports a record whose tag names no model variant.
type UnknownTypeError struct {
	Tag uint32
	// Offset is the absolute position of the record.
	Offset int
}

func (err *UnknownTypeError) Error() string {
	return fmt.Sprintf("model at 0x%X: %s %d", err.Offset, ErrUnknownModelType, err.Tag)
}

func (err *UnknownTypeError) Unwrap() error {
	return ErrUnknownModelType
}
