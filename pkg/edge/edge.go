// Package edge is the boundary to the native routine that decompresses
// bit-packed, delta-encoded triangle index streams.
//
// The compressed bit-stream itself is not interpreted here. A Decompressor
// receives the number of 16-bit indices it must produce and a scratch buffer
// holding the compressed payload, and rewrites the buffer in place so that
// its first count*2 bytes are little-endian uint16 values.
package edge

import (
	"errors"
	"fmt"
)

// Errors returned by decompressors.
var (
	ErrBufferTooSmall = errors.New("edge: scratch buffer too small for decompressed indices")
	ErrHelperFailed   = errors.New("edge: helper reported failure")
)

// Decompressor decompresses one compressed index member in place.
type Decompressor interface {
	DecompressIndices(count int, buf []byte) error
}

// Func adapts an ordinary function to the Decompressor interface.
type Func func(count int, buf []byte) error

// DecompressIndices calls f(count, buf).
func (f Func) DecompressIndices(count int, buf []byte) error {
	return f(count, buf)
}

// CheckBuffer reports whether buf can hold count decompressed indices.
func CheckBuffer(count int, buf []byte) error {
	if count < 0 || count*2 > len(buf) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, count*2, len(buf))
	}
	return nil
}
