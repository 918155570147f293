package binio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/soulsfmt/pkg/encoding"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

// Reader reads typed values from a byte slice it exclusively owns for the
// duration of one decode.
//
// Errors are sticky: the first failure is recorded, every later read
// returns a zero value, and Err reports the failure. Format code reads a
// whole record and checks Err once at the record boundary.
type Reader struct {
	// BigEndian selects the byte order of multi-byte values.
	BigEndian bool

	data  []byte
	pos   int
	steps []int
	err   error
}

// NewReader returns a little-endian Reader positioned at 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) order() binary.ByteOrder {
	if r.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Fail records err as the reader's error unless one is already recorded.
// Returns true if the reader is (now) failed.
func (r *Reader) Fail(err error) bool {
	if r.err == nil && err != nil {
		r.err = err
	}
	return r.err != nil
}

// Position returns the absolute read position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the total length of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of bytes after the current position.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Seek moves to an absolute position.
func (r *Reader) Seek(pos int) {
	if r.err != nil {
		return
	}
	if pos < 0 || pos > len(r.data) {
		r.Fail(&PositionError{Offset: pos, Cause: ErrOutOfRange})
		return
	}
	r.pos = pos
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) {
	r.Seek(r.pos + n)
}

// StepIn saves the current position and seeks to pos. Every StepIn must be
// paired with a StepOut.
func (r *Reader) StepIn(pos int) {
	r.steps = append(r.steps, r.pos)
	r.Seek(pos)
}

// StepOut restores the position saved by the matching StepIn.
func (r *Reader) StepOut() {
	if len(r.steps) == 0 {
		r.Fail(ErrStepOut)
		return
	}
	r.pos = r.steps[len(r.steps)-1]
	r.steps = r.steps[:len(r.steps)-1]
}

// At runs fn with the reader positioned at pos, restoring the previous
// position when fn returns, fails or panics. The returned error is fn's
// error, or the reader's sticky error if fn returned nil.
func (r *Reader) At(pos int, fn func() error) error {
	r.StepIn(pos)
	defer r.StepOut()
	if r.err != nil {
		return r.err
	}
	if err := fn(); err != nil {
		return err
	}
	return r.err
}

// AtRel is At with a position relative to the current one.
func (r *Reader) AtRel(off int, fn func() error) error {
	return r.At(r.pos+off, fn)
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data)-r.pos {
		r.Fail(&PositionError{Offset: r.pos, Cause: ErrTruncated})
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) peek(pos, n int) []byte {
	if r.err != nil {
		return nil
	}
	if pos < 0 || n < 0 || pos > len(r.data) || n > len(r.data)-pos {
		r.Fail(&PositionError{Offset: pos, Cause: ErrTruncated})
		return nil
	}
	return r.data[pos : pos+n]
}

// Byte reads an unsigned byte.
func (r *Reader) Byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// SByte reads a signed byte.
func (r *Reader) SByte() int8 {
	return int8(r.Byte())
}

// Bool reads a byte that must be 0 or 1.
func (r *Reader) Bool() bool {
	start := r.pos
	b := r.Byte()
	if b > 1 {
		r.Fail(&PositionError{Offset: start, Cause: fmt.Errorf("%w: 0x%02X", ErrBoolean, b)})
		return false
	}
	return b == 1
}

// Int16 reads a signed 16-bit integer.
func (r *Reader) Int16() int16 {
	return int16(r.Uint16())
}

// Uint16 reads an unsigned 16-bit integer.
func (r *Reader) Uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return r.order().Uint16(b)
}

// Int32 reads a signed 32-bit integer.
func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

// Uint32 reads an unsigned 32-bit integer.
func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return r.order().Uint32(b)
}

// Int64 reads a signed 64-bit integer.
func (r *Reader) Int64() int64 {
	return int64(r.Uint64())
}

// Uint64 reads an unsigned 64-bit integer.
func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return r.order().Uint64(b)
}

// Float32 reads an IEEE 754 single.
func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

// Vec2 reads two singles.
func (r *Reader) Vec2() vecmath.Vec2 {
	return vecmath.Vec2{X: r.Float32(), Y: r.Float32()}
}

// Vec3 reads three singles.
func (r *Reader) Vec3() vecmath.Vec3 {
	return vecmath.Vec3{X: r.Float32(), Y: r.Float32(), Z: r.Float32()}
}

// Vec4 reads four singles.
func (r *Reader) Vec4() vecmath.Vec4 {
	return vecmath.Vec4{X: r.Float32(), Y: r.Float32(), Z: r.Float32(), W: r.Float32()}
}

// Bytes reads n bytes into a new slice.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

// Int32s reads n signed 32-bit integers.
func (r *Reader) Int32s(n int) []int32 {
	if n < 0 {
		r.Fail(&PositionError{Offset: r.pos, Cause: ErrOutOfRange})
		return nil
	}
	if n > r.Remaining()/4 {
		r.Fail(&PositionError{Offset: r.pos, Cause: ErrTruncated})
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = r.Int32()
	}
	if r.err != nil {
		return nil
	}
	return out
}

// Uint16s reads n unsigned 16-bit integers.
func (r *Reader) Uint16s(n int) []uint16 {
	if n < 0 {
		r.Fail(&PositionError{Offset: r.pos, Cause: ErrOutOfRange})
		return nil
	}
	if n > r.Remaining()/2 {
		r.Fail(&PositionError{Offset: r.pos, Cause: ErrTruncated})
		return nil
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.Uint16()
	}
	if r.err != nil {
		return nil
	}
	return out
}

// ASCII reads n bytes as a string without decoding.
func (r *Reader) ASCII(n int) string {
	return string(r.take(n))
}

// GetInt32 reads a signed 32-bit integer at pos without moving.
func (r *Reader) GetInt32(pos int) int32 {
	return int32(r.GetUint32(pos))
}

// GetUint32 reads an unsigned 32-bit integer at pos without moving.
func (r *Reader) GetUint32(pos int) uint32 {
	b := r.peek(pos, 4)
	if b == nil {
		return 0
	}
	return r.order().Uint32(b)
}

// GetBytes copies n bytes at pos without moving.
func (r *Reader) GetBytes(pos, n int) []byte {
	b := r.peek(pos, n)
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

// GetInt32s reads n signed 32-bit integers at pos without moving.
func (r *Reader) GetInt32s(pos, n int) []int32 {
	var out []int32
	r.At(pos, func() error {
		out = r.Int32s(n)
		return nil
	})
	return out
}

// GetUint16s reads n unsigned 16-bit integers at pos without moving.
func (r *Reader) GetUint16s(pos, n int) []uint16 {
	var out []uint16
	r.At(pos, func() error {
		out = r.Uint16s(n)
		return nil
	})
	return out
}

// UTF16 reads a null-terminated UTF-16 string in the reader's byte order.
func (r *Reader) UTF16() string {
	if r.err != nil {
		return ""
	}
	start := r.pos
	end := -1
	for i := start; i+1 < len(r.data); i += 2 {
		if r.data[i] == 0 && r.data[i+1] == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		r.Fail(&PositionError{Offset: start, Cause: ErrTruncated})
		return ""
	}
	s, err := encoding.DecodeUTF16(r.data[start:end], r.BigEndian)
	if r.Fail(wrapAt(start, err)) {
		return ""
	}
	r.pos = end + 2
	return s
}

// ShiftJIS reads a null-terminated Shift-JIS string.
func (r *Reader) ShiftJIS() string {
	if r.err != nil {
		return ""
	}
	start := r.pos
	idx := bytes.IndexByte(r.data[start:], 0)
	if idx < 0 {
		r.Fail(&PositionError{Offset: start, Cause: ErrTruncated})
		return ""
	}
	s, err := encoding.DecodeShiftJIS(r.data[start : start+idx])
	if r.Fail(wrapAt(start, err)) {
		return ""
	}
	r.pos = start + idx + 1
	return s
}

// String reads a null-terminated string, UTF-16 if unicode is set and
// Shift-JIS otherwise.
func (r *Reader) String(unicode bool) string {
	if unicode {
		return r.UTF16()
	}
	return r.ShiftJIS()
}

// GetUTF16 reads a null-terminated UTF-16 string at pos without moving.
func (r *Reader) GetUTF16(pos int) string {
	return r.GetString(pos, true)
}

// GetShiftJIS reads a null-terminated Shift-JIS string at pos without moving.
func (r *Reader) GetShiftJIS(pos int) string {
	return r.GetString(pos, false)
}

// GetString reads a null-terminated string at pos without moving.
func (r *Reader) GetString(pos int, unicode bool) string {
	var s string
	r.At(pos, func() error {
		s = r.String(unicode)
		return nil
	})
	return s
}

func wrapAt(pos int, err error) error {
	if err == nil {
		return nil
	}
	return &PositionError{Offset: pos, Cause: err}
}
