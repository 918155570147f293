package binio

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/Faultbox/soulsfmt/pkg/encoding"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

type reservation struct {
	pos    int
	width  int
	filled bool
}

// Writer appends typed values to a growable buffer and back-patches named
// placeholders once the values they stand for are known.
//
// Content errors (such as a string that cannot be encoded) are sticky and
// reported by Err and Finish. Misuse of the reservation table is a bug in
// the caller and panics.
type Writer struct {
	// BigEndian selects the byte order of multi-byte values.
	BigEndian bool

	buf          []byte
	reservations map[string]*reservation
	err          error
}

// NewWriter returns an empty little-endian Writer.
func NewWriter() *Writer {
	return &Writer{reservations: make(map[string]*reservation)}
}

func (w *Writer) order() byteOrder {
	if w.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Err returns the first content error encountered, if any.
func (w *Writer) Err() error {
	return w.err
}

// Fail records err unless an error is already recorded.
func (w *Writer) Fail(err error) bool {
	if w.err == nil && err != nil {
		w.err = err
	}
	return w.err != nil
}

// Position returns the current length of the output, which is where the
// next value will be written.
func (w *Writer) Position() int {
	return len(w.buf)
}

// Byte writes an unsigned byte.
func (w *Writer) Byte(v byte) {
	w.buf = append(w.buf, v)
}

// SByte writes a signed byte.
func (w *Writer) SByte(v int8) {
	w.Byte(byte(v))
}

// Bool writes 1 for true and 0 for false.
func (w *Writer) Bool(v bool) {
	if v {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// Int16 writes a signed 16-bit integer.
func (w *Writer) Int16(v int16) {
	w.Uint16(uint16(v))
}

// Uint16 writes an unsigned 16-bit integer.
func (w *Writer) Uint16(v uint16) {
	w.buf = w.order().AppendUint16(w.buf, v)
}

// Int32 writes a signed 32-bit integer.
func (w *Writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

// Uint32 writes an unsigned 32-bit integer.
func (w *Writer) Uint32(v uint32) {
	w.buf = w.order().AppendUint32(w.buf, v)
}

// Int64 writes a signed 64-bit integer.
func (w *Writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

// Uint64 writes an unsigned 64-bit integer.
func (w *Writer) Uint64(v uint64) {
	w.buf = w.order().AppendUint64(w.buf, v)
}

// Float32 writes an IEEE 754 single.
func (w *Writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

// Vec2 writes two singles.
func (w *Writer) Vec2(v vecmath.Vec2) {
	w.Float32(v.X)
	w.Float32(v.Y)
}

// Vec3 writes three singles.
func (w *Writer) Vec3(v vecmath.Vec3) {
	w.Float32(v.X)
	w.Float32(v.Y)
	w.Float32(v.Z)
}

// Vec4 writes four singles.
func (w *Writer) Vec4(v vecmath.Vec4) {
	w.Float32(v.X)
	w.Float32(v.Y)
	w.Float32(v.Z)
	w.Float32(v.W)
}

// Bytes writes p verbatim.
func (w *Writer) Bytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// Pattern writes n copies of b.
func (w *Writer) Pattern(n int, b byte) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, b)
	}
}

// Int32s writes each value as a signed 32-bit integer.
func (w *Writer) Int32s(vs []int32) {
	for _, v := range vs {
		w.Int32(v)
	}
}

// Uint16s writes each value as an unsigned 16-bit integer.
func (w *Writer) Uint16s(vs []uint16) {
	for _, v := range vs {
		w.Uint16(v)
	}
}

// ASCII writes s verbatim.
func (w *Writer) ASCII(s string) {
	w.buf = append(w.buf, s...)
}

// UTF16 writes s as UTF-16 in the writer's byte order, followed by a
// two-byte terminator if terminate is set.
func (w *Writer) UTF16(s string, terminate bool) {
	b, err := encoding.EncodeUTF16(s, w.BigEndian)
	if w.Fail(wrapAt(w.Position(), err)) {
		return
	}
	w.Bytes(b)
	if terminate {
		w.Uint16(0)
	}
}

// ShiftJIS writes s as Shift-JIS, followed by a null byte if terminate is
// set.
func (w *Writer) ShiftJIS(s string, terminate bool) {
	b, err := encoding.EncodeShiftJIS(s)
	if w.Fail(wrapAt(w.Position(), err)) {
		return
	}
	w.Bytes(b)
	if terminate {
		w.Byte(0)
	}
}

// String writes s as UTF-16 if unicode is set and Shift-JIS otherwise.
func (w *Writer) String(s string, unicode, terminate bool) {
	if unicode {
		w.UTF16(s, terminate)
	} else {
		w.ShiftJIS(s, terminate)
	}
}

// Pad writes zero bytes until the position is a multiple of align.
func (w *Writer) Pad(align int) {
	w.PadWith(align, 0)
}

// PadWith writes b until the position is a multiple of align.
func (w *Writer) PadWith(align int, b byte) {
	if align <= 0 {
		panic(errors.Errorf("binio: invalid alignment %d", align))
	}
	for len(w.buf)%align != 0 {
		w.buf = append(w.buf, b)
	}
}

func (w *Writer) reserve(name string, width int) {
	if w.reservations == nil {
		w.reservations = make(map[string]*reservation)
	}
	if _, ok := w.reservations[name]; ok {
		panic(errors.Errorf("binio: reservation %q already exists", name))
	}
	w.reservations[name] = &reservation{pos: len(w.buf), width: width}
	w.Pattern(width, 0)
}

func (w *Writer) fill(name string, width int) int {
	res, ok := w.reservations[name]
	if !ok {
		panic(errors.Errorf("binio: reservation %q was never made", name))
	}
	if res.filled {
		panic(errors.Errorf("binio: reservation %q filled twice", name))
	}
	if res.width != width {
		panic(errors.Errorf("binio: reservation %q is %d bytes, filled with %d", name, res.width, width))
	}
	res.filled = true
	return res.pos
}

// ReserveInt32 writes a 4-byte placeholder named name.
func (w *Writer) ReserveInt32(name string) {
	w.reserve(name, 4)
}

// FillInt32 overwrites the placeholder named name with v.
func (w *Writer) FillInt32(name string, v int32) {
	pos := w.fill(name, 4)
	w.order().PutUint32(w.buf[pos:], uint32(v))
}

// ReserveUint32 writes a 4-byte placeholder named name.
func (w *Writer) ReserveUint32(name string) {
	w.reserve(name, 4)
}

// FillUint32 overwrites the placeholder named name with v.
func (w *Writer) FillUint32(name string, v uint32) {
	pos := w.fill(name, 4)
	w.order().PutUint32(w.buf[pos:], v)
}

// ReserveInt64 writes an 8-byte placeholder named name.
func (w *Writer) ReserveInt64(name string) {
	w.reserve(name, 8)
}

// FillInt64 overwrites the placeholder named name with v.
func (w *Writer) FillInt64(name string, v int64) {
	pos := w.fill(name, 8)
	w.order().PutUint64(w.buf[pos:], uint64(v))
}

// Pending returns the names of reservations not yet filled, sorted.
func (w *Writer) Pending() []string {
	var names []string
	for name, res := range w.reservations {
		if !res.filled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Finish returns the completed buffer. It panics if any reservation is
// still unfilled and returns the first content error if one was recorded.
func (w *Writer) Finish() ([]byte, error) {
	if pending := w.Pending(); len(pending) > 0 {
		panic(errors.Errorf("binio: %d reservations never filled: %v", len(pending), pending))
	}
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}
