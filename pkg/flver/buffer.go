package flver

import (
	"fmt"

	"github.com/Faultbox/soulsfmt/pkg/binio"
)

// BufferIndexMask covers the flag bits edge-compressed vertex buffers set
// in their buffer index.
const BufferIndexMask = 0x60000000

const vertexBufferHeaderSize = 0x20

// VertexBuffer holds the vertex data of one layout for a mesh.
type VertexBuffer struct {
	// BufferIndex is the buffer's position within its mesh, possibly with
	// BufferIndexMask bits set.
	BufferIndex int32
	LayoutIndex int32

	// Counts and offsets as read; recomputed on write.
	vertexSize   int32
	vertexCount  int32
	bufferLength int32
	bufferOffset int32
}

// Ordinal returns BufferIndex with the flag bits cleared.
func (vb *VertexBuffer) Ordinal() int32 {
	return vb.BufferIndex &^ BufferIndexMask
}

// VertexCount returns the number of vertices the buffer held when read.
func (vb *VertexBuffer) VertexCount() int {
	return int(vb.vertexCount)
}

func readVertexBuffer(r *binio.Reader) (*VertexBuffer, error) {
	vb := &VertexBuffer{}
	vb.BufferIndex = r.Int32()
	vb.LayoutIndex = r.Int32()
	vb.vertexSize = r.Int32()
	vb.vertexCount = r.Int32()
	r.AssertInt32(0)
	r.AssertInt32(0)
	vb.bufferLength = r.Int32()
	vb.bufferOffset = r.Int32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if vb.vertexCount < 0 || vb.vertexSize < 0 {
		return nil, fmt.Errorf("%w: size %d count %d", ErrLayoutSize, vb.vertexSize, vb.vertexCount)
	}
	return vb, nil
}

// check validates the buffer against the shared layout table and the
// extent of the file. dataOffset is the start of the data section.
func (vb *VertexBuffer) check(layouts []BufferLayout, dataOffset, fileLen int) error {
	if vb.LayoutIndex < 0 || int(vb.LayoutIndex) >= len(layouts) {
		return fmt.Errorf("%w: %d of %d", ErrLayoutIndex, vb.LayoutIndex, len(layouts))
	}
	stride := layouts[vb.LayoutIndex].Size()
	if int(vb.vertexSize) != stride {
		return fmt.Errorf("%w: vertex size %d, layout %d is %d bytes", ErrLayoutSize, vb.vertexSize, vb.LayoutIndex, stride)
	}
	if int64(stride)*int64(vb.vertexCount) > int64(vb.bufferLength) {
		return fmt.Errorf("%w: %d vertices of %d bytes exceed buffer length %d", ErrLayoutSize, vb.vertexCount, stride, vb.bufferLength)
	}
	start := int64(dataOffset) + int64(vb.bufferOffset)
	if vb.bufferOffset < 0 || vb.bufferLength < 0 || start+int64(vb.bufferLength) > int64(fileLen) {
		return fmt.Errorf("%w: 0x%X bytes at 0x%X, file is 0x%X bytes", ErrBufferRange, vb.bufferLength, start, fileLen)
	}
	// An empty layout takes no bytes per vertex.
	if int(vb.vertexCount) > fileLen {
		return fmt.Errorf("%w: %d vertices, file is 0x%X bytes", ErrBufferRange, vb.vertexCount, fileLen)
	}
	return nil
}

// readVertices decodes the buffer into vertices, which must already hold
// VertexCount entries.
func (vb *VertexBuffer) readVertices(r *binio.Reader, dataOffset int, layouts []BufferLayout, vertices []*Vertex, uvFactor float32) error {
	layout := layouts[vb.LayoutIndex]
	return r.At(dataOffset+int(vb.bufferOffset), func() error {
		for i := 0; i < int(vb.vertexCount); i++ {
			if err := vertices[i].read(r, layout, uvFactor); err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
		}
		return nil
	})
}

func writeVertexBufferHeader(w *binio.Writer, vb *VertexBuffer, index, ordinal int, layouts []BufferLayout, vertexCount int) {
	stride := int32(layouts[vb.LayoutIndex].Size())
	w.Int32(int32(ordinal) | vb.BufferIndex&BufferIndexMask)
	w.Int32(vb.LayoutIndex)
	w.Int32(stride)
	w.Int32(int32(vertexCount))
	w.Int32(0)
	w.Int32(0)
	w.Int32(stride * int32(vertexCount))
	w.ReserveInt32(fmt.Sprintf("VertexBufferOffset%d", index))
}

func (vb *VertexBuffer) writeVertices(w *binio.Writer, index, dataStart int, layouts []BufferLayout, vertices []*Vertex, uvFactor float32) error {
	w.FillInt32(fmt.Sprintf("VertexBufferOffset%d", index), int32(w.Position()-dataStart))
	layout := layouts[vb.LayoutIndex]
	for i, v := range vertices {
		if err := v.write(w, layout, uvFactor); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	return nil
}
