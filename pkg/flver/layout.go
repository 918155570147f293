package flver

import (
	"fmt"

	"github.com/Faultbox/soulsfmt/pkg/binio"
)

// LayoutType is the on-disk encoding of one vertex attribute.
type LayoutType uint32

// Layout member encodings.
const (
	LayoutFloat2           LayoutType = 0x01
	LayoutFloat3           LayoutType = 0x02
	LayoutFloat4           LayoutType = 0x03
	LayoutByte4A           LayoutType = 0x10
	LayoutByte4B           LayoutType = 0x11
	LayoutShort2toFloat2   LayoutType = 0x12
	LayoutByte4C           LayoutType = 0x13
	LayoutUV               LayoutType = 0x15
	LayoutUVPair           LayoutType = 0x16
	LayoutShortBoneIndices LayoutType = 0x18
	LayoutShort4toFloat4A  LayoutType = 0x1A
	LayoutShort4toFloat4B  LayoutType = 0x2E
	LayoutByte4E           LayoutType = 0x2F
	LayoutHalf2            LayoutType = 0x30
	LayoutHalf4            LayoutType = 0x31
	LayoutEdgeCompressed   LayoutType = 0xF0
)

var layoutTypeSizes = map[LayoutType]int{
	LayoutFloat2:           8,
	LayoutFloat3:           12,
	LayoutFloat4:           16,
	LayoutByte4A:           4,
	LayoutByte4B:           4,
	LayoutShort2toFloat2:   4,
	LayoutByte4C:           4,
	LayoutUV:               4,
	LayoutUVPair:           8,
	LayoutShortBoneIndices: 8,
	LayoutShort4toFloat4A:  8,
	LayoutShort4toFloat4B:  8,
	LayoutByte4E:           4,
	LayoutHalf2:            4,
	LayoutHalf4:            8,
	LayoutEdgeCompressed:   1,
}

var layoutTypeNames = map[LayoutType]string{
	LayoutFloat2:           "Float2",
	LayoutFloat3:           "Float3",
	LayoutFloat4:           "Float4",
	LayoutByte4A:           "Byte4A",
	LayoutByte4B:           "Byte4B",
	LayoutShort2toFloat2:   "Short2toFloat2",
	LayoutByte4C:           "Byte4C",
	LayoutUV:               "UV",
	LayoutUVPair:           "UVPair",
	LayoutShortBoneIndices: "ShortBoneIndices",
	LayoutShort4toFloat4A:  "Short4toFloat4A",
	LayoutShort4toFloat4B:  "Short4toFloat4B",
	LayoutByte4E:           "Byte4E",
	LayoutHalf2:            "Half2",
	LayoutHalf4:            "Half4",
	LayoutEdgeCompressed:   "EdgeCompressed",
}

// Size returns the number of bytes one value of t occupies, or 0 if t is
// unknown.
func (t LayoutType) Size() int {
	return layoutTypeSizes[t]
}

// Valid reports whether t is a known encoding.
func (t LayoutType) Valid() bool {
	_, ok := layoutTypeSizes[t]
	return ok
}

func (t LayoutType) String() string {
	if name, ok := layoutTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LayoutType(0x%X)", uint32(t))
}

// LayoutSemantic names the vertex attribute a layout member fills.
type LayoutSemantic uint32

// Layout member semantics.
const (
	SemanticPosition    LayoutSemantic = 0
	SemanticBoneWeights LayoutSemantic = 1
	SemanticBoneIndices LayoutSemantic = 2
	SemanticNormal      LayoutSemantic = 3
	SemanticUV          LayoutSemantic = 5
	SemanticTangent     LayoutSemantic = 6
	SemanticBitangent   LayoutSemantic = 7
	SemanticVertexColor LayoutSemantic = 10
)

func (s LayoutSemantic) String() string {
	switch s {
	case SemanticPosition:
		return "Position"
	case SemanticBoneWeights:
		return "BoneWeights"
	case SemanticBoneIndices:
		return "BoneIndices"
	case SemanticNormal:
		return "Normal"
	case SemanticUV:
		return "UV"
	case SemanticTangent:
		return "Tangent"
	case SemanticBitangent:
		return "Bitangent"
	case SemanticVertexColor:
		return "VertexColor"
	default:
		return fmt.Sprintf("LayoutSemantic(%d)", uint32(s))
	}
}

// repeatable reports whether more than one member of a mesh may carry s.
func (s LayoutSemantic) repeatable() bool {
	switch s {
	case SemanticPosition, SemanticNormal, SemanticTangent, SemanticUV, SemanticVertexColor:
		return true
	}
	return false
}

// LayoutMember is one attribute of a vertex. Its byte offset within the
// vertex is the sum of the sizes of the members before it.
type LayoutMember struct {
	Unk00    int32
	Type     LayoutType
	Semantic LayoutSemantic
	// Index distinguishes members sharing a semantic, e.g. UV sets.
	Index int32
}

// Size returns the member's size in bytes.
func (m LayoutMember) Size() int {
	return m.Type.Size()
}

// uvSlots returns how many UV coordinates the member decodes into.
func (m LayoutMember) uvSlots() int {
	if m.Semantic != SemanticUV {
		return 0
	}
	switch m.Type {
	case LayoutFloat4, LayoutUVPair, LayoutHalf4:
		return 2
	}
	return 1
}

// BufferLayout is the ordered list of members making up one vertex in a
// vertex buffer. Layouts are shared by every buffer that references them.
type BufferLayout []LayoutMember

// Size returns the vertex stride in bytes.
func (l BufferLayout) Size() int {
	size := 0
	for _, m := range l {
		size += m.Size()
	}
	return size
}

// slotCounts returns the number of UV, tangent and color slots a vertex
// needs to hold one buffer of this layout.
func (l BufferLayout) slotCounts() (uvs, tangents, colors int) {
	for _, m := range l {
		uvs += m.uvSlots()
		switch m.Semantic {
		case SemanticTangent:
			tangents++
		case SemanticVertexColor:
			colors++
		}
	}
	return uvs, tangents, colors
}

const (
	layoutHeaderSize = 0x10
	layoutMemberSize = 0x14
)

// readBufferLayout reads a layout header and its members.
func readBufferLayout(r *binio.Reader) (BufferLayout, error) {
	memberCount := r.Int32()
	r.AssertInt32(0)
	r.AssertInt32(0)
	memberOffset := r.Int32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if memberCount < 0 || int64(memberCount)*layoutMemberSize > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d layout members", binio.ErrOutOfRange, memberCount)
	}

	layout := make(BufferLayout, 0, memberCount)
	err := r.At(int(memberOffset), func() error {
		structOffset := 0
		for i := 0; i < int(memberCount); i++ {
			var m LayoutMember
			m.Unk00 = r.Int32()
			r.AssertInt32(int32(structOffset))
			m.Type = LayoutType(r.Uint32())
			m.Semantic = LayoutSemantic(r.Uint32())
			m.Index = r.Int32()
			if err := r.Err(); err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			if !m.Type.Valid() {
				return fmt.Errorf("member %d: %w: 0x%X", i, ErrUnknownLayoutType, uint32(m.Type))
			}
			layout = append(layout, m)
			structOffset += m.Size()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func writeBufferLayoutHeader(w *binio.Writer, l BufferLayout, index int) {
	w.Int32(int32(len(l)))
	w.Int32(0)
	w.Int32(0)
	w.ReserveInt32(fmt.Sprintf("VertexStructLayout%d", index))
}

func writeBufferLayoutMembers(w *binio.Writer, l BufferLayout, index int) {
	w.FillInt32(fmt.Sprintf("VertexStructLayout%d", index), int32(w.Position()))
	structOffset := 0
	for _, m := range l {
		w.Int32(m.Unk00)
		w.Int32(int32(structOffset))
		w.Uint32(uint32(m.Type))
		w.Uint32(uint32(m.Semantic))
		w.Int32(m.Index)
		structOffset += m.Size()
	}
}
