package flver

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/x448/float16"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

// Vertex is one decoded vertex. The UVs, Tangents and Colors slices are
// sized per mesh from its layouts.
type Vertex struct {
	Position    vecmath.Vec3
	BoneWeights [4]float32
	BoneIndices [4]int32
	Normal      vecmath.Vec3
	// NormalW is the fourth normal component; some games store an index in it.
	NormalW   int32
	UVs       []vecmath.Vec3
	Tangents  []vecmath.Vec4
	Bitangent vecmath.Vec4
	Colors    []vecmath.Color
}

// NewVertex returns a vertex with the given number of UV, tangent and color
// slots.
func NewVertex(uvs, tangents, colors int) *Vertex {
	v := &Vertex{
		UVs:      make([]vecmath.Vec3, uvs),
		Tangents: make([]vecmath.Vec4, tangents),
		Colors:   make([]vecmath.Color, colors),
	}
	for i := range v.Colors {
		v.Colors[i] = vecmath.White
	}
	return v
}

// Clone returns a deep copy of v.
func (v *Vertex) Clone() *Vertex {
	c := *v
	c.UVs = slices.Clone(v.UVs)
	c.Tangents = slices.Clone(v.Tangents)
	c.Colors = slices.Clone(v.Colors)
	return &c
}

// slots counts the per-semantic position within one buffer of one vertex.
type slots struct {
	uv, tangent, color int
}

func (s *slots) nextUV(v *Vertex) (*vecmath.Vec3, error) {
	if s.uv >= len(v.UVs) {
		return nil, fmt.Errorf("uv slot %d of %d", s.uv, len(v.UVs))
	}
	s.uv++
	return &v.UVs[s.uv-1], nil
}

func (s *slots) nextTangent(v *Vertex) (*vecmath.Vec4, error) {
	if s.tangent >= len(v.Tangents) {
		return nil, fmt.Errorf("tangent slot %d of %d", s.tangent, len(v.Tangents))
	}
	s.tangent++
	return &v.Tangents[s.tangent-1], nil
}

func (s *slots) nextColor(v *Vertex) (*vecmath.Color, error) {
	if s.color >= len(v.Colors) {
		return nil, fmt.Errorf("color slot %d of %d", s.color, len(v.Colors))
	}
	s.color++
	return &v.Colors[s.color-1], nil
}

// read decodes one vertex of layout at the reader's position.
func (v *Vertex) read(r *binio.Reader, layout BufferLayout, uvFactor float32) error {
	var s slots
	for _, m := range layout {
		if err := v.readMember(r, m, &s, uvFactor); err != nil {
			return &SemanticError{Semantic: m.Semantic, Type: m.Type, Cause: err}
		}
	}
	return r.Err()
}

func (v *Vertex) readMember(r *binio.Reader, m LayoutMember, s *slots, uvFactor float32) error {
	switch m.Semantic {
	case SemanticPosition:
		switch m.Type {
		case LayoutFloat3:
			v.Position = r.Vec3()
		case LayoutFloat4:
			v.Position = r.Vec3()
			assertZeroFloat(r)
		case LayoutHalf4:
			v.Position = readHalf3(r)
			r.AssertUint16(0)
		default:
			return ErrUnsupportedMember
		}

	case SemanticBoneWeights:
		switch m.Type {
		case LayoutByte4A:
			for i := range v.BoneWeights {
				v.BoneWeights[i] = sbyteNorm(r.SByte())
			}
		case LayoutByte4C:
			for i := range v.BoneWeights {
				v.BoneWeights[i] = ubyteNorm(r.Byte())
			}
		case LayoutUVPair, LayoutShort4toFloat4A:
			for i := range v.BoneWeights {
				v.BoneWeights[i] = shortNorm(r.Int16())
			}
		default:
			return ErrUnsupportedMember
		}

	case SemanticBoneIndices:
		switch m.Type {
		case LayoutByte4A, LayoutByte4B, LayoutByte4E:
			for i := range v.BoneIndices {
				v.BoneIndices[i] = int32(r.Byte())
			}
		case LayoutShortBoneIndices:
			for i := range v.BoneIndices {
				v.BoneIndices[i] = int32(r.Uint16())
			}
		default:
			return ErrUnsupportedMember
		}

	case SemanticNormal:
		switch m.Type {
		case LayoutFloat3:
			v.Normal = r.Vec3()
		case LayoutFloat4:
			v.Normal = r.Vec3()
			v.NormalW = int32(r.Float32())
		case LayoutByte4A, LayoutByte4B, LayoutByte4C, LayoutByte4E:
			v.Normal = vecmath.Vec3{X: byteNorm(r.Byte()), Y: byteNorm(r.Byte()), Z: byteNorm(r.Byte())}
			v.NormalW = int32(r.Byte())
		case LayoutShort2toFloat2:
			v.NormalW = int32(r.Byte())
			v.Normal.Z = sbyteNorm(r.SByte())
			v.Normal.Y = sbyteNorm(r.SByte())
			v.Normal.X = sbyteNorm(r.SByte())
		case LayoutShort4toFloat4A:
			v.Normal = vecmath.Vec3{X: shortNorm(r.Int16()), Y: shortNorm(r.Int16()), Z: shortNorm(r.Int16())}
			v.NormalW = int32(r.Int16())
		case LayoutShort4toFloat4B:
			v.Normal = vecmath.Vec3{X: ushortNorm(r.Uint16()), Y: ushortNorm(r.Uint16()), Z: ushortNorm(r.Uint16())}
			v.NormalW = int32(r.Int16())
		case LayoutHalf4:
			v.Normal = readHalf3(r)
			v.NormalW = int32(readHalf(r))
		default:
			return ErrUnsupportedMember
		}

	case SemanticUV:
		uv, err := s.nextUV(v)
		if err != nil {
			return err
		}
		switch m.Type {
		case LayoutFloat2:
			*uv = vecmath.Vec3{X: r.Float32(), Y: r.Float32()}
		case LayoutFloat3:
			*uv = r.Vec3()
		case LayoutFloat4:
			*uv = vecmath.Vec3{X: r.Float32(), Y: r.Float32()}
			uv2, err := s.nextUV(v)
			if err != nil {
				return err
			}
			*uv2 = vecmath.Vec3{X: r.Float32(), Y: r.Float32()}
		case LayoutByte4A, LayoutByte4B, LayoutShort2toFloat2, LayoutByte4C, LayoutUV:
			*uv = readShortUV(r, uvFactor)
		case LayoutUVPair:
			*uv = readShortUV(r, uvFactor)
			uv2, err := s.nextUV(v)
			if err != nil {
				return err
			}
			*uv2 = readShortUV(r, uvFactor)
		case LayoutShort4toFloat4B:
			*uv = readShortUV(r, uvFactor)
			uv.Z = float32(r.Int16()) / uvFactor
			r.AssertInt16(0)
		case LayoutHalf2:
			*uv = vecmath.Vec3{X: readHalf(r), Y: readHalf(r)}
		case LayoutHalf4:
			*uv = vecmath.Vec3{X: readHalf(r), Y: readHalf(r)}
			uv2, err := s.nextUV(v)
			if err != nil {
				return err
			}
			*uv2 = vecmath.Vec3{X: readHalf(r), Y: readHalf(r)}
		default:
			return ErrUnsupportedMember
		}

	case SemanticTangent:
		t, err := s.nextTangent(v)
		if err != nil {
			return err
		}
		switch m.Type {
		case LayoutFloat4:
			*t = r.Vec4()
		case LayoutByte4A, LayoutByte4B, LayoutByte4C, LayoutByte4E:
			*t = readByteNorm4(r)
		case LayoutShort4toFloat4A:
			*t = vecmath.Vec4{X: shortNorm(r.Int16()), Y: shortNorm(r.Int16()), Z: shortNorm(r.Int16()), W: shortNorm(r.Int16())}
		case LayoutHalf4:
			*t = readHalf4(r)
		default:
			return ErrUnsupportedMember
		}

	case SemanticBitangent:
		switch m.Type {
		case LayoutFloat4:
			v.Bitangent = r.Vec4()
		case LayoutByte4A, LayoutByte4B, LayoutByte4C, LayoutByte4E:
			v.Bitangent = readByteNorm4(r)
		case LayoutHalf4:
			v.Bitangent = readHalf4(r)
		default:
			return ErrUnsupportedMember
		}

	case SemanticVertexColor:
		c, err := s.nextColor(v)
		if err != nil {
			return err
		}
		switch m.Type {
		case LayoutFloat4:
			*c = vecmath.Color{R: r.Float32(), G: r.Float32(), B: r.Float32(), A: r.Float32()}
		case LayoutByte4A, LayoutByte4C:
			*c = vecmath.Color{R: ubyteNorm(r.Byte()), G: ubyteNorm(r.Byte()), B: ubyteNorm(r.Byte()), A: ubyteNorm(r.Byte())}
		case LayoutHalf4:
			h := readHalf4(r)
			*c = vecmath.Color{R: h.X, G: h.Y, B: h.Z, A: h.W}
		default:
			return ErrUnsupportedMember
		}

	default:
		return ErrUnsupportedMember
	}
	return nil
}

// write encodes one vertex of layout. It mirrors read exactly.
func (v *Vertex) write(w *binio.Writer, layout BufferLayout, uvFactor float32) error {
	var s slots
	for _, m := range layout {
		if err := v.writeMember(w, m, &s, uvFactor); err != nil {
			return &SemanticError{Semantic: m.Semantic, Type: m.Type, Cause: err}
		}
	}
	return nil
}

func (v *Vertex) writeMember(w *binio.Writer, m LayoutMember, s *slots, uvFactor float32) error {
	switch m.Semantic {
	case SemanticPosition:
		switch m.Type {
		case LayoutFloat3:
			w.Vec3(v.Position)
		case LayoutFloat4:
			w.Vec3(v.Position)
			w.Float32(0)
		case LayoutHalf4:
			writeHalf3(w, v.Position)
			w.Uint16(0)
		default:
			return ErrUnsupportedMember
		}

	case SemanticBoneWeights:
		switch m.Type {
		case LayoutByte4A:
			for _, f := range v.BoneWeights {
				w.SByte(toSByteNorm(f))
			}
		case LayoutByte4C:
			for _, f := range v.BoneWeights {
				w.Byte(toUByteNorm(f))
			}
		case LayoutUVPair, LayoutShort4toFloat4A:
			for _, f := range v.BoneWeights {
				w.Int16(toShortNorm(f))
			}
		default:
			return ErrUnsupportedMember
		}

	case SemanticBoneIndices:
		switch m.Type {
		case LayoutByte4A, LayoutByte4B, LayoutByte4E:
			for _, i := range v.BoneIndices {
				w.Byte(byte(i))
			}
		case LayoutShortBoneIndices:
			for _, i := range v.BoneIndices {
				w.Uint16(uint16(i))
			}
		default:
			return ErrUnsupportedMember
		}

	case SemanticNormal:
		n := v.Normal
		switch m.Type {
		case LayoutFloat3:
			w.Vec3(n)
		case LayoutFloat4:
			w.Vec3(n)
			w.Float32(float32(v.NormalW))
		case LayoutByte4A, LayoutByte4B, LayoutByte4C, LayoutByte4E:
			w.Byte(toByteNorm(n.X))
			w.Byte(toByteNorm(n.Y))
			w.Byte(toByteNorm(n.Z))
			w.Byte(byte(v.NormalW))
		case LayoutShort2toFloat2:
			w.Byte(byte(v.NormalW))
			w.SByte(toSByteNorm(n.Z))
			w.SByte(toSByteNorm(n.Y))
			w.SByte(toSByteNorm(n.X))
		case LayoutShort4toFloat4A:
			w.Int16(toShortNorm(n.X))
			w.Int16(toShortNorm(n.Y))
			w.Int16(toShortNorm(n.Z))
			w.Int16(int16(v.NormalW))
		case LayoutShort4toFloat4B:
			w.Uint16(toUShortNorm(n.X))
			w.Uint16(toUShortNorm(n.Y))
			w.Uint16(toUShortNorm(n.Z))
			w.Int16(int16(v.NormalW))
		case LayoutHalf4:
			writeHalf3(w, n)
			writeHalf(w, float32(v.NormalW))
		default:
			return ErrUnsupportedMember
		}

	case SemanticUV:
		uv, err := s.nextUV(v)
		if err != nil {
			return err
		}
		switch m.Type {
		case LayoutFloat2:
			w.Float32(uv.X)
			w.Float32(uv.Y)
		case LayoutFloat3:
			w.Vec3(*uv)
		case LayoutFloat4:
			uv2, err := s.nextUV(v)
			if err != nil {
				return err
			}
			w.Float32(uv.X)
			w.Float32(uv.Y)
			w.Float32(uv2.X)
			w.Float32(uv2.Y)
		case LayoutByte4A, LayoutByte4B, LayoutShort2toFloat2, LayoutByte4C, LayoutUV:
			writeShortUV(w, *uv, uvFactor)
		case LayoutUVPair:
			uv2, err := s.nextUV(v)
			if err != nil {
				return err
			}
			writeShortUV(w, *uv, uvFactor)
			writeShortUV(w, *uv2, uvFactor)
		case LayoutShort4toFloat4B:
			writeShortUV(w, *uv, uvFactor)
			w.Int16(toFixed(uv.Z, uvFactor))
			w.Int16(0)
		case LayoutHalf2:
			writeHalf(w, uv.X)
			writeHalf(w, uv.Y)
		case LayoutHalf4:
			uv2, err := s.nextUV(v)
			if err != nil {
				return err
			}
			writeHalf(w, uv.X)
			writeHalf(w, uv.Y)
			writeHalf(w, uv2.X)
			writeHalf(w, uv2.Y)
		default:
			return ErrUnsupportedMember
		}

	case SemanticTangent:
		t, err := s.nextTangent(v)
		if err != nil {
			return err
		}
		switch m.Type {
		case LayoutFloat4:
			w.Vec4(*t)
		case LayoutByte4A, LayoutByte4B, LayoutByte4C, LayoutByte4E:
			writeByteNorm4(w, *t)
		case LayoutShort4toFloat4A:
			w.Int16(toShortNorm(t.X))
			w.Int16(toShortNorm(t.Y))
			w.Int16(toShortNorm(t.Z))
			w.Int16(toShortNorm(t.W))
		case LayoutHalf4:
			writeHalf4(w, *t)
		default:
			return ErrUnsupportedMember
		}

	case SemanticBitangent:
		switch m.Type {
		case LayoutFloat4:
			w.Vec4(v.Bitangent)
		case LayoutByte4A, LayoutByte4B, LayoutByte4C, LayoutByte4E:
			writeByteNorm4(w, v.Bitangent)
		case LayoutHalf4:
			writeHalf4(w, v.Bitangent)
		default:
			return ErrUnsupportedMember
		}

	case SemanticVertexColor:
		c, err := s.nextColor(v)
		if err != nil {
			return err
		}
		switch m.Type {
		case LayoutFloat4:
			w.Float32(c.R)
			w.Float32(c.G)
			w.Float32(c.B)
			w.Float32(c.A)
		case LayoutByte4A, LayoutByte4C:
			w.Byte(toUByteNorm(c.R))
			w.Byte(toUByteNorm(c.G))
			w.Byte(toUByteNorm(c.B))
			w.Byte(toUByteNorm(c.A))
		case LayoutHalf4:
			writeHalf4(w, vecmath.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A})
		default:
			return ErrUnsupportedMember
		}

	default:
		return ErrUnsupportedMember
	}
	return nil
}

// Normalized decodes.

func byteNorm(b byte) float32 {
	return (float32(b) - 127) / 127
}

func sbyteNorm(b int8) float32 {
	return float32(b) / 127
}

func ubyteNorm(b byte) float32 {
	return float32(b) / 255
}

func shortNorm(s int16) float32 {
	return float32(s) / 32767
}

func ushortNorm(u uint16) float32 {
	return (float32(u) - 32767) / 32767
}

func readByteNorm4(r *binio.Reader) vecmath.Vec4 {
	return vecmath.Vec4{X: byteNorm(r.Byte()), Y: byteNorm(r.Byte()), Z: byteNorm(r.Byte()), W: byteNorm(r.Byte())}
}

func readShortUV(r *binio.Reader, uvFactor float32) vecmath.Vec3 {
	return vecmath.Vec3{X: float32(r.Int16()) / uvFactor, Y: float32(r.Int16()) / uvFactor}
}

func readHalf(r *binio.Reader) float32 {
	return float16.Frombits(r.Uint16()).Float32()
}

func readHalf3(r *binio.Reader) vecmath.Vec3 {
	return vecmath.Vec3{X: readHalf(r), Y: readHalf(r), Z: readHalf(r)}
}

func readHalf4(r *binio.Reader) vecmath.Vec4 {
	return vecmath.Vec4{X: readHalf(r), Y: readHalf(r), Z: readHalf(r), W: readHalf(r)}
}

func assertZeroFloat(r *binio.Reader) {
	pos := r.Position()
	if f := r.Float32(); f != 0 {
		r.Fail(&binio.AssertError{Offset: pos, Kind: "float32", Got: fmt.Sprint(f), Expected: []string{"0"}})
	}
}

// Normalized encodes. Values are rounded to the nearest step and clamped
// to the target range.

func round(f float32) float32 {
	return math32.Floor(f + 0.5)
}

func clamp(f, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, f))
}

func toByteNorm(f float32) byte {
	return byte(clamp(round(f*127+127), 0, 255))
}

func toSByteNorm(f float32) int8 {
	return int8(clamp(round(f*127), -128, 127))
}

func toUByteNorm(f float32) byte {
	return byte(clamp(round(f*255), 0, 255))
}

func toShortNorm(f float32) int16 {
	return int16(clamp(round(f*32767), -32768, 32767))
}

func toUShortNorm(f float32) uint16 {
	return uint16(clamp(round(f*32767+32767), 0, 65535))
}

func toFixed(f, factor float32) int16 {
	return int16(clamp(round(f*factor), -32768, 32767))
}

func writeByteNorm4(w *binio.Writer, v vecmath.Vec4) {
	w.Byte(toByteNorm(v.X))
	w.Byte(toByteNorm(v.Y))
	w.Byte(toByteNorm(v.Z))
	w.Byte(toByteNorm(v.W))
}

func writeShortUV(w *binio.Writer, uv vecmath.Vec3, uvFactor float32) {
	w.Int16(toFixed(uv.X, uvFactor))
	w.Int16(toFixed(uv.Y, uvFactor))
}

func writeHalf(w *binio.Writer, f float32) {
	w.Uint16(float16.Fromfloat32(f).Bits())
}

func writeHalf3(w *binio.Writer, v vecmath.Vec3) {
	writeHalf(w, v.X)
	writeHalf(w, v.Y)
	writeHalf(w, v.Z)
}

func writeHalf4(w *binio.Writer, v vecmath.Vec4) {
	writeHalf(w, v.X)
	writeHalf(w, v.Y)
	writeHalf(w, v.Z)
	writeHalf(w, v.W)
}
