package flver

import (
	"fmt"
	"slices"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

const (
	materialSize = 0x20
	textureSize  = 0x20
)

// Material references a shader definition and the textures bound to it.
type Material struct {
	Name string
	// MTD is the path of the material definition.
	MTD      string
	Flags    int32
	Textures []*Texture
	Unk18    int32

	textureIndex int32
	textureCount int32
}

// Clone returns a deep copy of m.
func (m *Material) Clone() *Material {
	c := *m
	c.Textures = make([]*Texture, len(m.Textures))
	for i, t := range m.Textures {
		tc := *t
		c.Textures[i] = &tc
	}
	return &c
}

// textureIndices lists the texture table entries the material owns.
func (m *Material) textureIndices() []int32 {
	out := make([]int32, m.textureCount)
	for i := range out {
		out[i] = m.textureIndex + int32(i)
	}
	return out
}

// readMaterial reads one material record. textures is the size of the
// texture table the material's range must fall within.
func readMaterial(r *binio.Reader, h *Header, textures int32) (*Material, error) {
	m := &Material{}
	nameOffset := r.Int32()
	mtdOffset := r.Int32()
	m.textureCount = r.Int32()
	m.textureIndex = r.Int32()
	m.Flags = r.Int32()
	gxOffset := r.Int32()
	m.Unk18 = r.Int32()
	r.AssertInt32(0)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if gxOffset != 0 {
		return nil, fmt.Errorf("%w: offset 0x%X", ErrGXListUnsupported, gxOffset)
	}
	if m.textureCount < 0 || m.textureIndex < 0 || int64(m.textureIndex)+int64(m.textureCount) > int64(textures) {
		return nil, fmt.Errorf("%w: index %d count %d", ErrMaterialTextures, m.textureIndex, m.textureCount)
	}
	m.Name = r.GetString(int(nameOffset), h.Unicode)
	m.MTD = r.GetString(int(mtdOffset), h.Unicode)
	return m, r.Err()
}

func writeMaterial(w *binio.Writer, m *Material, index, textureIndex int) {
	w.ReserveInt32(fmt.Sprintf("MaterialName%d", index))
	w.ReserveInt32(fmt.Sprintf("MaterialMTD%d", index))
	w.Int32(int32(len(m.Textures)))
	w.Int32(int32(textureIndex))
	w.Int32(m.Flags)
	w.Int32(0) // GX list offset
	w.Int32(m.Unk18)
	w.Int32(0)
}

func (m *Material) writeStrings(w *binio.Writer, index int, unicode bool) {
	w.FillInt32(fmt.Sprintf("MaterialName%d", index), int32(w.Position()))
	w.String(m.Name, unicode, true)
	w.FillInt32(fmt.Sprintf("MaterialMTD%d", index), int32(w.Position()))
	w.String(m.MTD, unicode, true)
}

// Texture is one texture slot of a material.
type Texture struct {
	Path string
	// Type names the shader slot, such as "g_Diffuse".
	Type  string
	Scale vecmath.Vec2
	Unk10 byte
	Unk11 bool
	Unk14 float32
	Unk18 float32
	Unk1C float32
}

func readTexture(r *binio.Reader, h *Header) (*Texture, error) {
	t := &Texture{}
	pathOffset := r.Int32()
	typeOffset := r.Int32()
	t.Scale = r.Vec2()
	t.Unk10 = r.AssertByte(0, 1, 2)
	t.Unk11 = r.Bool()
	r.AssertByte(0)
	r.AssertByte(0)
	t.Unk14 = r.Float32()
	t.Unk18 = r.Float32()
	t.Unk1C = r.Float32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	t.Path = r.GetString(int(pathOffset), h.Unicode)
	t.Type = r.GetString(int(typeOffset), h.Unicode)
	return t, r.Err()
}

func writeTexture(w *binio.Writer, t *Texture, index int) {
	w.ReserveInt32(fmt.Sprintf("TexturePath%d", index))
	w.ReserveInt32(fmt.Sprintf("TextureType%d", index))
	w.Vec2(t.Scale)
	w.Byte(t.Unk10)
	w.Bool(t.Unk11)
	w.Byte(0)
	w.Byte(0)
	w.Float32(t.Unk14)
	w.Float32(t.Unk18)
	w.Float32(t.Unk1C)
}

func (t *Texture) writeStrings(w *binio.Writer, index int, unicode bool) {
	w.FillInt32(fmt.Sprintf("TexturePath%d", index), int32(w.Position()))
	w.String(t.Path, unicode, true)
	w.FillInt32(fmt.Sprintf("TextureType%d", index), int32(w.Position()))
	w.String(t.Type, unicode, true)
}

// claimTextures hands each material the texture table entries it names.
func claimTextures(materials []*Material, textures []*Texture) error {
	p := newPool("texture", textures)
	for i, m := range materials {
		claimed, err := p.claim(fmt.Sprintf("material %d", i), m.textureIndices())
		if err != nil {
			return err
		}
		m.Textures = slices.Clip(claimed)
	}
	return p.drained()
}
