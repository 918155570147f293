package flver

import (
	"fmt"
	"slices"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

const meshSize = 0x30

// Mesh is one drawable part of a model: its vertices, the face sets
// indexing them and the buffers they were decoded from.
type Mesh struct {
	// Dynamic is 1 when the mesh is in bind pose.
	Dynamic          byte
	MaterialIndex    int32
	DefaultBoneIndex int32
	// BoneIndices maps vertex bone indices to document bones.
	BoneIndices   []int32
	BoundingBox   *MeshBoundingBox
	FaceSets      []*FaceSet
	VertexBuffers []*VertexBuffer
	Vertices      []*Vertex

	// Pool indices, cleared once claimed.
	faceSetIndices      []int32
	vertexBufferIndices []int32
}

// MeshBoundingBox is the optional per-mesh bounds. Unk is only stored from
// version 0x2001A on.
type MeshBoundingBox struct {
	Min vecmath.Vec3
	Max vecmath.Vec3
	Unk vecmath.Vec3
}

// NewMesh returns an empty mesh with no default bone.
func NewMesh() *Mesh {
	return &Mesh{DefaultBoneIndex: -1}
}

// Faces returns the triangles of the first face set whose flags equal
// flags, falling back to the first face set. Trailing indices that do not
// form a whole triangle are dropped.
func (m *Mesh) Faces(flags FaceSetFlags) ([][3]*Vertex, error) {
	if len(m.FaceSets) == 0 {
		return [][3]*Vertex{}, nil
	}
	fs := m.FaceSets[0]
	for _, candidate := range m.FaceSets {
		if candidate.Flags == flags {
			fs = candidate
			break
		}
	}

	indices, err := fs.Triangulate(m.AllowRestarts())
	if err != nil {
		return nil, err
	}
	faces := make([][3]*Vertex, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		var face [3]*Vertex
		for j, idx := range indices[i : i+3] {
			if idx < 0 || idx >= len(m.Vertices) {
				return nil, fmt.Errorf("%w: index %d, %d vertices", ErrIndexRange, idx, len(m.Vertices))
			}
			face[j] = m.Vertices[idx]
		}
		faces = append(faces, face)
	}
	return faces, nil
}

// TriangleArea returns the area of the triangle spanned by the vertex
// positions. It is zero for degenerate triangles, such as the ones strips
// use to join runs.
func TriangleArea(tri [3]*Vertex) float32 {
	e1 := tri[1].Position.Sub(tri[0].Position)
	e2 := tri[2].Position.Sub(tri[0].Position)
	return e1.Cross(e2).Length() / 2
}

// AllowRestarts reports whether 0xFFFF in this mesh's strips is a restart
// marker rather than a vertex index.
func (m *Mesh) AllowRestarts() bool {
	return len(m.Vertices) < restartIndex
}

// Clone returns a deep copy of m, including its vertices and face sets.
// Layouts referenced by its vertex buffers stay shared.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.BoneIndices = slices.Clone(m.BoneIndices)
	if m.BoundingBox != nil {
		bb := *m.BoundingBox
		c.BoundingBox = &bb
	}
	c.FaceSets = make([]*FaceSet, len(m.FaceSets))
	for i, fs := range m.FaceSets {
		c.FaceSets[i] = fs.Clone()
	}
	c.VertexBuffers = make([]*VertexBuffer, len(m.VertexBuffers))
	for i, vb := range m.VertexBuffers {
		vbc := *vb
		c.VertexBuffers[i] = &vbc
	}
	c.Vertices = make([]*Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		c.Vertices[i] = v.Clone()
	}
	c.faceSetIndices = nil
	c.vertexBufferIndices = nil
	return &c
}

func readMesh(r *binio.Reader, h *Header) (*Mesh, error) {
	m := &Mesh{}
	m.Dynamic = r.AssertByte(0, 1)
	r.AssertByte(0)
	r.AssertByte(0)
	r.AssertByte(0)
	m.MaterialIndex = r.Int32()
	r.AssertInt32(0)
	r.AssertInt32(0)
	m.DefaultBoneIndex = r.Int32()
	boneCount := r.Int32()
	boundingBoxOffset := r.Int32()
	boneOffset := r.Int32()
	faceSetCount := r.Int32()
	faceSetOffset := r.Int32()
	vertexBufferCount := r.AssertInt32(1, 2, 3)
	vertexBufferOffset := r.Int32()
	if err := r.Err(); err != nil {
		return nil, err
	}

	if boundingBoxOffset != 0 {
		err := r.At(int(boundingBoxOffset), func() error {
			m.BoundingBox = readMeshBoundingBox(r, h)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("bounding box: %w", err)
		}
	}
	m.BoneIndices = r.GetInt32s(int(boneOffset), int(boneCount))
	m.faceSetIndices = r.GetInt32s(int(faceSetOffset), int(faceSetCount))
	m.vertexBufferIndices = r.GetInt32s(int(vertexBufferOffset), int(vertexBufferCount))
	return m, r.Err()
}

func readMeshBoundingBox(r *binio.Reader, h *Header) *MeshBoundingBox {
	bb := &MeshBoundingBox{}
	bb.Min = r.Vec3()
	bb.Max = r.Vec3()
	if h.Version.AtLeast(VersionMeshBoxExtra) {
		bb.Unk = r.Vec3()
	}
	return bb
}

// claim moves the mesh's face sets and vertex buffers out of the pools and
// checks the buffers against the layouts and the file length.
func (m *Mesh) claim(index int, faceSets *pool[*FaceSet], buffers *pool[*VertexBuffer], layouts []BufferLayout, dataOffset, fileLen int) error {
	owner := fmt.Sprintf("mesh %d", index)
	var err error
	if m.FaceSets, err = faceSets.claim(owner, m.faceSetIndices); err != nil {
		return err
	}
	if m.VertexBuffers, err = buffers.claim(owner, m.vertexBufferIndices); err != nil {
		return err
	}
	m.faceSetIndices = nil
	m.vertexBufferIndices = nil

	for _, vb := range m.VertexBuffers {
		if err := vb.check(layouts, dataOffset, fileLen); err != nil {
			return err
		}
	}
	if err := m.checkSemantics(layouts); err != nil {
		return err
	}
	for i, vb := range m.VertexBuffers {
		if int(vb.Ordinal()) != i {
			return fmt.Errorf("%w: buffer %d has index 0x%X", ErrBufferIndex, i, vb.BufferIndex)
		}
	}
	return nil
}

// checkSemantics rejects semantics that only make sense once per vertex but
// appear more than once across the mesh's layouts.
func (m *Mesh) checkSemantics(layouts []BufferLayout) error {
	seen := make(map[LayoutSemantic]bool)
	for _, vb := range m.VertexBuffers {
		for _, member := range layouts[vb.LayoutIndex] {
			if member.Semantic.repeatable() {
				continue
			}
			if seen[member.Semantic] {
				return fmt.Errorf("%w: %s", ErrRepeatedSemantic, member.Semantic)
			}
			seen[member.Semantic] = true
		}
	}
	return nil
}

// slotCounts returns the largest UV, tangent and color counts of any of the
// mesh's layouts.
func (m *Mesh) slotCounts(layouts []BufferLayout) (uvs, tangents, colors int) {
	for _, vb := range m.VertexBuffers {
		u, t, c := layouts[vb.LayoutIndex].slotCounts()
		uvs = max(uvs, u)
		tangents = max(tangents, t)
		colors = max(colors, c)
	}
	return uvs, tangents, colors
}

// checkSlots rejects vertices carrying UV, tangent or color slots beyond
// what the mesh's buffers write, since those values would be dropped.
func (m *Mesh) checkSlots(layouts []BufferLayout) error {
	uvs, tangents, colors := m.slotCounts(layouts)
	for i, v := range m.Vertices {
		switch {
		case len(v.UVs) > uvs:
			return fmt.Errorf("%w: vertex %d has %d UVs, buffers write %d", ErrUnusedSlot, i, len(v.UVs), uvs)
		case len(v.Tangents) > tangents:
			return fmt.Errorf("%w: vertex %d has %d tangents, buffers write %d", ErrUnusedSlot, i, len(v.Tangents), tangents)
		case len(v.Colors) > colors:
			return fmt.Errorf("%w: vertex %d has %d colors, buffers write %d", ErrUnusedSlot, i, len(v.Colors), colors)
		}
	}
	return nil
}

func (m *Mesh) readVertices(r *binio.Reader, dataOffset int, layouts []BufferLayout, version Version) error {
	if len(m.VertexBuffers) == 0 {
		return nil
	}
	count := m.VertexBuffers[0].VertexCount()
	for i, vb := range m.VertexBuffers[1:] {
		if vb.VertexCount() != count {
			return fmt.Errorf("%w: buffer %d has %d, buffer 0 has %d", ErrVertexCount, i+1, vb.VertexCount(), count)
		}
	}

	uvs, tangents, colors := m.slotCounts(layouts)
	m.Vertices = make([]*Vertex, count)
	for i := range m.Vertices {
		m.Vertices[i] = NewVertex(uvs, tangents, colors)
	}
	for i, vb := range m.VertexBuffers {
		if err := vb.readVertices(r, dataOffset, layouts, m.Vertices, version.uvFactor()); err != nil {
			return fmt.Errorf("vertex buffer %d: %w", i, err)
		}
	}
	return nil
}

// checkFaceSets validates raw face set indices against the vertex count.
// Compressed sets are checked only once decompressed.
func (m *Mesh) checkFaceSets() error {
	for i, fs := range m.FaceSets {
		if fs.Indices == nil {
			continue
		}
		if err := fs.checkRange(len(m.Vertices)); err != nil {
			return fmt.Errorf("face set %d: %w", i, err)
		}
	}
	return nil
}

func writeMeshHeader(w *binio.Writer, m *Mesh, index int) {
	w.Byte(m.Dynamic)
	w.Byte(0)
	w.Byte(0)
	w.Byte(0)
	w.Int32(m.MaterialIndex)
	w.Int32(0)
	w.Int32(0)
	w.Int32(m.DefaultBoneIndex)
	w.Int32(int32(len(m.BoneIndices)))
	w.ReserveInt32(fmt.Sprintf("MeshBoundingBox%d", index))
	w.ReserveInt32(fmt.Sprintf("MeshBoneIndices%d", index))
	w.Int32(int32(len(m.FaceSets)))
	w.ReserveInt32(fmt.Sprintf("MeshFaceSetIndices%d", index))
	w.Int32(int32(len(m.VertexBuffers)))
	w.ReserveInt32(fmt.Sprintf("MeshVertexBufferIndices%d", index))
}

func (m *Mesh) writeBoundingBox(w *binio.Writer, index int, h *Header) {
	name := fmt.Sprintf("MeshBoundingBox%d", index)
	if m.BoundingBox == nil {
		w.FillInt32(name, 0)
		return
	}
	w.FillInt32(name, int32(w.Position()))
	w.Vec3(m.BoundingBox.Min)
	w.Vec3(m.BoundingBox.Max)
	if h.Version.AtLeast(VersionMeshBoxExtra) {
		w.Vec3(m.BoundingBox.Unk)
	}
}

// writeBoneIndices writes the bone index list. A mesh without bones points
// at the start of the bone index block, as the game's own files do.
func (m *Mesh) writeBoneIndices(w *binio.Writer, index, blockStart int) {
	name := fmt.Sprintf("MeshBoneIndices%d", index)
	if len(m.BoneIndices) == 0 {
		w.FillInt32(name, int32(blockStart))
		return
	}
	w.FillInt32(name, int32(w.Position()))
	w.Int32s(m.BoneIndices)
}
