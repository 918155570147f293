package flver

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/edge"
)

// FLVER is a decoded model file.
type FLVER struct {
	Header        Header
	Dummies       []*Dummy
	Materials     []*Material
	Bones         []*Bone
	Meshes        []*Mesh
	BufferLayouts []BufferLayout
}

// ReadOptions configures Parse. The zero value is usable.
type ReadOptions struct {
	// Decompressor expands edge-compressed face sets. When set, compressed
	// sets are decompressed and range-checked during Parse; otherwise they
	// stay compressed and fail with ErrNoDecompressor when triangulated.
	Decompressor edge.Decompressor
	Logger       *zap.Logger
}

func (o *ReadOptions) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *ReadOptions) decompressor() edge.Decompressor {
	if o == nil {
		return nil
	}
	return o.Decompressor
}

// New returns an empty little-endian document of the given version.
func New(version Version) *FLVER {
	return &FLVER{Header: Header{Version: version, IndexSize: 16, Unicode: true}}
}

// ParseFile reads and parses a FLVER file from disk.
func ParseFile(path string, opts *ReadOptions) (*FLVER, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FLVER file: %w", err)
	}
	return Parse(data, opts)
}

// Parse decodes a FLVER from data. opts may be nil.
func Parse(data []byte, opts *ReadOptions) (*FLVER, error) {
	r := binio.NewReader(data)
	h, c, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	f := &FLVER{Header: h}
	dataOffset := int(c.dataOffset)

	// Tables follow the header back to back.
	f.Dummies = make([]*Dummy, c.dummies)
	for i := range f.Dummies {
		if f.Dummies[i], err = readDummy(r); err != nil {
			return nil, fmt.Errorf("dummy %d: %w", i, err)
		}
	}
	f.Materials = make([]*Material, c.materials)
	for i := range f.Materials {
		if f.Materials[i], err = readMaterial(r, &h, c.textures); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
	}
	f.Bones = make([]*Bone, c.bones)
	for i := range f.Bones {
		if f.Bones[i], err = readBone(r, &h); err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
	}
	f.Meshes = make([]*Mesh, c.meshes)
	for i := range f.Meshes {
		if f.Meshes[i], err = readMesh(r, &h); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	faceSets := make([]*FaceSet, c.faceSets)
	for i := range faceSets {
		if faceSets[i], err = readFaceSet(r, &h, dataOffset, opts.decompressor()); err != nil {
			return nil, fmt.Errorf("face set %d: %w", i, err)
		}
	}
	buffers := make([]*VertexBuffer, c.buffers)
	for i := range buffers {
		if buffers[i], err = readVertexBuffer(r); err != nil {
			return nil, fmt.Errorf("vertex buffer %d: %w", i, err)
		}
	}
	f.BufferLayouts = make([]BufferLayout, c.layouts)
	for i := range f.BufferLayouts {
		if f.BufferLayouts[i], err = readBufferLayout(r); err != nil {
			return nil, fmt.Errorf("buffer layout %d: %w", i, err)
		}
	}
	textures := make([]*Texture, c.textures)
	for i := range textures {
		if textures[i], err = readTexture(r, &h); err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
	}

	if err := claimTextures(f.Materials, textures); err != nil {
		return nil, err
	}

	faceSetPool := newPool("face set", faceSets)
	bufferPool := newPool("vertex buffer", buffers)
	for i, m := range f.Meshes {
		if err := m.claim(i, faceSetPool, bufferPool, f.BufferLayouts, dataOffset, r.Len()); err != nil {
			return nil, err
		}
	}
	if err := faceSetPool.drained(); err != nil {
		return nil, err
	}
	if err := bufferPool.drained(); err != nil {
		return nil, err
	}

	for i, m := range f.Meshes {
		if err := m.readVertices(r, dataOffset, f.BufferLayouts, h.Version); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		if opts.decompressor() != nil {
			for j, fs := range m.FaceSets {
				if err := fs.Decompress(); err != nil {
					return nil, fmt.Errorf("mesh %d: face set %d: %w", i, j, err)
				}
			}
		}
		if err := m.checkFaceSets(); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
	}

	opts.logger().Debug("parsed FLVER",
		zap.Stringer("version", h.Version),
		zap.Bool("bigEndian", h.BigEndian),
		zap.Int("meshes", len(f.Meshes)),
		zap.Int("faceSets", len(faceSets)),
		zap.Int("vertexBuffers", len(buffers)),
		zap.Int("layouts", len(f.BufferLayouts)),
		zap.Int("materials", len(f.Materials)),
		zap.Int("bones", len(f.Bones)),
	)
	return f, nil
}

// FaceSetCount returns the number of face sets across all meshes.
func (f *FLVER) FaceSetCount() int {
	n := 0
	for _, m := range f.Meshes {
		n += len(m.FaceSets)
	}
	return n
}

// VertexBufferCount returns the number of vertex buffers across all meshes.
func (f *FLVER) VertexBufferCount() int {
	n := 0
	for _, m := range f.Meshes {
		n += len(m.VertexBuffers)
	}
	return n
}

// TextureCount returns the number of textures across all materials.
func (f *FLVER) TextureCount() int {
	n := 0
	for _, m := range f.Materials {
		n += len(m.Textures)
	}
	return n
}

// faceCounts returns the header triangle counts: full detail triangles
// without degenerates, and every triangle of every face set.
func (f *FLVER) faceCounts() (faceCount, totalFaceCount int32, err error) {
	for i, m := range f.Meshes {
		allowRestarts := m.AllowRestarts()
		for j, fs := range m.FaceSets {
			n, err := fs.FaceCount(allowRestarts, false)
			if err != nil {
				return 0, 0, fmt.Errorf("mesh %d: face set %d: %w", i, j, err)
			}
			if fs.Flags == FaceSetFlagsNone {
				faceCount += int32(n)
			}
			total, err := fs.FaceCount(allowRestarts, true)
			if err != nil {
				return 0, 0, fmt.Errorf("mesh %d: face set %d: %w", i, j, err)
			}
			totalFaceCount += int32(total)
		}
	}
	return faceCount, totalFaceCount, nil
}

// validate checks everything Write cannot express before any byte is
// written.
func (f *FLVER) validate() error {
	h := &f.Header
	if !h.Version.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, h.Version)
	}
	switch h.IndexSize {
	case 0, 16, 32:
	default:
		return fmt.Errorf("%w: header index size %d", ErrIndexSize, h.IndexSize)
	}
	for i, m := range f.Meshes {
		if n := len(m.VertexBuffers); n < 1 || n > 3 {
			return fmt.Errorf("mesh %d: %d vertex buffers, want 1 to 3", i, n)
		}
		for j, vb := range m.VertexBuffers {
			if vb.LayoutIndex < 0 || int(vb.LayoutIndex) >= len(f.BufferLayouts) {
				return fmt.Errorf("mesh %d: vertex buffer %d: %w: %d", i, j, ErrLayoutIndex, vb.LayoutIndex)
			}
		}
		if err := m.checkSemantics(f.BufferLayouts); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		if err := m.checkSlots(f.BufferLayouts); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		for j, fs := range m.FaceSets {
			if fs.Edge != nil {
				return fmt.Errorf("mesh %d: face set %d: %w", i, j, ErrEdgeWriteUnsupported)
			}
			if _, err := fs.diskIndexSize(h); err != nil {
				return fmt.Errorf("mesh %d: face set %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// Write encodes the document. Offsets, counts and strides are recomputed;
// a document read by Parse and written unchanged reproduces the bytes of
// any file this writer produced.
func (f *FLVER) Write() ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	faceCount, totalFaceCount, err := f.faceCounts()
	if err != nil {
		return nil, err
	}

	h := &f.Header
	w := binio.NewWriter()
	w.BigEndian = h.BigEndian
	writeHeader(w, f, f.FaceSetCount(), f.VertexBufferCount(), f.TextureCount(), faceCount, totalFaceCount)

	for _, d := range f.Dummies {
		writeDummy(w, d)
	}
	textureIndex := 0
	for i, m := range f.Materials {
		writeMaterial(w, m, i, textureIndex)
		textureIndex += len(m.Textures)
	}
	for i, b := range f.Bones {
		writeBone(w, b, i)
	}
	for i, m := range f.Meshes {
		writeMeshHeader(w, m, i)
	}
	faceSetIndex := 0
	for _, m := range f.Meshes {
		for _, fs := range m.FaceSets {
			if err := writeFaceSetHeader(w, fs, h, faceSetIndex); err != nil {
				return nil, err
			}
			faceSetIndex++
		}
	}
	bufferIndex := 0
	for _, m := range f.Meshes {
		for j, vb := range m.VertexBuffers {
			writeVertexBufferHeader(w, vb, bufferIndex, j, f.BufferLayouts, len(m.Vertices))
			bufferIndex++
		}
	}
	for i, l := range f.BufferLayouts {
		writeBufferLayoutHeader(w, l, i)
	}
	textureIndex = 0
	for _, m := range f.Materials {
		for _, t := range m.Textures {
			writeTexture(w, t, textureIndex)
			textureIndex++
		}
	}

	textureIndex = 0
	for i, m := range f.Materials {
		m.writeStrings(w, i, h.Unicode)
		for _, t := range m.Textures {
			t.writeStrings(w, textureIndex, h.Unicode)
			textureIndex++
		}
	}
	for i, b := range f.Bones {
		b.writeName(w, i, h.Unicode)
	}
	w.Pad(4)

	for i, m := range f.Meshes {
		m.writeBoundingBox(w, i, h)
	}
	boneIndicesStart := w.Position()
	for i, m := range f.Meshes {
		m.writeBoneIndices(w, i, boneIndicesStart)
	}
	faceSetIndex = 0
	for i, m := range f.Meshes {
		w.FillInt32(fmt.Sprintf("MeshFaceSetIndices%d", i), int32(w.Position()))
		for range m.FaceSets {
			w.Int32(int32(faceSetIndex))
			faceSetIndex++
		}
	}
	bufferIndex = 0
	for i, m := range f.Meshes {
		w.FillInt32(fmt.Sprintf("MeshVertexBufferIndices%d", i), int32(w.Position()))
		for range m.VertexBuffers {
			w.Int32(int32(bufferIndex))
			bufferIndex++
		}
	}
	for i, l := range f.BufferLayouts {
		writeBufferLayoutMembers(w, l, i)
	}

	w.Pad(0x20)
	dataStart := w.Position()
	w.FillInt32("DataOffset", int32(dataStart))

	faceSetIndex = 0
	for i, m := range f.Meshes {
		for j, fs := range m.FaceSets {
			if err := fs.writeIndices(w, faceSetIndex, dataStart); err != nil {
				return nil, fmt.Errorf("mesh %d: face set %d: %w", i, j, err)
			}
			w.Pad(0x10)
			faceSetIndex++
		}
	}
	uvFactor := h.Version.uvFactor()
	bufferIndex = 0
	for i, m := range f.Meshes {
		for j, vb := range m.VertexBuffers {
			if err := vb.writeVertices(w, bufferIndex, dataStart, f.BufferLayouts, m.Vertices, uvFactor); err != nil {
				return nil, fmt.Errorf("mesh %d: vertex buffer %d: %w", i, j, err)
			}
			w.Pad(0x10)
			bufferIndex++
		}
	}
	w.FillInt32("DataSize", int32(w.Position()-dataStart))
	return w.Finish()
}

// WriteFile encodes the document and writes it to path.
func (f *FLVER) WriteFile(path string) error {
	data, err := f.Write()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing FLVER file: %w", err)
	}
	return nil
}
