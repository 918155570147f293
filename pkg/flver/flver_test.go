package flver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/edge"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

// makeTestFLVER builds a small two-mesh model. Every vertex value is exactly
// representable in its layout encoding.
func makeTestFLVER(version Version) *FLVER {
	f := New(version)
	f.Header.BoundingBoxMin = vecmath.Vec3{X: -1, Y: -1, Z: -1}
	f.Header.BoundingBoxMax = vecmath.Vec3{X: 1, Y: 2, Z: 1}
	f.Header.Unk5C = 1

	f.Dummies = []*Dummy{{
		Position:        vecmath.Vec3{Y: 1.5},
		Color:           [4]byte{0xFF, 0x80, 0x00, 0xFF},
		Forward:         vecmath.Vec3{Z: 1},
		ReferenceID:     100,
		ParentBoneIndex: 1,
		Upward:          vecmath.Vec3{Y: 1},
		AttachBoneIndex: 0,
		Flag1:           true,
		UseUpwardVector: true,
	}}

	f.Materials = []*Material{{
		Name:  "body",
		MTD:   `N:\FRPG\data\Material\mtd\P_Metal[DSB].mtd`,
		Flags: 2,
		Textures: []*Texture{
			{Path: `N:\tex\body_a.tif`, Type: "g_Diffuse", Scale: vecmath.Vec2{X: 1, Y: 1}},
			{Path: `N:\tex\body_n.tif`, Type: "g_Bumpmap", Scale: vecmath.Vec2{X: 2, Y: 2}, Unk10: 1, Unk11: true},
		},
	}}

	root := NewBone("Master")
	root.ChildIndex = 1
	child := NewBone("Spine")
	child.ParentIndex = 0
	child.Translation = vecmath.Vec3{Y: 1}
	child.Rotation = vecmath.Vec3{X: 0.5}
	child.BoundingBoxMin = vecmath.Vec3{X: -0.25}
	child.BoundingBoxMax = vecmath.Vec3{X: 0.25}
	f.Bones = []*Bone{root, child}

	f.BufferLayouts = []BufferLayout{
		{
			{Type: LayoutFloat3, Semantic: SemanticPosition},
			{Type: LayoutByte4C, Semantic: SemanticNormal},
			{Type: LayoutByte4C, Semantic: SemanticTangent},
			{Type: LayoutByte4B, Semantic: SemanticBoneIndices},
			{Type: LayoutByte4C, Semantic: SemanticBoneWeights},
			{Type: LayoutByte4C, Semantic: SemanticVertexColor},
			{Type: LayoutUVPair, Semantic: SemanticUV},
		},
		{
			{Type: LayoutFloat3, Semantic: SemanticPosition},
			{Type: LayoutFloat3, Semantic: SemanticNormal},
		},
		{
			{Type: LayoutHalf2, Semantic: SemanticUV},
			{Unk00: 1, Type: LayoutFloat4, Semantic: SemanticVertexColor},
		},
	}

	m0 := NewMesh()
	m0.Dynamic = 1
	m0.DefaultBoneIndex = 1
	m0.BoneIndices = []int32{0, 1}
	m0.BoundingBox = &MeshBoundingBox{
		Min: vecmath.Vec3{X: -1, Y: 0, Z: -1},
		Max: vecmath.Vec3{X: 1, Y: 2, Z: 1},
		Unk: vecmath.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
	}
	m0.VertexBuffers = []*VertexBuffer{{BufferIndex: 0, LayoutIndex: 0}}
	for i := 0; i < 4; i++ {
		v := NewVertex(2, 1, 1)
		v.Position = vecmath.Vec3{X: float32(i), Y: float32(i % 2), Z: -0.5}
		v.Normal = vecmath.Vec3{Y: 1}
		v.Tangents[0] = vecmath.Vec4{X: 1, W: 1}
		v.BoneIndices = [4]int32{0, 1, 0, 0}
		v.BoneWeights = [4]float32{1, 0, 0, 0}
		v.UVs[0] = vecmath.Vec3{X: 0.5 * float32(i), Y: 0.25}
		v.UVs[1] = vecmath.Vec3{X: -0.5, Y: 1}
		m0.Vertices = append(m0.Vertices, v)
	}
	m0.FaceSets = []*FaceSet{
		{TriangleStrip: true, CullBackfaces: true, IndexSize: 16, Indices: []int{0, 1, 2, 3}},
		{Flags: FaceSetLodLevel1, IndexSize: 16, Indices: []int{0, 1, 2}},
	}

	m1 := NewMesh()
	m1.MaterialIndex = 0
	m1.VertexBuffers = []*VertexBuffer{
		{BufferIndex: 0, LayoutIndex: 1},
		{BufferIndex: 1, LayoutIndex: 2},
	}
	for i := 0; i < 3; i++ {
		v := NewVertex(1, 0, 1)
		v.Position = vecmath.Vec3{X: float32(i) * 2, Y: 4, Z: 8}
		v.Normal = vecmath.Vec3{Z: -1}
		v.UVs[0] = vecmath.Vec3{X: 0.5, Y: 0.125 * float32(i)}
		v.Colors[0] = vecmath.Color{R: 0.25, G: 0.5, B: 0.75, A: 1}
		m1.Vertices = append(m1.Vertices, v)
	}
	indexSize := 32
	if version <= VersionDemonsSouls {
		indexSize = 16
	}
	m1.FaceSets = []*FaceSet{{IndexSize: indexSize, Indices: []int{2, 1, 0}}}

	f.Meshes = []*Mesh{m0, m1}
	return f
}

func mustWrite(t *testing.T, f *FLVER) []byte {
	t.Helper()
	data, err := f.Write()
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	return data
}

func mustParse(t *testing.T, data []byte, opts *ReadOptions) *FLVER {
	t.Helper()
	f, err := Parse(data, opts)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return f
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		version   Version
		bigEndian bool
		unicode   bool
	}{
		{"demons souls shift-jis", VersionDemonsSouls, false, false},
		{"dark souls", VersionDarkSouls1, false, true},
		{"dark souls 2 big endian", VersionDarkSouls2, true, true},
		{"dark souls 3", VersionDarkSouls3, false, true},
		{"sekiro", VersionSekiro, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc0 := makeTestFLVER(tt.version)
			doc0.Header.BigEndian = tt.bigEndian
			doc0.Header.Unicode = tt.unicode
			if !tt.unicode {
				doc0.Bones[1].Name = "背骨"
			}

			bytes1 := mustWrite(t, doc0)
			doc1 := mustParse(t, bytes1, &ReadOptions{Logger: zaptest.NewLogger(t)})
			bytes2 := mustWrite(t, doc1)
			doc2 := mustParse(t, bytes2, nil)

			if !bytes.Equal(bytes1, bytes2) {
				t.Fatalf("second write differs: %d bytes vs %d bytes", len(bytes1), len(bytes2))
			}
			if !reflect.DeepEqual(doc1, doc2) {
				t.Fatal("documents parsed from identical bytes differ")
			}

			want := doc0.Header
			want.FaceCount = 3
			want.TotalFaceCount = 4
			if doc1.Header != want {
				t.Errorf("Header = %+v, want %+v", doc1.Header, want)
			}
			if !reflect.DeepEqual(doc1.Dummies, doc0.Dummies) {
				t.Errorf("Dummies = %+v, want %+v", doc1.Dummies[0], doc0.Dummies[0])
			}
			if !reflect.DeepEqual(doc1.Bones, doc0.Bones) {
				t.Errorf("Bones differ: got %+v", doc1.Bones[1])
			}
			if !reflect.DeepEqual(doc1.BufferLayouts, doc0.BufferLayouts) {
				t.Errorf("BufferLayouts = %+v", doc1.BufferLayouts)
			}

			if len(doc1.Materials) != 1 {
				t.Fatalf("len(Materials) = %d, want 1", len(doc1.Materials))
			}
			m := doc1.Materials[0]
			if m.Name != "body" || m.MTD != doc0.Materials[0].MTD || m.Flags != 2 {
				t.Errorf("Material = %+v", m)
			}
			if !reflect.DeepEqual(m.Textures, doc0.Materials[0].Textures) {
				t.Errorf("Textures = %+v %+v", m.Textures[0], m.Textures[1])
			}

			if len(doc1.Meshes) != 2 {
				t.Fatalf("len(Meshes) = %d, want 2", len(doc1.Meshes))
			}
			for i, got := range doc1.Meshes {
				src := doc0.Meshes[i]
				if got.Dynamic != src.Dynamic || got.MaterialIndex != src.MaterialIndex || got.DefaultBoneIndex != src.DefaultBoneIndex {
					t.Errorf("mesh %d header = %+v", i, got)
				}
				if !slices.Equal(got.BoneIndices, src.BoneIndices) {
					t.Errorf("mesh %d BoneIndices = %v, want %v", i, got.BoneIndices, src.BoneIndices)
				}
				if !reflect.DeepEqual(got.FaceSets, src.FaceSets) {
					t.Errorf("mesh %d FaceSets = %+v", i, got.FaceSets[0])
				}
				if !reflect.DeepEqual(got.Vertices, src.Vertices) {
					t.Errorf("mesh %d vertex 0 = %+v, want %+v", i, got.Vertices[0], src.Vertices[0])
				}
				if len(got.VertexBuffers) != len(src.VertexBuffers) {
					t.Fatalf("mesh %d has %d vertex buffers, want %d", i, len(got.VertexBuffers), len(src.VertexBuffers))
				}
				for j, vb := range got.VertexBuffers {
					if vb.BufferIndex != src.VertexBuffers[j].BufferIndex || vb.LayoutIndex != src.VertexBuffers[j].LayoutIndex {
						t.Errorf("mesh %d buffer %d = %+v", i, j, vb)
					}
					if vb.VertexCount() != len(src.Vertices) {
						t.Errorf("mesh %d buffer %d VertexCount() = %d", i, j, vb.VertexCount())
					}
				}
			}

			bb := doc1.Meshes[0].BoundingBox
			if bb == nil {
				t.Fatal("mesh 0 lost its bounding box")
			}
			wantUnk := vecmath.Vec3{}
			if tt.version.AtLeast(VersionMeshBoxExtra) {
				wantUnk = doc0.Meshes[0].BoundingBox.Unk
			}
			if bb.Min != doc0.Meshes[0].BoundingBox.Min || bb.Max != doc0.Meshes[0].BoundingBox.Max || bb.Unk != wantUnk {
				t.Errorf("BoundingBox = %+v, want Unk %+v", bb, wantUnk)
			}
			if doc1.Meshes[1].BoundingBox != nil {
				t.Errorf("mesh 1 BoundingBox = %+v, want nil", doc1.Meshes[1].BoundingBox)
			}
		})
	}
}

func TestWriteBoundingBox(t *testing.T) {
	w := binio.NewWriter()
	m := &Mesh{BoundingBox: &MeshBoundingBox{}}
	for i, v := range []Version{VersionDarkSouls3, VersionSekiro} {
		w.ReserveInt32(fmt.Sprintf("MeshBoundingBox%d", i))
		start := w.Position()
		m.writeBoundingBox(w, i, &Header{Version: v})
		want := 24
		if v.AtLeast(VersionMeshBoxExtra) {
			want = 36
		}
		if got := w.Position() - start; got != want {
			t.Errorf("%s: bounding box is %d bytes, want %d", v, got, want)
		}
	}
	if _, err := w.Finish(); err != nil {
		t.Errorf("Finish() error: %v", err)
	}
}

func TestFaceCounts(t *testing.T) {
	f := makeTestFLVER(VersionDarkSouls3)
	f.Header.FaceCount = 99
	doc := mustParse(t, mustWrite(t, f), nil)
	if doc.Header.FaceCount != 3 || doc.Header.TotalFaceCount != 4 {
		t.Errorf("face counts = %d, %d, want 3, 4", doc.Header.FaceCount, doc.Header.TotalFaceCount)
	}
	if doc.FaceSetCount() != 3 || doc.VertexBufferCount() != 3 || doc.TextureCount() != 2 {
		t.Errorf("counts = %d face sets, %d buffers, %d textures", doc.FaceSetCount(), doc.VertexBufferCount(), doc.TextureCount())
	}
}

func TestParse_Errors(t *testing.T) {
	f := makeTestFLVER(VersionDarkSouls3)
	data := mustWrite(t, f)
	le := binary.LittleEndian
	material := headerSize + len(f.Dummies)*dummySize
	_, _, buffers := tableOffsets(f)

	t.Run("invalid magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		if _, err := Parse(bad, nil); !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("Parse() error = %v, want ErrInvalidMagic", err)
		}
	})

	t.Run("bad endian marker", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[6] = 'X'
		if _, err := Parse(bad, nil); !errors.Is(err, binio.ErrAssert) {
			t.Errorf("Parse() error = %v, want ErrAssert", err)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		bad := bytes.Clone(data)
		binary.LittleEndian.PutUint32(bad[8:], 0x20001)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Parse() error = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("truncated header", func(t *testing.T) {
		if _, err := Parse(data[:0x40], nil); !errors.Is(err, binio.ErrTruncated) {
			t.Errorf("Parse() error = %v, want ErrTruncated", err)
		}
	})

	t.Run("truncated data", func(t *testing.T) {
		if _, err := Parse(data[:len(data)-0x10], nil); err == nil {
			t.Error("Parse() of truncated data succeeded")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := Parse(nil, nil); err == nil {
			t.Error("Parse(nil) succeeded")
		}
	})

	textureRange := []struct {
		name         string
		count, index uint32
	}{
		{"texture count past table", 3, 0},
		{"texture index past table", 2, 1},
		{"huge texture count", 100_000_000, 0},
		{"negative texture index", 1, 0xFFFFFFFF},
	}
	for _, tt := range textureRange {
		t.Run(tt.name, func(t *testing.T) {
			bad := bytes.Clone(data)
			le.PutUint32(bad[material+0x08:], tt.count)
			le.PutUint32(bad[material+0x0C:], tt.index)
			if _, err := Parse(bad, nil); !errors.Is(err, ErrMaterialTextures) {
				t.Errorf("Parse() error = %v, want ErrMaterialTextures", err)
			}
		})
	}

	t.Run("huge vertex count", func(t *testing.T) {
		bad := bytes.Clone(data)
		stride := le.Uint32(bad[buffers+0x08:])
		le.PutUint32(bad[buffers+0x0C:], 2_000_000)
		le.PutUint32(bad[buffers+0x18:], stride*2_000_000)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrBufferRange) {
			t.Errorf("Parse() error = %v, want ErrBufferRange", err)
		}
	})

	t.Run("buffer offset past end", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[buffers+0x1C:], uint32(len(data)))
		if _, err := Parse(bad, nil); !errors.Is(err, ErrBufferRange) {
			t.Errorf("Parse() error = %v, want ErrBufferRange", err)
		}
	})
}

// tableOffsets returns the file offsets of the mesh, face set and vertex
// buffer header tables of a document written by Write.
func tableOffsets(f *FLVER) (meshes, faceSets, buffers int) {
	meshes = headerSize + len(f.Dummies)*dummySize + len(f.Materials)*materialSize + len(f.Bones)*boneSize
	faceSets = meshes + len(f.Meshes)*meshSize
	buffers = faceSets + f.FaceSetCount()*f.Header.Version.faceSetHeaderSize()
	return meshes, faceSets, buffers
}

func TestParse_ClaimErrors(t *testing.T) {
	f := makeTestFLVER(VersionDarkSouls3)
	data := mustWrite(t, f)
	le := binary.LittleEndian
	meshes, _, _ := tableOffsets(f)
	mesh1 := meshes + meshSize
	faceSetList := int(le.Uint32(data[mesh1+0x24:]))

	t.Run("claimed twice", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[faceSetList:], 0)
		_, err := Parse(bad, nil)
		var claimErr *ClaimError
		if !errors.As(err, &claimErr) {
			t.Fatalf("Parse() error = %v, want *ClaimError", err)
		}
		want := ClaimError{Kind: "face set", Index: 0, Owner: "mesh 1"}
		if *claimErr != want {
			t.Errorf("ClaimError = %+v, want %+v", *claimErr, want)
		}
	})

	t.Run("missing", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[faceSetList:], 9)
		_, err := Parse(bad, nil)
		var claimErr *ClaimError
		if !errors.As(err, &claimErr) || claimErr.Index != 9 {
			t.Errorf("Parse() error = %v, want ClaimError for index 9", err)
		}
	})

	t.Run("orphaned", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[mesh1+0x20:], 0)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrOrphaned) {
			t.Errorf("Parse() error = %v, want ErrOrphaned", err)
		}
	})

	t.Run("texture orphaned", func(t *testing.T) {
		bad := bytes.Clone(data)
		material := headerSize + len(f.Dummies)*dummySize
		le.PutUint32(bad[material+0x08:], 1)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrOrphaned) {
			t.Errorf("Parse() error = %v, want ErrOrphaned", err)
		}
	})
}

func TestParse_BufferIndex(t *testing.T) {
	f := makeTestFLVER(VersionDarkSouls3)
	data := mustWrite(t, f)
	le := binary.LittleEndian
	_, _, buffers := tableOffsets(f)

	t.Run("flag bits preserved", func(t *testing.T) {
		patched := bytes.Clone(data)
		le.PutUint32(patched[buffers:], 0x40000000)
		doc := mustParse(t, patched, nil)
		vb := doc.Meshes[0].VertexBuffers[0]
		if vb.BufferIndex != 0x40000000 || vb.Ordinal() != 0 {
			t.Errorf("BufferIndex = 0x%X, Ordinal() = %d", vb.BufferIndex, vb.Ordinal())
		}
		again := mustParse(t, mustWrite(t, doc), nil)
		if again.Meshes[0].VertexBuffers[0].BufferIndex != 0x40000000 {
			t.Errorf("BufferIndex after rewrite = 0x%X", again.Meshes[0].VertexBuffers[0].BufferIndex)
		}
	})

	t.Run("out of order", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[buffers+2*vertexBufferHeaderSize:], 0)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrBufferIndex) {
			t.Errorf("Parse() error = %v, want ErrBufferIndex", err)
		}
	})

	t.Run("layout index", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[buffers+4:], 7)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrLayoutIndex) {
			t.Errorf("Parse() error = %v, want ErrLayoutIndex", err)
		}
	})

	t.Run("stride mismatch", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[buffers+8:], 4)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrLayoutSize) {
			t.Errorf("Parse() error = %v, want ErrLayoutSize", err)
		}
	})

	t.Run("vertex count mismatch", func(t *testing.T) {
		bad := bytes.Clone(data)
		le.PutUint32(bad[buffers+2*vertexBufferHeaderSize+0x0C:], 2)
		if _, err := Parse(bad, nil); !errors.Is(err, ErrVertexCount) {
			t.Errorf("Parse() error = %v, want ErrVertexCount", err)
		}
	})
}

func TestParse_RepeatedSemantic(t *testing.T) {
	f := makeTestFLVER(VersionDarkSouls3)
	f.BufferLayouts[2] = append(f.BufferLayouts[2], LayoutMember{Type: LayoutByte4C, Semantic: SemanticBoneWeights})
	f.BufferLayouts[1] = append(f.BufferLayouts[1], LayoutMember{Type: LayoutByte4C, Semantic: SemanticBoneWeights})
	if _, err := f.Write(); !errors.Is(err, ErrRepeatedSemantic) {
		t.Errorf("Write() error = %v, want ErrRepeatedSemantic", err)
	}
}

// withEdgeGroup points mesh 0's first face set at an edge group appended to
// the data.
func withEdgeGroup(t *testing.T, members []testEdgeMember) []byte {
	t.Helper()
	f := makeTestFLVER(VersionDarkSouls3)
	data := mustWrite(t, f)
	le := binary.LittleEndian
	_, faceSets, _ := tableOffsets(f)
	dataOffset := int(le.Uint32(data[0x0C:]))

	patched := bytes.Clone(data)
	le.PutUint32(patched[faceSets+0x08:], 6)
	le.PutUint32(patched[faceSets+0x0C:], uint32(len(data)-dataOffset))
	le.PutUint32(patched[faceSets+0x18:], 8)
	return append(patched, makeEdgeGroup(members)...)
}

func sequentialIndices(count int, buf []byte) error {
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(i))
	}
	return nil
}

func TestParse_EdgeCompressed(t *testing.T) {
	members := []testEdgeMember{
		{count: 3, payload: []byte{1, 2, 3}},
		{count: 3, payload: []byte{4, 5}},
	}
	data := withEdgeGroup(t, members)

	t.Run("with decompressor", func(t *testing.T) {
		doc := mustParse(t, data, &ReadOptions{Decompressor: edge.Func(sequentialIndices)})
		fs := doc.Meshes[0].FaceSets[0]
		if !fs.Compressed() || fs.IndexSize != 8 {
			t.Fatalf("face set = %+v, want compressed", fs)
		}
		if !slices.Equal(fs.Indices, []int{0, 1, 2, 0, 1, 2}) {
			t.Errorf("Indices = %v", fs.Indices)
		}
		faces, err := doc.Meshes[0].Faces(FaceSetFlagsNone)
		if err != nil {
			t.Fatalf("Faces() error: %v", err)
		}
		if len(faces) != 2 {
			t.Errorf("Faces() returned %d triangles, want 2", len(faces))
		}
		if _, err := doc.Write(); !errors.Is(err, ErrEdgeWriteUnsupported) {
			t.Errorf("Write() error = %v, want ErrEdgeWriteUnsupported", err)
		}
	})

	t.Run("without decompressor", func(t *testing.T) {
		doc := mustParse(t, data, nil)
		fs := doc.Meshes[0].FaceSets[0]
		if fs.Indices != nil {
			t.Errorf("Indices = %v before decompression", fs.Indices)
		}
		if _, err := doc.Meshes[0].Faces(FaceSetFlagsNone); !errors.Is(err, ErrNoDecompressor) {
			t.Errorf("Faces() error = %v, want ErrNoDecompressor", err)
		}

		fs.SetDecompressor(edge.Func(sequentialIndices))
		faces, err := doc.Meshes[0].Faces(FaceSetFlagsNone)
		if err != nil || len(faces) != 2 {
			t.Errorf("Faces() after SetDecompressor = %d triangles, %v", len(faces), err)
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		bad := withEdgeGroup(t, []testEdgeMember{{base: 100, count: 3, payload: []byte{1}}})
		_, err := Parse(bad, &ReadOptions{Decompressor: edge.Func(sequentialIndices)})
		if !errors.Is(err, ErrIndexRange) {
			t.Errorf("Parse() error = %v, want ErrIndexRange", err)
		}
	})
}

func TestParse_IndexRange(t *testing.T) {
	f := makeTestFLVER(VersionDarkSouls3)
	f.Meshes[1].FaceSets[0].Indices = []int{0, 1, 3}
	if _, err := Parse(mustWrite(t, f), nil); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Parse() error = %v, want ErrIndexRange", err)
	}
}

func TestWrite_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *FLVER)
		wantErr error
	}{
		{
			name:    "unsupported version",
			mutate:  func(f *FLVER) { f.Header.Version = 0x30000 },
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "header index size",
			mutate:  func(f *FLVER) { f.Header.IndexSize = 8 },
			wantErr: ErrIndexSize,
		},
		{
			name:    "layout index",
			mutate:  func(f *FLVER) { f.Meshes[0].VertexBuffers[0].LayoutIndex = 5 },
			wantErr: ErrLayoutIndex,
		},
		{
			name:    "index does not fit 16 bits",
			mutate:  func(f *FLVER) { f.Meshes[0].FaceSets[1].Indices = []int{0, 1, 0x10000} },
			wantErr: ErrIndexRange,
		},
		{
			name:    "per set index size before 0x20007",
			mutate:  func(f *FLVER) { f.Header.Version = VersionDemonsSouls },
			wantErr: ErrIndexSize,
		},
		{
			name: "member without encoder",
			mutate: func(f *FLVER) {
				f.BufferLayouts[1][0].Type = LayoutByte4A
			},
			wantErr: ErrUnsupportedMember,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := makeTestFLVER(VersionDarkSouls3)
			tt.mutate(f)
			if _, err := f.Write(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Write() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("slot without buffer", func(t *testing.T) {
		f := makeTestFLVER(VersionDarkSouls3)
		f.BufferLayouts[1] = append(f.BufferLayouts[1], LayoutMember{Type: LayoutFloat2, Semantic: SemanticUV})
		for _, v := range f.Meshes[1].Vertices {
			v.UVs = append(v.UVs, vecmath.Vec3{X: 0.5})
		}
		if _, err := f.Write(); !errors.Is(err, ErrUnusedSlot) {
			t.Errorf("Write() error = %v, want ErrUnusedSlot", err)
		}
	})

	t.Run("no vertex buffers", func(t *testing.T) {
		f := makeTestFLVER(VersionDarkSouls3)
		f.Meshes[1].VertexBuffers = nil
		if _, err := f.Write(); err == nil {
			t.Error("Write() succeeded for a mesh without vertex buffers")
		}
	})
}

func TestMeshClone(t *testing.T) {
	doc := mustParse(t, mustWrite(t, makeTestFLVER(VersionDarkSouls3)), nil)
	orig := doc.Meshes[0]
	c := orig.Clone()

	c.Vertices[0].Position.X = 42
	c.Vertices[0].UVs[0].X = 42
	c.FaceSets[0].Indices[0] = 3
	c.BoneIndices[0] = 7
	c.BoundingBox.Min.X = 42
	c.VertexBuffers[0].LayoutIndex = 2

	if orig.Vertices[0].Position.X == 42 || orig.Vertices[0].UVs[0].X == 42 {
		t.Error("Clone() shares vertices")
	}
	if orig.FaceSets[0].Indices[0] == 3 {
		t.Error("Clone() shares face set indices")
	}
	if orig.BoneIndices[0] == 7 {
		t.Error("Clone() shares bone indices")
	}
	if orig.BoundingBox.Min.X == 42 {
		t.Error("Clone() shares the bounding box")
	}
	if orig.VertexBuffers[0].LayoutIndex == 2 {
		t.Error("Clone() shares vertex buffers")
	}
}

func TestParseFile_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.flver")
	if err := makeTestFLVER(VersionSekiro).WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	doc, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if doc.Header.Version != VersionSekiro || len(doc.Meshes) != 2 {
		t.Errorf("ParseFile() = version %s, %d meshes", doc.Header.Version, len(doc.Meshes))
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.flver"), nil); err == nil {
		t.Error("ParseFile() of a missing file succeeded")
	}
}
