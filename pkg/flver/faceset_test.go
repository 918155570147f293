package flver

import (
	"errors"
	"slices"
	"testing"

	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

func TestTriangulateStrip(t *testing.T) {
	tests := []struct {
		name          string
		indices       []int
		allowRestarts bool
		want          []int
	}{
		{
			name:    "alternating winding",
			indices: []int{0, 1, 2, 3},
			want:    []int{0, 1, 2, 3, 2, 1},
		},
		{
			name:    "five indices",
			indices: []int{0, 1, 2, 3, 4},
			want:    []int{0, 1, 2, 3, 2, 1, 2, 3, 4},
		},
		{
			name:          "restart splits strip",
			indices:       []int{0, 1, 2, 0xFFFF, 5, 6, 7},
			allowRestarts: true,
			want:          []int{0, 1, 2, 5, 6, 7},
		},
		{
			name:          "restart resets winding",
			indices:       []int{0, 1, 2, 3, 0xFFFF, 5, 6, 7, 8},
			allowRestarts: true,
			want:          []int{0, 1, 2, 3, 2, 1, 5, 6, 7, 8, 7, 6},
		},
		{
			name:    "sentinel as index without restarts",
			indices: []int{0, 1, 2, 0xFFFF, 5},
			want:    []int{0, 1, 2, 0xFFFF, 2, 1, 2, 0xFFFF, 5},
		},
		{
			name:    "degenerate steps flip winding",
			indices: []int{0, 1, 1, 2, 3},
			want:    []int{1, 2, 3},
		},
		{
			name:    "degenerate odd step",
			indices: []int{0, 1, 2, 2, 3, 4},
			want:    []int{0, 1, 2, 4, 3, 2},
		},
		{
			name:    "too short",
			indices: []int{0, 1},
			want:    []int{},
		},
		{
			name:    "empty",
			indices: nil,
			want:    []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &FaceSet{TriangleStrip: true, IndexSize: 16, Indices: tt.indices}
			got, err := fs.Triangulate(tt.allowRestarts)
			if err != nil {
				t.Fatalf("Triangulate() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Triangulate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTriangulateList(t *testing.T) {
	indices := []int{0, 1, 2, 2, 1, 3, 4}
	fs := &FaceSet{IndexSize: 16, Indices: indices}
	got, err := fs.Triangulate(true)
	if err != nil {
		t.Fatalf("Triangulate() error: %v", err)
	}
	if !slices.Equal(got, indices) {
		t.Errorf("Triangulate() = %v, want %v", got, indices)
	}
	got[0] = 99
	if fs.Indices[0] != 0 {
		t.Error("Triangulate() result aliases Indices")
	}
}

func TestFaceCount(t *testing.T) {
	tests := []struct {
		name              string
		strip             bool
		indices           []int
		includeDegenerate bool
		want              int
	}{
		{"list", false, []int{0, 1, 2, 3, 4, 5}, false, 2},
		{"list remainder", false, []int{0, 1, 2, 3}, false, 1},
		{"list degenerate excluded", false, []int{0, 1, 2, 3, 3, 4}, false, 1},
		{"list degenerate included", false, []int{0, 1, 2, 3, 3, 4}, true, 2},
		{"strip", true, []int{0, 1, 2, 3}, false, 2},
		{"strip restart", true, []int{0, 1, 2, 0xFFFF, 4, 5, 6}, false, 2},
		{"strip degenerate excluded", true, []int{0, 1, 1, 2, 3}, false, 1},
		{"strip degenerate included", true, []int{0, 1, 1, 2, 3}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &FaceSet{TriangleStrip: tt.strip, IndexSize: 16, Indices: tt.indices}
			got, err := fs.FaceCount(true, tt.includeDegenerate)
			if err != nil {
				t.Fatalf("FaceCount() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FaceCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func meshWithVertices(n int) *Mesh {
	m := NewMesh()
	for i := 0; i < n; i++ {
		v := NewVertex(0, 0, 0)
		v.Position.X = float32(i)
		m.Vertices = append(m.Vertices, v)
	}
	return m
}

func TestMeshFaces(t *testing.T) {
	m := meshWithVertices(5)
	m.FaceSets = []*FaceSet{
		{Flags: FaceSetLodLevel1, IndexSize: 16, Indices: []int{4, 3, 2}},
		{Flags: FaceSetFlagsNone, IndexSize: 16, Indices: []int{0, 1, 2, 2, 1, 3, 4}},
	}

	faces, err := m.Faces(FaceSetFlagsNone)
	if err != nil {
		t.Fatalf("Faces() error: %v", err)
	}
	// The trailing index does not form a triangle and is dropped.
	if len(faces) != 2 {
		t.Fatalf("Faces() returned %d triangles, want 2", len(faces))
	}
	if faces[1][2] != m.Vertices[3] {
		t.Errorf("faces[1][2] is vertex at X=%v, want vertex 3", faces[1][2].Position.X)
	}

	faces, err = m.Faces(FaceSetLodLevel1)
	if err != nil {
		t.Fatalf("Faces(LodLevel1) error: %v", err)
	}
	if len(faces) != 1 || faces[0][0] != m.Vertices[4] {
		t.Errorf("Faces(LodLevel1) did not select the LOD face set")
	}

	// No face set matches: the first one is used.
	faces, err = m.Faces(FaceSetMotionBlur)
	if err != nil {
		t.Fatalf("Faces(MotionBlur) error: %v", err)
	}
	if len(faces) != 1 || faces[0][0] != m.Vertices[4] {
		t.Errorf("Faces(MotionBlur) did not fall back to the first face set")
	}
}

func TestTriangleArea(t *testing.T) {
	at := func(x, y, z float32) *Vertex {
		v := NewVertex(0, 0, 0)
		v.Position = vecmath.Vec3{X: x, Y: y, Z: z}
		return v
	}
	tests := []struct {
		name string
		tri  [3]*Vertex
		want float32
	}{
		{"right triangle", [3]*Vertex{at(0, 0, 0), at(2, 0, 0), at(0, 3, 0)}, 3},
		{"reversed winding", [3]*Vertex{at(0, 0, 0), at(0, 3, 0), at(2, 0, 0)}, 3},
		{"off axis", [3]*Vertex{at(0, 0, 1), at(0, 4, 1), at(0, 0, 5)}, 8},
		{"collinear", [3]*Vertex{at(0, 1, 0), at(1, 1, 0), at(2, 1, 0)}, 0},
		{"repeated vertex", [3]*Vertex{at(1, 2, 3), at(1, 2, 3), at(4, 5, 6)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TriangleArea(tt.tri); got != tt.want {
				t.Errorf("TriangleArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeshFaces_Strip(t *testing.T) {
	m := meshWithVertices(4)
	m.FaceSets = []*FaceSet{{TriangleStrip: true, IndexSize: 16, Indices: []int{0, 1, 2, 3}}}

	faces, err := m.Faces(FaceSetFlagsNone)
	if err != nil {
		t.Fatalf("Faces() error: %v", err)
	}
	want := [][3]int{{0, 1, 2}, {3, 2, 1}}
	if len(faces) != len(want) {
		t.Fatalf("Faces() returned %d triangles, want %d", len(faces), len(want))
	}
	for i, tri := range want {
		for j, idx := range tri {
			if faces[i][j] != m.Vertices[idx] {
				t.Errorf("faces[%d][%d] = vertex X=%v, want %d", i, j, faces[i][j].Position.X, idx)
			}
		}
	}
}

func TestMeshFaces_Empty(t *testing.T) {
	faces, err := meshWithVertices(3).Faces(FaceSetFlagsNone)
	if err != nil {
		t.Fatalf("Faces() error: %v", err)
	}
	if faces == nil || len(faces) != 0 {
		t.Errorf("Faces() = %v, want empty", faces)
	}
}

func TestMeshFaces_OutOfRange(t *testing.T) {
	m := meshWithVertices(3)
	m.FaceSets = []*FaceSet{{IndexSize: 16, Indices: []int{0, 1, 3}}}
	if _, err := m.Faces(FaceSetFlagsNone); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Faces() error = %v, want ErrIndexRange", err)
	}
}

func TestMeshAllowRestarts(t *testing.T) {
	m := &Mesh{Vertices: make([]*Vertex, 0xFFFE)}
	if !m.AllowRestarts() {
		t.Error("AllowRestarts() = false with 0xFFFE vertices")
	}
	m.Vertices = make([]*Vertex, 0xFFFF)
	if m.AllowRestarts() {
		t.Error("AllowRestarts() = true with 0xFFFF vertices")
	}
}

func TestFaceSetCheckRange(t *testing.T) {
	tests := []struct {
		name    string
		fs      *FaceSet
		wantErr bool
	}{
		{"in range", &FaceSet{Indices: []int{0, 1, 2}}, false},
		{"out of range", &FaceSet{Indices: []int{0, 1, 3}}, true},
		{"strip restart exempt", &FaceSet{TriangleStrip: true, Indices: []int{0, 1, 2, 0xFFFF, 0, 1, 2}}, false},
		{"list sentinel checked", &FaceSet{Indices: []int{0, 1, 0xFFFF}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fs.checkRange(3)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIndexRange) {
				t.Errorf("checkRange() error = %v, want ErrIndexRange", err)
			}
		})
	}
}

func TestFaceSetClone(t *testing.T) {
	fs := &FaceSet{Flags: FaceSetLodLevel2, IndexSize: 16, Indices: []int{0, 1, 2}}
	c := fs.Clone()
	c.Indices[0] = 7
	if fs.Indices[0] != 0 {
		t.Error("Clone() shares Indices with the original")
	}
	if c.Flags != fs.Flags || c.IndexSize != fs.IndexSize {
		t.Errorf("Clone() = %+v, want fields of %+v", c, fs)
	}
}
