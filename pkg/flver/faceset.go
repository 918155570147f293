package flver

import (
	"fmt"
	"slices"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/edge"
)

// FaceSetFlags marks the detail level and encoding of a face set.
type FaceSetFlags uint32

// Face set flags. FaceSetFlagsNone is the full detail set.
const (
	FaceSetFlagsNone      FaceSetFlags = 0
	FaceSetLodLevel1      FaceSetFlags = 0x01000000
	FaceSetLodLevel2      FaceSetFlags = 0x02000000
	FaceSetEdgeCompressed FaceSetFlags = 0x40000000
	FaceSetMotionBlur     FaceSetFlags = 0x80000000
)

// restartIndex ends a triangle strip; the next index starts a new one.
const restartIndex = 0xFFFF

// FaceSet is one detail level of a mesh's triangles.
type FaceSet struct {
	Flags         FaceSetFlags
	TriangleStrip bool
	CullBackfaces bool
	Unk06         byte
	Unk07         byte

	// IndexSize is 16 or 32 for raw indices and 8 for an edge group.
	IndexSize int

	// Indices holds the raw strip or list. For an edge-compressed set it is
	// nil until Decompress fills it.
	Indices []int

	// Edge is the compressed form, nil for raw face sets.
	Edge *EdgeGroup

	decompressor edge.Decompressor
}

// Compressed reports whether the set's indices are edge-compressed.
func (fs *FaceSet) Compressed() bool {
	return fs.Edge != nil
}

// SetDecompressor sets the decompressor used when the set's indices are
// first needed.
func (fs *FaceSet) SetDecompressor(d edge.Decompressor) {
	fs.decompressor = d
}

// Decompress expands an edge-compressed set into Indices. The result is
// cached; raw sets are left unchanged.
func (fs *FaceSet) Decompress() error {
	if fs.Edge == nil || fs.Indices != nil {
		return nil
	}
	indices, err := fs.Edge.Decompress(fs.decompressor)
	if err != nil {
		return err
	}
	fs.Indices = indices
	return nil
}

// Triangulate returns the set as a triangle list. Strips are unrolled with
// alternating winding: even steps give (a, b, c) and odd steps (c, b, a).
// A degenerate step emits nothing but still flips the winding. If
// allowRestarts is set, a step touching 0xFFFF emits nothing and resets
// the winding.
func (fs *FaceSet) Triangulate(allowRestarts bool) ([]int, error) {
	if err := fs.Decompress(); err != nil {
		return nil, err
	}
	if fs.Edge != nil || !fs.TriangleStrip {
		return slices.Clone(fs.Indices), nil
	}
	return triangulateStrip(fs.Indices, allowRestarts), nil
}

func triangulateStrip(indices []int, allowRestarts bool) []int {
	out := make([]int, 0, max(len(indices)-2, 0)*3)
	flip := false
	for i := 0; i+2 < len(indices); i++ {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if allowRestarts && (a == restartIndex || b == restartIndex || c == restartIndex) {
			flip = false
			continue
		}
		if a != b && b != c && a != c {
			if flip {
				out = append(out, c, b, a)
			} else {
				out = append(out, a, b, c)
			}
		}
		flip = !flip
	}
	return out
}

// FaceCount returns the number of triangles the set describes.
func (fs *FaceSet) FaceCount(allowRestarts, includeDegenerate bool) (int, error) {
	if err := fs.Decompress(); err != nil {
		return 0, err
	}
	degenerate := func(a, b, c int) bool {
		return a == b || b == c || a == c
	}
	count := 0
	if fs.TriangleStrip && fs.Edge == nil {
		for i := 0; i+2 < len(fs.Indices); i++ {
			a, b, c := fs.Indices[i], fs.Indices[i+1], fs.Indices[i+2]
			if allowRestarts && (a == restartIndex || b == restartIndex || c == restartIndex) {
				continue
			}
			if includeDegenerate || !degenerate(a, b, c) {
				count++
			}
		}
		return count, nil
	}
	for i := 0; i+2 < len(fs.Indices); i += 3 {
		if includeDegenerate || !degenerate(fs.Indices[i], fs.Indices[i+1], fs.Indices[i+2]) {
			count++
		}
	}
	return count, nil
}

// Clone returns a deep copy of fs.
func (fs *FaceSet) Clone() *FaceSet {
	c := *fs
	c.Indices = slices.Clone(fs.Indices)
	if fs.Edge != nil {
		c.Edge = fs.Edge.Clone()
	}
	return &c
}

// checkRange validates every index against the owning mesh's vertex count.
// Restart markers in strips are exempt.
func (fs *FaceSet) checkRange(vertexCount int) error {
	for i, idx := range fs.Indices {
		if fs.TriangleStrip && fs.Edge == nil && idx == restartIndex {
			continue
		}
		if idx < 0 || idx >= vertexCount {
			return fmt.Errorf("%w: index %d at %d, %d vertices", ErrIndexRange, idx, i, vertexCount)
		}
	}
	return nil
}

func readFaceSet(r *binio.Reader, h *Header, dataOffset int, d edge.Decompressor) (*FaceSet, error) {
	fs := &FaceSet{decompressor: d}
	fs.Flags = FaceSetFlags(r.Uint32())
	fs.TriangleStrip = r.Bool()
	fs.CullBackfaces = r.Bool()
	fs.Unk06 = r.Byte()
	fs.Unk07 = r.Byte()
	indexCount := r.Int32()
	indicesOffset := r.Int32()

	indexSize := int32(0)
	if h.Version > VersionDemonsSouls {
		r.Int32() // indices length
		r.AssertInt32(0)
		indexSize = r.AssertInt32(0, 8, 16, 32)
		r.AssertInt32(0)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if indexSize == 0 {
		indexSize = int32(h.IndexSize)
	}
	if indexCount < 0 {
		return nil, fmt.Errorf("negative index count %d", indexCount)
	}
	fs.IndexSize = int(indexSize)

	pos := dataOffset + int(indicesOffset)
	switch indexSize {
	case 8:
		err := r.At(pos, func() error {
			g, err := readEdgeGroup(r)
			fs.Edge = g
			return err
		})
		if err != nil {
			return nil, err
		}
	case 16:
		raw := r.GetUint16s(pos, int(indexCount))
		fs.Indices = make([]int, len(raw))
		for i, v := range raw {
			fs.Indices[i] = int(v)
		}
	case 32:
		raw := r.GetInt32s(pos, int(indexCount))
		fs.Indices = make([]int, len(raw))
		for i, v := range raw {
			fs.Indices[i] = int(v)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrIndexSize, indexSize)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return fs, nil
}

// diskIndexSize returns the per-set index size field: 0 when the header
// default applies.
func (fs *FaceSet) diskIndexSize(h *Header) (int32, error) {
	if fs.IndexSize == int(h.IndexSize) {
		return 0, nil
	}
	if h.Version <= VersionDemonsSouls {
		return 0, fmt.Errorf("%w: %d-bit face set with %d-bit header in version %s", ErrIndexSize, fs.IndexSize, h.IndexSize, h.Version)
	}
	return int32(fs.IndexSize), nil
}

func writeFaceSetHeader(w *binio.Writer, fs *FaceSet, h *Header, index int) error {
	if fs.Edge != nil {
		return ErrEdgeWriteUnsupported
	}
	if fs.IndexSize != 16 && fs.IndexSize != 32 {
		return fmt.Errorf("%w: %d", ErrIndexSize, fs.IndexSize)
	}
	diskSize, err := fs.diskIndexSize(h)
	if err != nil {
		return err
	}
	w.Uint32(uint32(fs.Flags))
	w.Bool(fs.TriangleStrip)
	w.Bool(fs.CullBackfaces)
	w.Byte(fs.Unk06)
	w.Byte(fs.Unk07)
	w.Int32(int32(len(fs.Indices)))
	w.ReserveInt32(fmt.Sprintf("FaceSetVertices%d", index))
	if h.Version > VersionDemonsSouls {
		w.Int32(int32(len(fs.Indices) * fs.IndexSize / 8))
		w.Int32(0)
		w.Int32(diskSize)
		w.Int32(0)
	}
	return nil
}

func (fs *FaceSet) writeIndices(w *binio.Writer, index, dataStart int) error {
	w.FillInt32(fmt.Sprintf("FaceSetVertices%d", index), int32(w.Position()-dataStart))
	for i, idx := range fs.Indices {
		switch {
		case fs.IndexSize == 16 && idx >= 0 && idx <= 0xFFFF:
			w.Uint16(uint16(idx))
		case fs.IndexSize == 32:
			w.Int32(int32(idx))
		default:
			return fmt.Errorf("%w: index %d at %d does not fit %d bits", ErrIndexRange, idx, i, fs.IndexSize)
		}
	}
	return nil
}
