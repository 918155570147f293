package flver

import (
	"fmt"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

const (
	headerSize = 0x80
	magic      = "FLVER\x00"
)

// Header holds the file-wide settings of a FLVER.
type Header struct {
	BigEndian bool
	Version   Version

	BoundingBoxMin vecmath.Vec3
	BoundingBoxMax vecmath.Vec3

	// IndexSize is the default face set index size: 0, 8, 16 or 32.
	IndexSize byte
	// Unicode selects UTF-16 strings over Shift-JIS.
	Unicode bool

	Unk4A bool
	Unk4C int32
	Unk5C byte
	Unk5D byte
	Unk68 int32

	// Triangle counts as read. Write recomputes them.
	FaceCount      int32
	TotalFaceCount int32
}

// counts are the table sizes stored in the header.
type counts struct {
	dataOffset int32
	dataLength int32
	dummies    int32
	materials  int32
	bones      int32
	meshes     int32
	buffers    int32
	faceSets   int32
	layouts    int32
	textures   int32
}

func readHeader(r *binio.Reader) (Header, counts, error) {
	var h Header
	var c counts

	if got := r.ASCII(len(magic)); got != magic {
		if r.Err() != nil {
			return h, c, r.Err()
		}
		return h, c, fmt.Errorf("%w: got %q", ErrInvalidMagic, got)
	}
	switch r.AssertASCII("L\x00", "B\x00") {
	case "B\x00":
		h.BigEndian = true
	}
	r.BigEndian = h.BigEndian

	h.Version = Version(r.Int32())
	if err := r.Err(); err != nil {
		return h, c, err
	}
	if !h.Version.Supported() {
		return h, c, fmt.Errorf("%w: %s", ErrUnsupportedVersion, h.Version)
	}

	c.dataOffset = r.Int32()
	c.dataLength = r.Int32()
	c.dummies = r.Int32()
	c.materials = r.Int32()
	c.bones = r.Int32()
	c.meshes = r.Int32()
	c.buffers = r.Int32()
	h.BoundingBoxMin = r.Vec3()
	h.BoundingBoxMax = r.Vec3()
	h.FaceCount = r.Int32()
	h.TotalFaceCount = r.Int32()
	h.IndexSize = r.AssertByte(0, 8, 16, 32)
	h.Unicode = r.Bool()
	h.Unk4A = r.Bool()
	r.AssertByte(0)
	h.Unk4C = r.Int32()
	c.faceSets = r.Int32()
	c.layouts = r.Int32()
	c.textures = r.Int32()
	h.Unk5C = r.Byte()
	h.Unk5D = r.Byte()
	r.AssertByte(0)
	r.AssertByte(0)
	r.AssertInt32(0)
	r.AssertInt32(0)
	h.Unk68 = r.AssertInt32(0, 1, 2, 3, 4)
	r.AssertPattern(0x14, 0)
	if err := r.Err(); err != nil {
		return h, c, err
	}

	tables := []struct {
		name string
		n    int32
		size int
	}{
		{"dummy", c.dummies, dummySize},
		{"material", c.materials, materialSize},
		{"bone", c.bones, boneSize},
		{"mesh", c.meshes, meshSize},
		{"face set", c.faceSets, h.Version.faceSetHeaderSize()},
		{"vertex buffer", c.buffers, vertexBufferHeaderSize},
		{"layout", c.layouts, layoutHeaderSize},
		{"texture", c.textures, textureSize},
	}
	for _, t := range tables {
		if t.n < 0 || int64(t.n)*int64(t.size) > int64(r.Len()) {
			return h, c, fmt.Errorf("%w: %d %s records", binio.ErrOutOfRange, t.n, t.name)
		}
	}
	return h, c, nil
}

func writeHeader(w *binio.Writer, f *FLVER, faceSets, buffers, textures int, faceCount, totalFaceCount int32) {
	h := &f.Header
	w.ASCII(magic)
	if h.BigEndian {
		w.ASCII("B\x00")
	} else {
		w.ASCII("L\x00")
	}
	w.Int32(int32(h.Version))
	w.ReserveInt32("DataOffset")
	w.ReserveInt32("DataSize")
	w.Int32(int32(len(f.Dummies)))
	w.Int32(int32(len(f.Materials)))
	w.Int32(int32(len(f.Bones)))
	w.Int32(int32(len(f.Meshes)))
	w.Int32(int32(buffers))
	w.Vec3(h.BoundingBoxMin)
	w.Vec3(h.BoundingBoxMax)
	w.Int32(faceCount)
	w.Int32(totalFaceCount)
	w.Byte(h.IndexSize)
	w.Bool(h.Unicode)
	w.Bool(h.Unk4A)
	w.Byte(0)
	w.Int32(h.Unk4C)
	w.Int32(int32(faceSets))
	w.Int32(int32(len(f.BufferLayouts)))
	w.Int32(int32(textures))
	w.Byte(h.Unk5C)
	w.Byte(h.Unk5D)
	w.Byte(0)
	w.Byte(0)
	w.Int32(0)
	w.Int32(0)
	w.Int32(h.Unk68)
	w.Pattern(0x14, 0)
}
