package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/Faultbox/soulsfmt/pkg/edge"
	"github.com/Faultbox/soulsfmt/pkg/flver"
	"github.com/Faultbox/soulsfmt/pkg/msb"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

var flverMagic = []byte("FLVER\x00")

var errRoundTripMismatch = errors.New("rewritten file differs from the original")

// readOptions builds the FLVER read options, starting the edge helper when
// one is configured. The returned function stops the helper.
func (a *app) readOptions() (*flver.ReadOptions, func(), error) {
	opts := &flver.ReadOptions{Logger: a.log.Named("flver")}
	if a.cfg.Codec.EdgeHelper == "" {
		return opts, func() {}, nil
	}

	proc, err := edge.StartProcess(a.ctx, a.log.Named("edge"), a.cfg.Codec.EdgeHelper, a.cfg.Codec.EdgeHelperArgs...)
	if err != nil {
		return nil, nil, err
	}
	opts.Decompressor = proc
	return opts, func() {
		if err := proc.Close(); err != nil {
			a.log.Warn("edge helper exited with error", zap.Error(err))
		}
	}, nil
}

func cmdInfo(fs *flag.FlagSet) func(a *app) error {
	bones := fs.Bool("bones", false, "List bones with their model-space origins")
	return func(a *app) error {
		if len(a.args) < 1 {
			return usageError("info [-bones] <file.flver>")
		}

		opts, done, err := a.readOptions()
		if err != nil {
			return err
		}
		defer done()

		f, err := flver.ParseFile(a.args[0], opts)
		if err != nil {
			return err
		}
		printInfo(a.stdout, a.args[0], f)
		if *bones {
			return printBones(a.stdout, f)
		}
		return nil
	}
}

func printBones(w io.Writer, f *flver.FLVER) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bones:")
	for i, b := range f.Bones {
		m, err := f.BoneTransform(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-3d %-24s parent %-3d origin %s\n", i, b.Name, b.ParentIndex, formatVec3(m.TransformPoint(vecmath.Vec3{})))
	}
	return nil
}

func printInfo(w io.Writer, path string, f *flver.FLVER) {
	h := f.Header
	endian, strs := "little-endian", "Shift-JIS"
	if h.BigEndian {
		endian = "big-endian"
	}
	if h.Unicode {
		strs = "UTF-16"
	}

	fmt.Fprintf(w, "File:      %s\n", path)
	fmt.Fprintf(w, "Version:   %s (%s, %s)\n", h.Version, endian, strs)
	fmt.Fprintf(w, "Bounds:    %s - %s\n", formatVec3(h.BoundingBoxMin), formatVec3(h.BoundingBoxMax))
	fmt.Fprintf(w, "Faces:     %d (%d with all detail levels)\n", h.FaceCount, h.TotalFaceCount)
	fmt.Fprintf(w, "Dummies:   %d\n", len(f.Dummies))
	fmt.Fprintf(w, "Materials: %d (%d textures)\n", len(f.Materials), f.TextureCount())
	fmt.Fprintf(w, "Bones:     %d\n", len(f.Bones))
	fmt.Fprintf(w, "Meshes:    %d (%d face sets, %d vertex buffers)\n", len(f.Meshes), f.FaceSetCount(), f.VertexBufferCount())

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layouts:")
	for i, layout := range f.BufferLayouts {
		members := make([]string, len(layout))
		for j, m := range layout {
			members[j] = fmt.Sprintf("%s%d:%s", m.Semantic, m.Index, m.Type)
		}
		fmt.Fprintf(w, "  %-3d %3d bytes  %s\n", i, layout.Size(), strings.Join(members, " "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Meshes:")
	for i, m := range f.Meshes {
		material := "(none)"
		if int(m.MaterialIndex) < len(f.Materials) && m.MaterialIndex >= 0 {
			material = f.Materials[m.MaterialIndex].Name
		}
		fmt.Fprintf(w, "  %-3d %6d vertices  material %s\n", i, len(m.Vertices), material)
		for j, set := range m.FaceSets {
			kind := "list"
			if set.TriangleStrip {
				kind = "strip"
			}
			if set.Compressed() && set.Indices == nil {
				fmt.Fprintf(w, "        face set %d: flags 0x%08X, edge compressed, %d members\n", j, uint32(set.Flags), len(set.Edge.Members))
				continue
			}
			fmt.Fprintf(w, "        face set %d: flags 0x%08X, %s of %d indices\n", j, uint32(set.Flags), kind, len(set.Indices))
		}
	}
}

func cmdRoundTrip(fs *flag.FlagSet) func(a *app) error {
	output := fs.String("o", "", "Write the rewritten file to this path")
	return func(a *app) error {
		if len(a.args) < 1 {
			return usageError("roundtrip [-o out] <file>")
		}

		data, err := os.ReadFile(a.args[0])
		if err != nil {
			return err
		}

		var rewritten []byte
		if bytes.HasPrefix(data, flverMagic) {
			rewritten, err = a.rewriteFLVER(data)
		} else {
			rewritten, err = a.rewriteModelParam(data)
		}
		if err != nil {
			return err
		}

		if *output != "" {
			if err := os.WriteFile(*output, rewritten, 0o644); err != nil {
				return err
			}
		}
		return a.compare(data, rewritten)
	}
}

func (a *app) rewriteFLVER(data []byte) ([]byte, error) {
	opts, done, err := a.readOptions()
	if err != nil {
		return nil, err
	}
	defer done()

	f, err := flver.Parse(data, opts)
	if err != nil {
		return nil, err
	}
	return f.Write()
}

func (a *app) rewriteModelParam(data []byte) ([]byte, error) {
	p, err := msb.ParseModelParam(data, &msb.Options{Logger: a.log.Named("msb")})
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// compare prints the digests of both versions. Differences fail the
// command unless the round trip is configured as lenient.
func (a *app) compare(original, rewritten []byte) error {
	before := blake2b.Sum256(original)
	after := blake2b.Sum256(rewritten)
	fmt.Fprintf(a.stdout, "original:  %x (%d bytes)\n", before, len(original))
	fmt.Fprintf(a.stdout, "rewritten: %x (%d bytes)\n", after, len(rewritten))

	if before == after {
		fmt.Fprintln(a.stdout, "identical")
		return nil
	}

	offset := firstDifference(original, rewritten)
	if a.cfg.Codec.StrictRoundTrip {
		return fmt.Errorf("%w at offset 0x%X", errRoundTripMismatch, offset)
	}
	a.log.Warn("round trip differs", zap.Int("offset", offset))
	fmt.Fprintf(a.stdout, "differs at offset 0x%X\n", offset)
	return nil
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func cmdFaces(fs *flag.FlagSet) func(a *app) error {
	lod := fs.Int("lod", 0, "Detail level (0 = full, 1 or 2)")
	motionBlur := fs.Bool("motion-blur", false, "Use the motion blur face sets")
	verbose := fs.Bool("v", false, "Print triangle positions and areas")
	return func(a *app) error {
		if len(a.args) < 1 {
			return usageError("faces [-lod n] [-motion-blur] [-v] <file.flver>")
		}

		var flags flver.FaceSetFlags
		switch *lod {
		case 0:
		case 1:
			flags |= flver.FaceSetLodLevel1
		case 2:
			flags |= flver.FaceSetLodLevel2
		default:
			return fmt.Errorf("invalid detail level %d", *lod)
		}
		if *motionBlur {
			flags |= flver.FaceSetMotionBlur
		}

		opts, done, err := a.readOptions()
		if err != nil {
			return err
		}
		defer done()

		f, err := flver.ParseFile(a.args[0], opts)
		if err != nil {
			return err
		}

		total, totalDegenerate := 0, 0
		for i, m := range f.Meshes {
			faces, err := m.Faces(flags)
			if err != nil {
				return fmt.Errorf("mesh %d: %w", i, err)
			}
			degenerate := 0
			for _, tri := range faces {
				if flver.TriangleArea(tri) == 0 {
					degenerate++
				}
			}
			total += len(faces)
			totalDegenerate += degenerate
			fmt.Fprintf(a.stdout, "mesh %d: %d triangles, %d degenerate\n", i, len(faces), degenerate)
			if !*verbose {
				continue
			}
			for _, tri := range faces {
				fmt.Fprintf(a.stdout, "  %s %s %s area %g\n",
					formatVec3(tri[0].Position), formatVec3(tri[1].Position), formatVec3(tri[2].Position),
					flver.TriangleArea(tri))
			}
		}
		fmt.Fprintf(a.stdout, "total: %d triangles, %d degenerate\n", total, totalDegenerate)
		return nil
	}
}

func formatVec3(v vecmath.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
