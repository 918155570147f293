package msb

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/soulsfmt/pkg/binio"
)

const (
	// ModelParamVersion is the param version written by NewModelParam.
	ModelParamVersion = 35
	modelParamName    = "MODEL_PARAM_ST"
	// nextParamOffset is left reserved by Write for the enclosing scene.
	nextParamOffset = "NextParamOffset"
)

// Options configures reading. The zero value is usable.
type Options struct {
	Logger *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// ModelParam is the model table of a scene. Entries are stored grouped by
// variant in the order MapPieces, Objects, Enemies, Players, Collisions; an
// entry's position in that order is its identity.
type ModelParam struct {
	Version    int32
	MapPieces  []*MapPiece
	Objects    []*Object
	Enemies    []*Enemy
	Players    []*Player
	Collisions []*Collision
}

// NewModelParam returns an empty table.
func NewModelParam() *ModelParam {
	return &ModelParam{Version: ModelParamVersion}
}

// Add appends m to the slice of its variant and returns it.
func (p *ModelParam) Add(m Model) Model {
	switch m := m.(type) {
	case *MapPiece:
		p.MapPieces = append(p.MapPieces, m)
	case *Object:
		p.Objects = append(p.Objects, m)
	case *Enemy:
		p.Enemies = append(p.Enemies, m)
	case *Player:
		p.Players = append(p.Players, m)
	case *Collision:
		p.Collisions = append(p.Collisions, m)
	}
	return m
}

// Entries returns every model in on-disk order.
func (p *ModelParam) Entries() []Model {
	out := make([]Model, 0, p.Len())
	for _, m := range p.MapPieces {
		out = append(out, m)
	}
	for _, m := range p.Objects {
		out = append(out, m)
	}
	for _, m := range p.Enemies {
		out = append(out, m)
	}
	for _, m := range p.Players {
		out = append(out, m)
	}
	for _, m := range p.Collisions {
		out = append(out, m)
	}
	return out
}

// Len returns the number of models.
func (p *ModelParam) Len() int {
	return len(p.MapPieces) + len(p.Objects) + len(p.Enemies) + len(p.Players) + len(p.Collisions)
}

// IndexOf returns the on-disk index of the first model named name, or -1.
func (p *ModelParam) IndexOf(name string) int {
	for i, m := range p.Entries() {
		if m.Base().Name == name {
			return i
		}
	}
	return -1
}

// CountInstances sets each model's instance count to the number of
// occurrences of its name in partModels, the model names of a scene's parts.
func (p *ModelParam) CountInstances(partModels []string) {
	counts := make(map[string]int32, len(partModels))
	for _, name := range partModels {
		counts[name]++
	}
	for _, m := range p.Entries() {
		b := m.Base()
		b.instanceCount = counts[b.Name]
	}
}

// Clone returns a deep copy of p.
func (p *ModelParam) Clone() *ModelParam {
	c := &ModelParam{Version: p.Version}
	for _, m := range p.Entries() {
		c.Add(m.Clone())
	}
	return c
}

// ParseModelParamFile reads a standalone model table from disk.
func ParseModelParamFile(path string, opts *Options) (*ModelParam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model param file: %w", err)
	}
	return ParseModelParam(data, opts)
}

// ParseModelParam decodes a model table that starts at the beginning of
// data.
func ParseModelParam(data []byte, opts *Options) (*ModelParam, error) {
	return ReadModelParam(binio.NewReader(data), opts)
}

// ReadModelParam decodes the model table at the reader's position. Offsets
// in the table are absolute positions in the reader's data. The reader is
// left after the table header; the next-param offset is skipped.
func ReadModelParam(r *binio.Reader, opts *Options) (*ModelParam, error) {
	p := &ModelParam{}
	p.Version = r.AssertInt32(ModelParamVersion)
	offsetCount := r.Int32()
	nameOffset := r.Int64()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading param header: %w", err)
	}
	if offsetCount < 1 {
		return nil, fmt.Errorf("%w: offset count %d", binio.ErrOutOfRange, offsetCount)
	}
	entryOffsets := make([]int64, 0, min(int(offsetCount-1), r.Remaining()/8))
	for i := 0; i < int(offsetCount-1); i++ {
		entryOffsets = append(entryOffsets, r.Int64())
	}
	r.Int64() // next param offset
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading entry offsets: %w", err)
	}

	name := r.GetUTF16(int(nameOffset))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading param name: %w", err)
	}
	if name != modelParamName {
		return nil, fmt.Errorf("%w: %q, want %q", ErrParamName, name, modelParamName)
	}

	for i, off := range entryOffsets {
		if off < 0 || off > int64(r.Len()) {
			return nil, fmt.Errorf("model %d: %w: offset 0x%X", i, binio.ErrOutOfRange, off)
		}
		// The tag sits after the 8-byte name offset.
		tag := ModelType(r.GetUint32(int(off) + 8))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		m, ok := newModel(tag)
		if !ok {
			return nil, &UnknownTypeError{Tag: uint32(tag), Offset: int(off)}
		}
		err := r.At(int(off), func() error {
			return readModel(r, m)
		})
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		p.Add(m)
	}

	opts.logger().Debug("parsed model param",
		zap.Int32("version", p.Version),
		zap.Int("mapPieces", len(p.MapPieces)),
		zap.Int("objects", len(p.Objects)),
		zap.Int("enemies", len(p.Enemies)),
		zap.Int("players", len(p.Players)),
		zap.Int("collisions", len(p.Collisions)),
	)
	return p, nil
}

// Write encodes the table at the writer's position. The next-param offset
// stays reserved as "NextParamOffset" for the caller to fill.
func (p *ModelParam) Write(w *binio.Writer) {
	entries := p.Entries()
	version := p.Version
	if version == 0 {
		version = ModelParamVersion
	}
	w.Int32(version)
	w.Int32(int32(len(entries) + 1))
	w.ReserveInt64("ParamNameOffset")
	for i := range entries {
		w.ReserveInt64(fmt.Sprintf("EntryOffset%d", i))
	}
	w.ReserveInt64(nextParamOffset)

	w.FillInt64("ParamNameOffset", int64(w.Position()))
	w.UTF16(modelParamName, true)
	w.Pad(8)

	for i, m := range entries {
		w.FillInt64(fmt.Sprintf("EntryOffset%d", i), int64(w.Position()))
		writeModel(w, m, i)
		w.Pad(8)
	}
}

// Bytes encodes the table as a standalone param with no successor.
func (p *ModelParam) Bytes() ([]byte, error) {
	w := binio.NewWriter()
	p.Write(w)
	w.FillInt64(nextParamOffset, 0)
	return w.Finish()
}

// WriteFile encodes the table as a standalone param and writes it to path.
func (p *ModelParam) WriteFile(path string) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing model param file: %w", err)
	}
	return nil
}
