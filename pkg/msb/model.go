package msb

import (
	"fmt"

	"github.com/Faultbox/soulsfmt/pkg/binio"
)

// ModelType is the tag stored in every model record.
type ModelType uint32

// Model variants.
const (
	ModelTypeMapPiece  ModelType = 0
	ModelTypeObject    ModelType = 1
	ModelTypeEnemy     ModelType = 2
	ModelTypePlayer    ModelType = 4
	ModelTypeCollision ModelType = 5
)

func (t ModelType) String() string {
	switch t {
	case ModelTypeMapPiece:
		return "MapPiece"
	case ModelTypeObject:
		return "Object"
	case ModelTypeEnemy:
		return "Enemy"
	case ModelTypePlayer:
		return "Player"
	case ModelTypeCollision:
		return "Collision"
	default:
		return fmt.Sprintf("ModelType(%d)", uint32(t))
	}
}

// parseModelType is the inverse of String for the known variants.
func parseModelType(s string) (ModelType, bool) {
	for _, t := range []ModelType{ModelTypeMapPiece, ModelTypeObject, ModelTypeEnemy, ModelTypePlayer, ModelTypeCollision} {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Model is one entry of the model table. The variants are *MapPiece,
// *Object, *Enemy, *Player and *Collision.
type Model interface {
	Type() ModelType
	Base() *ModelBase
	Clone() Model

	hasTypeData() bool
	readTypeData(r *binio.Reader)
	writeTypeData(w *binio.Writer)
}

// ModelBase holds the fields every variant shares.
type ModelBase struct {
	Name string
	// SibPath is the editor path of the source asset.
	SibPath string
	Unk1C   int32

	instanceCount int32
}

// Base returns b itself, giving the variants a common accessor.
func (b *ModelBase) Base() *ModelBase { return b }

// InstanceCount returns the number of parts using the model, as last read
// or counted.
func (b *ModelBase) InstanceCount() int32 { return b.instanceCount }

// MapPiece is fixed terrain and scenery. It is the only variant with type
// data.
type MapPiece struct {
	ModelBase
	UnkT00 bool
	UnkT01 bool
	UnkT02 bool
	UnkT04 float32
	UnkT08 float32
	UnkT0C float32
	UnkT10 float32
	UnkT14 float32
	UnkT18 float32
}

// NewMapPiece returns a map piece with the placeholder name editors use.
func NewMapPiece() *MapPiece {
	return &MapPiece{ModelBase: ModelBase{Name: "mXXXXXX"}}
}

func (m *MapPiece) Type() ModelType { return ModelTypeMapPiece }
func (m *MapPiece) hasTypeData() bool { return true }

func (m *MapPiece) Clone() Model {
	c := *m
	return &c
}

func (m *MapPiece) readTypeData(r *binio.Reader) {
	m.UnkT00 = r.Bool()
	m.UnkT01 = r.Bool()
	m.UnkT02 = r.Bool()
	r.AssertByte(0)
	m.UnkT04 = r.Float32()
	m.UnkT08 = r.Float32()
	m.UnkT0C = r.Float32()
	m.UnkT10 = r.Float32()
	m.UnkT14 = r.Float32()
	m.UnkT18 = r.Float32()
	r.AssertInt32(0)
}

func (m *MapPiece) writeTypeData(w *binio.Writer) {
	w.Bool(m.UnkT00)
	w.Bool(m.UnkT01)
	w.Bool(m.UnkT02)
	w.Byte(0)
	w.Float32(m.UnkT04)
	w.Float32(m.UnkT08)
	w.Float32(m.UnkT0C)
	w.Float32(m.UnkT10)
	w.Float32(m.UnkT14)
	w.Float32(m.UnkT18)
	w.Int32(0)
}

// noTypeData is embedded by the variants without type data.
type noTypeData struct{}

func (noTypeData) hasTypeData() bool { return false }

func (noTypeData) readTypeData(*binio.Reader) {}

func (noTypeData) writeTypeData(*binio.Writer) {}

// Object is a dynamic prop.
type Object struct {
	ModelBase
	noTypeData
}

// NewObject returns an object with the placeholder name editors use.
func NewObject() *Object {
	return &Object{ModelBase: ModelBase{Name: "oXXXXXX"}}
}

func (m *Object) Type() ModelType { return ModelTypeObject }

func (m *Object) Clone() Model {
	c := *m
	return &c
}

// Enemy is a non-player character.
type Enemy struct {
	ModelBase
	noTypeData
}

// NewEnemy returns an enemy with the placeholder name editors use.
func NewEnemy() *Enemy {
	return &Enemy{ModelBase: ModelBase{Name: "cXXXX"}}
}

func (m *Enemy) Type() ModelType { return ModelTypeEnemy }

func (m *Enemy) Clone() Model {
	c := *m
	return &c
}

// Player is the player character model.
type Player struct {
	ModelBase
	noTypeData
}

// NewPlayer returns the player model.
func NewPlayer() *Player {
	return &Player{ModelBase: ModelBase{Name: "c0000"}}
}

func (m *Player) Type() ModelType { return ModelTypePlayer }

func (m *Player) Clone() Model {
	c := *m
	return &c
}

// Collision is physics collision geometry.
type Collision struct {
	ModelBase
	noTypeData
}

// NewCollision returns a collision with the placeholder name editors use.
func NewCollision() *Collision {
	return &Collision{ModelBase: ModelBase{Name: "hXXXXXX"}}
}

func (m *Collision) Type() ModelType { return ModelTypeCollision }

func (m *Collision) Clone() Model {
	c := *m
	return &c
}

// newModel returns an empty variant for tag.
func newModel(tag ModelType) (Model, bool) {
	switch tag {
	case ModelTypeMapPiece:
		return &MapPiece{}, true
	case ModelTypeObject:
		return &Object{}, true
	case ModelTypeEnemy:
		return &Enemy{}, true
	case ModelTypePlayer:
		return &Player{}, true
	case ModelTypeCollision:
		return &Collision{}, true
	}
	return nil, false
}

// readModel decodes the record at the reader's position into m. Strings
// and type data are addressed relative to the record start.
func readModel(r *binio.Reader, m Model) error {
	start := r.Position()
	b := m.Base()
	nameOffset := r.Int64()
	r.AssertUint32(uint32(m.Type()))
	r.Int32() // id
	sibOffset := r.Int64()
	b.instanceCount = r.Int32()
	b.Unk1C = r.Int32()
	typeDataOffset := r.Int64()
	if err := r.Err(); err != nil {
		return err
	}

	if nameOffset == 0 {
		return fmt.Errorf("%w: name in %s", ErrZeroOffset, m.Type())
	}
	if sibOffset == 0 {
		return fmt.Errorf("%w: sib path in %s", ErrZeroOffset, m.Type())
	}
	if m.hasTypeData() != (typeDataOffset != 0) {
		return fmt.Errorf("%w: 0x%X in %s", ErrTypeDataOffset, typeDataOffset, m.Type())
	}

	b.Name = r.GetUTF16(start + int(nameOffset))
	b.SibPath = r.GetUTF16(start + int(sibOffset))
	if m.hasTypeData() {
		err := r.At(start+int(typeDataOffset), func() error {
			m.readTypeData(r)
			return r.Err()
		})
		if err != nil {
			return fmt.Errorf("%s type data: %w", m.Type(), err)
		}
	}
	return r.Err()
}

// writeModel encodes m as record id. Offsets are relative to the record
// start.
func writeModel(w *binio.Writer, m Model, id int) {
	start := w.Position()
	b := m.Base()
	nameOffset := fmt.Sprintf("ModelNameOffset%d", id)
	sibOffset := fmt.Sprintf("ModelSibOffset%d", id)
	typeDataOffset := fmt.Sprintf("ModelTypeDataOffset%d", id)

	w.ReserveInt64(nameOffset)
	w.Uint32(uint32(m.Type()))
	w.Int32(int32(id))
	w.ReserveInt64(sibOffset)
	w.Int32(b.instanceCount)
	w.Int32(b.Unk1C)
	w.ReserveInt64(typeDataOffset)

	w.FillInt64(nameOffset, int64(w.Position()-start))
	w.UTF16(b.Name, true)
	w.FillInt64(sibOffset, int64(w.Position()-start))
	w.UTF16(b.SibPath, true)
	w.Pad(8)

	if m.hasTypeData() {
		w.FillInt64(typeDataOffset, int64(w.Position()-start))
		m.writeTypeData(w)
	} else {
		w.FillInt64(typeDataOffset, 0)
	}
}
