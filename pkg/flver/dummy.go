package flver

import (
	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

const dummySize = 0x40

// Dummy is a marker point attached to the skeleton, used for effects and
// attachment positions.
type Dummy struct {
	Position vecmath.Vec3
	// Color is stored as four raw bytes in file order.
	Color   [4]byte
	Forward vecmath.Vec3
	// ReferenceID is the identifier game code looks the dummy up by.
	ReferenceID     int16
	ParentBoneIndex int16
	Upward          vecmath.Vec3
	AttachBoneIndex int16
	Flag1           bool
	UseUpwardVector bool
	Unk30           int32
	Unk34           int32
}

func readDummy(r *binio.Reader) (*Dummy, error) {
	d := &Dummy{}
	d.Position = r.Vec3()
	copy(d.Color[:], r.Bytes(4))
	d.Forward = r.Vec3()
	d.ReferenceID = r.Int16()
	d.ParentBoneIndex = r.Int16()
	d.Upward = r.Vec3()
	d.AttachBoneIndex = r.Int16()
	d.Flag1 = r.Bool()
	d.UseUpwardVector = r.Bool()
	d.Unk30 = r.Int32()
	d.Unk34 = r.Int32()
	r.AssertInt32(0)
	r.AssertInt32(0)
	return d, r.Err()
}

func writeDummy(w *binio.Writer, d *Dummy) {
	w.Vec3(d.Position)
	w.Bytes(d.Color[:])
	w.Vec3(d.Forward)
	w.Int16(d.ReferenceID)
	w.Int16(d.ParentBoneIndex)
	w.Vec3(d.Upward)
	w.Int16(d.AttachBoneIndex)
	w.Bool(d.Flag1)
	w.Bool(d.UseUpwardVector)
	w.Int32(d.Unk30)
	w.Int32(d.Unk34)
	w.Int32(0)
	w.Int32(0)
}
