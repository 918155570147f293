package flver

import (
	"fmt"

	"github.com/Faultbox/soulsfmt/pkg/binio"
	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

const boneSize = 0x80

// Bone is one joint of the skeleton. Indices refer to the document's Bones
// and are -1 when absent.
type Bone struct {
	Name        string
	Translation vecmath.Vec3
	// Rotation is Euler angles in radians.
	Rotation             vecmath.Vec3
	Scale                vecmath.Vec3
	ParentIndex          int16
	ChildIndex           int16
	NextSiblingIndex     int16
	PreviousSiblingIndex int16
	BoundingBoxMin       vecmath.Vec3
	BoundingBoxMax       vecmath.Vec3
	Unk3C                int32
}

// NewBone returns an unlinked bone with unit scale.
func NewBone(name string) *Bone {
	return &Bone{
		Name:                 name,
		Scale:                vecmath.Splat3(1),
		ParentIndex:          -1,
		ChildIndex:           -1,
		NextSiblingIndex:     -1,
		PreviousSiblingIndex: -1,
	}
}

// LocalTransform returns the bone's transform relative to its parent:
// scale, then rotation about X, Z and Y, then translation.
func (b *Bone) LocalTransform() vecmath.Mat4 {
	return vecmath.Translate(b.Translation).
		Mul(vecmath.RotateY(b.Rotation.Y)).
		Mul(vecmath.RotateZ(b.Rotation.Z)).
		Mul(vecmath.RotateX(b.Rotation.X)).
		Mul(vecmath.Scale(b.Scale))
}

// BoneTransform returns the model-space transform of bone i, composing the
// local transforms up its parent chain.
func (f *FLVER) BoneTransform(i int) (vecmath.Mat4, error) {
	if i < 0 || i >= len(f.Bones) {
		return vecmath.Mat4{}, fmt.Errorf("%w: bone %d of %d", ErrBoneParent, i, len(f.Bones))
	}
	m := vecmath.Identity()
	for steps := 0; i >= 0; steps++ {
		if i >= len(f.Bones) || steps == len(f.Bones) {
			return vecmath.Mat4{}, fmt.Errorf("%w: at bone %d", ErrBoneParent, i)
		}
		b := f.Bones[i]
		m = b.LocalTransform().Mul(m)
		i = int(b.ParentIndex)
	}
	return m, nil
}

func readBone(r *binio.Reader, h *Header) (*Bone, error) {
	b := &Bone{}
	b.Translation = r.Vec3()
	nameOffset := r.Int32()
	b.Rotation = r.Vec3()
	b.ParentIndex = r.Int16()
	b.ChildIndex = r.Int16()
	b.Scale = r.Vec3()
	b.NextSiblingIndex = r.Int16()
	b.PreviousSiblingIndex = r.Int16()
	b.BoundingBoxMin = r.Vec3()
	b.Unk3C = r.Int32()
	b.BoundingBoxMax = r.Vec3()
	r.AssertPattern(0x34, 0)
	if err := r.Err(); err != nil {
		return nil, err
	}
	b.Name = r.GetString(int(nameOffset), h.Unicode)
	return b, r.Err()
}

func writeBone(w *binio.Writer, b *Bone, index int) {
	w.Vec3(b.Translation)
	w.ReserveInt32(fmt.Sprintf("BoneName%d", index))
	w.Vec3(b.Rotation)
	w.Int16(b.ParentIndex)
	w.Int16(b.ChildIndex)
	w.Vec3(b.Scale)
	w.Int16(b.NextSiblingIndex)
	w.Int16(b.PreviousSiblingIndex)
	w.Vec3(b.BoundingBoxMin)
	w.Int32(b.Unk3C)
	w.Vec3(b.BoundingBoxMax)
	w.Pattern(0x34, 0)
}

func (b *Bone) writeName(w *binio.Writer, index int, unicode bool) {
	w.FillInt32(fmt.Sprintf("BoneName%d", index), int32(w.Position()))
	w.String(b.Name, unicode, true)
}
