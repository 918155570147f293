package flver

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/soulsfmt/pkg/vecmath"
)

func nearVec3(a, b vecmath.Vec3) bool {
	const eps = 1e-5
	return math32.Abs(a.X-b.X) < eps && math32.Abs(a.Y-b.Y) < eps && math32.Abs(a.Z-b.Z) < eps
}

func TestBoneLocalTransform(t *testing.T) {
	b := NewBone("Arm")
	b.Translation = vecmath.Vec3{X: 1}
	b.Rotation = vecmath.Vec3{Y: math32.Pi / 2}
	b.Scale = vecmath.Splat3(2)

	// (1,0,0) scales to (2,0,0), turns to (0,0,-2) and moves to (1,0,-2).
	got := b.LocalTransform().TransformPoint(vecmath.Vec3{X: 1})
	if want := (vecmath.Vec3{X: 1, Z: -2}); !nearVec3(got, want) {
		t.Errorf("LocalTransform() maps (1,0,0) to %v, want %v", got, want)
	}
}

func TestBoneTransform(t *testing.T) {
	root := NewBone("Master")
	root.Translation = vecmath.Vec3{Y: 1}
	root.Rotation = vecmath.Vec3{Z: math32.Pi / 2}
	child := NewBone("Spine")
	child.ParentIndex = 0
	child.Translation = vecmath.Vec3{X: 2}

	f := New(VersionDarkSouls3)
	f.Bones = []*Bone{root, child}

	m, err := f.BoneTransform(1)
	if err != nil {
		t.Fatalf("BoneTransform() error: %v", err)
	}
	// The child's offset along X is turned onto Y by the root.
	if got, want := m.TransformPoint(vecmath.Vec3{}), (vecmath.Vec3{Y: 3}); !nearVec3(got, want) {
		t.Errorf("child origin = %v, want %v", got, want)
	}

	tests := []struct {
		name   string
		index  int
		parent int16
	}{
		{"index out of range", 5, -1},
		{"parent out of range", 1, 7},
		{"cycle", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child.ParentIndex = tt.parent
			if _, err := f.BoneTransform(tt.index); !errors.Is(err, ErrBoneParent) {
				t.Errorf("BoneTransform() error = %v, want ErrBoneParent", err)
			}
		})
	}
}
