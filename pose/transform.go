package pose

import (
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Transform is a decomposed bone-local transform.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// QuatXYZW builds a quaternion from (x, y, z, w) components.
func QuatXYZW(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// XYZW is the inverse of QuatXYZW.
func XYZW(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// Slerp interpolates along the shortest arc between q and o.
func Slerp(q, o mgl32.Quat, t float32) mgl32.Quat {
	// q and -q are the same rotation; pick the one on q's hemisphere
	if q.Dot(o) < 0 {
		o = o.Scale(-1)
	}
	return mgl32.QuatSlerp(q, o, t).Normalize()
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Interpolate blends two transforms: linear on translation and scale,
// slerp on rotation.
func (tr Transform) Interpolate(o Transform, t float32) Transform {
	return Transform{
		Translation: lerp(tr.Translation, o.Translation, t),
		Rotation:    Slerp(tr.Rotation, o.Rotation, t),
		Scale:       lerp(tr.Scale, o.Scale, t),
	}
}

// ApproxEqual compares component-wise within eps. Rotations q and -q are equal.
func (tr Transform) ApproxEqual(o Transform, eps float32) bool {
	for i := 0; i < 3; i++ {
		if mgl32.Abs(tr.Translation[i]-o.Translation[i]) > eps || mgl32.Abs(tr.Scale[i]-o.Scale[i]) > eps {
			return false
		}
	}
	return mgl32.Abs(mgl32.Abs(tr.Rotation.Dot(o.Rotation))-1) <= eps
}

type transformYAML struct {
	Translation [3]float32 `yaml:"translation,flow"`
	Rotation    [4]float32 `yaml:"rotation,flow"`
	Scale       [3]float32 `yaml:"scale,flow"`
}

// MarshalYAML writes the rotation as (x, y, z, w).
func (tr Transform) MarshalYAML() (any, error) {
	return transformYAML{
		Translation: tr.Translation,
		Rotation:    XYZW(tr.Rotation),
		Scale:       tr.Scale,
	}, nil
}

func (tr *Transform) UnmarshalYAML(node *yaml.Node) error {
	id := IdentityTransform()
	raw := transformYAML{Rotation: XYZW(id.Rotation), Scale: id.Scale}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*tr = Transform{
		Translation: raw.Translation,
		Rotation:    QuatXYZW(raw.Rotation).Normalize(),
		Scale:       raw.Scale,
	}
	return nil
}
