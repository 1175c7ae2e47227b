package pose

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func translated(x, y, z float32) Transform {
	tr := IdentityTransform()
	tr.Translation = mgl32.Vec3{x, y, z}
	return tr
}

func poseOf(bones ...BonePose) *Pose {
	p := New()
	for _, b := range bones {
		p.Set(b.Bone, b.Transform)
	}
	return p
}

func TestPoseSetKeepsOrder(t *testing.T) {
	p := New()
	p.Set("hips", IdentityTransform())
	p.Set("spine", IdentityTransform())
	p.Set("hips", translated(1, 0, 0))

	require.Equal(t, 2, p.Len())
	assert.Equal(t, "hips", p.Bones()[0].Bone)
	assert.Equal(t, "spine", p.Bones()[1].Bone)
	got, ok := p.Get("hips")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, got.Translation)

	p.Reset()
	assert.True(t, p.IsNeutral())
	_, ok = p.Get("hips")
	assert.False(t, ok)
}

func TestBlendWeighted(t *testing.T) {
	t1 := translated(1, 2, 3)
	t2 := translated(5, 6, 7)
	a := poseOf(BonePose{"hips", t1})
	b := poseOf(BonePose{"hips", t2})

	cases := []struct {
		name    string
		weights [2]float32
		want    mgl32.Vec3
	}{
		{"normalized_0.3_0.7", [2]float32{0.3, 0.7}, mgl32.Vec3{0.3*1 + 0.7*5, 0.3*2 + 0.7*6, 0.3*3 + 0.7*7}},
		{"unnormalized_3_7", [2]float32{3, 7}, mgl32.Vec3{0.3*1 + 0.7*5, 0.3*2 + 0.7*6, 0.3*3 + 0.7*7}},
		{"only_first", [2]float32{1, 0}, t1.Translation},
		{"negative_ignored", [2]float32{-1, 2}, t2.Translation},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dst := New()
			BlendWeighted(dst, []Weighted{{a, c.weights[0]}, {b, c.weights[1]}})
			got, ok := dst.Get("hips")
			require.True(t, ok)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, c.want[i], got.Translation[i], 1e-5)
			}
		})
	}
}

func TestBlendWeightedAllZero(t *testing.T) {
	a := poseOf(BonePose{"hips", translated(1, 0, 0)})
	dst := poseOf(BonePose{"stale", IdentityTransform()})
	BlendWeighted(dst, []Weighted{{a, 0}, {nil, 1}})
	assert.True(t, dst.IsNeutral())
}

func TestBlendWeightedDisjointBones(t *testing.T) {
	a := poseOf(BonePose{"hips", translated(2, 0, 0)})
	b := poseOf(BonePose{"head", translated(0, 4, 0)})
	dst := New()
	BlendWeighted(dst, []Weighted{{a, 0.5}, {b, 0.5}})

	require.Equal(t, 2, dst.Len())
	hips, _ := dst.Get("hips")
	head, _ := dst.Get("head")
	assert.InDelta(t, 1, hips.Translation[0], 1e-6)
	assert.InDelta(t, 2, head.Translation[1], 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, hips.Scale)
}

func TestBlendMissingBoneFadesFromIdentity(t *testing.T) {
	a := poseOf(BonePose{"spine", translated(10, 0, 0)})
	b := poseOf(BonePose{"hips", translated(8, 0, 0)})

	cases := []struct {
		t     float32
		spine float32
		hips  float32
	}{
		{0.25, 7.5, 2},
		{0.5, 5, 4},
		{0.75, 2.5, 6},
	}
	for _, c := range cases {
		dst := New()
		Blend(dst, a, b, c.t)
		spine, ok := dst.Get("spine")
		require.True(t, ok)
		hips, ok := dst.Get("hips")
		require.True(t, ok)
		assert.InDelta(t, c.spine, spine.Translation[0], 1e-5, "t=%v", c.t)
		assert.InDelta(t, c.hips, hips.Translation[0], 1e-5, "t=%v", c.t)
	}

	dst := New()
	Blend(dst, a, b, 1)
	assert.True(t, dst.ApproxEqual(b, 1e-6))
}

func TestBlendWeightedNeutralInput(t *testing.T) {
	a := poseOf(BonePose{"hips", translated(10, 0, 0)})
	dst := New()
	BlendWeighted(dst, []Weighted{{a, 0.5}, {New(), 0.5}})
	hips, ok := dst.Get("hips")
	require.True(t, ok)
	assert.InDelta(t, 5, hips.Translation[0], 1e-5)
}

func TestBlendEndpoints(t *testing.T) {
	rot := IdentityTransform()
	half := float32(math.Sqrt(0.5))
	rot.Rotation = QuatXYZW([4]float32{0, half, 0, half}) // 90 degrees about Y
	a := poseOf(BonePose{"hips", IdentityTransform()})
	b := poseOf(BonePose{"hips", rot})

	dst := New()
	Blend(dst, a, b, 0)
	assert.True(t, dst.ApproxEqual(a, 1e-5))

	Blend(dst, a, b, 1)
	assert.True(t, dst.ApproxEqual(b, 1e-5))

	Blend(dst, a, b, 0.5)
	got, _ := dst.Get("hips")
	// 45 degrees about Y
	want := [4]float32{0, float32(math.Sin(math.Pi / 8)), 0, float32(math.Cos(math.Pi / 8))}
	gotXYZW := XYZW(got.Rotation)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, want[i], gotXYZW[i], 1e-4)
	}
}

func TestSlerpShortestPath(t *testing.T) {
	q := mgl32.QuatIdent()
	neg := mgl32.Quat{W: -1}
	got := Slerp(q, neg, 0.5)
	assert.InDelta(t, 1, math.Abs(float64(got.W)), 1e-5)

	// 350 degrees one way is 10 degrees the other
	a := mgl32.QuatRotate(mgl32.DegToRad(10), mgl32.Vec3{0, 0, 1})
	b := mgl32.QuatRotate(mgl32.DegToRad(350), mgl32.Vec3{0, 0, 1})
	mid := Slerp(a, b, 0.5)
	assert.InDelta(t, 1, math.Abs(float64(mid.W)), 1e-5)
}

func TestTransformYAML(t *testing.T) {
	tr := translated(1, 2, 3)
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	data, err := yaml.Marshal(tr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "translation: [1, 2, 3]")

	var out Transform
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.True(t, tr.ApproxEqual(out, 1e-6))

	var partial Transform
	require.NoError(t, yaml.Unmarshal([]byte("translation: [4, 0, 0]"), &partial))
	assert.Equal(t, mgl32.QuatIdent(), partial.Rotation)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, partial.Scale)
}
