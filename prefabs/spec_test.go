package prefabs

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/animgraph/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySpecTransform(t *testing.T) {
	angle := float32(90)
	k := KeySpec{Angle: &angle, Translation: &mgl32.Vec3{1, 2, 3}}
	tr := k.Transform()

	half := float32(math.Sqrt2 / 2)
	assert.InDelta(t, half, tr.Rotation.V[2], 1e-6)
	assert.InDelta(t, half, tr.Rotation.W, 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Translation)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, tr.Scale)

	rot := [4]float32{0, 0, 2, 0}
	flipped := KeySpec{Rotation: &rot}.Transform()
	assert.InDelta(t, 1, flipped.Rotation.V[2], 1e-6)

	assert.Equal(t, pose.IdentityTransform(), KeySpec{}.Transform())
}

func TestClipSpecSortsKeys(t *testing.T) {
	x := func(v float32) *mgl32.Vec3 { return &mgl32.Vec3{v, 0, 0} }
	c := ClipSpec{Name: "c", Duration: 1, Tracks: []TrackSpec{{
		Bone: "hips",
		Keys: []KeySpec{{Time: 1, Translation: x(4)}, {Time: 0, Translation: x(0)}},
	}}}.Clip()

	out := pose.New()
	c.Sample(0.5, out)
	tr, ok := out.Get("hips")
	require.True(t, ok)
	assert.InDelta(t, 2, tr.Translation[0], 1e-5)
}

func TestLoadMachineSpecFields(t *testing.T) {
	spec, err := LoadMachineSpec("prefabs/humanoid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "humanoid", spec.Name)
	assert.Equal(t, "idle", spec.Entry)
	require.NotEmpty(t, spec.Skeleton)
	assert.Equal(t, "hips", spec.Skeleton[0].Name)
	assert.Equal(t, "leave_ground.tengo", spec.Transitions[2].ScriptFile)
	assert.Contains(t, List(), "humanoid.yaml")
}

func TestLoadPrefersDisk(t *testing.T) {
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "humanoid.yaml"), []byte("name: override\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "landed.tengo"), []byte("true"), 0o644))

	spec, err := LoadMachineSpec("humanoid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "override", spec.Name)

	data, err := LoadScript("prefabs/scripts/landed.tengo")
	require.NoError(t, err)
	assert.Equal(t, "true", string(data))

	data, err = LoadScript("leave_ground.tengo")
	require.NoError(t, err)
	assert.Contains(t, string(data), "p.jump")
}

func TestRelPath(t *testing.T) {
	for _, in := range []string{"landed.tengo", "scripts/landed.tengo", "prefabs/scripts/landed.tengo"} {
		assert.Equal(t, "scripts/landed.tengo", relPath(in, "scripts"), in)
	}
	assert.Equal(t, "humanoid.yaml", relPath("prefabs/humanoid.yaml", ""))
	assert.Equal(t, "", relPath("", "scripts"))
}

func TestListIncludesDiskDefinitions(t *testing.T) {
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "quadruped.yaml"), []byte("name: quadruped\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "humanoid.yaml"), []byte("name: override\n"), 0o644))
	assert.Equal(t, []string{"humanoid.yaml", "quadruped.yaml"}, List())

	_, err := Load("missing.yaml")
	assert.Error(t, err)
}
