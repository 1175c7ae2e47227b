package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/pose"
	"github.com/milk9111/animgraph/prefabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func near(t *testing.T, want, got cp.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-4, "y")
}

func TestLayoutSkeletonRest(t *testing.T) {
	bones := []prefabs.BoneSpec{
		{Name: "hips"},
		{Name: "spine", Parent: "hips", Length: 10},
		{Name: "arm", Parent: "spine", Length: 5, Angle: 90},
	}
	segs := layoutSkeleton(bones, pose.New(), cp.Vector{X: 100, Y: 100}, 2)
	require.Len(t, segs, 3)

	near(t, cp.Vector{X: 100, Y: 100}, segs[0].To)
	near(t, cp.Vector{X: 100, Y: 80}, segs[1].To)
	near(t, cp.Vector{X: 110, Y: 80}, segs[2].To)
}

func TestLayoutSkeletonPosed(t *testing.T) {
	bones := []prefabs.BoneSpec{
		{Name: "hips"},
		{Name: "spine", Parent: "hips", Length: 10},
	}
	angle := float32(90)
	p := pose.New()
	p.Set("hips", prefabs.KeySpec{Translation: &mgl32.Vec3{0, 5, 0}}.Transform())
	p.Set("spine", prefabs.KeySpec{Angle: &angle}.Transform())

	segs := layoutSkeleton(bones, p, cp.Vector{}, 1)
	near(t, cp.Vector{X: 0, Y: 5}, segs[1].From)
	near(t, cp.Vector{X: 10, Y: 5}, segs[1].To)
}

func TestZAngle(t *testing.T) {
	angle := float32(-30)
	tr := prefabs.KeySpec{Angle: &angle}.Transform()
	assert.InDelta(t, -30, zAngle(tr.Rotation), 1e-4)
	assert.InDelta(t, 0, zAngle(mgl32.QuatIdent()), 1e-9)
}
