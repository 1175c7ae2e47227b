package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/pose"
	"github.com/milk9111/animgraph/prefabs"
)

type segment struct {
	Bone     string
	From, To cp.Vector
}

// layoutSkeleton places every bone in screen space. Bones must be listed
// parents first. Pose translations offset a bone's start in x/y and the Z
// rotation is added to its rest angle; bones missing from p stay at rest.
func layoutSkeleton(bones []prefabs.BoneSpec, p *pose.Pose, origin cp.Vector, scale float64) []segment {
	type joint struct {
		end   cp.Vector
		angle float64
	}
	joints := make(map[string]joint, len(bones))
	out := make([]segment, 0, len(bones))

	for _, b := range bones {
		start, angle := origin, 0.0
		if parent, ok := joints[b.Parent]; ok && b.Parent != "" {
			start, angle = parent.end, parent.angle
		}
		angle += b.Angle
		if tr, ok := p.Get(b.Name); ok {
			offset := cp.Vector{X: float64(tr.Translation[0]), Y: float64(tr.Translation[1])}
			start = start.Add(offset.Mult(scale))
			angle += zAngle(tr.Rotation)
		}
		end := start.Add(direction(angle).Mult(b.Length * scale))
		joints[b.Name] = joint{end: end, angle: angle}
		out = append(out, segment{Bone: b.Name, From: start, To: end})
	}
	return out
}

// direction is the unit vector for an angle in degrees measured clockwise
// from straight up on screen.
func direction(deg float64) cp.Vector {
	return cp.ForAngle(deg*math.Pi/180 - math.Pi/2)
}

// zAngle extracts the rotation about Z in degrees.
func zAngle(q mgl32.Quat) float64 {
	return 2 * math.Atan2(float64(q.V[2]), float64(q.W)) * 180 / math.Pi
}
