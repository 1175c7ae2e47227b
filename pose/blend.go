package pose

// Weighted is one input of an N-way blend.
type Weighted struct {
	Pose   *Pose
	Weight float32
}

// BlendWeighted writes the weighted average of inputs into dst. Weights are
// normalized over every input with a positive weight; an input without a
// bone contributes the identity transform for it, so bones fade in and out
// instead of snapping. Inputs with weight <= 0 are skipped; if none remain
// dst is left neutral. A nil input pose counts as neutral. dst must not
// alias any input.
func BlendWeighted(dst *Pose, inputs []Weighted) {
	dst.Reset()
	active := make([]Weighted, 0, len(inputs))
	for _, in := range inputs {
		if in.Weight > 0 {
			active = append(active, in)
		}
	}
	if len(active) == 0 {
		return
	}
	for _, in := range active {
		for _, b := range in.Pose.Bones() {
			if _, done := dst.Get(b.Bone); done {
				continue
			}
			dst.Set(b.Bone, blendBone(b.Bone, active))
		}
	}
}

// blendBone folds the inputs progressively so translation and scale end as
// the exact normalized average.
func blendBone(bone string, inputs []Weighted) Transform {
	var out Transform
	var total float32
	for _, in := range inputs {
		tr, ok := in.Pose.Get(bone)
		if !ok {
			tr = IdentityTransform()
		}
		if total == 0 {
			out = tr
		} else {
			out = out.Interpolate(tr, in.Weight/(total+in.Weight))
		}
		total += in.Weight
	}
	return out
}

// Blend writes the interpolation from a to b at t (clamped to [0, 1]) into
// dst. At t=0 the result equals a, at t=1 it equals b. dst must not alias a
// or b.
func Blend(dst, a, b *Pose, t float32) {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	BlendWeighted(dst, []Weighted{{Pose: a, Weight: 1 - t}, {Pose: b, Weight: t}})
}
