// Package machine evaluates pose graphs and drives timed cross-fades between
// the states that own them.
//
// A Machine is single threaded: gameplay code writes parameters between
// ticks and calls Evaluate once per frame.
package machine

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/clip"
	"github.com/milk9111/animgraph/pool"
	"github.com/milk9111/animgraph/pose"
)

type (
	NodeHandle  = pool.Handle[PoseNode]
	StateHandle = pool.Handle[State]
)

// AnimationSource is the read side of the animation store.
type AnimationSource interface {
	Sample(h clip.Handle, t float32, out *pose.Pose) bool
}

// Kind names a PoseNode variant.
type Kind string

const (
	KindPlayAnimation          Kind = "play_animation"
	KindBlendAnimations        Kind = "blend_animations"
	KindBlendAnimationsByIndex Kind = "blend_animations_by_index"
)

// PoseNode is implemented by *PlayAnimation, *BlendAnimations and
// *BlendAnimationsByIndex only.
type PoseNode interface {
	Kind() Kind
	poseNode()
}

// Base carries the fields every node variant shares.
type Base struct {
	Position    cp.Vector   `yaml:"position" mapstructure:"position"`
	ParentState StateHandle `yaml:"parent_state" mapstructure:"parent_state"`
}

// cache is the per-node output cell. tick is the graph tick the pose was
// computed for; evaluating is set while the node is on the evaluation stack.
type cache struct {
	pose       pose.Pose
	tick       uint64
	evaluating bool
}

func (*PlayAnimation) Kind() Kind          { return KindPlayAnimation }
func (*BlendAnimations) Kind() Kind        { return KindBlendAnimations }
func (*BlendAnimationsByIndex) Kind() Kind { return KindBlendAnimationsByIndex }

func (*PlayAnimation) poseNode()          {}
func (*BlendAnimations) poseNode()        {}
func (*BlendAnimationsByIndex) poseNode() {}

// BaseOf returns the shared fields of n, or nil for a nil node.
func BaseOf(n PoseNode) *Base {
	switch v := n.(type) {
	case *PlayAnimation:
		return &v.Base
	case *BlendAnimations:
		return &v.Base
	case *BlendAnimationsByIndex:
		return &v.Base
	}
	return nil
}

// Children lists the input handles of n in input order.
func Children(n PoseNode) []NodeHandle {
	switch v := n.(type) {
	case *BlendAnimations:
		out := make([]NodeHandle, len(v.Inputs))
		for i, in := range v.Inputs {
			out[i] = in.Pose
		}
		return out
	case *BlendAnimationsByIndex:
		out := make([]NodeHandle, len(v.Inputs))
		for i, in := range v.Inputs {
			out[i] = in.Pose
		}
		return out
	}
	return nil
}

func cacheOf(n PoseNode) *cache {
	switch v := n.(type) {
	case *PlayAnimation:
		return &v.cache
	case *BlendAnimations:
		return &v.cache
	case *BlendAnimationsByIndex:
		return &v.cache
	}
	return nil
}

// cloneNode copies the authored fields of n into a fresh node with an empty
// cache.
func cloneNode(n PoseNode) PoseNode {
	switch v := n.(type) {
	case *PlayAnimation:
		return &PlayAnimation{Base: v.Base, Animation: v.Animation, Speed: v.Speed, Time: v.Time}
	case *BlendAnimations:
		return &BlendAnimations{Base: v.Base, Inputs: append([]BlendInput(nil), v.Inputs...)}
	case *BlendAnimationsByIndex:
		return &BlendAnimationsByIndex{
			Base:           v.Base,
			IndexParameter: v.IndexParameter,
			Inputs:         append([]IndexedBlendInput(nil), v.Inputs...),
		}
	}
	return nil
}

func isNilNode(n PoseNode) bool {
	switch v := n.(type) {
	case *PlayAnimation:
		return v == nil
	case *BlendAnimations:
		return v == nil
	case *BlendAnimationsByIndex:
		return v == nil
	}
	return true
}
