package machine

import (
	"github.com/milk9111/animgraph/param"
	"github.com/milk9111/animgraph/pose"
)

// Weight is either a live parameter (when Param is set) or a constant.
type Weight struct {
	Param    string  `yaml:"param,omitempty" mapstructure:"param"`
	Constant float32 `yaml:"constant,omitempty" mapstructure:"constant"`
}

func ParamWeight(name string) Weight { return Weight{Param: name} }

func ConstantWeight(w float32) Weight { return Weight{Constant: w} }

// Resolve reads the weight. Absent parameters and negative values are 0.
func (w Weight) Resolve(params *param.Table) float32 {
	if w.Param != "" {
		return params.Weight(w.Param)
	}
	if w.Constant != w.Constant || w.Constant < 0 {
		return 0
	}
	return w.Constant
}

type BlendInput struct {
	Pose   NodeHandle `yaml:"pose" mapstructure:"pose"`
	Weight Weight     `yaml:"weight" mapstructure:"weight"`
}

// BlendAnimations mixes every input by its normalized weight. When all
// weights are zero the output is the neutral pose.
type BlendAnimations struct {
	Base   `yaml:",inline" mapstructure:",squash"`
	Inputs []BlendInput `yaml:"inputs" mapstructure:"inputs"`

	cache   cache
	scratch []pose.Weighted
}

func NewBlendAnimations(inputs ...BlendInput) *BlendAnimations {
	return &BlendAnimations{Inputs: inputs}
}

func (n *BlendAnimations) Equal(o *BlendAnimations) bool {
	if o == nil || n.Base != o.Base || len(n.Inputs) != len(o.Inputs) {
		return false
	}
	for i := range n.Inputs {
		if n.Inputs[i] != o.Inputs[i] {
			return false
		}
	}
	return true
}

func (n *BlendAnimations) evaluate(g *Graph, ec *evalContext, depth int) {
	inputs := n.scratch[:0]
	for _, in := range n.Inputs {
		p := g.eval(in.Pose, ec, depth+1)
		inputs = append(inputs, pose.Weighted{Pose: p, Weight: in.Weight.Resolve(ec.params)})
	}
	pose.BlendWeighted(&n.cache.pose, inputs)
	for i := range inputs {
		inputs[i].Pose = nil
	}
	n.scratch = inputs
}
