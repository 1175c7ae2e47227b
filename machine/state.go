package machine

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/param"
	"github.com/milk9111/animgraph/pose"
)

// State is a named node of the transition machine. Its pose is whatever its
// root node produces.
type State struct {
	Name     string     `yaml:"name" mapstructure:"name"`
	Root     NodeHandle `yaml:"root" mapstructure:"root"`
	Position cp.Vector  `yaml:"position" mapstructure:"position"`
}

func (s State) Equal(o State) bool {
	return s == o
}

// Pose returns the cached pose of the root, or false if the root is gone.
func (s *State) Pose(g *Graph) (*pose.Pose, bool) {
	return g.Pose(s.Root)
}

// Update evaluates the root subtree. A missing root is not an error: the
// state simply has no pose.
func (s *State) Update(g *Graph, params *param.Table, anims AnimationSource, dt float32) error {
	if !g.Contains(s.Root) {
		return nil
	}
	_, err := g.Evaluate(s.Root, params, anims, dt)
	return err
}
