package machine

import (
	"errors"
	"fmt"

	"github.com/milk9111/animgraph/param"
	"github.com/milk9111/animgraph/pool"
	"github.com/milk9111/animgraph/pose"
)

// DefaultMaxDepth bounds how deep a single evaluation may recurse.
const DefaultMaxDepth = 64

// Graph owns the pose nodes of a machine. Nodes reference each other by
// handle only; removing a node leaves its parents with a dangling handle,
// which evaluates to the neutral pose.
type Graph struct {
	nodes    pool.Pool[PoseNode]
	tick     uint64
	maxDepth int
	neutral  pose.Pose
}

func NewGraph() *Graph {
	return &Graph{tick: 1, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth changes the recursion bound. Values below 1 restore the default.
func (g *Graph) SetMaxDepth(n int) {
	if n < 1 {
		n = DefaultMaxDepth
	}
	g.maxDepth = n
}

func (g *Graph) MaxDepth() int {
	if g.maxDepth < 1 {
		return DefaultMaxDepth
	}
	return g.maxDepth
}

// Add stores n. A nil node is rejected with the none handle.
func (g *Graph) Add(n PoseNode) NodeHandle {
	if isNilNode(n) {
		return NodeHandle{}
	}
	return g.nodes.Spawn(n)
}

func (g *Graph) Remove(h NodeHandle) (PoseNode, bool) {
	return g.nodes.Free(h)
}

func (g *Graph) Node(h NodeHandle) (PoseNode, bool) {
	p, ok := g.nodes.Borrow(h)
	if !ok {
		return nil, false
	}
	return *p, true
}

func (g *Graph) Contains(h NodeHandle) bool {
	return g.nodes.IsValid(h)
}

// Children returns the input handles of h, including dangling ones.
func (g *Graph) Children(h NodeHandle) []NodeHandle {
	n, ok := g.Node(h)
	if !ok {
		return nil
	}
	return Children(n)
}

func (g *Graph) Len() int { return g.nodes.Len() }

func (g *Graph) Handles() []NodeHandle { return g.nodes.Handles() }

// Connect appends child as an input of parent. weight is ignored for
// index-selected blends.
func (g *Graph) Connect(parent, child NodeHandle, weight Weight) error {
	pn, ok := g.Node(parent)
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrDanglingNode, parent)
	}
	if !g.Contains(child) {
		return fmt.Errorf("%w: child %s", ErrDanglingNode, child)
	}
	if parent == child || g.reaches(child, parent) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, parent, child)
	}

	switch v := pn.(type) {
	case *BlendAnimations:
		v.Inputs = append(v.Inputs, BlendInput{Pose: child, Weight: weight})
	case *BlendAnimationsByIndex:
		v.Inputs = append(v.Inputs, IndexedBlendInput{Pose: child})
	default:
		return fmt.Errorf("%w: %s is %s", ErrLeafNode, parent, pn.Kind())
	}
	return nil
}

// reaches reports whether to is reachable from from through input edges.
func (g *Graph) reaches(from, to NodeHandle) bool {
	seen := make(map[NodeHandle]bool)
	stack := []NodeHandle{from}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == to {
			return true
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		stack = append(stack, g.Children(h)...)
	}
	return false
}

// Validate walks every node and reports each dangling input and each cycle.
func (g *Graph) Validate() error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[NodeHandle]int, g.nodes.Len())
	var errs []error

	var visit func(h NodeHandle)
	visit = func(h NodeHandle) {
		color[h] = grey
		for _, c := range g.Children(h) {
			if !g.Contains(c) {
				errs = append(errs, fmt.Errorf("%w: %s input %s", ErrDanglingNode, h, c))
				continue
			}
			switch color[c] {
			case grey:
				errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrCycle, h, c))
			case white:
				visit(c)
			}
		}
		color[h] = black
	}

	for _, h := range g.nodes.Handles() {
		if color[h] == white {
			visit(h)
		}
	}
	return errors.Join(errs...)
}

// BeginTick invalidates every cached pose.
func (g *Graph) BeginTick() {
	g.tick++
}

// Tick returns the current tick stamp.
func (g *Graph) Tick() uint64 { return g.tick }

type evalContext struct {
	params *param.Table
	anims  AnimationSource
	dt     float32
	errs   []error
}

func (ec *evalContext) fail(err error) {
	ec.errs = append(ec.errs, err)
}

// Evaluate computes the pose of h for the current tick. Nodes already
// computed this tick return their cached pose. The returned pose is owned by
// the graph and stays valid until the next tick. Problems inside the subtree
// are recoverable: the failing node yields the neutral pose and the errors
// are joined into err.
func (g *Graph) Evaluate(h NodeHandle, params *param.Table, anims AnimationSource, dt float32) (*pose.Pose, error) {
	if g.tick == 0 {
		g.tick = 1
	}
	ec := evalContext{params: params, anims: anims, dt: dt}
	p := g.eval(h, &ec, 0)
	return p, errors.Join(ec.errs...)
}

// Pose returns the cached pose of h without evaluating it.
func (g *Graph) Pose(h NodeHandle) (*pose.Pose, bool) {
	n, ok := g.Node(h)
	if !ok {
		return nil, false
	}
	return &cacheOf(n).pose, true
}

func (g *Graph) eval(h NodeHandle, ec *evalContext, depth int) *pose.Pose {
	n, ok := g.Node(h)
	if !ok {
		ec.fail(fmt.Errorf("%w: %s", ErrDanglingNode, h))
		return g.neutralPose()
	}
	c := cacheOf(n)
	if c.tick == g.tick {
		return &c.pose
	}
	if c.evaluating {
		ec.fail(fmt.Errorf("%w: through %s", ErrCycle, h))
		return g.neutralPose()
	}
	if depth >= g.MaxDepth() {
		ec.fail(fmt.Errorf("%w: %d at %s", ErrRecursionLimit, depth, h))
		return g.neutralPose()
	}

	c.evaluating = true
	switch v := n.(type) {
	case *PlayAnimation:
		v.evaluate(ec)
	case *BlendAnimations:
		v.evaluate(g, ec, depth)
	case *BlendAnimationsByIndex:
		v.evaluate(g, ec, depth)
	}
	c.evaluating = false
	c.tick = g.tick
	return &c.pose
}

func (g *Graph) neutralPose() *pose.Pose {
	g.neutral.Reset()
	return &g.neutral
}
