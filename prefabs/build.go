package prefabs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/animgraph/clip"
	"github.com/milk9111/animgraph/machine"
)

var (
	ErrUnknownReference = errors.New("prefabs: unknown reference")
	ErrDuplicateName    = errors.New("prefabs: duplicate name")
)

// Built is a machine assembled from a MachineSpec together with the name
// tables used to drive it.
type Built struct {
	Spec    *MachineSpec
	Machine *machine.Machine
	Clips   *clip.Store
	Nodes   map[string]machine.NodeHandle
	States  map[string]machine.StateHandle
}

type builder struct {
	spec  *MachineSpec
	out   *Built
	color map[string]int
}

// Build creates the clips, nodes, states and transitions of spec. Nodes are
// added inputs first; unknown names and node cycles are rejected.
func Build(spec *MachineSpec, opts ...machine.Option) (*Built, error) {
	b := &builder{
		spec: spec,
		out: &Built{
			Spec:    spec,
			Machine: machine.New(opts...),
			Clips:   clip.NewStore(),
			Nodes:   make(map[string]machine.NodeHandle, len(spec.Nodes)),
			States:  make(map[string]machine.StateHandle, len(spec.States)),
		},
		color: make(map[string]int, len(spec.Nodes)),
	}

	for name, v := range spec.Parameters {
		b.out.Machine.Params().Set(name, v)
	}
	for _, cs := range spec.Clips {
		if _, ok := b.out.Clips.Lookup(cs.Name); ok {
			return nil, fmt.Errorf("%w: clip %q", ErrDuplicateName, cs.Name)
		}
		b.out.Clips.Add(cs.Clip())
	}

	names := make([]string, 0, len(spec.Nodes))
	for name := range spec.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := b.node(name); err != nil {
			return nil, err
		}
	}

	if err := b.states(); err != nil {
		return nil, err
	}
	if err := b.transitions(); err != nil {
		return nil, err
	}
	return b.out, nil
}

func (b *builder) node(name string) (machine.NodeHandle, error) {
	const (
		visiting = 1
		done     = 2
	)
	switch b.color[name] {
	case done:
		return b.out.Nodes[name], nil
	case visiting:
		return machine.NodeHandle{}, fmt.Errorf("%w: node %q", machine.ErrCycle, name)
	}
	ns, ok := b.spec.Nodes[name]
	if !ok {
		return machine.NodeHandle{}, fmt.Errorf("%w: node %q", ErrUnknownReference, name)
	}
	b.color[name] = visiting

	var n machine.PoseNode
	switch ns.Kind {
	case machine.KindPlayAnimation:
		h, ok := b.out.Clips.Lookup(ns.Clip)
		if !ok {
			return machine.NodeHandle{}, fmt.Errorf("%w: node %q clip %q", ErrUnknownReference, name, ns.Clip)
		}
		speed := float32(1)
		if ns.Speed != nil {
			speed = *ns.Speed
		}
		n = machine.NewPlayAnimation(h, speed)
	case machine.KindBlendAnimations:
		blend := machine.NewBlendAnimations()
		for _, in := range ns.Inputs {
			child, err := b.node(in.Node)
			if err != nil {
				return machine.NodeHandle{}, fmt.Errorf("node %q: %w", name, err)
			}
			w := machine.ConstantWeight(in.Weight)
			if in.Param != "" {
				w = machine.ParamWeight(in.Param)
			}
			blend.Inputs = append(blend.Inputs, machine.BlendInput{Pose: child, Weight: w})
		}
		n = blend
	case machine.KindBlendAnimationsByIndex:
		blend := machine.NewBlendAnimationsByIndex(ns.IndexParameter)
		for _, in := range ns.Inputs {
			child, err := b.node(in.Node)
			if err != nil {
				return machine.NodeHandle{}, fmt.Errorf("node %q: %w", name, err)
			}
			blend.Inputs = append(blend.Inputs, machine.IndexedBlendInput{Pose: child, BlendTime: in.BlendTime})
		}
		n = blend
	default:
		return machine.NodeHandle{}, fmt.Errorf("prefabs: node %q: unknown kind %q", name, ns.Kind)
	}

	machine.BaseOf(n).Position = ns.Position
	h := b.out.Machine.Graph().Add(n)
	b.out.Nodes[name] = h
	b.color[name] = done
	return h, nil
}

func (b *builder) states() error {
	m := b.out.Machine
	for _, ss := range b.spec.States {
		if _, ok := b.out.States[ss.Name]; ok {
			return fmt.Errorf("%w: state %q", ErrDuplicateName, ss.Name)
		}
		root, ok := b.out.Nodes[ss.Root]
		if !ok {
			return fmt.Errorf("%w: state %q root %q", ErrUnknownReference, ss.Name, ss.Root)
		}
		h := m.AddState(machine.State{Name: ss.Name, Root: root, Position: ss.Position})
		b.out.States[ss.Name] = h
		b.claim(root, h)
	}

	if b.spec.Entry == "" {
		return nil
	}
	entry, ok := b.out.States[b.spec.Entry]
	if !ok {
		return fmt.Errorf("%w: entry state %q", ErrUnknownReference, b.spec.Entry)
	}
	return m.SetEntryState(entry)
}

// claim records s as the parent state of every node under root that has none.
func (b *builder) claim(root machine.NodeHandle, s machine.StateHandle) {
	g := b.out.Machine.Graph()
	n, ok := g.Node(root)
	if !ok {
		return
	}
	base := machine.BaseOf(n)
	if base.ParentState.IsSome() {
		return
	}
	base.ParentState = s
	for _, c := range g.Children(root) {
		b.claim(c, s)
	}
}

func (b *builder) transitions() error {
	for i, ts := range b.spec.Transitions {
		from, ok := b.out.States[ts.From]
		if !ok {
			return fmt.Errorf("%w: transition %d from %q", ErrUnknownReference, i, ts.From)
		}
		to, ok := b.out.States[ts.To]
		if !ok {
			return fmt.Errorf("%w: transition %d to %q", ErrUnknownReference, i, ts.To)
		}
		cond, err := ts.condition()
		if err != nil {
			return err
		}
		tr := machine.Transition{Name: ts.Name, Source: from, Dest: to, Duration: ts.Duration, Condition: cond}
		if _, err := b.out.Machine.AddTransition(tr); err != nil {
			return fmt.Errorf("prefabs: transition %q: %w", ts.Name, err)
		}
	}
	return nil
}

// LoadMachine loads and builds the named definition.
func LoadMachine(filename string, opts ...machine.Option) (*Built, error) {
	spec, err := LoadMachineSpec(filename)
	if err != nil {
		return nil, err
	}
	return Build(spec, opts...)
}
