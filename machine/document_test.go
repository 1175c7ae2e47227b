package machine

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	f := newFixture(t)
	g := f.m.Graph()

	// leave a gap and a bumped generation in the node arena
	scratch := g.Add(NewBlendAnimations())
	g.Remove(scratch)
	s, _ := f.m.State(f.jump)
	blend := NewBlendAnimationsByIndex("stance", IndexedBlendInput{Pose: s.Root, BlendTime: 0.5})
	blend.Position = cp.Vector{X: 120, Y: -40}
	bh := g.Add(blend)
	require.Equal(t, uint32(2), bh.Generation)
	s.Root = bh

	f.m.Params().Set("stance", param.Index(0))
	f.m.Params().Set("speed", param.Number(0))
	_, err := f.m.AddTransition(Transition{
		Name:      "leap",
		Source:    f.run,
		Dest:      f.jump,
		Duration:  0.25,
		Condition: Any(Script("p.speed > 2"), Not(IsTrue("grounded"))),
	})
	require.NoError(t, err)

	data, err := Marshal(f.m)
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, f.m.Graph().Handles(), loaded.Graph().Handles())
	for _, h := range f.m.Graph().Handles() {
		want, _ := f.m.Graph().Node(h)
		got, ok := loaded.Graph().Node(h)
		require.True(t, ok, "node %s", h)
		assert.True(t, nodesEqual(want, got), "node %s", h)
	}
	assert.Equal(t, f.m.States(), loaded.States())
	for _, h := range f.m.States() {
		want, _ := f.m.State(h)
		got, _ := loaded.State(h)
		assert.True(t, want.Equal(*got))
	}
	want, got := f.m.Transitions(), loaded.Transitions()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "transition %d", i)
	}
	assert.Equal(t, f.m.EntryState(), loaded.EntryState())
	assert.Equal(t, f.m.Params().Snapshot(), loaded.Params().Snapshot())

	// both machines produce the same output
	f.m.Params().Set("moving", param.Boolean(true))
	loaded.Params().Set("moving", param.Boolean(true))
	for n := 0; n < 4; n++ {
		a, errA := f.m.Evaluate(f.src, 0.3)
		b, errB := loaded.Evaluate(f.src, 0.3)
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.True(t, a.ApproxEqual(b, 1e-5))
	}
}

func nodesEqual(a, b PoseNode) bool {
	switch v := a.(type) {
	case *PlayAnimation:
		o, ok := b.(*PlayAnimation)
		return ok && v.Equal(o)
	case *BlendAnimations:
		o, ok := b.(*BlendAnimations)
		return ok && v.Equal(o)
	case *BlendAnimationsByIndex:
		o, ok := b.(*BlendAnimationsByIndex)
		return ok && v.Equal(o)
	}
	return false
}

func TestFromDocumentRejects(t *testing.T) {
	node := func(idx uint32, inputs ...NodeHandle) NodeRecord {
		b := NewBlendAnimations()
		for _, in := range inputs {
			b.Inputs = append(b.Inputs, BlendInput{Pose: in, Weight: ConstantWeight(1)})
		}
		return NodeRecord{Handle: NodeHandle{Index: idx, Generation: 1}, Kind: KindBlendAnimations, BlendAnimations: b}
	}
	h := func(idx uint32) NodeHandle { return NodeHandle{Index: idx, Generation: 1} }

	cases := []struct {
		name string
		doc  Document
	}{
		{"cycle", Document{Nodes: []NodeRecord{node(0, h(1)), node(1, h(0))}}},
		{"duplicate_handle", Document{Nodes: []NodeRecord{node(0), node(0)}}},
		{"unknown_kind", Document{Nodes: []NodeRecord{{Handle: h(0), Kind: "spline"}}}},
		{"missing_body", Document{Nodes: []NodeRecord{{Handle: h(0), Kind: KindPlayAnimation}}}},
		{"bad_entry", Document{Entry: StateHandle{Index: 3, Generation: 1}}},
		{"bad_transition", Document{Transitions: []Transition{{Condition: Always()}}}},
		{"nan_duration", Document{
			States:      []StateRecord{{Handle: StateHandle{Index: 0, Generation: 1}, State: State{Name: "a"}}},
			Transitions: []Transition{{Source: StateHandle{Index: 0, Generation: 1}, Dest: StateHandle{Index: 0, Generation: 1}, Duration: float32(math.NaN()), Condition: Always()}},
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromDocument(c.doc)
			assert.True(t, errors.Is(err, ErrInvalidDocument), "got %v", err)
		})
	}
}

func TestFromDocumentKeepsDanglingInputs(t *testing.T) {
	doc := Document{Nodes: []NodeRecord{{
		Handle:          NodeHandle{Index: 0, Generation: 1},
		Kind:            KindBlendAnimations,
		BlendAnimations: NewBlendAnimations(BlendInput{Pose: NodeHandle{Index: 7, Generation: 3}, Weight: ConstantWeight(1)}),
	}}}
	m, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Graph().Len())
}

func TestUnmarshalInvalidYAML(t *testing.T) {
	_, err := Unmarshal([]byte("nodes: {"))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}
