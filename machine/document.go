package machine

import (
	"errors"
	"fmt"

	"github.com/milk9111/animgraph/param"
	"gopkg.in/yaml.v3"
)

// NodeRecord is one persisted node. Exactly the field matching Kind is set.
type NodeRecord struct {
	Handle                 NodeHandle              `yaml:"handle"`
	Kind                   Kind                    `yaml:"kind"`
	PlayAnimation          *PlayAnimation          `yaml:"play_animation,omitempty"`
	BlendAnimations        *BlendAnimations        `yaml:"blend_animations,omitempty"`
	BlendAnimationsByIndex *BlendAnimationsByIndex `yaml:"blend_animations_by_index,omitempty"`
}

func (r NodeRecord) node() (PoseNode, error) {
	var n PoseNode
	switch r.Kind {
	case KindPlayAnimation:
		if r.PlayAnimation != nil {
			n = r.PlayAnimation
		}
	case KindBlendAnimations:
		if r.BlendAnimations != nil {
			n = r.BlendAnimations
		}
	case KindBlendAnimationsByIndex:
		if r.BlendAnimationsByIndex != nil {
			n = r.BlendAnimationsByIndex
		}
	default:
		return nil, fmt.Errorf("%w: node %s: unknown kind %q", ErrInvalidDocument, r.Handle, r.Kind)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: node %s: missing %s body", ErrInvalidDocument, r.Handle, r.Kind)
	}
	return cloneNode(n), nil
}

type StateRecord struct {
	Handle StateHandle `yaml:"handle"`
	State  State       `yaml:"state"`
}

// Document is the data-only form of a Machine. Handles are stored verbatim so
// cross references survive a round trip.
type Document struct {
	Parameters  map[string]param.Value `yaml:"parameters,omitempty"`
	Nodes       []NodeRecord           `yaml:"nodes"`
	States      []StateRecord          `yaml:"states"`
	Transitions []Transition           `yaml:"transitions"`
	Entry       StateHandle            `yaml:"entry"`
}

// Document snapshots the authored content of m. Caches, elapsed times and the
// active state are not included.
func (m *Machine) Document() Document {
	doc := Document{Parameters: m.params.Snapshot(), Entry: m.entry}
	m.graph.nodes.Each(func(h NodeHandle, n *PoseNode) {
		rec := NodeRecord{Handle: h, Kind: (*n).Kind()}
		switch v := cloneNode(*n).(type) {
		case *PlayAnimation:
			rec.PlayAnimation = v
		case *BlendAnimations:
			rec.BlendAnimations = v
		case *BlendAnimationsByIndex:
			rec.BlendAnimationsByIndex = v
		}
		doc.Nodes = append(doc.Nodes, rec)
	})
	m.states.Each(func(h StateHandle, s *State) {
		doc.States = append(doc.States, StateRecord{Handle: h, State: *s})
	})
	for _, tr := range m.transitions {
		tr.Elapsed = 0
		tr.Condition.compiled = nil
		doc.Transitions = append(doc.Transitions, tr)
	}
	return doc
}

// FromDocument rebuilds a machine. Dangling node inputs are kept (they
// evaluate to the neutral pose); cycles and broken state references are
// rejected.
func FromDocument(doc Document, opts ...Option) (*Machine, error) {
	m := New(opts...)
	for name, v := range doc.Parameters {
		m.params.Set(name, v)
	}
	for _, rec := range doc.Nodes {
		n, err := rec.node()
		if err != nil {
			return nil, err
		}
		if err := m.graph.nodes.SpawnAt(rec.Handle, n); err != nil {
			return nil, fmt.Errorf("%w: node: %w", ErrInvalidDocument, err)
		}
	}
	for _, rec := range doc.States {
		if err := m.states.SpawnAt(rec.Handle, rec.State); err != nil {
			return nil, fmt.Errorf("%w: state: %w", ErrInvalidDocument, err)
		}
	}
	for i, tr := range doc.Transitions {
		if _, err := m.AddTransition(tr); err != nil {
			return nil, fmt.Errorf("%w: transition %d: %w", ErrInvalidDocument, i, err)
		}
	}
	if doc.Entry.IsSome() {
		if err := m.SetEntryState(doc.Entry); err != nil {
			return nil, fmt.Errorf("%w: entry: %w", ErrInvalidDocument, err)
		}
	}

	if err := m.graph.Validate(); err != nil {
		if errors.Is(err, ErrCycle) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		m.log.Warn().Err(err).Msg("document has dangling node inputs")
	}
	return m, nil
}

func Marshal(m *Machine) ([]byte, error) {
	return yaml.Marshal(m.Document())
}

func Unmarshal(data []byte, opts ...Option) (*Machine, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return FromDocument(doc, opts...)
}
