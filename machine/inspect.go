package machine

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Fields flattens the authored fields of a node, state or transition into a
// map keyed by field tag, for property panels and debug dumps.
func Fields(v any) (map[string]any, error) {
	if n, ok := v.(PoseNode); ok && isNilNode(n) {
		return nil, fmt.Errorf("machine: fields of nil %s", n.Kind())
	}
	out := map[string]any{}
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, fmt.Errorf("machine: fields: %w", err)
	}
	return out, nil
}

// SetFields writes fields into the value pointed to by v. Unknown keys are an
// error; numeric and boolean strings are converted. Lists such as inputs are
// replaced, not merged. Nodes already in a graph should go through
// Graph.SetNodeFields so their inputs stay valid.
func SetFields(v any, fields map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           v,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return fmt.Errorf("machine: set fields: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("machine: set fields: %w", err)
	}
	return nil
}

// SetNodeFields is SetFields for the node behind h. The edit is rejected and
// the node left untouched when it would give h a dangling input or close a
// cycle.
func (g *Graph) SetNodeFields(h NodeHandle, fields map[string]any) error {
	n, ok := g.Node(h)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDanglingNode, h)
	}
	edited := cloneNode(n)
	if err := SetFields(edited, fields); err != nil {
		return err
	}
	for _, c := range Children(edited) {
		if !g.nodes.IsValid(c) {
			return fmt.Errorf("%w: %s -> %s", ErrDanglingNode, h, c)
		}
		if g.reaches(c, h) {
			return fmt.Errorf("%w: %s -> %s", ErrCycle, h, c)
		}
	}
	return SetFields(n, fields)
}
