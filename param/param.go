// Package param holds the named values gameplay code writes between ticks
// and the pose graph and transition conditions read.
package param

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

var ErrInvalidValue = errors.New("param: invalid value")

// Kind tags a Value.
type Kind string

const (
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindIndex   Kind = "index"
)

// Value is a tagged parameter value. Only the field matching Kind is meaningful.
type Value struct {
	Kind    Kind
	Number  float32
	Boolean bool
	Index   uint32
}

func Number(v float32) Value { return Value{Kind: KindNumber, Number: v} }
func Boolean(v bool) Value   { return Value{Kind: KindBoolean, Boolean: v} }
func Index(v uint32) Value   { return Value{Kind: KindIndex, Index: v} }

// AsNumber converts any kind to a float: booleans become 0 or 1.
func (v Value) AsNumber() float32 {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBoolean:
		if v.Boolean {
			return 1
		}
		return 0
	case KindIndex:
		return float32(v.Index)
	}
	return 0
}

// AsIndex converts any kind to an index. Numbers are floored and negative or
// NaN numbers become 0.
func (v Value) AsIndex() int {
	switch v.Kind {
	case KindIndex:
		return int(v.Index)
	case KindBoolean:
		if v.Boolean {
			return 1
		}
		return 0
	case KindNumber:
		n := math.Floor(float64(v.Number))
		if math.IsNaN(n) || n < 0 {
			return 0
		}
		if n > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(n)
	}
	return 0
}

func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBoolean:
		return v.Boolean
	case KindNumber:
		return v.Number != 0
	case KindIndex:
		return v.Index != 0
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	case KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case KindIndex:
		return fmt.Sprintf("#%d", v.Index)
	}
	return "invalid"
}

type valueSpec struct {
	Number  *float32 `yaml:"number,omitempty"`
	Boolean *bool    `yaml:"boolean,omitempty"`
	Index   *uint32  `yaml:"index,omitempty"`
}

// MarshalYAML writes a single-key mapping such as {number: 0.5}.
func (v Value) MarshalYAML() (any, error) {
	switch v.Kind {
	case KindNumber:
		return valueSpec{Number: &v.Number}, nil
	case KindBoolean:
		return valueSpec{Boolean: &v.Boolean}, nil
	case KindIndex:
		return valueSpec{Index: &v.Index}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrInvalidValue, v.Kind)
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var spec valueSpec
	if err := node.Decode(&spec); err != nil {
		return err
	}
	set := 0
	if spec.Number != nil {
		*v = Number(*spec.Number)
		set++
	}
	if spec.Boolean != nil {
		*v = Boolean(*spec.Boolean)
		set++
	}
	if spec.Index != nil {
		*v = Index(*spec.Index)
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: line %d: expected exactly one of number, boolean, index", ErrInvalidValue, node.Line)
	}
	return nil
}

// Table maps parameter names to values.
type Table struct {
	values map[string]Value
}

func NewTable() *Table {
	return &Table{values: make(map[string]Value)}
}

func (t *Table) Get(name string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.values[name]
	return v, ok
}

func (t *Table) Set(name string, v Value) {
	if t.values == nil {
		t.values = make(map[string]Value)
	}
	t.values[name] = v
}

func (t *Table) Remove(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.values[name]
	delete(t.values, name)
	return ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.values)
}

// Names returns the parameter names sorted.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.values))
	for k := range t.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Weight reads name as a blend weight: absent, negative or NaN values are 0.
func (t *Table) Weight(name string) float32 {
	v, ok := t.Get(name)
	if !ok {
		return 0
	}
	w := v.AsNumber()
	if w != w || w < 0 {
		return 0
	}
	return w
}

// Snapshot copies the current values.
func (t *Table) Snapshot() map[string]Value {
	out := make(map[string]Value, t.Len())
	if t == nil {
		return out
	}
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
