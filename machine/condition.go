package machine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/animgraph/param"
)

// Op names a condition operator.
type Op string

const (
	OpAlways       Op = "always"
	OpTrue         Op = "true"
	OpFalse        Op = "false"
	OpGreater      Op = "gt"
	OpGreaterEqual Op = "ge"
	OpLess         Op = "lt"
	OpLessEqual    Op = "le"
	OpEqual        Op = "eq"
	OpNotEqual     Op = "ne"
	OpAll          Op = "all"
	OpAny          Op = "any"
	OpNot          Op = "not"
	OpScript       Op = "script"
)

// Condition gates a transition. Leaf ops read a single parameter; missing
// parameters make them false. all/any/not combine Conditions and script
// runs a tengo expression with the parameters bound to p. A script that names
// a missing parameter is false without running.
type Condition struct {
	Op         Op          `yaml:"op" mapstructure:"op"`
	Param      string      `yaml:"param,omitempty" mapstructure:"param"`
	Value      float32     `yaml:"value,omitempty" mapstructure:"value"`
	Script     string      `yaml:"script,omitempty" mapstructure:"script"`
	Conditions []Condition `yaml:"conditions,omitempty" mapstructure:"conditions"`

	compiled *tengo.Compiled
	reads    []string
}

func Always() Condition                        { return Condition{Op: OpAlways} }
func IsTrue(name string) Condition             { return Condition{Op: OpTrue, Param: name} }
func IsFalse(name string) Condition            { return Condition{Op: OpFalse, Param: name} }
func Greater(name string, v float32) Condition { return Condition{Op: OpGreater, Param: name, Value: v} }
func Less(name string, v float32) Condition    { return Condition{Op: OpLess, Param: name, Value: v} }
func Equals(name string, v float32) Condition  { return Condition{Op: OpEqual, Param: name, Value: v} }
func All(cs ...Condition) Condition            { return Condition{Op: OpAll, Conditions: cs} }
func Any(cs ...Condition) Condition            { return Condition{Op: OpAny, Conditions: cs} }
func Not(c Condition) Condition                { return Condition{Op: OpNot, Conditions: []Condition{c}} }
func Script(expr string) Condition             { return Condition{Op: OpScript, Script: expr} }

var comparisons = map[Op]func(v, ref float32) bool{
	OpGreater:      func(v, ref float32) bool { return v > ref },
	OpGreaterEqual: func(v, ref float32) bool { return v >= ref },
	OpLess:         func(v, ref float32) bool { return v < ref },
	OpLessEqual:    func(v, ref float32) bool { return v <= ref },
	OpEqual:        func(v, ref float32) bool { return v == ref },
	OpNotEqual:     func(v, ref float32) bool { return v != ref },
}

// Compile checks the condition tree and compiles any scripts. It is called by
// Machine.AddTransition; Evaluate compiles lazily otherwise.
func (c *Condition) Compile() error {
	switch c.Op {
	case OpAlways:
		return nil
	case OpTrue, OpFalse:
		if c.Param == "" {
			return fmt.Errorf("%w: %s needs a param", ErrInvalidCondition, c.Op)
		}
		return nil
	case OpNot:
		if len(c.Conditions) != 1 {
			return fmt.Errorf("%w: not takes exactly one condition, got %d", ErrInvalidCondition, len(c.Conditions))
		}
		return c.Conditions[0].Compile()
	case OpAll, OpAny:
		for i := range c.Conditions {
			if err := c.Conditions[i].Compile(); err != nil {
				return err
			}
		}
		return nil
	case OpScript:
		if c.compiled != nil {
			return nil
		}
		compiled, err := compileScript(c.Script)
		if err != nil {
			return fmt.Errorf("%w: script %q: %w", ErrInvalidCondition, c.Script, err)
		}
		c.compiled = compiled
		c.reads = scriptReads(c.Script)
		return nil
	}
	if _, ok := comparisons[c.Op]; ok {
		if c.Param == "" {
			return fmt.Errorf("%w: %s needs a param", ErrInvalidCondition, c.Op)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidCondition, c.Op)
}

// Evaluate reports whether the condition holds for params. A failing script
// or malformed condition reports false with an error.
func (c *Condition) Evaluate(params *param.Table) (bool, error) {
	switch c.Op {
	case OpAlways:
		return true, nil
	case OpTrue:
		v, ok := params.Get(c.Param)
		return ok && v.Truthy(), nil
	case OpFalse:
		v, ok := params.Get(c.Param)
		return ok && !v.Truthy(), nil
	case OpAll:
		for i := range c.Conditions {
			ok, err := c.Conditions[i].Evaluate(params)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpAny:
		for i := range c.Conditions {
			ok, err := c.Conditions[i].Evaluate(params)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		if len(c.Conditions) != 1 {
			return false, fmt.Errorf("%w: not takes exactly one condition", ErrInvalidCondition)
		}
		ok, err := c.Conditions[0].Evaluate(params)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case OpScript:
		return c.runScript(params)
	}

	cmp, ok := comparisons[c.Op]
	if !ok {
		return false, fmt.Errorf("%w: unknown op %q", ErrInvalidCondition, c.Op)
	}
	v, ok := params.Get(c.Param)
	if !ok {
		return false, nil
	}
	return cmp(v.AsNumber(), c.Value), nil
}

// Equal compares the authored fields.
func (c Condition) Equal(o Condition) bool {
	if c.Op != o.Op || c.Param != o.Param || c.Value != o.Value || c.Script != o.Script ||
		len(c.Conditions) != len(o.Conditions) {
		return false
	}
	for i := range c.Conditions {
		if !c.Conditions[i].Equal(o.Conditions[i]) {
			return false
		}
	}
	return true
}

const (
	scriptParams = "p"
	scriptResult = "__result"
)

// scriptRef matches p.name and p["name"] unless p is itself a selector.
var scriptRef = regexp.MustCompile(`(?:^|[^\w.])p\s*(?:\.\s*([A-Za-z_]\w*)|\[\s*"([^"\\]*)"\s*\])`)

// scriptReads lists the parameters an expression reads by literal name.
func scriptReads(expr string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range scriptRef.FindAllStringSubmatch(expr, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func compileScript(expr string) (*tengo.Compiled, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	script := tengo.NewScript([]byte(scriptResult + " := (" + expr + ")"))
	_ = script.Add(scriptParams, map[string]any{})
	script.SetImports(stdlib.GetModuleMap("math"))
	return script.Compile()
}

func (c *Condition) runScript(params *param.Table) (bool, error) {
	if c.compiled == nil {
		if err := c.Compile(); err != nil {
			return false, err
		}
	}
	for _, name := range c.reads {
		if _, ok := params.Get(name); !ok {
			return false, nil
		}
	}
	if err := c.compiled.Set(scriptParams, scriptParamMap(params)); err != nil {
		return false, err
	}
	if err := c.compiled.Run(); err != nil {
		return false, fmt.Errorf("%w: script %q: %w", ErrInvalidCondition, c.Script, err)
	}
	return c.compiled.Get(scriptResult).Bool(), nil
}

func scriptParamMap(params *param.Table) *tengo.ImmutableMap {
	values := make(map[string]tengo.Object, params.Len())
	for name, v := range params.Snapshot() {
		switch v.Kind {
		case param.KindNumber:
			values[name] = &tengo.Float{Value: float64(v.Number)}
		case param.KindBoolean:
			if v.Boolean {
				values[name] = tengo.TrueValue
			} else {
				values[name] = tengo.FalseValue
			}
		case param.KindIndex:
			values[name] = &tengo.Int{Value: int64(v.Index)}
		}
	}
	return &tengo.ImmutableMap{Value: values}
}
