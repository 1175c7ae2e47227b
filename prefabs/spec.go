package prefabs

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/clip"
	"github.com/milk9111/animgraph/machine"
	"github.com/milk9111/animgraph/param"
	"github.com/milk9111/animgraph/pose"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// MachineSpec is an authored machine. Nodes, states and clips refer to each
// other by name; Build resolves the names into handles.
type MachineSpec struct {
	Name        string                 `yaml:"name"`
	Skeleton    []BoneSpec             `yaml:"skeleton"`
	Parameters  map[string]param.Value `yaml:"parameters"`
	Clips       []ClipSpec             `yaml:"clips"`
	Nodes       map[string]NodeSpec    `yaml:"nodes"`
	States      []StateSpec            `yaml:"states"`
	Entry       string                 `yaml:"entry"`
	Transitions []TransitionSpec       `yaml:"transitions"`
}

func LoadMachineSpec(filename string) (*MachineSpec, error) {
	spec, err := LoadSpec[MachineSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// BoneSpec describes the rest layout of one bone for drawing. Angle is in
// degrees from straight up, clockwise.
type BoneSpec struct {
	Name   string  `yaml:"name"`
	Parent string  `yaml:"parent"`
	Length float64 `yaml:"length"`
	Angle  float64 `yaml:"angle"`
}

type ClipSpec struct {
	Name     string      `yaml:"name"`
	Duration float32     `yaml:"duration"`
	Loop     bool        `yaml:"loop"`
	Tracks   []TrackSpec `yaml:"tracks"`
}

type TrackSpec struct {
	Bone string    `yaml:"bone"`
	Keys []KeySpec `yaml:"keys"`
}

// KeySpec is a keyframe with optional channels. Missing channels are
// identity. Rotation is (x, y, z, w). Angle is a rotation about Z in degrees
// and wins over Rotation.
type KeySpec struct {
	Time        float32     `yaml:"time"`
	Translation *mgl32.Vec3 `yaml:"translation"`
	Rotation    *[4]float32 `yaml:"rotation"`
	Angle       *float32    `yaml:"angle"`
	Scale       *mgl32.Vec3 `yaml:"scale"`
}

// Transform converts the key into a full transform.
func (k KeySpec) Transform() pose.Transform {
	tr := pose.IdentityTransform()
	if k.Translation != nil {
		tr.Translation = *k.Translation
	}
	if k.Rotation != nil {
		tr.Rotation = pose.QuatXYZW(*k.Rotation).Normalize()
	}
	if k.Angle != nil {
		tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(*k.Angle), mgl32.Vec3{0, 0, 1})
	}
	if k.Scale != nil {
		tr.Scale = *k.Scale
	}
	return tr
}

// Clip converts the spec into a runtime clip with keys sorted by time.
func (c ClipSpec) Clip() clip.Clip {
	out := clip.Clip{Name: c.Name, Duration: c.Duration, Loop: c.Loop}
	for _, ts := range c.Tracks {
		track := clip.Track{Bone: ts.Bone, Keys: make([]clip.Keyframe, 0, len(ts.Keys))}
		for _, k := range ts.Keys {
			track.Keys = append(track.Keys, clip.Keyframe{Time: k.Time, Transform: k.Transform()})
		}
		sort.SliceStable(track.Keys, func(i, j int) bool { return track.Keys[i].Time < track.Keys[j].Time })
		out.Tracks = append(out.Tracks, track)
	}
	return out
}

type NodeSpec struct {
	Kind           machine.Kind `yaml:"kind"`
	Position       cp.Vector    `yaml:"position"`
	Clip           string       `yaml:"clip"`
	Speed          *float32     `yaml:"speed"`
	IndexParameter string       `yaml:"index_parameter"`
	Inputs         []InputSpec  `yaml:"inputs"`
}

// InputSpec is one blend input. Param takes precedence over Weight.
type InputSpec struct {
	Node      string  `yaml:"node"`
	Param     string  `yaml:"param"`
	Weight    float32 `yaml:"weight"`
	BlendTime float32 `yaml:"blend_time"`
}

type StateSpec struct {
	Name     string    `yaml:"name"`
	Root     string    `yaml:"root"`
	Position cp.Vector `yaml:"position"`
}

// TransitionSpec names its condition one of three ways: ScriptFile (a
// .tengo expression under scripts/), Script (inline expression) or
// Condition. Without any the transition fires as soon as From is active.
type TransitionSpec struct {
	Name       string             `yaml:"name"`
	From       string             `yaml:"from"`
	To         string             `yaml:"to"`
	Duration   float32            `yaml:"duration"`
	Condition  *machine.Condition `yaml:"condition"`
	Script     string             `yaml:"script"`
	ScriptFile string             `yaml:"script_file"`
}

func (t TransitionSpec) condition() (machine.Condition, error) {
	switch {
	case t.ScriptFile != "":
		data, err := LoadScript(t.ScriptFile)
		if err != nil {
			return machine.Condition{}, fmt.Errorf("prefabs: load script %s: %w", t.ScriptFile, err)
		}
		return machine.Script(string(data)), nil
	case t.Script != "":
		return machine.Script(t.Script), nil
	case t.Condition != nil:
		return *t.Condition, nil
	}
	return machine.Always(), nil
}
