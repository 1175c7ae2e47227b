package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/animgraph/machine"
	"github.com/milk9111/animgraph/param"
	"github.com/milk9111/animgraph/pose"
	"github.com/milk9111/animgraph/prefabs"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// session is the gameplay side of the viewer: it owns the machine built from
// one definition and writes its parameters between ticks.
type session struct {
	name   string
	built  *prefabs.Built
	log    zerolog.Logger
	speed  float64
	paused bool
	last   *pose.Pose
	err    error
}

func newSession(name string, log zerolog.Logger) (*session, error) {
	s := &session{name: name, log: log}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload rebuilds the machine from disk. On failure the previous machine
// keeps running.
func (s *session) reload() error {
	built, err := prefabs.LoadMachine(s.name, machine.WithLogger(s.log))
	if err != nil {
		return err
	}
	s.built = built
	s.last = nil
	s.drive(s.speed)
	s.log.Info().
		Str("definition", s.name).
		Int("nodes", len(built.Nodes)).
		Int("states", len(built.States)).
		Msg("machine loaded")
	return nil
}

func (s *session) current() *machine.Machine { return s.built.Machine }

// drive sets the locomotion parameters from a speed in [0, 1].
func (s *session) drive(speed float64) {
	s.speed = cp.Clamp01(speed)
	params := s.current().Params()
	params.Set("speed", param.Number(float32(s.speed)))
	params.Set("walk", param.Number(float32(1-s.speed)))
	params.Set("run", param.Number(float32(s.speed)))
}

func (s *session) set(name string, v bool) {
	s.current().Params().Set(name, param.Boolean(v))
}

func (s *session) toggle(name string) {
	v, _ := s.current().Params().Get(name)
	s.set(name, !v.Truthy())
}

// cycleIndex advances an index parameter, wrapping at the number of inputs
// of the widest node that reads it.
func (s *session) cycleIndex(name string) {
	g := s.current().Graph()
	count := 0
	for _, h := range g.Handles() {
		n, _ := g.Node(h)
		if b, ok := n.(*machine.BlendAnimationsByIndex); ok && b.IndexParameter == name && len(b.Inputs) > count {
			count = len(b.Inputs)
		}
	}
	if count == 0 {
		return
	}
	v, _ := s.current().Params().Get(name)
	s.current().Params().Set(name, param.Index(uint32((v.AsIndex()+1)%count)))
}

func (s *session) step(dt float32) *pose.Pose {
	if s.paused && s.last != nil {
		return s.last
	}
	p, err := s.current().Evaluate(s.built.Clips, dt)
	s.err = err
	if err != nil {
		s.log.Debug().Err(err).Msg("tick")
	}
	for _, evt := range s.current().Events() {
		s.log.Info().
			Str("event", string(evt.Kind)).
			Str("transition", evt.Name).
			Str("from", s.stateName(evt.From)).
			Str("to", s.stateName(evt.To)).
			Msg("machine event")
	}
	s.last = p
	return p
}

func (s *session) stateName(h machine.StateHandle) string {
	if st, ok := s.current().State(h); ok {
		return st.Name
	}
	return h.String()
}

// poseYAML renders the last output pose.
func (s *session) poseYAML() ([]byte, error) {
	if s.last == nil {
		return nil, fmt.Errorf("animviewer: no pose yet")
	}
	return yaml.Marshal(s.last)
}

// save writes the machine document next to dir and returns the file path.
func (s *session) save(dir string) (string, error) {
	data, err := machine.Marshal(s.current())
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(s.name), filepath.Ext(s.name))
	path := filepath.Join(dir, base+".machine.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *session) status() string {
	m := s.current()
	var b strings.Builder
	fmt.Fprintf(&b, "%s  state: %s  (%s)\n", s.name, s.stateName(m.ActiveState()), m.Status())
	if i, ok := m.ActiveTransition(); ok {
		tr, _ := m.Transition(i)
		fmt.Fprintf(&b, "transition %q %.0f%%\n", tr.Name, tr.Progress()*100)
	}
	params := m.Params()
	for _, name := range params.Names() {
		v, _ := params.Get(name)
		fmt.Fprintf(&b, "  %s = %s\n", name, v)
	}
	if s.paused {
		b.WriteString("paused\n")
	}
	if s.err != nil {
		fmt.Fprintf(&b, "error: %v\n", s.err)
	}
	return b.String()
}
