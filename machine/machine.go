package machine

import (
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/animgraph/param"
	"github.com/milk9111/animgraph/pool"
	"github.com/milk9111/animgraph/pose"
	"github.com/rs/zerolog"
)

// Status is the lifecycle phase of a Machine.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusTransitioning Status = "transitioning"
)

// Machine owns a pose graph, the states rooted in it and the transitions
// between them. While a transition runs, further transitions are not
// considered and explicit starts are rejected.
type Machine struct {
	graph       *Graph
	params      *param.Table
	states      pool.Pool[State]
	transitions []Transition

	entry  StateHandle
	active StateHandle
	// index into transitions, -1 when idle
	current int
	// set when a transition started after the last tick's blend
	fresh bool

	final  pose.Pose
	events EventQueue
	log    zerolog.Logger
}

type Option func(*Machine)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

func WithMaxDepth(n int) Option {
	return func(m *Machine) { m.graph.SetMaxDepth(n) }
}

// WithParams shares an existing parameter table with the machine.
func WithParams(t *param.Table) Option {
	return func(m *Machine) {
		if t != nil {
			m.params = t
		}
	}
}

func New(opts ...Option) *Machine {
	m := &Machine{
		graph:   NewGraph(),
		params:  param.NewTable(),
		current: -1,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Graph() *Graph { return m.graph }

func (m *Machine) Params() *param.Table { return m.params }

// Pose returns the output of the last Evaluate.
func (m *Machine) Pose() *pose.Pose { return &m.final }

// Events drains the queued lifecycle events.
func (m *Machine) Events() []Event { return m.events.Drain() }

func (m *Machine) Status() Status {
	if m.current >= 0 {
		return StatusTransitioning
	}
	return StatusIdle
}

func (m *Machine) ActiveState() StateHandle { return m.active }

func (m *Machine) EntryState() StateHandle { return m.entry }

// ActiveTransition returns the index of the running transition.
func (m *Machine) ActiveTransition() (int, bool) {
	return m.current, m.current >= 0
}

func (m *Machine) AddState(s State) StateHandle {
	return m.states.Spawn(s)
}

func (m *Machine) State(h StateHandle) (*State, bool) {
	return m.states.Borrow(h)
}

func (m *Machine) States() []StateHandle { return m.states.Handles() }

// FindState returns the first state named name in handle order.
func (m *Machine) FindState(name string) (StateHandle, bool) {
	for _, h := range m.states.Handles() {
		if s, _ := m.states.Borrow(h); s.Name == name {
			return h, true
		}
	}
	return StateHandle{}, false
}

// RemoveState drops h and every transition that starts or ends at it.
func (m *Machine) RemoveState(h StateHandle) bool {
	if _, ok := m.states.Free(h); !ok {
		return false
	}
	for i := len(m.transitions) - 1; i >= 0; i-- {
		tr := &m.transitions[i]
		if tr.Source == h || tr.Dest == h {
			m.removeTransitionAt(i)
		}
	}
	if m.entry == h {
		m.entry = StateHandle{}
	}
	if m.active == h {
		m.active = StateHandle{}
	}
	return true
}

// SetEntryState marks h as the state activated on the first tick and after
// Reset. An idle machine without an active state activates it now.
func (m *Machine) SetEntryState(h StateHandle) error {
	if !m.states.IsValid(h) {
		return fmt.Errorf("%w: %s", ErrDanglingState, h)
	}
	m.entry = h
	if !m.states.IsValid(m.active) {
		m.active = h
	}
	return nil
}

// AddTransition appends tr to the ordered transition list. Earlier
// transitions win when several conditions hold on the same tick.
func (m *Machine) AddTransition(tr Transition) (int, error) {
	if !m.states.IsValid(tr.Source) {
		return -1, fmt.Errorf("%w: source %s", ErrDanglingState, tr.Source)
	}
	if !m.states.IsValid(tr.Dest) {
		return -1, fmt.Errorf("%w: dest %s", ErrDanglingState, tr.Dest)
	}
	if d := float64(tr.Duration); math.IsNaN(d) || math.IsInf(d, 0) {
		return -1, fmt.Errorf("%w: duration %v", ErrInvalidTransition, tr.Duration)
	}
	if err := tr.Condition.Compile(); err != nil {
		return -1, err
	}
	tr.Elapsed = 0
	m.transitions = append(m.transitions, tr)
	return len(m.transitions) - 1, nil
}

func (m *Machine) RemoveTransition(i int) bool {
	if i < 0 || i >= len(m.transitions) {
		return false
	}
	m.removeTransitionAt(i)
	return true
}

func (m *Machine) removeTransitionAt(i int) {
	m.transitions = append(m.transitions[:i], m.transitions[i+1:]...)
	switch {
	case m.current == i:
		m.current = -1
		m.fresh = false
	case m.current > i:
		m.current--
	}
}

// Transition returns a pointer into the transition list. It is invalidated
// by AddTransition and RemoveTransition.
func (m *Machine) Transition(i int) (*Transition, bool) {
	if i < 0 || i >= len(m.transitions) {
		return nil, false
	}
	return &m.transitions[i], true
}

// Transitions returns a copy of the transition list.
func (m *Machine) Transitions() []Transition {
	return append([]Transition(nil), m.transitions...)
}

// StartTransition begins transition i regardless of its condition. It is
// rejected while another transition runs or when i does not leave the
// active state.
func (m *Machine) StartTransition(i int) error {
	err := m.canStart(i)
	if err != nil {
		evt := Event{Kind: EventTransitionRejected, Transition: i, Err: err}
		if i >= 0 && i < len(m.transitions) {
			evt.Name = m.transitions[i].Name
			evt.From, evt.To = m.transitions[i].Source, m.transitions[i].Dest
		}
		m.events.Push(evt)
		m.log.Debug().Err(err).Int("transition", i).Msg("transition rejected")
		return err
	}
	m.start(i)
	return nil
}

func (m *Machine) canStart(i int) error {
	if m.current >= 0 {
		return fmt.Errorf("%w: %d is running", ErrTransitionActive, m.current)
	}
	if i < 0 || i >= len(m.transitions) {
		return fmt.Errorf("%w: no transition %d", ErrInvalidTransition, i)
	}
	tr := &m.transitions[i]
	if !m.states.IsValid(tr.Source) || !m.states.IsValid(tr.Dest) {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, ErrDanglingState)
	}
	if !m.states.IsValid(m.active) {
		m.active = m.entry
	}
	if tr.Source != m.active {
		return fmt.Errorf("%w: source %s is not active (%s)", ErrInvalidTransition, tr.Source, m.active)
	}
	return nil
}

func (m *Machine) start(i int) {
	tr := &m.transitions[i]
	tr.Elapsed = 0
	m.current = i
	m.fresh = true
	m.events.Push(Event{Kind: EventTransitionStarted, Transition: i, Name: tr.Name, From: tr.Source, To: tr.Dest})
	m.log.Debug().Int("transition", i).Str("name", tr.Name).Msg("transition started")
}

// Reset clears any running transition and reactivates the entry state.
// Queued events are dropped.
func (m *Machine) Reset() {
	m.current = -1
	m.fresh = false
	for i := range m.transitions {
		m.transitions[i].Elapsed = 0
	}
	m.active = m.entry
	m.final.Reset()
	m.events.flush()
}

// Evaluate advances the machine by dt and returns the final pose. Problems
// such as dangling handles or failing scripts do not stop the tick; they are
// joined into the returned error.
func (m *Machine) Evaluate(anims AnimationSource, dt float32) (*pose.Pose, error) {
	m.graph.BeginTick()
	var errs []error

	if !m.states.IsValid(m.active) {
		if m.active.IsSome() {
			errs = append(errs, fmt.Errorf("%w: active %s", ErrDanglingState, m.active))
		}
		m.active = m.entry
	}
	if !m.states.IsValid(m.active) {
		m.final.Reset()
		return &m.final, m.report(errs)
	}

	if m.current < 0 {
		if i, ok := m.selectTransition(&errs); ok {
			m.start(i)
		}
	}

	if m.current >= 0 {
		m.blendTransition(anims, dt, &errs)
		return &m.final, m.report(errs)
	}

	s, _ := m.states.Borrow(m.active)
	if err := s.Update(m.graph, m.params, anims, dt); err != nil {
		errs = append(errs, err)
	}
	if p, ok := s.Pose(m.graph); ok {
		m.final.CopyFrom(p)
	} else {
		m.final.Reset()
	}
	return &m.final, m.report(errs)
}

func (m *Machine) selectTransition(errs *[]error) (int, bool) {
	for i := range m.transitions {
		tr := &m.transitions[i]
		if tr.Source != m.active {
			continue
		}
		ok, err := tr.Condition.Evaluate(m.params)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("transition %d: %w", i, err))
			continue
		}
		if !ok {
			continue
		}
		if !m.states.IsValid(tr.Dest) {
			*errs = append(*errs, fmt.Errorf("transition %d: %w: dest %s", i, ErrDanglingState, tr.Dest))
			continue
		}
		return i, true
	}
	return -1, false
}

func (m *Machine) blendTransition(anims AnimationSource, dt float32, errs *[]error) {
	i := m.current
	tr := &m.transitions[i]
	if m.fresh {
		m.fresh = false
	} else {
		tr.Elapsed += dt
	}

	src, srcOK := m.states.Borrow(tr.Source)
	dst, dstOK := m.states.Borrow(tr.Dest)
	if !srcOK || !dstOK {
		*errs = append(*errs, fmt.Errorf("transition %d: %w", i, ErrDanglingState))
		m.current = -1
		m.final.Reset()
		return
	}

	if err := src.Update(m.graph, m.params, anims, dt); err != nil {
		*errs = append(*errs, err)
	}
	if err := dst.Update(m.graph, m.params, anims, dt); err != nil {
		*errs = append(*errs, err)
	}

	from, ok := src.Pose(m.graph)
	if !ok {
		from = &m.graph.neutral
	}
	to, ok := dst.Pose(m.graph)
	if !ok {
		to = &m.graph.neutral
	}
	pose.Blend(&m.final, from, to, tr.Progress())

	if tr.Complete() {
		m.active = tr.Dest
		m.current = -1
		m.events.Push(Event{Kind: EventTransitionCompleted, Transition: i, Name: tr.Name, From: tr.Source, To: tr.Dest})
		m.log.Debug().Int("transition", i).Str("name", tr.Name).Msg("transition completed")
	}
}

func (m *Machine) report(errs []error) error {
	err := errors.Join(errs...)
	if err != nil {
		m.log.Debug().Err(err).Msg("evaluate")
	}
	return err
}
