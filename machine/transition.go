package machine

// Transition cross-fades from Source to Dest over Duration seconds once its
// condition holds.
type Transition struct {
	Name      string      `yaml:"name,omitempty" mapstructure:"name"`
	Source    StateHandle `yaml:"source" mapstructure:"source"`
	Dest      StateHandle `yaml:"dest" mapstructure:"dest"`
	Duration  float32     `yaml:"duration" mapstructure:"duration"`
	Condition Condition   `yaml:"condition" mapstructure:"condition"`
	Elapsed   float32     `yaml:"-" mapstructure:"elapsed"`
}

// Progress is the blend factor towards Dest in [0, 1]. A duration that is
// not positive, NaN included, finishes at once.
func (t *Transition) Progress() float32 {
	if !(t.Duration > 0) {
		return 1
	}
	p := t.Elapsed / t.Duration
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func (t *Transition) Complete() bool {
	return !(t.Elapsed < t.Duration)
}

// Equal compares the authored fields. Elapsed is runtime state and ignored.
func (t Transition) Equal(o Transition) bool {
	return t.Name == o.Name && t.Source == o.Source && t.Dest == o.Dest &&
		t.Duration == o.Duration && t.Condition.Equal(o.Condition)
}
