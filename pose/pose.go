// Package pose holds the per-bone local transforms produced by the pose graph
// and the numeric blending rules shared by every blend site.
package pose

// BonePose pairs a bone name with its local transform.
type BonePose struct {
	Bone      string    `yaml:"bone"`
	Transform Transform `yaml:"transform"`
}

// Pose is an ordered set of bone-local transforms. The empty pose is the
// neutral pose: bones without an entry keep their bind transform.
type Pose struct {
	bones []BonePose
	index map[string]int
}

func New() *Pose {
	return &Pose{}
}

// Set inserts or replaces the transform for bone, keeping first-insertion order.
func (p *Pose) Set(bone string, tr Transform) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if i, ok := p.index[bone]; ok {
		p.bones[i].Transform = tr
		return
	}
	p.index[bone] = len(p.bones)
	p.bones = append(p.bones, BonePose{Bone: bone, Transform: tr})
}

func (p *Pose) Get(bone string) (Transform, bool) {
	if p == nil {
		return Transform{}, false
	}
	i, ok := p.index[bone]
	if !ok {
		return Transform{}, false
	}
	return p.bones[i].Transform, true
}

func (p *Pose) Len() int {
	if p == nil {
		return 0
	}
	return len(p.bones)
}

// Bones returns the bone list in order. The slice must not be modified.
func (p *Pose) Bones() []BonePose {
	if p == nil {
		return nil
	}
	return p.bones
}

func (p *Pose) IsNeutral() bool {
	return p.Len() == 0
}

// Reset empties the pose without releasing its storage.
func (p *Pose) Reset() {
	p.bones = p.bones[:0]
	for k := range p.index {
		delete(p.index, k)
	}
}

func (p *Pose) CopyFrom(src *Pose) {
	if p == src {
		return
	}
	p.Reset()
	for _, b := range src.Bones() {
		p.Set(b.Bone, b.Transform)
	}
}

func (p *Pose) Clone() *Pose {
	out := New()
	out.CopyFrom(p)
	return out
}

// ApproxEqual reports whether both poses carry the same bones in the same
// order with transforms equal within eps.
func (p *Pose) ApproxEqual(o *Pose, eps float32) bool {
	if p.Len() != o.Len() {
		return false
	}
	ob := o.Bones()
	for i, b := range p.Bones() {
		if b.Bone != ob[i].Bone || !b.Transform.ApproxEqual(ob[i].Transform, eps) {
			return false
		}
	}
	return true
}

// MarshalYAML writes the pose as its ordered bone list.
func (p *Pose) MarshalYAML() (any, error) {
	return p.Bones(), nil
}
