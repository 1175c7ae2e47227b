package machine

import (
	"fmt"

	"github.com/milk9111/animgraph/clip"
)

// PlayAnimation samples one clip. Time accumulates dt*Speed every tick; the
// clip decides whether that wraps or clamps.
type PlayAnimation struct {
	Base      `yaml:",inline" mapstructure:",squash"`
	Animation clip.Handle `yaml:"animation" mapstructure:"animation"`
	Speed     float32     `yaml:"speed" mapstructure:"speed"`
	Time      float32     `yaml:"time" mapstructure:"time"`

	cache cache
}

func NewPlayAnimation(animation clip.Handle, speed float32) *PlayAnimation {
	return &PlayAnimation{Animation: animation, Speed: speed}
}

func (n *PlayAnimation) Equal(o *PlayAnimation) bool {
	return o != nil && n.Base == o.Base && n.Animation == o.Animation && n.Speed == o.Speed && n.Time == o.Time
}

func (n *PlayAnimation) evaluate(ec *evalContext) {
	n.Time += ec.dt * n.Speed
	if ec.anims != nil && ec.anims.Sample(n.Animation, n.Time, &n.cache.pose) {
		return
	}
	n.cache.pose.Reset()
	ec.fail(fmt.Errorf("%w: %s", ErrDanglingClip, n.Animation))
}
