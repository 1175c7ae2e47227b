// Package clip is the animation store: keyframed clips addressed by
// generational handles and sampled at an arbitrary local time.
package clip

import (
	"math"
	"sort"

	"github.com/milk9111/animgraph/pose"
)

// Keyframe is a full bone-local transform at a point in time.
type Keyframe struct {
	Time      float32        `yaml:"time"`
	Transform pose.Transform `yaml:"transform"`
}

// Track animates a single bone. Keys must be sorted by time.
type Track struct {
	Bone string     `yaml:"bone"`
	Keys []Keyframe `yaml:"keys"`
}

// Clip is one animation (idle, walk, ...). The clip owns its time policy:
// looping clips wrap, others clamp to the last key.
type Clip struct {
	Name     string  `yaml:"name"`
	Duration float32 `yaml:"duration"`
	Loop     bool    `yaml:"loop"`
	Tracks   []Track `yaml:"tracks"`
}

// LocalTime maps an unbounded playback time onto the clip timeline.
func (c *Clip) LocalTime(t float32) float32 {
	if c.Duration <= 0 {
		return 0
	}
	if c.Loop {
		t = float32(math.Mod(float64(t), float64(c.Duration)))
		if t < 0 {
			t += c.Duration
		}
		return t
	}
	if t < 0 {
		return 0
	}
	if t > c.Duration {
		return c.Duration
	}
	return t
}

// Sample writes the pose at playback time t into out.
func (c *Clip) Sample(t float32, out *pose.Pose) {
	out.Reset()
	lt := c.LocalTime(t)
	for i := range c.Tracks {
		tr := &c.Tracks[i]
		if len(tr.Keys) == 0 {
			continue
		}
		out.Set(tr.Bone, tr.sample(lt))
	}
}

func (tr *Track) sample(t float32) pose.Transform {
	keys := tr.Keys
	// first key strictly after t
	next := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	switch {
	case next == 0:
		return keys[0].Transform
	case next == len(keys):
		return keys[len(keys)-1].Transform
	}
	a, b := keys[next-1], keys[next]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Transform
	}
	return a.Transform.Interpolate(b.Transform, (t-a.Time)/span)
}
