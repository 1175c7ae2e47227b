package clip

import (
	"github.com/milk9111/animgraph/pool"
	"github.com/milk9111/animgraph/pose"
)

// Handle addresses a clip in a Store.
type Handle = pool.Handle[Clip]

// Store holds clips by handle and by name.
type Store struct {
	clips pool.Pool[Clip]
	names map[string]Handle
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{names: make(map[string]Handle)}
}

// Add registers c. A clip with the same name replaces the name binding but
// the older handle keeps resolving until it is removed.
func (s *Store) Add(c Clip) Handle {
	h := s.clips.Spawn(c)
	if c.Name != "" {
		s.names[c.Name] = h
	}
	return h
}

// Remove drops the clip behind h.
func (s *Store) Remove(h Handle) bool {
	c, ok := s.clips.Free(h)
	if !ok {
		return false
	}
	if cur, ok := s.names[c.Name]; ok && cur == h {
		delete(s.names, c.Name)
	}
	return true
}

// Get returns the clip behind h.
func (s *Store) Get(h Handle) (*Clip, bool) {
	if s == nil {
		return nil, false
	}
	return s.clips.Borrow(h)
}

// Lookup returns the handle registered under name.
func (s *Store) Lookup(name string) (Handle, bool) {
	if s == nil || name == "" {
		return Handle{}, false
	}
	h, ok := s.names[name]
	return h, ok
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.clips.Len()
}

// Sample writes the pose of clip h at playback time t into out. It fails
// only when h does not resolve.
func (s *Store) Sample(h Handle, t float32, out *pose.Pose) bool {
	c, ok := s.Get(h)
	if !ok {
		return false
	}
	c.Sample(t, out)
	return true
}
