package pool

import "strconv"

// Handle addresses a value in a Pool. The generation changes every time a
// slot is reused, so a handle to a freed value never resolves to a newer one.
type Handle[T any] struct {
	Index      uint32 `yaml:"index" mapstructure:"index"`
	Generation uint32 `yaml:"generation" mapstructure:"generation"`
}

// None returns the handle that never resolves.
func None[T any]() Handle[T] {
	return Handle[T]{}
}

func (h Handle[T]) IsNone() bool {
	return h.Generation == 0
}

func (h Handle[T]) IsSome() bool {
	return h.Generation != 0
}

func (h Handle[T]) String() string {
	if h.IsNone() {
		return "none"
	}
	return strconv.FormatUint(uint64(h.Index), 10) + ":" + strconv.FormatUint(uint64(h.Generation), 10)
}
