package pool

import (
	"errors"
	"fmt"
)

var (
	ErrSlotOccupied      = errors.New("pool: slot occupied")
	ErrInvalidGeneration = errors.New("pool: invalid generation")
)

type record[T any] struct {
	gen   uint32
	alive bool
	value T
}

// Pool is a generational arena. Freed slots are kept on a free list and
// reused with a bumped generation.
type Pool[T any] struct {
	records []record[T]
	free    []uint32
	alive   int
}

// Spawn stores v and returns its handle.
func (p *Pool[T]) Spawn(v T) Handle[T] {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		rec := &p.records[idx]
		rec.gen++
		rec.alive = true
		rec.value = v
		p.alive++
		return Handle[T]{Index: idx, Generation: rec.gen}
	}
	idx := uint32(len(p.records))
	p.records = append(p.records, record[T]{gen: 1, alive: true, value: v})
	p.alive++
	return Handle[T]{Index: idx, Generation: 1}
}

// SpawnAt stores v at exactly h. Used when restoring persisted data so that
// handles stored elsewhere keep resolving.
func (p *Pool[T]) SpawnAt(h Handle[T], v T) error {
	if h.IsNone() {
		return fmt.Errorf("%w: %s", ErrInvalidGeneration, h)
	}
	for uint32(len(p.records)) <= h.Index {
		p.free = append(p.free, uint32(len(p.records)))
		p.records = append(p.records, record[T]{})
	}
	rec := &p.records[h.Index]
	if rec.alive {
		return fmt.Errorf("%w: %s", ErrSlotOccupied, h)
	}
	p.removeFree(h.Index)
	rec.gen = h.Generation
	rec.alive = true
	rec.value = v
	p.alive++
	return nil
}

func (p *Pool[T]) removeFree(idx uint32) {
	for i, f := range p.free {
		if f == idx {
			p.free = append(p.free[:i], p.free[i+1:]...)
			return
		}
	}
}

// Free removes the value behind h and returns it.
func (p *Pool[T]) Free(h Handle[T]) (T, bool) {
	var zero T
	if !p.IsValid(h) {
		return zero, false
	}
	rec := &p.records[h.Index]
	v := rec.value
	rec.value = zero
	rec.alive = false
	p.free = append(p.free, h.Index)
	p.alive--
	return v, true
}

// IsValid reports whether h resolves to a live value.
func (p *Pool[T]) IsValid(h Handle[T]) bool {
	if p == nil || h.IsNone() || int(h.Index) >= len(p.records) {
		return false
	}
	rec := &p.records[h.Index]
	return rec.alive && rec.gen == h.Generation
}

// Borrow returns a pointer to the value behind h. The pointer is only valid
// until the next Spawn or SpawnAt.
func (p *Pool[T]) Borrow(h Handle[T]) (*T, bool) {
	if !p.IsValid(h) {
		return nil, false
	}
	return &p.records[h.Index].value, true
}

// Len returns the number of live values.
func (p *Pool[T]) Len() int {
	if p == nil {
		return 0
	}
	return p.alive
}

// Handles returns the live handles in index order.
func (p *Pool[T]) Handles() []Handle[T] {
	if p == nil {
		return nil
	}
	out := make([]Handle[T], 0, p.alive)
	for i := range p.records {
		if p.records[i].alive {
			out = append(out, Handle[T]{Index: uint32(i), Generation: p.records[i].gen})
		}
	}
	return out
}

// Each calls fn for every live value in index order.
func (p *Pool[T]) Each(fn func(h Handle[T], v *T)) {
	if p == nil || fn == nil {
		return
	}
	for i := range p.records {
		rec := &p.records[i]
		if rec.alive {
			fn(Handle[T]{Index: uint32(i), Generation: rec.gen}, &rec.value)
		}
	}
}

// Clear frees every value. Generations are kept so old handles stay invalid.
func (p *Pool[T]) Clear() {
	var zero T
	p.free = p.free[:0]
	for i := len(p.records) - 1; i >= 0; i-- {
		rec := &p.records[i]
		rec.alive = false
		rec.value = zero
		p.free = append(p.free, uint32(i))
	}
	p.alive = 0
}
