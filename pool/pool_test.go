package pool

import (
	"errors"
	"testing"
)

func TestPoolLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		spawn        int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_spawn_free_middle", 3, 1},
		{"none_freed", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var p Pool[string]
			handles := make([]Handle[string], 0, c.spawn)
			for i := 0; i < c.spawn; i++ {
				handles = append(handles, p.Spawn("v"))
			}
			if p.Len() != c.spawn {
				t.Fatalf("expected %d values, got %d", c.spawn, p.Len())
			}
			if c.destroyIndex >= 0 {
				if _, ok := p.Free(handles[c.destroyIndex]); !ok {
					t.Fatalf("Free should succeed for a live handle")
				}
				if p.IsValid(handles[c.destroyIndex]) {
					t.Fatalf("handle should not resolve after Free")
				}
				if p.Len() != c.spawn-1 {
					t.Fatalf("expected %d values after free, got %d", c.spawn-1, p.Len())
				}
			}
		})
	}
}

func TestPoolReuseDoesNotAlias(t *testing.T) {
	var p Pool[int]
	old := p.Spawn(1)
	p.Free(old)
	fresh := p.Spawn(2)

	if fresh.Index != old.Index {
		t.Fatalf("expected slot %d to be reused, got %d", old.Index, fresh.Index)
	}
	if fresh.Generation == old.Generation {
		t.Fatalf("reused slot must bump generation")
	}
	if _, ok := p.Borrow(old); ok {
		t.Fatalf("stale handle resolved to the new value")
	}
	v, ok := p.Borrow(fresh)
	if !ok || *v != 2 {
		t.Fatalf("expected 2, got %v ok=%v", v, ok)
	}
}

func TestPoolNoneHandle(t *testing.T) {
	var p Pool[int]
	p.Spawn(1)
	if p.IsValid(None[int]()) {
		t.Fatalf("none handle must never resolve")
	}
	if None[int]().String() != "none" {
		t.Fatalf("unexpected string for none handle")
	}
}

func TestPoolSpawnAt(t *testing.T) {
	t.Run("restores_exact_handle", func(t *testing.T) {
		var p Pool[string]
		h := Handle[string]{Index: 3, Generation: 7}
		if err := p.SpawnAt(h, "x"); err != nil {
			t.Fatalf("SpawnAt: %v", err)
		}
		v, ok := p.Borrow(h)
		if !ok || *v != "x" {
			t.Fatalf("restored handle did not resolve")
		}
		if p.Len() != 1 {
			t.Fatalf("expected 1 live value, got %d", p.Len())
		}
		// gap slots are reusable
		next := p.Spawn("y")
		if next.Index == 3 {
			t.Fatalf("spawn reused an occupied slot")
		}
	})

	t.Run("occupied", func(t *testing.T) {
		var p Pool[string]
		h := p.Spawn("a")
		if err := p.SpawnAt(h, "b"); !errors.Is(err, ErrSlotOccupied) {
			t.Fatalf("expected ErrSlotOccupied, got %v", err)
		}
	})

	t.Run("none", func(t *testing.T) {
		var p Pool[string]
		if err := p.SpawnAt(None[string](), "b"); !errors.Is(err, ErrInvalidGeneration) {
			t.Fatalf("expected ErrInvalidGeneration, got %v", err)
		}
	})
}

func TestPoolHandlesAndClear(t *testing.T) {
	var p Pool[int]
	a := p.Spawn(1)
	b := p.Spawn(2)
	c := p.Spawn(3)
	p.Free(b)

	got := p.Handles()
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("unexpected handles %v", got)
	}

	sum := 0
	p.Each(func(_ Handle[int], v *int) { sum += *v })
	if sum != 4 {
		t.Fatalf("expected sum 4, got %d", sum)
	}

	p.Clear()
	if p.Len() != 0 || p.IsValid(a) || p.IsValid(c) {
		t.Fatalf("clear left live values")
	}
	d := p.Spawn(9)
	if d == a || d == c {
		t.Fatalf("handle after clear aliases an old handle")
	}
}
