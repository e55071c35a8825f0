// Package inflight guards long-running work so only a bounded number of
// tasks hold a slot at once.
package inflight

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// Guard tracks which task ids hold a slot.
type Guard interface {
	// TryAcquire atomically claims a slot for id. It returns false when every
	// slot is held, together with the ids holding them. Acquiring an id that
	// already holds a slot succeeds without taking another.
	TryAcquire(ctx context.Context, id string) (ok bool, holders []string)

	// Release frees the slot held by id. Releasing an id that holds nothing
	// is a no-op.
	Release(ctx context.Context, id string)

	Size() int64
}

type slotGuard struct {
	mu      sync.Mutex
	holders map[string]struct{}
	slots   int
	size    atomic.Int64
}

// NewGuard creates a guard with a single slot unless configured otherwise.
func NewGuard(opts ...Option) Guard {
	g := &slotGuard{slots: 1}
	for _, opt := range opts {
		opt(g)
	}
	g.holders = make(map[string]struct{}, g.slots)
	return g
}

func (g *slotGuard) TryAcquire(ctx context.Context, id string) (bool, []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.holders[id]; held {
		return true, nil
	}
	if len(g.holders) >= g.slots {
		return false, g.held()
	}
	g.holders[id] = struct{}{}
	g.size.Add(1)
	return true, nil
}

func (g *slotGuard) Release(ctx context.Context, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.holders[id]; held {
		delete(g.holders, id)
		g.size.Add(-1)
	}
}

// Size returns the number of held slots.
func (g *slotGuard) Size() int64 {
	return g.size.Load()
}

// held must be called with g.mu held.
func (g *slotGuard) held() []string {
	out := make([]string, 0, len(g.holders))
	for id := range g.holders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
