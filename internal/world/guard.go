package world

import (
	"sync"
	"sync/atomic"
	"time"
)

// Guard is the single lock serializing compute ticks and render passes over
// the Store. Callers hold it across dispatch, completion wait and flip, or
// across sample and draw.
type Guard struct {
	mu   sync.Mutex
	held atomic.Bool

	waits    atomic.Uint64
	waitedNS atomic.Int64
}

// Lock acquires the guard, recording how long the caller waited.
func (g *Guard) Lock() {
	if g.mu.TryLock() {
		g.held.Store(true)
		return
	}
	start := time.Now()
	g.mu.Lock()
	g.held.Store(true)
	g.waits.Add(1)
	g.waitedNS.Add(int64(time.Since(start)))
}

// Unlock releases the guard.
func (g *Guard) Unlock() {
	g.held.Store(false)
	g.mu.Unlock()
}

// Do runs fn while holding the guard.
func (g *Guard) Do(fn func() error) error {
	g.Lock()
	defer g.Unlock()
	return fn()
}

// Held reports whether some goroutine currently holds the guard. It is a
// best-effort check: it cannot tell whether that goroutine is the caller.
func (g *Guard) Held() bool {
	return g.held.Load()
}

// Contention reports how many acquisitions had to wait and for how long in total.
func (g *Guard) Contention() (uint64, time.Duration) {
	return g.waits.Load(), time.Duration(g.waitedNS.Load())
}
