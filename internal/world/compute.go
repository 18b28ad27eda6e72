package world

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"cellworld/internal/gpu"
)

// ErrTickSkipped wraps every failure that caused a compute tick to be dropped.
var ErrTickSkipped = errors.New("compute tick skipped")

// skipLogInterval bounds how often skipped ticks are logged.
const skipLogInterval = time.Second

// ComputeStats summarizes compute scheduler activity.
type ComputeStats struct {
	Completed    uint64
	Skipped      uint64
	LastDuration time.Duration
}

// ComputeScheduler advances the Store by one generation per period.
type ComputeScheduler struct {
	store  *Store
	guard  *Guard
	dev    gpu.Device
	period time.Duration

	paused        atomic.Bool
	stepRequested atomic.Bool

	completed atomic.Uint64
	skipped   atomic.Uint64
	lastNS    atomic.Int64

	lastSkipLog    time.Time
	pendingSkipLog int
}

// NewComputeScheduler returns a scheduler ticking every period.
func NewComputeScheduler(store *Store, guard *Guard, dev gpu.Device, period time.Duration) *ComputeScheduler {
	return &ComputeScheduler{store: store, guard: guard, dev: dev, period: period}
}

// Tick runs one simulation step: dispatch update_world from the live buffer into
// the write buffer, wait for completion, then flip. On failure nothing is
// flipped and the returned error wraps ErrTickSkipped.
func (c *ComputeScheduler) Tick() error {
	c.guard.Lock()
	defer c.guard.Unlock()

	if c.store.Released() {
		return c.skip(gpu.ErrClosed)
	}
	start := time.Now()
	sub, err := c.dev.NewSubmission()
	if err != nil {
		return c.skip(err)
	}
	if err := sub.UpdateWorld(c.store.CurrentLive(), c.store.CurrentWrite(), c.store.Dims()); err != nil {
		return c.skip(err)
	}
	if err := sub.Commit(); err != nil {
		return c.skip(err)
	}
	c.store.Flip()
	c.completed.Add(1)
	c.lastNS.Store(int64(time.Since(start)))
	return nil
}

func (c *ComputeScheduler) skip(err error) error {
	c.skipped.Add(1)
	return fmt.Errorf("%w: %w", ErrTickSkipped, err)
}

// Run ticks every period until ctx is cancelled. A tick in progress always
// completes before Run returns.
func (c *ComputeScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if c.paused.Load() && !c.stepRequested.Swap(false) {
			continue
		}
		if err := c.Tick(); err != nil {
			c.logSkip(err)
		}
	}
}

// logSkip logs skipped ticks at most once per skipLogInterval.
func (c *ComputeScheduler) logSkip(err error) {
	c.pendingSkipLog++
	now := time.Now()
	if now.Sub(c.lastSkipLog) < skipLogInterval {
		return
	}
	log.Printf("compute: skipped %d tick(s): %v", c.pendingSkipLog, err)
	c.pendingSkipLog = 0
	c.lastSkipLog = now
}

// SetPaused stops or resumes scheduled ticks.
func (c *ComputeScheduler) SetPaused(paused bool) {
	c.paused.Store(paused)
}

// Paused reports whether scheduled ticks are suspended.
func (c *ComputeScheduler) Paused() bool {
	return c.paused.Load()
}

// RequestStep runs exactly one tick on the next period while paused.
func (c *ComputeScheduler) RequestStep() {
	c.stepRequested.Store(true)
}

// Period returns the tick period.
func (c *ComputeScheduler) Period() time.Duration {
	return c.period
}

// Stats returns a snapshot of tick counters.
func (c *ComputeScheduler) Stats() ComputeStats {
	return ComputeStats{
		Completed:    c.completed.Load(),
		Skipped:      c.skipped.Load(),
		LastDuration: time.Duration(c.lastNS.Load()),
	}
}
