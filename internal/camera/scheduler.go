package camera

import (
	"context"
	"time"
)

// Scheduler integrates camera position from held directions at a fixed period.
// It never blocks on the compute or render paths.
type Scheduler struct {
	input  *Input
	state  *State
	period time.Duration
	delta  float64
}

// NewScheduler moves state by delta per held direction every period.
func NewScheduler(input *Input, state *State, period time.Duration, delta float64) *Scheduler {
	return &Scheduler{input: input, state: state, period: period, delta: delta}
}

// Tick applies one integration step. Each held direction contributes its delta
// once; each axis is clamped to [0,1] independently.
func (s *Scheduler) Tick() {
	held := s.input.Snapshot()
	if held == 0 {
		return
	}
	dx, dy := 0.0, 0.0
	if held.Has(Up) {
		dy -= s.delta
	}
	if held.Has(Down) {
		dy += s.delta
	}
	if held.Has(Left) {
		dx -= s.delta
	}
	if held.Has(Right) {
		dx += s.delta
	}
	if dx == 0 && dy == 0 {
		return
	}
	x, y := s.state.Position()
	s.state.SetPosition(snapEdge(x+dx), snapEdge(y+dy))
}

// edgeEpsilon absorbs float drift so repeated deltas land exactly on 0 or 1.
const edgeEpsilon = 1e-9

func snapEdge(v float64) float64 {
	if v < edgeEpsilon {
		return 0
	}
	if v > 1-edgeEpsilon {
		return 1
	}
	return v
}

// Run ticks every period until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}
