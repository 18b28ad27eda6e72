package camera

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestHoldLeftClampsAtZero(t *testing.T) {
	state := NewState(0.5, 0.5, 4)
	input := &Input{}
	sched := NewScheduler(input, state, time.Millisecond, 0.001)
	input.Press(Left)
	for i := 0; i < 500; i++ {
		sched.Tick()
	}
	x, y := state.Position()
	if x != 0 || y != 0.5 {
		t.Fatalf("position = (%v, %v), want (0, 0.5)", x, y)
	}
	for i := 0; i < 100; i++ {
		sched.Tick()
	}
	if x, _ := state.Position(); x != 0 {
		t.Fatalf("x moved past the edge: %v", x)
	}
}

func TestSustainedDiagonalStaysInBounds(t *testing.T) {
	cases := []struct {
		name  string
		held  []Direction
		wantX float64
		wantY float64
	}{
		{"up-left", []Direction{Up, Left}, 0, 0},
		{"down-right", []Direction{Down, Right}, 1, 1},
		{"up-right", []Direction{Up, Right}, 1, 0},
		{"down-left", []Direction{Down, Left}, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := NewState(0.3, 0.7, 1)
			input := &Input{}
			for _, d := range tc.held {
				input.Press(d)
			}
			sched := NewScheduler(input, state, time.Millisecond, 0.01)
			for i := 0; i < 1000; i++ {
				sched.Tick()
				x, y := state.Position()
				if x < 0 || x > 1 || y < 0 || y > 1 {
					t.Fatalf("tick %d: position (%v, %v) out of bounds", i, x, y)
				}
			}
			x, y := state.Position()
			if x != tc.wantX || y != tc.wantY {
				t.Errorf("position = (%v, %v), want (%v, %v)", x, y, tc.wantX, tc.wantY)
			}
		})
	}
}

func TestDiagonalIsVectorSum(t *testing.T) {
	state := NewState(0.5, 0.5, 1)
	input := &Input{}
	input.Press(Down)
	input.Press(Right)
	sched := NewScheduler(input, state, time.Millisecond, 0.01)
	sched.Tick()
	x, y := state.Position()
	if math.Abs(x-0.51) > 1e-12 || math.Abs(y-0.51) > 1e-12 {
		t.Fatalf("position = (%v, %v), want (0.51, 0.51)", x, y)
	}
}

func TestOppositeDirectionsCancel(t *testing.T) {
	state := NewState(0.25, 0.75, 1)
	input := &Input{}
	input.Press(Left)
	input.Press(Right)
	sched := NewScheduler(input, state, time.Millisecond, 0.01)
	for i := 0; i < 10; i++ {
		sched.Tick()
	}
	if x, y := state.Position(); x != 0.25 || y != 0.75 {
		t.Fatalf("position = (%v, %v), want unchanged", x, y)
	}
}

func TestInputPressRelease(t *testing.T) {
	input := &Input{}
	input.Press(Up)
	input.Press(Right)
	input.Press(Up)
	if h := input.Snapshot(); !h.Has(Up) || !h.Has(Right) || h.Has(Down) {
		t.Fatalf("held = %v", h)
	}
	input.Release(Up)
	if h := input.Snapshot(); h.Has(Up) || h.String() != "right" {
		t.Fatalf("held = %v after release", h)
	}
	input.Release(Right)
	if h := input.Snapshot(); h != 0 || h.String() != "none" {
		t.Fatalf("held = %v, want none", h)
	}
}

func TestZoomClamped(t *testing.T) {
	state := NewState(2, -1, 0)
	if x, y := state.Position(); x != 1 || y != 0 {
		t.Errorf("position = (%v, %v), want clamped (1, 0)", x, y)
	}
	if z := state.Zoom(); z != MinZoom {
		t.Errorf("zoom = %v, want %v", z, MinZoom)
	}
	state.SetZoom(8)
	state.ScaleZoom(2)
	if z := state.Snapshot().Zoom; z != 16 {
		t.Errorf("zoom = %v, want 16", z)
	}
	state.ScaleZoom(1000)
	if z := state.Zoom(); z != MaxZoom {
		t.Errorf("zoom = %v, want %v", z, MaxZoom)
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	state := NewState(0.5, 0.5, 1)
	input := &Input{}
	input.Press(Up)
	sched := NewScheduler(input, state, time.Millisecond, 0.001)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, y := state.Position(); y < 0.5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("camera never moved")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
