// Package camera holds the camera position and zoom, the set of held
// direction keys, and the scheduler that integrates one into the other.
package camera

import (
	"math"
	"sync/atomic"
)

// Zoom limits.
const (
	MinZoom = 1.0
	MaxZoom = 64.0
)

// State is the camera: a position normalized to [0,1] on each axis and a zoom
// factor. Each field is read and written independently without locking;
// readers may see a position a tick old.
type State struct {
	x    atomic.Uint64
	y    atomic.Uint64
	zoom atomic.Uint64
}

// NewState returns a camera at (x, y) with the given zoom, clamped to range.
func NewState(x, y, zoom float64) *State {
	s := &State{}
	s.SetPosition(x, y)
	s.SetZoom(zoom)
	return s
}

// Position returns the current normalized position.
func (s *State) Position() (float64, float64) {
	return loadFloat(&s.x), loadFloat(&s.y)
}

// SetPosition moves the camera, clamping each axis to [0,1].
func (s *State) SetPosition(x, y float64) {
	storeFloat(&s.x, clamp01(x))
	storeFloat(&s.y, clamp01(y))
}

// Zoom returns the zoom factor.
func (s *State) Zoom() float64 {
	return loadFloat(&s.zoom)
}

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
func (s *State) SetZoom(z float64) {
	if math.IsNaN(z) {
		z = MinZoom
	}
	storeFloat(&s.zoom, math.Max(MinZoom, math.Min(MaxZoom, z)))
}

// ScaleZoom multiplies the zoom factor by f.
func (s *State) ScaleZoom(f float64) {
	s.SetZoom(s.Zoom() * f)
}

// Snapshot is a copy of the camera fields.
type Snapshot struct {
	X, Y float64
	Zoom float64
}

// Snapshot reads every field once.
func (s *State) Snapshot() Snapshot {
	x, y := s.Position()
	return Snapshot{X: x, Y: y, Zoom: s.Zoom()}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func loadFloat(v *atomic.Uint64) float64 {
	return math.Float64frombits(v.Load())
}

func storeFloat(v *atomic.Uint64, f float64) {
	v.Store(math.Float64bits(f))
}
