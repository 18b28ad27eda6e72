// Package render drives per-frame drawing of the live grid generation and
// publishes frame-rate updates.
package render

import (
	"errors"
	"fmt"
	"time"

	"cellworld/internal/camera"
	"cellworld/internal/gpu"
	"cellworld/internal/world"
)

// ErrEmptyViewport is returned for frames with no drawable area.
var ErrEmptyViewport = errors.New("empty viewport")

// fpsWindow is the minimum spacing between frame-rate updates.
const fpsWindow = time.Second

// Viewport is the drawable area in pixels.
type Viewport struct {
	Width  int
	Height int
}

// Frame is everything a Surface needs to draw one fullscreen quad.
type Frame struct {
	// Cells is the live generation in buffer layout. It stays valid until the
	// next frame and must not be modified.
	Cells      []byte
	Dims       gpu.Dims
	Generation uint64
	Camera     camera.Snapshot
	Viewport   Viewport
}

// Surface draws a frame. Implementations reconstruct the grid from Cells.
type Surface interface {
	Draw(f *Frame) error
}

// FPSUpdate is a frame-rate measurement over the last window.
type FPSUpdate struct {
	FPS    float64
	Frames int
	At     time.Time
}

// Pipeline renders frames under the guard and keeps frame-rate bookkeeping.
type Pipeline struct {
	store *world.Store
	guard *world.Guard
	cam   *camera.State
	now   func() time.Time

	frame     Frame
	hostValid bool

	windowStart time.Time
	frames      int
	presented   uint64
	dropped     uint64

	updates chan FPSUpdate
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now for frame-rate bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline returns a pipeline sampling store and cam.
func NewPipeline(store *world.Store, guard *world.Guard, cam *camera.State, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		guard:   guard,
		cam:     cam,
		now:     time.Now,
		updates: make(chan FPSUpdate, 1),
	}
	p.frame.Dims = store.Dims()
	p.frame.Cells = make([]byte, world.BufferSize(store.Dims()))
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RenderFrame samples the live generation and camera and draws one frame on s.
// The guard is held from sampling until the surface returns.
func (p *Pipeline) RenderFrame(s Surface, vp Viewport) error {
	if vp.Width <= 0 || vp.Height <= 0 {
		p.dropped++
		return fmt.Errorf("%w: %dx%d", ErrEmptyViewport, vp.Width, vp.Height)
	}
	if err := p.drawLocked(s, vp); err != nil {
		p.dropped++
		return err
	}
	p.presented++
	p.countFrame()
	return nil
}

func (p *Pipeline) drawLocked(s Surface, vp Viewport) error {
	p.guard.Lock()
	defer p.guard.Unlock()
	if p.store.Released() {
		return fmt.Errorf("sampling live buffer: %w", gpu.ErrClosed)
	}
	if gen := p.store.Generation(); !p.hostValid || gen != p.frame.Generation {
		if err := p.store.ReadLive(p.frame.Cells); err != nil {
			p.hostValid = false
			return fmt.Errorf("sampling live buffer: %w", err)
		}
		p.frame.Generation = gen
		p.hostValid = true
	}
	p.frame.Camera = p.cam.Snapshot()
	p.frame.Viewport = vp
	if err := s.Draw(&p.frame); err != nil {
		return fmt.Errorf("drawing frame: %w", err)
	}
	return nil
}

// countFrame publishes the frame rate once at least fpsWindow has passed
// since the previous publication.
func (p *Pipeline) countFrame() {
	now := p.now()
	if p.windowStart.IsZero() {
		p.windowStart = now
		return
	}
	p.frames++
	elapsed := now.Sub(p.windowStart)
	if elapsed < fpsWindow {
		return
	}
	p.publish(FPSUpdate{
		FPS:    float64(p.frames) / elapsed.Seconds(),
		Frames: p.frames,
		At:     now,
	})
	p.windowStart = now
	p.frames = 0
}

// publish never blocks: a stale unread update is replaced.
func (p *Pipeline) publish(u FPSUpdate) {
	select {
	case p.updates <- u:
		return
	default:
	}
	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- u:
	default:
	}
}

// Updates delivers frame-rate measurements, at most one per second.
func (p *Pipeline) Updates() <-chan FPSUpdate {
	return p.updates
}

// Presented and Dropped count frames drawn and frames skipped.
func (p *Pipeline) Presented() uint64 { return p.presented }

func (p *Pipeline) Dropped() uint64 { return p.dropped }
