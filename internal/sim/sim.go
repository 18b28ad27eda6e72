// Package sim assembles a running world: grid store, guard, compute and input
// drivers, camera and render pipeline, all owned by one Simulation.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cellworld/internal/camera"
	"cellworld/internal/gpu"
	"cellworld/internal/render"
	"cellworld/internal/world"
)

// Period limits for the compute driver.
const (
	MinTickPeriod = time.Millisecond
	MaxTickPeriod = 500 * time.Millisecond
)

// Config describes a simulation.
type Config struct {
	Dims gpu.Dims
	// Seed is the initial generation in grid buffer layout.
	Seed []byte

	TickPeriod  time.Duration
	InputPeriod time.Duration
	MoveDelta   float64

	CameraX, CameraY float64
	Zoom             float64

	// RenderOptions are passed to the render pipeline.
	RenderOptions []render.Option
}

// Validate checks the configuration before any device resource is touched.
func (c *Config) Validate() error {
	if err := c.Dims.Validate(); err != nil {
		return err
	}
	if c.TickPeriod < MinTickPeriod || c.TickPeriod > MaxTickPeriod {
		return fmt.Errorf("tick period %v outside [%v, %v]", c.TickPeriod, MinTickPeriod, MaxTickPeriod)
	}
	if c.InputPeriod <= 0 {
		return fmt.Errorf("input period %v must be positive", c.InputPeriod)
	}
	if c.MoveDelta <= 0 || c.MoveDelta > 1 {
		return fmt.Errorf("move delta %v outside (0, 1]", c.MoveDelta)
	}
	return nil
}

// Simulation owns every component of a running world.
type Simulation struct {
	dev   gpu.Device
	guard *world.Guard
	store *world.Store

	cam   *camera.State
	input *camera.Input

	compute  *world.ComputeScheduler
	mover    *camera.Scheduler
	pipeline *render.Pipeline

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
	closed  bool
}

// New builds and seeds a simulation on dev. The simulation takes ownership of
// dev and closes it in Close. On error dev is left open.
func New(dev gpu.Device, cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	guard := &world.Guard{}
	store, err := world.NewStore(dev, cfg.Dims, guard)
	if err != nil {
		return nil, err
	}
	if err := guard.Do(func() error { return store.Initialize(dev, cfg.Seed) }); err != nil {
		store.Release()
		return nil, err
	}
	cam := camera.NewState(cfg.CameraX, cfg.CameraY, cfg.Zoom)
	input := &camera.Input{}
	return &Simulation{
		dev:      dev,
		guard:    guard,
		store:    store,
		cam:      cam,
		input:    input,
		compute:  world.NewComputeScheduler(store, guard, dev, cfg.TickPeriod),
		mover:    camera.NewScheduler(input, cam, cfg.InputPeriod, cfg.MoveDelta),
		pipeline: render.NewPipeline(store, guard, cam, cfg.RenderOptions...),
	}, nil
}

// ErrClosed is returned when starting a closed simulation.
var ErrClosed = errors.New("simulation closed")

// Start launches the compute and input drivers. They run until ctx is
// cancelled or Close is called.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.group, ctx = errgroup.WithContext(ctx)
	s.group.Go(func() error { return s.compute.Run(ctx) })
	s.group.Go(func() error { return s.mover.Run(ctx) })
	s.started = true
	return nil
}

// Close stops both drivers, waits for any tick in flight, then releases the
// grid buffers and the device. It is safe to call more than once.
func (s *Simulation) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.started {
		s.cancel()
		err = s.group.Wait()
	}
	// a render pass may still hold the guard
	s.guard.Lock()
	s.store.Release()
	s.guard.Unlock()
	if cerr := s.dev.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Camera returns the camera state.
func (s *Simulation) Camera() *camera.State { return s.cam }

// Input returns the held-direction set fed by key capture.
func (s *Simulation) Input() *camera.Input { return s.input }

// Pipeline returns the render pipeline.
func (s *Simulation) Pipeline() *render.Pipeline { return s.pipeline }

// Compute returns the compute scheduler.
func (s *Simulation) Compute() *world.ComputeScheduler { return s.compute }

// Guard returns the concurrency guard.
func (s *Simulation) Guard() *world.Guard { return s.guard }

// Generation returns the live generation number.
func (s *Simulation) Generation() uint64 { return s.store.Generation() }

// Dims returns the grid dimensions.
func (s *Simulation) Dims() gpu.Dims { return s.store.Dims() }

// Device returns the compute device.
func (s *Simulation) Device() gpu.Device { return s.dev }
