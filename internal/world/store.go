package world

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"cellworld/internal/gpu"
)

// ErrSeedSize is returned when a seed does not cover the grid exactly.
var ErrSeedSize = errors.New("seed does not match grid size")

// Store is the two-slot grid arena. One slot is live and safe to sample; the
// other is written by the next compute tick. Every access goes through
// CurrentLive, CurrentWrite and Flip.
type Store struct {
	dims  gpu.Dims
	guard *Guard
	slots [2]gpu.Buffer

	live       atomic.Int32
	generation atomic.Uint64

	releaseOnce sync.Once
	released    atomic.Bool
}

// NewStore allocates both grid buffers on dev. The buffers are never resized.
func NewStore(dev gpu.Device, dims gpu.Dims, guard *Guard) (*Store, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	size := BufferSize(dims)
	s := &Store{dims: dims, guard: guard}
	for i := range s.slots {
		buf, err := dev.NewBuffer(size)
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("allocating grid buffer %d: %w", i, err)
		}
		s.slots[i] = buf
	}
	return s, nil
}

// Initialize writes seed into the write slot, runs initialize_world over it
// and makes it live. It must be called under the guard.
func (s *Store) Initialize(dev gpu.Device, seed []byte) error {
	if len(seed) != BufferSize(s.dims) {
		return fmt.Errorf("%w: %d bytes for %s grid (want %d)", ErrSeedSize, len(seed), s.dims, BufferSize(s.dims))
	}
	write := s.CurrentWrite()
	if err := write.Write(seed); err != nil {
		return fmt.Errorf("uploading seed: %w", err)
	}
	sub, err := dev.NewSubmission()
	if err != nil {
		return fmt.Errorf("initializing world: %w", err)
	}
	if err := sub.InitializeWorld(write, s.dims); err != nil {
		return fmt.Errorf("encoding %s: %w", gpu.KernelInitializeWorld, err)
	}
	if err := sub.Commit(); err != nil {
		return fmt.Errorf("running %s: %w", gpu.KernelInitializeWorld, err)
	}
	s.Flip()
	return nil
}

// Dims returns the grid dimensions.
func (s *Store) Dims() gpu.Dims { return s.dims }

// CurrentLive returns the buffer holding the latest complete generation. It
// returns nil once the store is released.
func (s *Store) CurrentLive() gpu.Buffer {
	return s.slots[s.live.Load()]
}

// CurrentWrite returns the buffer the next generation is written into.
func (s *Store) CurrentWrite() gpu.Buffer {
	return s.slots[1-s.live.Load()]
}

// Flip makes the write slot live. It must only follow a completed write and
// must be called while holding the guard. The guard check only sees that some
// goroutine holds it, not that the caller does, so it catches a missing Lock
// but not a caller racing under another goroutine's hold.
func (s *Store) Flip() {
	if s.guard != nil && !s.guard.Held() {
		panic("world: Store.Flip called without holding the guard")
	}
	s.live.Store(1 - s.live.Load())
	s.generation.Add(1)
}

// Generation counts flips; it changes exactly when the live buffer does.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// ReadLive downloads the live generation into dst. After Release it returns
// an error wrapping gpu.ErrClosed.
func (s *Store) ReadLive(dst []byte) error {
	if s.released.Load() {
		return fmt.Errorf("reading live grid: %w", gpu.ErrClosed)
	}
	return s.CurrentLive().Read(dst)
}

// Released reports whether Release has been called.
func (s *Store) Released() bool {
	return s.released.Load()
}

// Release frees both buffers. Later calls do nothing.
func (s *Store) Release() {
	s.releaseOnce.Do(func() {
		s.released.Store(true)
		for i, buf := range s.slots {
			if buf != nil {
				buf.Release()
				s.slots[i] = nil
			}
		}
	})
}
