package world

import (
	"errors"
	"testing"

	"cellworld/internal/gpu"
	"cellworld/internal/kernels"
)

func newTestDevice(t *testing.T, prog gpu.Program) *gpu.SoftwareDevice {
	t.Helper()
	dev, err := gpu.NewSoftwareDevice(prog, 4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dev.Close() })
	return dev
}

func newTestStore(t *testing.T, dev gpu.Device, dims gpu.Dims, seed []Cell) (*Store, *Guard) {
	t.Helper()
	guard := &Guard{}
	store, err := NewStore(dev, dims, guard)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Release)
	if err := guard.Do(func() error { return store.Initialize(dev, EncodeCells(seed)) }); err != nil {
		t.Fatal(err)
	}
	return store, guard
}

func readLive(t *testing.T, store *Store, guard *Guard) []Cell {
	t.Helper()
	buf := make([]byte, BufferSize(store.Dims()))
	if err := guard.Do(func() error { return store.ReadLive(buf) }); err != nil {
		t.Fatal(err)
	}
	return DecodeCells(buf)
}

func TestStoreInitializeMakesSeedLive(t *testing.T) {
	dims := gpu.Dims{Width: 8, Height: 4}
	dev := newTestDevice(t, kernels.Life)
	seed := make([]Cell, dims.Cells())
	seed[3] = 9
	seed[5] = Cell(kernels.Wall)
	store, guard := newTestStore(t, dev, dims, seed)

	if store.Generation() != 1 {
		t.Errorf("generation = %d, want 1", store.Generation())
	}
	if store.CurrentLive() == store.CurrentWrite() {
		t.Fatal("live and write slots alias")
	}
	got := readLive(t, store, guard)
	if got[3] != Cell(kernels.Alive) || got[5] != Cell(kernels.Wall) || got[0] != Cell(kernels.Dead) {
		t.Errorf("initialized cells = %v", got[:6])
	}
}

func TestStoreFlipSwapsSlots(t *testing.T) {
	dims := gpu.Dims{Width: 4, Height: 4}
	dev := newTestDevice(t, kernels.Copy)
	store, guard := newTestStore(t, dev, dims, make([]Cell, dims.Cells()))
	live, write := store.CurrentLive(), store.CurrentWrite()
	guard.Lock()
	store.Flip()
	guard.Unlock()
	if store.CurrentLive() != write || store.CurrentWrite() != live {
		t.Fatal("flip did not swap slots")
	}
}

func TestStoreFlipRequiresGuard(t *testing.T) {
	dims := gpu.Dims{Width: 4, Height: 4}
	dev := newTestDevice(t, kernels.Copy)
	store, _ := newTestStore(t, dev, dims, make([]Cell, dims.Cells()))
	defer func() {
		if recover() == nil {
			t.Fatal("Flip outside the guard did not panic")
		}
	}()
	store.Flip()
}

func TestStoreErrors(t *testing.T) {
	dev := newTestDevice(t, kernels.Copy)
	if _, err := NewStore(dev, gpu.Dims{Width: 0, Height: 3}, &Guard{}); err == nil {
		t.Error("expected error for empty grid")
	}
	guard := &Guard{}
	store, err := NewStore(dev, gpu.Dims{Width: 4, Height: 4}, guard)
	if err != nil {
		t.Fatal(err)
	}
	err = guard.Do(func() error { return store.Initialize(dev, make([]byte, 12)) })
	if !errors.Is(err, ErrSeedSize) {
		t.Errorf("got %v, want ErrSeedSize", err)
	}
	store.Release()
	store.Release()
}

func TestCellCodecRoundTrip(t *testing.T) {
	cells := []Cell{0, 1, 2, 0xdeadbeef}
	got := DecodeCells(EncodeCells(cells))
	for i := range cells {
		if got[i] != cells[i] {
			t.Fatalf("cell %d = %#x, want %#x", i, got[i], cells[i])
		}
	}
}
