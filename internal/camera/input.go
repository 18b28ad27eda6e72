package camera

import (
	"strings"
	"sync/atomic"
)

// Direction is one logical movement key.
type Direction uint32

const (
	Up Direction = 1 << iota
	Down
	Left
	Right
)

// Directions lists every direction in a fixed order.
var Directions = []Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Input is the set of currently held directions. Press and Release are
// called by the key-capture path; the scheduler only reads it.
type Input struct {
	held atomic.Uint32
}

// Press marks d as held.
func (in *Input) Press(d Direction) {
	in.held.Or(uint32(d))
}

// Release marks d as no longer held.
func (in *Input) Release(d Direction) {
	in.held.And(^uint32(d))
}

// Set replaces the whole held set.
func (in *Input) Set(held Held) {
	in.held.Store(uint32(held))
}

// Snapshot returns the held set at this instant.
func (in *Input) Snapshot() Held {
	return Held(in.held.Load())
}

// Held is a snapshot of held directions.
type Held uint32

// Has reports whether d is held.
func (h Held) Has(d Direction) bool {
	return uint32(h)&uint32(d) != 0
}

func (h Held) String() string {
	var names []string
	for _, d := range Directions {
		if h.Has(d) {
			names = append(names, d.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}
