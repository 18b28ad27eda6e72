// Package kernels holds the world kernels run by the compute devices. Each
// Program carries the OpenCL C source and an equivalent host implementation.
package kernels

import (
	"fmt"
	"sort"

	"cellworld/internal/gpu"
)

// Cell ids understood by the bundled kernels.
const (
	Dead  uint32 = 0
	Alive uint32 = 1
	Wall  uint32 = 2
)

var registry = map[string]gpu.Program{
	"life": Life,
	"copy": Copy,
}

// Lookup returns the named program.
func Lookup(name string) (gpu.Program, error) {
	prog, ok := registry[name]
	if !ok {
		return gpu.Program{}, fmt.Errorf("unknown rule %q (have %v)", name, Names())
	}
	return prog, nil
}

// Names lists the registered programs in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalize maps any seed id onto Dead, Alive or Wall.
func normalize(c uint32) uint32 {
	switch c {
	case Dead, Wall:
		return c
	default:
		return Alive
	}
}
