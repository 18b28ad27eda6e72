// Package world owns the double-buffered cell grid, the guard that serializes
// access to it, and the scheduler that advances it one generation per tick.
package world

import (
	"encoding/binary"

	"cellworld/internal/gpu"
)

// CellSize is the size in bytes of one cell record in a grid buffer.
const CellSize = 4

// Cell is one opaque cell record. The world never interprets its value.
type Cell uint32

// BufferSize returns the byte size of a grid buffer for dims.
func BufferSize(dims gpu.Dims) int {
	return dims.Cells() * CellSize
}

// EncodeCells packs cells into the little-endian buffer layout the kernels use.
func EncodeCells(cells []Cell) []byte {
	buf := make([]byte, len(cells)*CellSize)
	for i, c := range cells {
		binary.LittleEndian.PutUint32(buf[i*CellSize:], uint32(c))
	}
	return buf
}

// DecodeCells unpacks a grid buffer into cells.
func DecodeCells(buf []byte) []Cell {
	cells := make([]Cell, len(buf)/CellSize)
	for i := range cells {
		cells[i] = Cell(binary.LittleEndian.Uint32(buf[i*CellSize:]))
	}
	return cells
}
