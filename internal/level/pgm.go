package level

import (
	"bytes"
	"fmt"
	"strconv"

	"cellworld/internal/gpu"
	"cellworld/internal/world"
)

// decodePGM parses binary (P5) and plain (P2) graymaps with maxval <= 255.
func decodePGM(data []byte) (*Level, error) {
	pos := 0
	// token returns the next header field, skipping whitespace and comments.
	token := func() (string, error) {
		for pos < len(data) {
			c := data[pos]
			if c == '#' {
				for pos < len(data) && data[pos] != '\n' {
					pos++
				}
				continue
			}
			if !isSpace(c) {
				break
			}
			pos++
		}
		start := pos
		for pos < len(data) && !isSpace(data[pos]) && data[pos] != '#' {
			pos++
		}
		if start == pos {
			return "", fmt.Errorf("%w: truncated pgm header", ErrAssetLoad)
		}
		return string(data[start:pos]), nil
	}
	number := func(name string) (int, error) {
		tok, err := token()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: invalid pgm %s %q", ErrAssetLoad, name, tok)
		}
		return n, nil
	}

	magic, err := token()
	if err != nil {
		return nil, err
	}
	width, err := number("width")
	if err != nil {
		return nil, err
	}
	height, err := number("height")
	if err != nil {
		return nil, err
	}
	dims, err := checkDims(width, height)
	if err != nil {
		return nil, err
	}
	maxval, err := number("maxval")
	if err != nil {
		return nil, err
	}
	if maxval > 255 {
		return nil, fmt.Errorf("%w: 16-bit pgm (maxval %d) not supported", ErrAssetLoad, maxval)
	}

	scale := func(v int) uint8 { return uint8(v * 255 / maxval) }

	switch magic {
	case "P5":
		// exactly one whitespace byte separates the header from the raster
		pos++
		raster := data[min(pos, len(data)):]
		if len(raster) < dims.Cells() {
			return nil, fmt.Errorf("%w: pgm raster has %d bytes, want %d", ErrAssetLoad, len(raster), dims.Cells())
		}
		lvl := newLevel(dims)
		for i := range lvl.Cells {
			lvl.Cells[i] = cellFromGray(scale(int(raster[i])))
		}
		return lvl, nil
	case "P2":
		// samples take at least two bytes each
		if len(data)-pos < 2*dims.Cells()-1 {
			return nil, fmt.Errorf("%w: pgm raster too short for %s", ErrAssetLoad, dims)
		}
		lvl := newLevel(dims)
		for i := range lvl.Cells {
			tok, err := token()
			if err != nil {
				return nil, fmt.Errorf("%w: pgm raster ends at sample %d of %d", ErrAssetLoad, i, dims.Cells())
			}
			v, err := strconv.Atoi(tok)
			if err != nil || v < 0 || v > maxval {
				return nil, fmt.Errorf("%w: invalid pgm sample %q", ErrAssetLoad, tok)
			}
			lvl.Cells[i] = cellFromGray(scale(v))
		}
		return lvl, nil
	default:
		return nil, fmt.Errorf("%w: not a pgm file (magic %q)", ErrAssetLoad, magic)
	}
}

func newLevel(dims gpu.Dims) *Level {
	return &Level{Dims: dims, Cells: make([]world.Cell, dims.Cells())}
}

func isSpace(c byte) bool {
	return bytes.IndexByte([]byte(" \t\r\n\v\f"), c) >= 0
}
