// Package level produces initial grids: decoded from level images or
// generated procedurally.
package level

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"

	"cellworld/internal/gpu"
	"cellworld/internal/kernels"
	"cellworld/internal/world"
)

// ErrAssetLoad wraps every failure to produce a level from an asset.
var ErrAssetLoad = errors.New("level asset load failed")

// MaxCells caps the size of a level read from an asset.
const MaxCells = 1 << 24

// Gray thresholds mapping pixel brightness onto cells.
const (
	wallLevel  = 64
	aliveLevel = 192
)

// Level is an initial grid.
type Level struct {
	Dims  gpu.Dims
	Cells []world.Cell
}

// Seed returns the cells in grid buffer layout.
func (l *Level) Seed() []byte {
	return world.EncodeCells(l.Cells)
}

// Load reads a level image from path.
func Load(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetLoad, err)
	}
	defer f.Close()
	lvl, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lvl, nil
}

// Decode reads a PGM (P2/P5), PNG, GIF or BMP level image. Bright pixels
// become live cells, mid grays walls, dark pixels dead cells.
func Decode(r io.Reader) (*Level, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetLoad, err)
	}
	if bytes.HasPrefix(data, []byte("P5")) || bytes.HasPrefix(data, []byte("P2")) {
		return decodePGM(data)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image header: %w", ErrAssetLoad, err)
	}
	if _, err := checkDims(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%s image: %w", format, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %w", ErrAssetLoad, err)
	}
	lvl, err := fromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %s image: %w", ErrAssetLoad, format, err)
	}
	return lvl, nil
}

func fromImage(img image.Image) (*Level, error) {
	b := img.Bounds()
	dims, err := checkDims(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	lvl := &Level{Dims: dims, Cells: make([]world.Cell, dims.Cells())}
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if _, _, _, a := c.RGBA(); a == 0 {
				continue
			}
			g := color.GrayModel.Convert(c).(color.Gray)
			lvl.Cells[y*dims.Width+x] = cellFromGray(g.Y)
		}
	}
	return lvl, nil
}

// checkDims rejects empty levels and levels above MaxCells without
// overflowing on the product.
func checkDims(width, height int) (gpu.Dims, error) {
	if width <= 0 || height <= 0 {
		return gpu.Dims{}, fmt.Errorf("%w: invalid level size %dx%d", ErrAssetLoad, width, height)
	}
	if width > MaxCells/height {
		return gpu.Dims{}, fmt.Errorf("%w: level %dx%d exceeds %d cells", ErrAssetLoad, width, height, MaxCells)
	}
	return gpu.Dims{Width: width, Height: height}, nil
}

func cellFromGray(v uint8) world.Cell {
	switch {
	case v >= aliveLevel:
		return world.Cell(kernels.Alive)
	case v >= wallLevel:
		return world.Cell(kernels.Wall)
	default:
		return world.Cell(kernels.Dead)
	}
}
