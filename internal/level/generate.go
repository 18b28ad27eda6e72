package level

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"cellworld/internal/gpu"
	"cellworld/internal/kernels"
	"cellworld/internal/world"
)

// Procedural level tuning.
const (
	noiseAlpha            = 2.0
	noiseBeta             = 2.0
	noiseOctaves          = 3
	noiseScale            = 24.0
	noiseThreshold        = 0.05
	wallMinLen            = 12
	wallMaxLen            = 100
	wallThicknessVariance = 1
	wallExclusionRadius   = 8
)

// GenerateOptions control Generate.
type GenerateOptions struct {
	Dims gpu.Dims
	// Seed makes generation deterministic.
	Seed int64
	// Density is the chance that a cell inside a noise patch starts alive.
	Density float64
	// Walls is the number of wall segments.
	Walls int
}

// Generate builds a level: perlin-noise patches sprinkled with live cells,
// crossed by straight wall segments that keep clear of the grid center.
func Generate(opts GenerateOptions) (*Level, error) {
	dims := opts.Dims
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	noise := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, opts.Seed)
	lvl := &Level{Dims: dims, Cells: make([]world.Cell, dims.Cells())}

	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			n := noise.Noise2D(float64(x)/noiseScale, float64(y)/noiseScale)
			if n > noiseThreshold && rng.Float64() < opts.Density {
				lvl.Cells[y*dims.Width+x] = world.Cell(kernels.Alive)
			}
		}
	}
	lvl.generateWalls(rng, opts.Walls)
	return lvl, nil
}

// generateWalls lays segments of random length, orientation and thickness.
func (l *Level) generateWalls(rng *rand.Rand, segments int) {
	w, h := l.Dims.Width, l.Dims.Height
	if w < 5 || h < 5 {
		return
	}
	for s := 0; s < segments; s++ {
		length := wallMinLen + rng.Intn(wallMaxLen-wallMinLen+1)
		thickness := rng.Intn(wallThicknessVariance + 1)
		horizontal := rng.Intn(2) == 0
		x := rng.Intn(w-4) + 2
		y := rng.Intn(h-4) + 2
		dx, dy := 0, 1
		if horizontal {
			dx, dy = 1, 0
		}
		perpX, perpY := dy, dx
		cx, cy := x, y
		for i := 0; i < length; i++ {
			if cx <= 1 || cx >= w-1 || cy <= 1 || cy >= h-1 {
				break
			}
			for t := -thickness; t <= thickness; t++ {
				l.trySetWall(cx+perpX*t, cy+perpY*t)
			}
			cx += dx
			cy += dy
		}
	}
}

// trySetWall marks a cell as wall unless it is on the border or near the center.
func (l *Level) trySetWall(x, y int) {
	w, h := l.Dims.Width, l.Dims.Height
	if x <= 1 || x >= w-1 || y <= 1 || y >= h-1 {
		return
	}
	dx := x - w/2
	dy := y - h/2
	if dx*dx+dy*dy < wallExclusionRadius*wallExclusionRadius {
		return
	}
	l.Cells[y*w+x] = world.Cell(kernels.Wall)
}
