package main

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"cellworld/internal/gpu"
	"cellworld/internal/render"
)

// gridShader draws the grid texture over the whole destination. Each texel
// carries a cell id in its red byte. The grid wraps, so the camera may look
// across any edge.
const gridShader = `//kage:unit pixels

package main

var Camera vec2
var Zoom float
var Viewport vec2
var GridSize vec2

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	uv := (dstPos.xy - imageDstOrigin()) / Viewport
	world := fract(Camera + (uv-0.5)/Zoom)
	cell := floor(world * GridSize)
	id := floor(imageSrc0At(imageSrc0Origin()+cell+0.5).r*255 + 0.5)
	if id == 1 {
		return vec4(0.85, 0.95, 0.6, 1)
	}
	if id == 2 {
		return vec4(30.0/255, 40.0/255, 80.0/255, 1)
	}
	return vec4(0.04, 0.04, 0.06, 1)
}
`

// quadIndices draw the fullscreen quad as two independent triangles.
var quadIndices = []uint16{0, 1, 2, 3, 4, 5}

// shaderSurface implements render.Surface on an ebiten target image.
type shaderSurface struct {
	shader  *ebiten.Shader
	grid    *ebiten.Image
	pixels  []byte
	gridGen uint64
	loaded  bool

	vertices [6]ebiten.Vertex
	uniforms map[string]any

	// target is the screen for the frame being drawn.
	target *ebiten.Image
}

// newShaderSurface compiles the grid shader and allocates the grid texture.
func newShaderSurface(dims gpu.Dims) (*shaderSurface, error) {
	shader, err := ebiten.NewShader([]byte(gridShader))
	if err != nil {
		return nil, fmt.Errorf("%w: grid shader: %w", gpu.ErrPipelineCompile, err)
	}
	return &shaderSurface{
		shader: shader,
		grid:   ebiten.NewImage(dims.Width, dims.Height),
		pixels: make([]byte, dims.Cells()*4),
		uniforms: map[string]any{
			"GridSize": []float32{float32(dims.Width), float32(dims.Height)},
		},
	}, nil
}

// Draw uploads the generation if it changed and draws one quad.
func (s *shaderSurface) Draw(f *render.Frame) error {
	if s.target == nil {
		return errors.New("no draw target")
	}
	if !s.loaded || f.Generation != s.gridGen {
		copy(s.pixels, f.Cells)
		// alpha carries the high id byte, which is always zero
		for i := 3; i < len(s.pixels); i += 4 {
			s.pixels[i] = 0xff
		}
		s.grid.WritePixels(s.pixels)
		s.gridGen = f.Generation
		s.loaded = true
	}

	w, h := float32(f.Viewport.Width), float32(f.Viewport.Height)
	gw, gh := float32(f.Dims.Width), float32(f.Dims.Height)
	corners := [6][4]float32{
		{0, 0, 0, 0}, {w, 0, gw, 0}, {0, h, 0, gh},
		{w, 0, gw, 0}, {w, h, gw, gh}, {0, h, 0, gh},
	}
	for i, c := range corners {
		s.vertices[i] = ebiten.Vertex{
			DstX: c[0], DstY: c[1],
			SrcX: c[2], SrcY: c[3],
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}

	s.uniforms["Camera"] = []float32{float32(f.Camera.X), float32(f.Camera.Y)}
	s.uniforms["Zoom"] = float32(f.Camera.Zoom)
	s.uniforms["Viewport"] = []float32{w, h}
	op := &ebiten.DrawTrianglesShaderOptions{Uniforms: s.uniforms}
	op.Images[0] = s.grid
	s.target.DrawTrianglesShader(s.vertices[:], quadIndices, s.shader, op)
	return nil
}
