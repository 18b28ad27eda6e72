package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"cellworld/internal/camera"
	"cellworld/internal/render"
	"cellworld/internal/sim"
)

// directionKeys maps keyboard keys onto camera directions.
var directionKeys = []struct {
	dir  camera.Direction
	keys []ebiten.Key
}{
	{camera.Up, []ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}},
	{camera.Down, []ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}},
	{camera.Left, []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}},
	{camera.Right, []ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}},
}

// Game is the ebiten host. It captures keys, draws frames through the render
// pipeline and shows the debug overlay. Simulation work happens elsewhere.
type Game struct {
	sim     *sim.Simulation
	surface *shaderSurface

	fps render.FPSUpdate

	autoWalk           bool
	autoWalkDeadline   time.Time
	autoWalkRand       *rand.Rand
	autoWalkHeld       camera.Held
	autoWalkFrameCount int
	stopRecording      func()

	lastRenderErrLog time.Time
}

// newGame wraps a running simulation.
func newGame(s *sim.Simulation, surface *shaderSurface) *Game {
	return &Game{
		sim:          s,
		surface:      surface,
		autoWalkRand: rand.New(rand.NewSource(time.Now().UnixNano() + 2)),
	}
}

// Update captures input and collects frame-rate updates.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.autoWalk {
		g.autoWalkStep()
	} else {
		g.captureDirections()
	}
	g.handleZoom()
	g.handleComputeControls()

	select {
	case u := <-g.sim.Pipeline().Updates():
		g.fps = u
	default:
	}
	return nil
}

// captureDirections publishes the directions whose keys are currently held.
func (g *Game) captureDirections() {
	var held camera.Held
	for _, dk := range directionKeys {
		for _, k := range dk.keys {
			if ebiten.IsKeyPressed(k) {
				held |= camera.Held(dk.dir)
				break
			}
		}
	}
	g.sim.Input().Set(held)
}

// handleZoom applies +/- key presses and the mouse wheel.
func (g *Game) handleZoom() {
	cam := g.sim.Camera()
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		cam.ScaleZoom(zoomStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		cam.ScaleZoom(1 / zoomStep)
	}
	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		cam.ScaleZoom(1 + wheelY*wheelZoomStep)
	}
}

// handleComputeControls toggles pause (P) and requests single steps (N).
func (g *Game) handleComputeControls() {
	compute := g.sim.Compute()
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		compute.SetPaused(!compute.Paused())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && compute.Paused() {
		compute.RequestStep()
	}
}

// Draw renders the live generation and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	vp := render.Viewport{Width: b.Dx(), Height: b.Dy()}
	g.surface.target = screen
	err := g.sim.Pipeline().RenderFrame(g.surface, vp)
	g.surface.target = nil
	if err != nil && !errors.Is(err, render.ErrEmptyViewport) {
		g.logRenderError(err)
	}
	if *debugFlag {
		g.drawOverlay(screen)
	}
}

// Layout uses the whole window as the viewport.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (g *Game) logRenderError(err error) {
	now := time.Now()
	if now.Sub(g.lastRenderErrLog) < renderErrorLogInterval {
		return
	}
	log.Printf("render: dropped frame: %v", err)
	g.lastRenderErrLog = now
}

func (g *Game) drawOverlay(screen *ebiten.Image) {
	snap := g.sim.Camera().Snapshot()
	stats := g.sim.Compute().Stats()
	waits, waited := g.sim.Guard().Contention()
	state := ""
	if g.sim.Compute().Paused() {
		state = " (paused, N steps)"
	}
	msg := fmt.Sprintf("FPS: %.1f (%d dropped)\nCamera: %.3f, %.3f  zoom %.2fx (+/-)\nGeneration: %d%s\nTicks: %d done, %d skipped, last %.2f ms\nGuard waits: %d (%.1f ms)\nHeld: %s",
		g.fps.FPS, g.sim.Pipeline().Dropped(), snap.X, snap.Y, snap.Zoom,
		g.sim.Generation(), state,
		stats.Completed, stats.Skipped, stats.LastDuration.Seconds()*1000,
		waits, waited.Seconds()*1000,
		g.sim.Input().Snapshot())
	ebitenutil.DebugPrint(screen, msg)
}
