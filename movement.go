package main

import (
	"log"
	"time"

	"cellworld/internal/camera"
)

// enableAutoWalk schedules scripted movement for a limited duration. stop is
// called once the walk ends.
func (g *Game) enableAutoWalk(duration time.Duration, stop func()) {
	g.autoWalk = true
	g.autoWalkDeadline = time.Now().Add(duration)
	g.autoWalkFrameCount = 0
	g.stopRecording = stop
}

// autoWalkStep holds a random set of directions, changing it every few dozen
// frames, until the deadline passes.
func (g *Game) autoWalkStep() {
	if time.Now().After(g.autoWalkDeadline) {
		g.autoWalk = false
		g.sim.Input().Set(0)
		g.finishRecording()
		return
	}
	if g.autoWalkFrameCount <= 0 {
		g.randomizeAutoWalkDirection()
	}
	g.autoWalkFrameCount--
	g.sim.Input().Set(g.autoWalkHeld)
}

// randomizeAutoWalkDirection picks one or two non-opposing directions.
func (g *Game) randomizeAutoWalkDirection() {
	vertical := []camera.Direction{0, camera.Up, camera.Down}
	horizontal := []camera.Direction{0, camera.Left, camera.Right}
	held := camera.Held(vertical[g.autoWalkRand.Intn(3)] | horizontal[g.autoWalkRand.Intn(3)])
	if held == 0 {
		held = camera.Held(camera.Right)
	}
	g.autoWalkHeld = held
	g.autoWalkFrameCount = autoWalkMinFrames + g.autoWalkRand.Intn(autoWalkMaxFrames-autoWalkMinFrames)
	if g.autoWalkRand.Intn(4) == 0 {
		g.sim.Camera().ScaleZoom(zoomStep)
	}
}

// finishRecording stops a pending profile capture.
func (g *Game) finishRecording() {
	if g.stopRecording == nil {
		return
	}
	g.stopRecording()
	g.stopRecording = nil
	log.Printf("auto-walk finished")
}
