package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"cellworld/internal/gpu"
	"cellworld/internal/kernels"
	"cellworld/internal/level"
	"cellworld/internal/sim"
)

func main() {
	flag.Parse()
	if *cpuProfileFlag != "" && *recordDefaultPGO {
		log.Fatalf("-cpuprofile and -record-default-pgo both capture a CPU profile; pick one")
	}
	if *cpuProfileFlag != "" {
		profile, err := startCPUProfile(*cpuProfileFlag)
		if err != nil {
			log.Fatalf("CPU profile: %v", err)
		}
		defer profile.Stop()
	}

	prog, err := kernels.Lookup(*ruleFlag)
	if err != nil {
		fatalf("%v (available: %v)", err, kernels.Names())
	}
	lvl, err := loadLevel()
	if err != nil {
		fatalf("level: %v", err)
	}

	dev, err := gpu.Open(*deviceFlag, prog)
	if err != nil {
		fatalf("compute device initialization failed: %v", err)
	}
	log.Printf("compute device: %s, rule %s, grid %s", dev.Name(), prog.Name, lvl.Dims)

	s, err := sim.New(dev, sim.Config{
		Dims:        lvl.Dims,
		Seed:        lvl.Seed(),
		TickPeriod:  *tickFlag,
		InputPeriod: *inputTickFlag,
		MoveDelta:   *moveDeltaFlag,
		CameraX:     0.5,
		CameraY:     0.5,
		Zoom:        *zoomFlag,
	})
	if err != nil {
		dev.Close()
		fatalf("simulation: %v", err)
	}
	surface, err := newShaderSurface(lvl.Dims)
	if err != nil {
		s.Close()
		fatalf("render pipeline: %v", err)
	}

	g := newGame(s, surface)
	if *recordDefaultPGO {
		profile, err := startCPUProfile(defaultPGOPath)
		if err != nil {
			s.Close()
			fatalf("default.pgo recording: %v", err)
		}
		log.Printf("recording %s during a %v auto-walk", defaultPGOPath, pgoRecordDuration)
		g.enableAutoWalk(pgoRecordDuration, profile.Stop)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		fatalf("starting simulation: %v", err)
	}

	ww, wh := windowDims(lvl.Dims)
	ebiten.SetWindowSize(ww, wh)
	ebiten.SetWindowTitle("Cell World")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	runErr := ebiten.RunGame(g)

	g.finishRecording()
	if err := s.Close(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if runErr != nil {
		fatalf("game loop: %v", runErr)
	}
}

// loadLevel reads -level or generates a level from -seed.
func loadLevel() (*level.Level, error) {
	if *levelFlag != "" {
		return level.Load(*levelFlag)
	}
	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	dims := gpu.Dims{Width: *widthFlag, Height: *heightFlag}
	log.Printf("generating %s level (seed %d)", dims, seed)
	return level.Generate(level.GenerateOptions{
		Dims:    dims,
		Seed:    seed,
		Density: levelDensity,
		Walls:   wallSegments,
	})
}

// windowDims fits the grid's aspect ratio into windowSize.
func windowDims(dims gpu.Dims) (int, int) {
	if dims.Width >= dims.Height {
		return windowSize, max(1, windowSize*dims.Height/dims.Width)
	}
	return max(1, windowSize*dims.Width/dims.Height), windowSize
}
