package main

import "flag"

// Command-line flags controlling the world, the compute device and runtime
// behavior.
var (
	// levelFlag names a level image; empty generates one procedurally.
	levelFlag = flag.String("level", "", "level image (PGM, PNG, GIF or BMP); empty generates a level")

	widthFlag  = flag.Int("width", defaultWidth, "grid width for generated levels")
	heightFlag = flag.Int("height", defaultHeight, "grid height for generated levels")

	// seedFlag makes level generation reproducible. Zero picks a time-based seed.
	seedFlag = flag.Int64("seed", 0, "seed for generated levels (0 = time based)")

	ruleFlag   = flag.String("rule", "life", "world rule (life, copy)")
	deviceFlag = flag.String("device", "opencl", "compute device (opencl, software)")

	tickFlag      = flag.Duration("tick", defaultTickPeriod, "compute tick period (1ms-500ms)")
	inputTickFlag = flag.Duration("input-tick", defaultInputPeriod, "camera integration period")
	moveDeltaFlag = flag.Float64("move-delta", defaultMoveDelta, "camera movement per input tick per held key")
	zoomFlag      = flag.Float64("zoom", defaultZoom, "initial zoom factor")

	// debugFlag enables the FPS and simulation overlay.
	debugFlag = flag.Bool("debug", false, "show FPS, camera and tick overlay")

	// recordDefaultPGO triggers a scripted walk to produce default.pgo.
	recordDefaultPGO = flag.Bool("record-default-pgo", false, "walk randomly for 15s while capturing default.pgo")

	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this file")
)

