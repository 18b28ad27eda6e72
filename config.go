package main

import "time"

// Defaults and tuning for the host. Grid size, timing and camera defaults can
// be overridden by flags.
const (
	defaultWidth, defaultHeight = 64, 64
	windowSize                  = 640
	defaultTickPeriod           = 50 * time.Millisecond
	defaultInputPeriod          = 2 * time.Millisecond
	defaultMoveDelta            = 0.001
	defaultZoom                 = 1.0
	zoomStep                    = 1.25
	wheelZoomStep               = 0.1
	levelDensity                = 0.35
	wallSegments                = 6
	pgoRecordDuration           = 15 * time.Second
	defaultPGOPath              = "default.pgo"
	autoWalkMinFrames           = 20
	autoWalkMaxFrames           = 70
	renderErrorLogInterval      = time.Second
)
