package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// cpuProfile is a running CPU profile capture. Only one can run at a time;
// both -cpuprofile and -record-default-pgo go through it.
type cpuProfile struct {
	path    string
	f       *os.File
	started time.Time
	once    sync.Once
}

// activeProfile is stopped by fatalf so an early exit still flushes it.
var activeProfile *cpuProfile

// startCPUProfile begins writing a CPU profile to path.
func startCPUProfile(path string) (*cpuProfile, error) {
	if activeProfile != nil {
		return nil, fmt.Errorf("CPU profile %s already running", activeProfile.path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	p := &cpuProfile{path: path, f: f, started: time.Now()}
	activeProfile = p
	return p, nil
}

// Stop flushes and closes the profile. Later calls do nothing.
func (p *cpuProfile) Stop() {
	p.once.Do(func() {
		pprof.StopCPUProfile()
		if err := p.f.Close(); err != nil {
			log.Printf("closing CPU profile %s: %v", p.path, err)
		} else {
			log.Printf("wrote CPU profile %s (%v)", p.path, time.Since(p.started).Round(time.Millisecond))
		}
		if activeProfile == p {
			activeProfile = nil
		}
	})
}

// fatalf stops any running profile, then logs and exits.
func fatalf(format string, args ...any) {
	if activeProfile != nil {
		activeProfile.Stop()
	}
	log.Fatalf(format, args...)
}
