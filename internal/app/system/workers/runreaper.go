// internal/app/system/workers/runreaper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reaper forgets import runs that have sat idle too long.
type Reaper interface {
	ReapIdle(threshold time.Duration) int
}

// RunReaper is a background worker that drops abandoned import runs.
type RunReaper struct {
	runs          Reaper
	log           *zap.Logger
	interval      time.Duration
	idleThreshold time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewRunReaper creates a new run reaper.
//
// Parameters:
//   - runs: the live run registry
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 5 minutes)
//   - idleThreshold: how long a run must be unused before it is dropped (e.g., 2 hours)
func NewRunReaper(runs Reaper, logger *zap.Logger, interval, idleThreshold time.Duration) *RunReaper {
	return &RunReaper{
		runs:          runs,
		log:           logger,
		interval:      interval,
		idleThreshold: idleThreshold,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *RunReaper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("import run reaper started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_threshold", w.idleThreshold))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *RunReaper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("import run reaper stopped")
}

func (w *RunReaper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *RunReaper) sweep() {
	if n := w.runs.ReapIdle(w.idleThreshold); n > 0 {
		w.log.Info("dropped idle import runs", zap.Int("count", n))
	}
}
