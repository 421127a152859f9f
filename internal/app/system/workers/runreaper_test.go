package workers

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type countingReaper struct {
	calls     atomic.Int32
	threshold atomic.Int64
}

func (c *countingReaper) ReapIdle(threshold time.Duration) int {
	c.calls.Add(1)
	c.threshold.Store(int64(threshold))
	return 1
}

func TestRunReaper_SweepsUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingReaper{}
	w := NewRunReaper(r, zap.NewNop(), 5*time.Millisecond, time.Hour)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if r.calls.Load() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", r.calls.Load())
	}
	if got := time.Duration(r.threshold.Load()); got != time.Hour {
		t.Errorf("threshold = %v, want 1h", got)
	}
}
