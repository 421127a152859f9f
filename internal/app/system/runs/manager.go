// internal/app/system/runs/manager.go
package runs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown run IDs and for runs owned by
// someone else.
var ErrNotFound = errors.New("import run not found")

// Manager owns every live run.
type Manager struct {
	log *zap.Logger
	now func() time.Time

	mu   sync.Mutex
	runs map[string]*Run
}

// NewManager returns an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		log:  logger,
		now:  time.Now,
		runs: make(map[string]*Run),
	}
}

// Open creates a fresh Idle run for owner.
func (m *Manager) Open(owner string, p bulkimport.Profile) *Run {
	r := newRun(uuid.NewString(), owner, p, m.now())

	m.mu.Lock()
	m.runs[r.id] = r
	m.mu.Unlock()

	m.log.Debug("import run opened",
		zap.String("run_id", r.id),
		zap.String("entity", string(p.Entity)),
		zap.String("owner", owner))
	return r
}

// Get returns owner's run with the given id and marks it used.
func (m *Manager) Get(id, owner string) (*Run, error) {
	m.mu.Lock()
	r, ok := m.runs[id]
	m.mu.Unlock()
	if !ok || r.owner != owner {
		return nil, ErrNotFound
	}
	r.touch(m.now())
	return r, nil
}

// Keepalive marks owner's run as used. It reports whether the run exists.
func (m *Manager) Keepalive(id, owner string) bool {
	_, err := m.Get(id, owner)
	return err == nil
}

// Close stops any upload in flight, resets the run and forgets it.
func (m *Manager) Close(id, owner string) error {
	r, err := m.Get(id, owner)
	if err != nil {
		return err
	}
	r.Stop()
	_ = r.Reset()

	m.mu.Lock()
	delete(m.runs, id)
	m.mu.Unlock()

	m.log.Debug("import run closed", zap.String("run_id", id))
	return nil
}

// CloseOwner closes every run owned by owner and reports how many.
func (m *Manager) CloseOwner(owner string) int {
	m.mu.Lock()
	var ids []string
	for id, r := range m.runs {
		if r.owner == owner {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, id := range ids {
		if m.Close(id, owner) == nil {
			n++
		}
	}
	return n
}

// Len reports how many runs are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

// ReapIdle forgets runs not used for longer than threshold. Uploading runs
// are never reaped.
func (m *Manager) ReapIdle(threshold time.Duration) int {
	cutoff := m.now().Add(-threshold)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, r := range m.runs {
		last, st := r.idleSince()
		if st == Uploading || !last.Before(cutoff) {
			continue
		}
		delete(m.runs, id)
		n++
	}
	return n
}

// Shutdown cancels every upload in flight and waits for them, or for ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	live := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		live = append(live, r)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, r := range live {
		wg.Add(1)
		go func(r *Run) {
			defer wg.Done()
			r.Stop()
		}(r)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info("import runs stopped", zap.Int("count", len(live)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
