// Package runs keeps the live import runs of the console in memory.
//
// A Run walks Idle -> FileSelected -> Previewing -> Uploading -> Completed.
// All of its state sits behind one mutex; handlers read copies through
// View. Nothing here survives a restart.
package runs

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
	"github.com/google/uuid"
)

// State is the run's position in its lifecycle.
type State string

const (
	Idle         State = "idle"
	FileSelected State = "file_selected"
	Previewing   State = "previewing"
	Uploading    State = "uploading"
	Completed    State = "completed"
)

// PreviewLimit caps the candidates copied into a View.
const PreviewLimit = 200

var (
	ErrBusy      = errors.New("an upload is in progress")
	ErrNotReady  = errors.New("nothing to upload yet")
	ErrCompleted = errors.New("the upload already finished; reset or choose a new file")
)

// data is everything Reset clears.
type data struct {
	state      State
	fileName   string
	parseErr   string
	rows       []sheet.Row
	ctx        bulkimport.Context
	candidates []bulkimport.Candidate
	progress   bulkimport.Progress
	result     bulkimport.Result
	uploadID   string
	startedAt  time.Time
	finishedAt time.Time
}

// Run is one import lifecycle owned by one user.
type Run struct {
	id      string
	owner   string
	profile bulkimport.Profile

	mu       sync.Mutex
	d        data
	cancel   context.CancelFunc
	done     chan struct{}
	lastUsed time.Time
}

func newRun(id, owner string, p bulkimport.Profile, now time.Time) *Run {
	return &Run{
		id:       id,
		owner:    owner,
		profile:  p,
		d:        data{state: Idle},
		lastUsed: now,
	}
}

func (r *Run) ID() string                  { return r.id }
func (r *Run) Owner() string               { return r.owner }
func (r *Run) Profile() bulkimport.Profile { return r.profile }

// Reset returns the run to Idle. It refuses while uploading.
func (r *Run) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.d.state == Uploading {
		return ErrBusy
	}
	r.reset()
	return nil
}

func (r *Run) reset() {
	r.d = data{state: Idle}
	r.cancel = nil
	r.done = nil
}

// SelectFile replaces the current file. The run is reset first; a file
// that cannot be decoded leaves the run in FileSelected with the name kept
// and the error recorded. With the context already complete the rows are
// mapped straight away.
func (r *Run) SelectFile(name string, body io.Reader) error {
	r.mu.Lock()
	if r.d.state == Uploading {
		r.mu.Unlock()
		return ErrBusy
	}
	ctx := r.d.ctx
	r.mu.Unlock()

	rows, decodeErr := sheet.Decode(name, body)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.d.state == Uploading {
		return ErrBusy
	}
	r.reset()
	r.d.ctx = ctx
	r.d.fileName = name
	r.d.state = FileSelected
	if decodeErr != nil {
		r.d.parseErr = decodeErr.Error()
		return decodeErr
	}
	r.d.rows = rows
	return r.remap()
}

// SetContext records new foreign keys. Any rows already decoded are mapped
// again from scratch so no candidate keeps a stale key. A Completed run
// keeps its result; it has to be reset or given a new file first.
func (r *Run) SetContext(c bulkimport.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.d.state {
	case Uploading:
		return ErrBusy
	case Completed:
		return ErrCompleted
	}
	r.d.ctx = c
	if r.d.rows == nil {
		return nil
	}
	return r.remap()
}

// remap must be called with mu held.
func (r *Run) remap() error {
	cands, err := r.profile.MapAll(r.d.rows, r.d.ctx)
	if err != nil {
		r.d.candidates = nil
		r.d.state = FileSelected
		return err
	}
	r.d.candidates = cands
	r.d.state = Previewing
	r.d.result = bulkimport.Result{}
	r.d.progress = bulkimport.Progress{}
	return nil
}

// Start launches the upload on its own goroutine. onDone runs on that
// goroutine after the run is Completed.
func (r *Run) Start(parent context.Context, sub *bulkimport.Submitter, opts bulkimport.Options, onDone func(View)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.d.state == Uploading:
		return ErrBusy
	case r.d.state != Previewing || len(r.d.candidates) == 0:
		return ErrNotReady
	}
	if err := r.d.ctx.Check(r.profile.Requires); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	cands := r.d.candidates

	r.cancel = cancel
	r.done = done
	r.d.state = Uploading
	r.d.uploadID = uuid.NewString()
	r.d.startedAt = time.Now().UTC()
	r.d.progress = bulkimport.Progress{TotalBatches: len(bulkimport.Partition(cands, r.profile.BatchSize)), Total: len(cands)}

	userProgress := opts.OnProgress
	opts.OnProgress = func(p bulkimport.Progress) {
		r.mu.Lock()
		r.d.progress = p
		r.mu.Unlock()
		if userProgress != nil {
			userProgress(p)
		}
	}

	go func() {
		defer close(done)
		defer cancel()

		res := sub.Run(ctx, r.profile, cands, opts)

		r.mu.Lock()
		r.d.result = res
		r.d.state = Completed
		r.d.finishedAt = time.Now().UTC()
		v := r.view()
		r.mu.Unlock()

		if onDone != nil {
			onDone(v)
		}
	}()
	return nil
}

// Cancel asks an upload in flight to stop after its current batch. It
// does not wait.
func (r *Run) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stop cancels an upload in flight and waits for its goroutine. It is a
// no-op when nothing runs.
func (r *Run) Stop() {
	r.Cancel()
	r.Wait()
}

// Wait blocks until the upload goroutine, if any, has finished.
func (r *Run) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Run) touch(now time.Time) {
	r.mu.Lock()
	r.lastUsed = now
	r.mu.Unlock()
}

func (r *Run) idleSince() (time.Time, State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUsed, r.d.state
}

// View is a copy of the run for rendering.
type View struct {
	ID         string
	Owner      string
	Entity     bulkimport.Entity
	State      State
	FileName   string
	ParseError string
	Context    bulkimport.Context
	RowCount   int
	Preview    []bulkimport.Candidate
	Progress   bulkimport.Progress
	Result     bulkimport.Result
	UploadID   string
	StartedAt  time.Time
	FinishedAt time.Time
}

// View copies the current state.
func (r *Run) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

func (r *Run) view() View {
	preview := r.d.candidates
	if len(preview) > PreviewLimit {
		preview = preview[:PreviewLimit]
	}
	return View{
		ID:         r.id,
		Owner:      r.owner,
		Entity:     r.profile.Entity,
		State:      r.d.state,
		FileName:   r.d.fileName,
		ParseError: r.d.parseErr,
		Context:    r.d.ctx,
		RowCount:   len(r.d.rows),
		Preview:    append([]bulkimport.Candidate(nil), preview...),
		Progress:   r.d.progress,
		Result:     r.d.result.Clone(),
		UploadID:   r.d.uploadID,
		StartedAt:  r.d.startedAt,
		FinishedAt: r.d.finishedAt,
	}
}
