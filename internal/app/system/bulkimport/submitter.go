// internal/app/system/bulkimport/submitter.go
package bulkimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// BulkCreator is the one API call the submitter needs.
type BulkCreator interface {
	BulkCreate(ctx context.Context, endpoint, pluralKey string, records any) (*pharmaapi.BulkResponse, error)
}

// Partition splits items into contiguous chunks of at most size elements.
// A size below 1 yields a single chunk.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = len(items)
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Options are the per-run callbacks.
type Options struct {
	OnProgress ProgressFunc
	// OnSuccess runs once after the last batch when at least one record was
	// created.
	OnSuccess func(Result)
}

// Submitter drains candidates through the bulk-create endpoint one batch at
// a time.
type Submitter struct {
	API BulkCreator
	Log *zap.Logger

	// BatchTimeout bounds a single call. Zero uses timeouts.Batch().
	BatchTimeout time.Duration

	// Sleep waits between batches. Nil uses a timer that returns early
	// when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run submits candidates in p.BatchSize chunks, strictly in order, pausing
// p.BatchDelay between chunks. A failed call counts its whole chunk as
// failed and the run moves on. Cancelling ctx stops the run before the
// next chunk; a chunk already sent is allowed to finish.
func (s *Submitter) Run(ctx context.Context, p Profile, candidates []Candidate, opts Options) Result {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("entity", string(p.Entity)))

	chunks := Partition(candidates, p.BatchSize)
	res := Result{Total: len(candidates), Batches: len(chunks)}

	start := 0
	for i, chunk := range chunks {
		n := i + 1
		if ctx.Err() != nil {
			s.cancel(&res, start, log)
			break
		}

		s.submit(ctx, p, chunk, n, start, &res, log)
		start += len(chunk)

		if opts.OnProgress != nil {
			opts.OnProgress(newProgress(n, len(chunks), res.Total, &res))
		}

		if n < len(chunks) && p.BatchDelay > 0 {
			if err := s.sleep(ctx, p.BatchDelay); err != nil {
				s.cancel(&res, start, log)
				break
			}
		}
	}

	log.Info("bulk import finished",
		zap.Int("total", res.Total),
		zap.Int("created", res.Created),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		zap.Bool("cancelled", res.Cancelled))

	if res.Created > 0 && opts.OnSuccess != nil {
		opts.OnSuccess(res.Clone())
	}
	return res
}

func (s *Submitter) submit(ctx context.Context, p Profile, chunk []Candidate, n, start int, res *Result, log *zap.Logger) {
	timeout := s.BatchTimeout
	if timeout <= 0 {
		timeout = timeouts.Batch()
	}
	callCtx, cancel := timeouts.WithTimeout(context.WithoutCancel(ctx), timeout, log, fmt.Sprintf("bulk import batch %d", n))
	defer cancel()

	resp, err := s.API.BulkCreate(callCtx, p.Endpoint, p.PluralKey, chunk)
	if err != nil {
		log.Warn("bulk import batch failed",
			zap.Int("batch", n),
			zap.Int("size", len(chunk)),
			zap.Error(err))
		res.Failed += len(chunk)
		res.Errors = append(res.Errors, RowError{
			Index:   -1,
			Batch:   n,
			Message: fmt.Sprintf("Error en lote %d: %s", n, batchMessage(err)),
		})
		return
	}

	res.Created += resp.Summary.Created
	res.Failed += resp.Summary.Failed
	for _, e := range resp.Errors {
		res.Errors = append(res.Errors, RowError{
			Index:   start + e.Index,
			Batch:   n,
			Message: e.Message(),
		})
	}
}

// batchMessage is the user-facing reason for a failed batch. Errors the
// user can act on are reworded; API messages pass through.
func batchMessage(err error) string {
	switch {
	case errors.Is(err, pharmaapi.ErrUnauthorized):
		return "la sesión fue rechazada por la API; inicie sesión de nuevo"
	case errors.Is(err, context.DeadlineExceeded):
		return "la API no respondió a tiempo"
	}
	return err.Error()
}

func (s *Submitter) cancel(res *Result, start int, log *zap.Logger) {
	res.Cancelled = true
	res.Skipped = res.Total - start
	log.Info("bulk import cancelled", zap.Int("skipped", res.Skipped))
}

func (s *Submitter) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
