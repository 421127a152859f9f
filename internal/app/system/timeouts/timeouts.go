// Package timeouts holds the deadlines used for database work and calls to
// the pharmacy API.
//
// Values start at the defaults below and may be changed once at startup with
// Configure or ConfigureFromEnv.
//
//   - Ping: health probes of Mongo and the API
//   - Short: single-document reads and writes, session lookups
//   - Lookup: list calls that fill the context selectors
//   - Batch: one bulk-create request of an import run
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultLookup = 15 * time.Second
	DefaultBatch  = 60 * time.Second
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	lookup = DefaultLookup
	batch  = DefaultBatch
)

// Ping returns the timeout for health probes.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Lookup returns the timeout for API list calls.
func Lookup() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return lookup
}

// Batch returns the timeout for a single bulk-create request.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Lookup time.Duration
	Batch  time.Duration
}

// Configure applies the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&lookup, cfg.Lookup)
	set(&batch, cfg.Batch)
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, lookup, batch = DefaultPing, DefaultShort, DefaultLookup, DefaultBatch
}

// ConfigureFromEnv reads PHARMAHUB_TIMEOUT_PING, _SHORT, _LOOKUP and _BATCH
// as Go durations ("2s", "1m30s"). Unset or invalid values are ignored. It
// returns how many values were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()

	n := 0
	for name, dst := range map[string]*time.Duration{
		"PHARMAHUB_TIMEOUT_PING":   &ping,
		"PHARMAHUB_TIMEOUT_SHORT":  &short,
		"PHARMAHUB_TIMEOUT_LOOKUP": &lookup,
		"PHARMAHUB_TIMEOUT_BATCH":  &batch,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	return n
}

// Current returns the values in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Lookup: lookup, Batch: batch}
}

func set(dst *time.Duration, d time.Duration) {
	if d > 0 {
		*dst = d
	}
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was the reason the context ended.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Batch(), log, "bulk import batch 3")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
