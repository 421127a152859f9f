// internal/app/features/importer/lookups.go
package importer

import (
	"context"
	"sync"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// selector is one context drop-down on the run page.
type selector struct {
	Key      string
	Label    string
	Selected string
	Options  []pharmaapi.Option
}

func listFor(api API, k bulkimport.ContextKey) func(context.Context) ([]pharmaapi.Option, error) {
	switch k {
	case bulkimport.KeyCountry:
		return api.ListCountries
	case bulkimport.KeyState:
		return func(ctx context.Context) ([]pharmaapi.Option, error) {
			return api.ListStates(ctx, "")
		}
	case bulkimport.KeyDistributor:
		return api.ListDistributors
	case bulkimport.KeyPharmacy:
		return api.ListPharmacies
	}
	return nil
}

// loadSelectors fetches the options of every selector p needs, in
// parallel. A failed list leaves its selector empty; the first error is
// returned so the page can say so.
func (h *Handler) loadSelectors(ctx context.Context, api API, p bulkimport.Profile, c bulkimport.Context) ([]selector, error) {
	sels := make([]selector, len(p.Requires))

	ctx, cancel := context.WithTimeout(ctx, timeouts.Lookup())
	defer cancel()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		firstErr error
	)
	for i, k := range p.Requires {
		sels[i] = selector{Key: string(k), Label: k.Label(), Selected: c.Get(k).String()}
		list := listFor(api, k)
		if list == nil {
			continue
		}
		g.Go(func() error {
			opts, err := list(ctx)
			if err != nil {
				h.Log.Warn("context lookup failed",
					zap.String("entity", string(p.Entity)),
					zap.String("key", string(k)),
					zap.Error(err))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			sels[i].Options = opts
			return nil
		})
	}
	_ = g.Wait()
	return sels, firstErr
}
