// internal/app/features/importer/history.go
package importer

import (
	"context"

	"github.com/dalemusser/pharmahub/internal/app/store/importruns"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/runs"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var contextKeys = []bulkimport.ContextKey{
	bulkimport.KeyCountry,
	bulkimport.KeyState,
	bulkimport.KeyDistributor,
	bulkimport.KeyPharmacy,
}

func historyRecord(v runs.View, ownerID, ownerName string) importruns.Record {
	ctx := make(map[string]string)
	for _, k := range contextKeys {
		if id := v.Context.Get(k); !id.IsZero() {
			ctx[string(k)] = id.String()
		}
	}
	if v.Context.PharmacyName != "" {
		ctx["pharmacy_name"] = v.Context.PharmacyName
	}

	errs := make([]string, len(v.Result.Errors))
	for i, e := range v.Result.Errors {
		errs[i] = e.String()
	}

	return importruns.Record{
		RunID:      v.UploadID,
		Entity:     string(v.Entity),
		FileName:   v.FileName,
		OwnerID:    ownerID,
		OwnerName:  ownerName,
		Context:    ctx,
		Total:      v.Result.Total,
		Created:    v.Result.Created,
		Failed:     v.Result.Failed,
		Skipped:    v.Result.Skipped,
		Batches:    v.Result.Batches,
		Cancelled:  v.Result.Cancelled,
		Errors:     errs,
		ErrorCount: len(errs),
		StartedAt:  v.StartedAt,
		FinishedAt: v.FinishedAt,
	}
}

// recordRun returns the completion hook of an upload. Writing history is
// best effort: a failure is logged and the run result stands.
func (h *Handler) recordRun(ownerID, ownerName string) func(runs.View) {
	return func(v runs.View) {
		if h.History == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()

		if _, err := h.History.Save(ctx, historyRecord(v, ownerID, ownerName)); err != nil {
			h.Log.Warn("import history not saved",
				zap.String("run_id", v.ID),
				zap.String("upload_id", v.UploadID),
				zap.Error(err))
		}
	}
}
