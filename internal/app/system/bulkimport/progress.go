// internal/app/system/bulkimport/progress.go
package bulkimport

// Progress is the snapshot published after each batch.
type Progress struct {
	Batch        int `json:"batch"`
	TotalBatches int `json:"total_batches"`
	Percent      int `json:"percent"`
	Created      int `json:"created"`
	Failed       int `json:"failed"`
	Processed    int `json:"processed"`
	Total        int `json:"total"`
}

// ProgressFunc receives snapshots. It runs on the submitting goroutine and
// must return promptly.
type ProgressFunc func(Progress)

func newProgress(batch, totalBatches, total int, r *Result) Progress {
	pct := 100
	if totalBatches > 0 {
		pct = batch * 100 / totalBatches
	}
	return Progress{
		Batch:        batch,
		TotalBatches: totalBatches,
		Percent:      pct,
		Created:      r.Created,
		Failed:       r.Failed,
		Processed:    r.Created + r.Failed,
		Total:        total,
	}
}
