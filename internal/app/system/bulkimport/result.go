// internal/app/system/bulkimport/result.go
package bulkimport

import "fmt"

// RowError is one failure reported to the user. Index is the 0-based
// position in the whole candidate list; batch-level failures have Index -1
// and carry only Batch.
type RowError struct {
	Index   int    `json:"index"`
	Batch   int    `json:"batch"`
	Message string `json:"message"`
}

// String renders the error the way the results list shows it.
func (e RowError) String() string {
	if e.Index < 0 {
		return e.Message
	}
	return fmt.Sprintf("Fila %d: %s", e.Index+1, e.Message)
}

// Result is the running tally of a submission.
type Result struct {
	Total     int        `json:"total"`
	Created   int        `json:"created"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Batches   int        `json:"batches"`
	Cancelled bool       `json:"cancelled"`
	Errors    []RowError `json:"errors"`
}

// Clean reports whether nothing failed or was skipped.
func (r Result) Clean() bool { return r.Failed == 0 && r.Skipped == 0 && !r.Cancelled }

// Clone returns a deep copy.
func (r Result) Clone() Result {
	if r.Errors != nil {
		r.Errors = append([]RowError(nil), r.Errors...)
	}
	return r
}
