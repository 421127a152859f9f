// internal/app/features/importer/actions.go
package importer

import (
	"errors"
	"net/http"
	"slices"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/normalize"
	"github.com/dalemusser/pharmahub/internal/app/system/runs"
	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/runs/{runID}/context                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	run, u, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	p := run.Profile()
	dest := runURL(p.Entity, run.ID())

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "context: parse form failed", err, "Datos de formulario inválidos.", dest)
		return
	}

	c := run.View().Context
	for _, k := range p.Requires {
		c.Set(k, pharmaapi.ID(normalize.SelectID(r.FormValue(string(k)))))
	}
	if slices.Contains(p.Requires, bulkimport.KeyPharmacy) {
		c.PharmacyName = h.pharmacyName(r.Context(), u, c.PharmacyID)
	}

	err := run.SetContext(c)
	switch {
	case errors.Is(err, runs.ErrBusy):
		redirect(w, r, dest, "busy")
	case errors.Is(err, runs.ErrCompleted):
		redirect(w, r, dest, "completed")
	case errors.Is(err, bulkimport.ErrContextMissing):
		redirect(w, r, dest, "context_missing")
	case err != nil:
		h.ErrLog.LogServerError(w, r, "context: set failed", err, "No se pudo actualizar el contexto.", dest)
	default:
		redirect(w, r, dest, "context_saved")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/runs/{runID}/file – multipart upload                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func fileNotice(err error) string {
	switch {
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return "file_format"
	case errors.Is(err, sheet.ErrNoRows):
		return "file_empty"
	case errors.Is(err, sheet.ErrTooManyRows):
		return "file_rows"
	default:
		return "file_error"
	}
}

func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	run, u, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	p := run.Profile()
	dest := runURL(p.Entity, run.ID())

	limit := h.maxUpload()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			redirect(w, r, dest, "file_too_large")
			return
		}
		redirect(w, r, dest, "file_missing")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		redirect(w, r, dest, "file_missing")
		return
	}
	defer file.Close()

	err = run.SelectFile(hdr.Filename, file)
	switch {
	case errors.Is(err, runs.ErrBusy):
		redirect(w, r, dest, "busy")
	case errors.Is(err, bulkimport.ErrContextMissing):
		// The rows are kept; choosing the context maps them.
		redirect(w, r, dest, "context_missing")
	case err != nil:
		h.Log.Info("import file rejected",
			zap.String("run_id", run.ID()),
			zap.String("user_id", u.ID),
			zap.String("file", hdr.Filename),
			zap.Error(err))
		redirect(w, r, dest, fileNotice(err))
	default:
		redirect(w, r, dest, "file_loaded")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/runs/{runID}/start                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	run, u, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	p := run.Profile()
	dest := runURL(p.Entity, run.ID())

	sub := &bulkimport.Submitter{
		API:          h.Client(u.APIToken),
		Log:          h.Log.With(zap.String("run_id", run.ID())),
		BatchTimeout: h.BatchTimeout,
	}

	err := run.Start(h.baseCtx(), sub, bulkimport.Options{}, h.recordRun(u.ID, u.Name))
	switch {
	case errors.Is(err, runs.ErrBusy):
		redirect(w, r, dest, "busy")
		return
	case errors.Is(err, runs.ErrNotReady):
		redirect(w, r, dest, "not_ready")
		return
	case errors.Is(err, bulkimport.ErrContextMissing):
		redirect(w, r, dest, "context_missing")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "start: run failed to start", err, "No se pudo iniciar la carga.", dest)
		return
	}

	v := run.View()
	h.Log.Info("bulk import started",
		zap.String("run_id", v.ID),
		zap.String("entity", string(p.Entity)),
		zap.String("user_id", u.ID),
		zap.String("file", v.FileName),
		zap.Int("rows", v.RowCount))
	h.AuditLog.ImportStarted(r.Context(), r, u.ID, v.ID, string(p.Entity), v.FileName, v.RowCount)

	redirect(w, r, dest, "started")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/runs/{runID}/reset                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	run, _, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	dest := runURL(run.Profile().Entity, run.ID())

	if err := run.Reset(); err != nil {
		redirect(w, r, dest, "busy")
		return
	}
	redirect(w, r, dest, "reset")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/runs/{runID}/close                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleClose forgets the run. An upload in flight stops after its
// current batch; the rest is recorded as skipped.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	run, u, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	v := run.View()

	if err := h.Runs.Close(v.ID, u.ID); err != nil {
		// Already closed by another tab or the reaper.
		h.Log.Debug("close: run already gone", zap.String("run_id", v.ID), zap.Error(err))
	}
	if v.State == runs.Uploading {
		h.AuditLog.ImportCancelled(r.Context(), r, u.ID, v.ID, string(v.Entity))
	}

	redirect(w, r, "/", "")
}
