// internal/app/features/importer/pages.go
package importer

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/normalize"
	"github.com/dalemusser/pharmahub/internal/app/system/runs"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

/*─────────────────────────────────────────────────────────────────────────────*
| GET /import/{entity} – open a run                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	run := h.Runs.Open(u.ID, p)
	http.Redirect(w, r, runURL(p.Entity, run.ID()), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /import/{entity}/runs/{runID}                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRun(w http.ResponseWriter, r *http.Request) {
	run, u, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	p := run.Profile()
	v := run.View()

	data := buildRunPage(v, p, query.Get(r, "notice"), h.maxUpload())
	data.BaseVM = viewdata.NewBaseVM(r, "Importar "+p.Label, "/")

	// Selectors are only editable before the upload starts.
	if v.State != runs.Uploading && v.State != runs.Completed {
		sels, err := h.loadSelectors(r.Context(), h.Client(u.APIToken), p, v.Context)
		data.Selectors = sels
		data.LookupError = err != nil
	}

	templates.Render(w, r, "import_run", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /import/{entity}/runs/{runID}/progress – JSON poll                      |
*─────────────────────────────────────────────────────────────────────────────*/

type progressResponse struct {
	State    runs.State          `json:"state"`
	Progress bulkimport.Progress `json:"progress"`
	Result   *resultView         `json:"result,omitempty"`
}

func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	run, _, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	v := run.View()

	resp := progressResponse{State: v.State, Progress: v.Progress}
	if v.State == runs.Completed {
		rv := newResultView(v.Result)
		resp.Result = &rv
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Warn("progress: encode failed", zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /import/{entity}/template – xlsx download                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeTemplate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	u, _ := auth.CurrentUser(r)

	var c bulkimport.Context
	if p.Entity == bulkimport.SubPharmacies && u != nil {
		if id := normalize.SelectID(query.Get(r, "pharmacy_id")); id != "" {
			c.PharmacyID = pharmaapi.ID(id)
			c.PharmacyName = h.pharmacyName(r.Context(), u, c.PharmacyID)
		}
	}

	var buf bytes.Buffer
	if err := bulkimport.WriteTemplate(&buf, p); err != nil {
		h.ErrLog.LogServerError(w, r, "template: write workbook failed", err, "No se pudo generar la plantilla.", entityURL(p.Entity))
		return
	}

	name := bulkimport.TemplateFileName(p, c)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.Log.Warn("template: write response failed", zap.Error(err))
		return
	}

	if u != nil {
		h.AuditLog.TemplateDownloaded(r.Context(), r, u.ID, string(p.Entity))
	}
}
