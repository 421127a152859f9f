// internal/app/features/importhistory/detail.go
package importhistory

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"time"

	uierrors "github.com/dalemusser/pharmahub/internal/app/features/errors"
	"github.com/dalemusser/pharmahub/internal/app/store/importruns"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/pharmahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextItem struct {
	Key   string
	Value string
}

type detailData struct {
	viewdata.BaseVM
	Entity     string
	FileName   string
	OwnerName  string
	Context    []contextItem
	Total      int
	Created    int
	Failed     int
	Skipped    int
	Batches    int
	Cancelled  bool
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   string
	Errors     []template.HTML

	// HiddenErrors counts errors beyond what the record kept.
	HiddenErrors int
}

func (h *Handler) buildDetail(rec importruns.Record) detailData {
	d := detailData{
		Entity:     h.labelOf(rec.Entity),
		FileName:   rec.FileName,
		OwnerName:  rec.OwnerName,
		Total:      rec.Total,
		Created:    rec.Created,
		Failed:     rec.Failed,
		Skipped:    rec.Skipped,
		Batches:    rec.Batches,
		Cancelled:  rec.Cancelled,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Duration:   rec.Duration().Round(time.Second).String(),
	}
	for k, v := range rec.Context {
		d.Context = append(d.Context, contextItem{Key: k, Value: v})
	}
	sort.Slice(d.Context, func(i, j int) bool { return d.Context[i].Key < d.Context[j].Key })

	d.Errors = make([]template.HTML, len(rec.Errors))
	for i, e := range rec.Errors {
		d.Errors[i] = htmlsanitize.PrepareForDisplay(e)
	}
	if rec.ErrorCount > len(rec.Errors) {
		d.HiddenErrors = rec.ErrorCount - len(rec.Errors)
	}
	return d
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /imports/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDetail shows one history record with its row errors. Records of
// other users look like missing ones unless the viewer is an admin.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	const notFound = "La importación no existe."

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, notFound, "/imports")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Store.Get(ctx, id)
	switch {
	case errors.Is(err, importruns.ErrNotFound):
		uierrors.RenderNotFound(w, r, notFound, "/imports")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "import history: get failed", err, "No se pudo cargar la importación.", "/imports")
		return
	}
	if !seesEveryone(u) && rec.OwnerID != u.ID {
		uierrors.RenderNotFound(w, r, notFound, "/imports")
		return
	}

	data := h.buildDetail(rec)
	data.BaseVM = viewdata.NewBaseVM(r, "Detalle de importación", "/imports")
	templates.Render(w, r, "import_detail", data)
}
