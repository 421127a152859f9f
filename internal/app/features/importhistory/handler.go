// internal/app/features/importhistory/handler.go
package importhistory

import (
	"context"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/pharmahub/internal/app/features/errors"
	"github.com/dalemusser/pharmahub/internal/app/store/importruns"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/normalize"
	"github.com/dalemusser/pharmahub/internal/app/system/paging"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reader reads import history.
type Reader interface {
	List(ctx context.Context, f importruns.ListFilter) ([]importruns.Record, error)
	Count(ctx context.Context, f importruns.ListFilter) (int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (importruns.Record, error)
}

type Handler struct {
	Store    Reader
	Registry *bulkimport.Registry
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(store Reader, reg *bulkimport.Registry, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		Registry: reg,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type entityOption struct {
	Value    string
	Label    string
	Selected bool
}

type row struct {
	URL        string
	Entity     string
	FileName   string
	OwnerName  string
	Created    int
	Failed     int
	Skipped    int
	Total      int
	ErrorCount int
	Cancelled  bool
	FinishedAt time.Time
	Duration   string
}

type listData struct {
	viewdata.BaseVM
	Entities []entityOption
	Entity   string
	AllUsers bool
	Rows     []row
	Total    int64
	Page     paging.Page
	PrevURL  string
	NextURL  string
}

// seesEveryone reports whether u may list other users' imports.
func seesEveryone(u *auth.SessionUser) bool {
	return u != nil && u.Role == "admin"
}

// buildFilter reads ?entity= and ?start= for u. Unknown entities are
// ignored; non-admins only ever see their own runs.
func (h *Handler) buildFilter(r *http.Request, u *auth.SessionUser) (importruns.ListFilter, int) {
	start := paging.ParseStart(r)
	f := importruns.ListFilter{
		Limit:  paging.LimitPlusOne(),
		Offset: paging.Offset(start),
	}
	if e := normalize.QueryParam(query.Get(r, "entity")); e != "" {
		if p, err := h.Registry.Lookup(e); err == nil {
			f.Entity = string(p.Entity)
		}
	}
	if !seesEveryone(u) {
		f.OwnerID = u.ID
	}
	return f, start
}

func (h *Handler) labelOf(entity string) string {
	if p, err := h.Registry.Lookup(entity); err == nil {
		return p.Label
	}
	return entity
}

func pageURL(entity string, start int) string {
	u := "/imports?start=" + strconv.Itoa(start)
	if entity != "" {
		u += "&entity=" + entity
	}
	return u
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /imports                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	f, start := h.buildFilter(r, u)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var (
		recs  []importruns.Record
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recs, err = h.Store.List(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.Store.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.LogServerError(w, r, "import history: list failed", err, "No se pudo cargar el historial.", "/")
		return
	}
	page := paging.Trim(&recs, start)

	rows := make([]row, len(recs))
	for i, rec := range recs {
		rows[i] = row{
			URL:        "/imports/" + rec.ID.Hex(),
			Entity:     h.labelOf(rec.Entity),
			FileName:   rec.FileName,
			OwnerName:  rec.OwnerName,
			Created:    rec.Created,
			Failed:     rec.Failed,
			Skipped:    rec.Skipped,
			Total:      rec.Total,
			ErrorCount: rec.ErrorCount,
			Cancelled:  rec.Cancelled,
			FinishedAt: rec.FinishedAt,
			Duration:   rec.Duration().Round(time.Second).String(),
		}
	}

	profiles := h.Registry.All()
	opts := make([]entityOption, len(profiles))
	for i, p := range profiles {
		opts[i] = entityOption{Value: string(p.Entity), Label: p.Label, Selected: string(p.Entity) == f.Entity}
	}

	data := listData{
		BaseVM:   viewdata.NewBaseVM(r, "Historial de importaciones", "/"),
		Entities: opts,
		Entity:   f.Entity,
		AllUsers: seesEveryone(u),
		Rows:     rows,
		Total:    total,
		Page:     page,
	}
	if page.HasPrev {
		data.PrevURL = pageURL(f.Entity, page.PrevStart)
	}
	if page.HasNext {
		data.NextURL = pageURL(f.Entity, page.NextStart)
	}

	templates.Render(w, r, "import_history", data)
}
