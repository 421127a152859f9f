// Package importer serves the spreadsheet import pages. Each visit opens
// one run for the signed-in user; the run then moves through context
// selection, file upload, preview, upload and summary.
package importer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	uierrors "github.com/dalemusser/pharmahub/internal/app/features/errors"
	"github.com/dalemusser/pharmahub/internal/app/store/importruns"
	"github.com/dalemusser/pharmahub/internal/app/system/auditlog"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/runs"
	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API is the part of the backend the import pages call.
type API interface {
	bulkimport.BulkCreator
	ListCountries(ctx context.Context) ([]pharmaapi.Option, error)
	ListStates(ctx context.Context, countryID pharmaapi.ID) ([]pharmaapi.Option, error)
	ListDistributors(ctx context.Context) ([]pharmaapi.Option, error)
	ListPharmacies(ctx context.Context) ([]pharmaapi.Option, error)
	GetPharmacy(ctx context.Context, id pharmaapi.ID) (*pharmaapi.Option, error)
}

// ClientFor returns an API client acting for the holder of token.
type ClientFor func(token string) API

// HistorySaver stores the record of a finished upload.
type HistorySaver interface {
	Save(ctx context.Context, rec importruns.Record) (importruns.Record, error)
}

type Handler struct {
	Registry *bulkimport.Registry
	Runs     *runs.Manager
	Client   ClientFor
	History  HistorySaver
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	// MaxUpload bounds the multipart body. Zero uses sheet.MaxUploadSize.
	MaxUpload int64
	// BatchTimeout bounds each bulk-create call. Zero uses timeouts.Batch().
	BatchTimeout time.Duration
	// BaseCtx parents every upload so it outlives the request that
	// started it. Nil means context.Background().
	BaseCtx context.Context
}

func NewHandler(reg *bulkimport.Registry, mgr *runs.Manager, client ClientFor, history HistorySaver, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Registry: reg,
		Runs:     mgr,
		Client:   client,
		History:  history,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

func (h *Handler) maxUpload() int64 {
	if h.MaxUpload > 0 {
		return h.MaxUpload
	}
	return sheet.MaxUploadSize
}

func (h *Handler) baseCtx() context.Context {
	if h.BaseCtx != nil {
		return h.BaseCtx
	}
	return context.Background()
}

func entityURL(e bulkimport.Entity) string {
	return "/import/" + string(e)
}

func runURL(e bulkimport.Entity, id string) string {
	return entityURL(e) + "/runs/" + id
}

// redirect sends the browser to dest after a form post. HTMX posts get
// HX-Redirect so the whole page reloads.
func redirect(w http.ResponseWriter, r *http.Request, dest, noticeCode string) {
	if noticeCode != "" {
		dest += "?notice=" + noticeCode
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// loadProfile resolves the {entity} URL segment.
func (h *Handler) loadProfile(w http.ResponseWriter, r *http.Request) (bulkimport.Profile, bool) {
	p, err := h.Registry.Lookup(chi.URLParam(r, "entity"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Tipo de importación desconocido.", "/")
		return bulkimport.Profile{}, false
	}
	return p, true
}

// loadRun resolves the entity and run in the URL for the signed-in user.
// Runs of other users, and runs of another entity, are reported as gone.
func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*runs.Run, *auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderForbidden(w, r, "Inicie sesión para importar.", "/login")
		return nil, nil, false
	}
	p, ok := h.loadProfile(w, r)
	if !ok {
		return nil, nil, false
	}
	run, err := h.Runs.Get(chi.URLParam(r, "runID"), u.ID)
	if err != nil || run.Profile().Entity != p.Entity {
		uierrors.RenderNotFound(w, r, "Esta importación ya no está disponible.", entityURL(p.Entity))
		return nil, nil, false
	}
	return run, u, true
}

// pharmacyName resolves the display name of a pharmacy. Failures only
// cost the name, so they are logged and swallowed.
func (h *Handler) pharmacyName(ctx context.Context, u *auth.SessionUser, id pharmaapi.ID) string {
	if id.IsZero() {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Lookup())
	defer cancel()

	opt, err := h.Client(u.APIToken).GetPharmacy(ctx, id)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			h.Log.Warn("pharmacy lookup failed", zap.String("pharmacy_id", id.String()), zap.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(opt.Name)
}
