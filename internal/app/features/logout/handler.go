// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/pharmahub/internal/app/system/auditlog"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"go.uber.org/zap"
)

// RunCloser drops the live import runs of a user.
type RunCloser interface {
	CloseOwner(owner string) int
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Runs       RunCloser
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, runs RunCloser, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Runs:       runs,
	}
}

// ServeLogout handles POST /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if h.Runs != nil {
			if n := h.Runs.CloseOwner(u.ID); n > 0 {
				h.Log.Info("closed import runs on logout", zap.String("user_id", u.ID), zap.Int("count", n))
			}
		}
		h.AuditLog.Logout(r.Context(), r, u.ID, u.LoginID)
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	// HTMX gets a client-side navigation instead of a swapped redirect body.
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
