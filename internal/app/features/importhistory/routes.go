// internal/app/features/importhistory/routes.go
package importhistory

import (
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /imports.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeDetail)
	return r
}
