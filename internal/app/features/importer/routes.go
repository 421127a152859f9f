// internal/app/features/importer/routes.go
package importer

import (
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /import.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{entity}", h.ServeNew)
	r.Get("/{entity}/template", h.ServeTemplate)

	r.Route("/{entity}/runs/{runID}", func(rr chi.Router) {
		rr.Get("/", h.ServeRun)
		rr.Get("/progress", h.ServeProgress)
		rr.Post("/context", h.HandleContext)
		rr.Post("/file", h.HandleFile)
		rr.Post("/start", h.HandleStart)
		rr.Post("/reset", h.HandleReset)
		rr.Post("/close", h.HandleClose)
	})

	return r
}
