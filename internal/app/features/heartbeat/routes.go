// internal/app/features/heartbeat/routes.go
package heartbeat

import (
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for heartbeat endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Post("/", h.ServeHeartbeat)

	return r
}
