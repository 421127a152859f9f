// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Keeper keeps a user's import run from being reaped.
type Keeper interface {
	Keepalive(runID, owner string) bool
}

// Handler handles heartbeat requests sent by open import pages.
type Handler struct {
	Runs Keeper
	Log  *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(runs Keeper, logger *zap.Logger) *Handler {
	return &Handler{
		Runs: runs,
		Log:  logger,
	}
}

// heartbeatRequest is the JSON body for the heartbeat endpoint.
type heartbeatRequest struct {
	RunID string `json:"run_id"`
}

// ServeHeartbeat handles POST /api/heartbeat.
// The page that holds a run pings while it is open so an idle-looking run
// (file chosen, user still reviewing the preview) is not reaped. Unknown
// or foreign runs are answered with 410 so the page can stop pinging.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req heartbeatRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		w.WriteHeader(http.StatusOK) // nothing to keep alive
		return
	}

	if !h.Runs.Keepalive(runID, u.ID) {
		h.Log.Debug("heartbeat for unknown run",
			zap.String("run_id", runID),
			zap.String("user_id", u.ID))
		w.WriteHeader(http.StatusGone)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
