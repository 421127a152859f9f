package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PingFunc reports whether a dependency answers.
type PingFunc func(ctx context.Context) error

// MongoPing pings the primary of client.
func MongoPing(client *mongo.Client) PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB  PingFunc
	API PingFunc
	Log *zap.Logger
}

// NewHandler constructs a health Handler. A nil api check is skipped.
func NewHandler(db, api PingFunc, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		API: api,
		Log: logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	API      string `json:"api,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "api":"reachable" }
//
// When either dependency fails: 503 and
//
//	{ "status":"error", "database":"…", "api":"…", "message":"…", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	var dbErr, apiErr error
	var g errgroup.Group
	g.Go(func() error {
		dbErr = h.DB(ctx)
		return dbErr
	})
	if h.API != nil {
		g.Go(func() error {
			apiErr = h.API(ctx)
			return apiErr
		})
	}
	firstErr := g.Wait()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}
	if h.API != nil {
		resp.API = "reachable"
	}

	if dbErr != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(dbErr))
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
	}
	if apiErr != nil {
		h.Log.Error("health-check: api ping failed", zap.Error(apiErr))
		resp.API = "unreachable"
		if resp.Message == "" {
			resp.Message = "API unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if firstErr != nil {
		resp.Status = "error"
		resp.Error = firstErr.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
