// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/resources"
	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"github.com/dalemusser/pharmahub/internal/app/store/importruns"
	"github.com/dalemusser/pharmahub/internal/app/system/auditlog"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/ratelimit"
	"github.com/dalemusser/pharmahub/internal/app/system/runs"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/pharmahub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived pieces built in Startup and shared by
// BuildHandler and Shutdown.
type services struct {
	api      *pharmaapi.Client
	registry *bulkimport.Registry
	runs     *runs.Manager
	reaper   *workers.RunReaper
	limiter  *ratelimit.LoginLimiter
	audit    *auditlog.Logger
	history  *importruns.Store

	// uploads parents every background upload; cancelled on shutdown.
	uploads     context.Context
	stopUploads context.CancelFunc
}

var svc *services

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// shared templates, applies timeout overrides and starts the run reaper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	viewdata.Init(appCfg.SiteName)

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts overridden from environment",
			zap.Int("count", n),
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("lookup", cur.Lookup),
			zap.Duration("batch", cur.Batch))
	}

	s, err := newServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	s.reaper.Start()
	svc = s
	return nil
}

func newServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	api, err := pharmaapi.New(appCfg.APIBaseURL, appCfg.APITimeout, logger)
	if err != nil {
		logger.Error("API client init failed", zap.Error(err))
		return nil, fmt.Errorf("api client: %w", err)
	}

	mgr := runs.NewManager(logger)
	uploads, stop := context.WithCancel(context.Background())

	return &services{
		api:      api,
		registry: bulkimport.NewRegistry(appCfg.ImportTuning),
		runs:     mgr,
		reaper:   workers.NewRunReaper(mgr, logger, appCfg.ImportReapInterval, appCfg.ImportRunTTL),
		limiter:  ratelimit.NewLoginLimiter(),
		audit: auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
			Auth:   appCfg.AuditLogAuth,
			Import: appCfg.AuditLogImport,
		}),
		history:     importruns.New(deps.MongoDatabase),
		uploads:     uploads,
		stopUploads: stop,
	}, nil
}
