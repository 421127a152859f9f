// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"fmt"
	"net/http"

	auditlogfeature "github.com/dalemusser/pharmahub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/pharmahub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/pharmahub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/pharmahub/internal/app/features/heartbeat"
	homefeature "github.com/dalemusser/pharmahub/internal/app/features/home"
	importerfeature "github.com/dalemusser/pharmahub/internal/app/features/importer"
	importhistoryfeature "github.com/dalemusser/pharmahub/internal/app/features/importhistory"
	loginfeature "github.com/dalemusser/pharmahub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/pharmahub/internal/app/features/logout"
	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. PharmaHub boots the template engine, applies the
// CSRF and session middleware, and mounts the console's features: home,
// login, logout, the import pages, the import history, the audit trail,
// heartbeat and health.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("services not initialized; Startup must run first")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)

	if !secure {
		r.Use(plaintextCSRF)
	}
	r.Use(csrfProtect(appCfg.SessionKey, secure, logger))

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(healthfeature.MongoPing(deps.MongoClient), svc.api.Ping, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	homeHandler := homefeature.NewHandler(svc.registry, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(svc.api, sessionMgr, errLog, svc.audit, svc.limiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.audit, svc.runs, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	r.Get("/forbidden", errorsHandler.Forbidden)

	// Import pages: one run per visit, all API calls made with the
	// signed-in user's token.
	importHandler := importerfeature.NewHandler(
		svc.registry,
		svc.runs,
		func(token string) importerfeature.API { return svc.api.WithToken(token) },
		svc.history,
		svc.audit,
		errLog,
		logger,
	)
	importHandler.MaxUpload = int64(appCfg.ImportMaxUploadMB) << 20
	importHandler.BaseCtx = svc.uploads
	r.Mount("/import", importerfeature.Routes(importHandler, sessionMgr))

	historyHandler := importhistoryfeature.NewHandler(svc.history, svc.registry, errLog, logger)
	r.Mount("/imports", importhistoryfeature.Routes(historyHandler, sessionMgr))

	// Audit trail, admins only
	auditHandler := auditlogfeature.NewHandler(audit.New(deps.MongoDatabase), errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	heartbeatHandler := heartbeatfeature.NewHandler(svc.runs, logger)
	r.Mount("/api/heartbeat", heartbeatfeature.Routes(heartbeatHandler, sessionMgr))

	return r, nil
}

// csrfProtect guards every unsafe method. Forms post the hidden
// gorilla.csrf.Token field; htmx and fetch calls send X-CSRF-Token.
func csrfProtect(sessionKey string, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("pharmahub/csrf/" + sessionKey))
	return csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("CSRF check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, "El formulario expiró. Recargue la página e intente de nuevo.", "/")
		})),
	)
}

// plaintextCSRF marks requests as plain HTTP so local development over
// http://localhost passes the origin checks.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
