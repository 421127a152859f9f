// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/auditlog"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// tunedEntities are the entities whose batch pacing can be overridden.
var tunedEntities = []bulkimport.Entity{
	bulkimport.Municipalities,
	bulkimport.States,
	bulkimport.Pharmacies,
	bulkimport.SubPharmacies,
}

// appConfigKeys defines the configuration keys for PharmaHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, api_base_url, etc.
//   - Environment variables: PHARMAHUB_MONGO_URI, PHARMAHUB_API_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --api_base_url, etc.
var appConfigKeys = append([]config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pharmahub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size (default: 50)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "Time allowed to connect and ping MongoDB at startup"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "pharmahub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime"},
	{Name: "site_name", Default: "PharmaHub", Desc: "Name shown in the page title and header"},

	// Pharmacy network backend
	{Name: "api_base_url", Default: "http://localhost:8000/api", Desc: "Base URL of the pharmacy network API"},
	{Name: "api_timeout", Default: "30s", Desc: "HTTP client timeout for API calls"},

	// Import runs
	{Name: "import_run_ttl", Default: "2h", Desc: "Idle time after which an open import run is dropped"},
	{Name: "import_reap_interval", Default: "5m", Desc: "How often idle import runs are swept"},
	{Name: "import_max_upload_mb", Default: 10, Desc: "Largest spreadsheet accepted, in megabytes"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_import", Default: "all", Desc: "Import event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}, tuningKeys()...)

// tuningKey turns an entity into its config key prefix:
// "sub-pharmacies" -> "import_sub_pharmacies".
func tuningKey(e bulkimport.Entity) string {
	return "import_" + strings.ReplaceAll(string(e), "-", "_")
}

func tuningKeys() []config.AppKey {
	keys := make([]config.AppKey, 0, 2*len(tunedEntities))
	for _, e := range tunedEntities {
		keys = append(keys,
			config.AppKey{Name: tuningKey(e) + "_batch_size", Default: 0, Desc: fmt.Sprintf("Records per bulk call for %s (0 keeps the built-in size)", e)},
			config.AppKey{Name: tuningKey(e) + "_batch_delay", Default: "0s", Desc: fmt.Sprintf("Pause between bulk calls for %s (0s keeps the built-in delay)", e)},
		)
	}
	return keys
}

// importTuning collects the per-entity overrides. Entities with nothing
// set are left out so the registry keeps their built-in pacing.
func importTuning(sizeOf func(key string) int, delayOf func(key string) time.Duration) map[bulkimport.Entity]bulkimport.Tuning {
	out := make(map[bulkimport.Entity]bulkimport.Tuning)
	for _, e := range tunedEntities {
		t := bulkimport.Tuning{
			BatchSize:  sizeOf(tuningKey(e) + "_batch_size"),
			BatchDelay: delayOf(tuningKey(e) + "_batch_delay"),
		}
		if t.BatchSize > 0 || t.BatchDelay > 0 {
			out[e] = t
		}
	}
	return out
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PHARMAHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PHARMAHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoMaxPoolSize:    uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:    uint64(appValues.Int("mongo_min_pool_size")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),
		SessionKey:          appValues.String("session_key"),
		SessionName:         appValues.String("session_name"),
		SessionDomain:       appValues.String("session_domain"),
		SessionMaxAge:       appValues.Duration("session_max_age", 12*time.Hour),
		SiteName:            appValues.String("site_name"),

		// Backend
		APIBaseURL: strings.TrimRight(appValues.String("api_base_url"), "/"),
		APITimeout: appValues.Duration("api_timeout", 30*time.Second),

		// Import runs
		ImportRunTTL:       appValues.Duration("import_run_ttl", 2*time.Hour),
		ImportReapInterval: appValues.Duration("import_reap_interval", 5*time.Minute),
		ImportMaxUploadMB:  appValues.Int("import_max_upload_mb"),
		ImportTuning: importTuning(
			func(key string) int { return appValues.Int(key) },
			func(key string) time.Duration { return appValues.Duration(key, 0) },
		),

		// Audit logging
		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogImport: appValues.String("audit_log_import"),
	}

	for e, t := range appCfg.ImportTuning {
		logger.Info("import pacing overridden",
			zap.String("entity", string(e)),
			zap.Int("batch_size", t.BatchSize),
			zap.Duration("batch_delay", t.BatchDelay))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// PharmaHub checks the MongoDB URI format, the API base URL and the import
// limits so configuration errors surface before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateAPIBaseURL(appCfg.APIBaseURL); err != nil {
		logger.Error("invalid API base URL", zap.Error(err))
		return err
	}
	return validateImport(appCfg)
}

// validateAPIBaseURL requires an absolute http(s) URL.
func validateAPIBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("api_base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api_base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api_base_url %q has no host", raw)
	}
	return nil
}

func validateImport(appCfg AppConfig) error {
	if appCfg.ImportMaxUploadMB <= 0 {
		return fmt.Errorf("import_max_upload_mb must be positive, got %d", appCfg.ImportMaxUploadMB)
	}
	if appCfg.ImportRunTTL <= 0 || appCfg.ImportReapInterval <= 0 {
		return fmt.Errorf("import_run_ttl and import_reap_interval must be positive")
	}
	for e, t := range appCfg.ImportTuning {
		if t.BatchSize < 0 || t.BatchDelay < 0 {
			return fmt.Errorf("negative import pacing for %s", e)
		}
	}
	for name, mode := range map[string]string{
		"audit_log_auth":   appCfg.AuditLogAuth,
		"audit_log_import": appCfg.AuditLogImport,
	} {
		switch mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, mode)
		}
	}
	return nil
}
