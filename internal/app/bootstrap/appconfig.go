// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct holds what belongs to the console itself.
type AppConfig struct {
	// MongoDB holds audit events and the import history.
	MongoURI            string
	MongoDatabase       string
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64
	MongoConnectTimeout time.Duration

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: pharmahub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// SiteName is shown in the page title and header.
	SiteName string

	// Pharmacy network backend
	APIBaseURL string        // e.g. "https://api.farmared.example/v1"
	APITimeout time.Duration // HTTP client timeout for every call

	// Import runs
	ImportRunTTL       time.Duration // idle time before a run is dropped
	ImportReapInterval time.Duration // how often idle runs are swept
	ImportMaxUploadMB  int           // multipart body limit
	ImportTuning       map[bulkimport.Entity]bulkimport.Tuning

	// Audit logging
	AuditLogAuth   string // "all", "db", "log" or "off"
	AuditLogImport string
}
