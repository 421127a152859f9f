// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration, one mode per category.
type Config struct {
	Auth   string
	Import string
}

// Logger writes audit events to the audit store and to zap, as configured.
// A nil *Logger is a no-op so handlers and tests can run without one.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when every category is
// set to "log" or "off".
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.LoginID != "" {
		fields = append(fields, zap.String("login_id", event.LoginID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryImport:
		m = l.config.Import
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// Log records event according to the mode of its category.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in against the backend.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, loginID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID, e.LoginID = userID, loginID
	l.Log(ctx, e)
}

// LoginFailed logs a rejected sign-in.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, loginID, reason string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailed)
	e.LoginID = loginID
	e.Success = false
	e.FailureReason = reason
	l.Log(ctx, e)
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, loginID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLogout)
	e.UserID, e.LoginID = userID, loginID
	l.Log(ctx, e)
}

// --- Import Events ---

// ImportStarted logs the confirmation of an upload.
func (l *Logger) ImportStarted(ctx context.Context, r *http.Request, userID, runID, entity, fileName string, rows int) {
	e := requestEvent(r, audit.CategoryImport, audit.EventImportStarted)
	e.UserID = userID
	e.Details = map[string]string{
		"run_id": runID,
		"entity": entity,
		"file":   fileName,
		"rows":   strconv.Itoa(rows),
	}
	l.Log(ctx, e)
}

// ImportCancelled logs a run closed while its upload was still going.
func (l *Logger) ImportCancelled(ctx context.Context, r *http.Request, userID, runID, entity string) {
	e := requestEvent(r, audit.CategoryImport, audit.EventImportCancelled)
	e.UserID = userID
	e.Details = map[string]string{"run_id": runID, "entity": entity}
	l.Log(ctx, e)
}

// TemplateDownloaded logs a template workbook download.
func (l *Logger) TemplateDownloaded(ctx context.Context, r *http.Request, userID, entity string) {
	e := requestEvent(r, audit.CategoryImport, audit.EventTemplateFetched)
	e.UserID = userID
	e.Details = map[string]string{"entity": entity}
	l.Log(ctx, e)
}
