// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
)

// listItem represents a single audit event row for display.
type listItem struct {
	Timestamp time.Time
	Category  string
	EventType string
	LoginID   string
	UserID    string
	IP        string
	Success   bool
	Reason    string
	Details   map[string]string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	UserID    string
	StartDate string
	EndDate   string

	// Filter options
	Categories []categoryOption
	EventTypes []string

	// Pagination
	Page       int
	TotalPages int
	Total      int64
	Shown      int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value    string
	Label    string
	Selected bool
}

func allCategories(selected string) []categoryOption {
	opts := []categoryOption{
		{Value: audit.CategoryAuth, Label: "Autenticación"},
		{Value: audit.CategoryImport, Label: "Importaciones"},
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == selected
	}
	return opts
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventLogout,
	}
	importEvents := []string{
		audit.EventImportStarted,
		audit.EventImportCancelled,
		audit.EventTemplateFetched,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryImport:
		return importEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(importEvents))
		all = append(all, authEvents...)
		all = append(all, importEvents...)
		return all
	default:
		return nil
	}
}

func knownEventType(category, eventType string) bool {
	for _, e := range eventTypesForCategory(category) {
		if e == eventType {
			return true
		}
	}
	return false
}
