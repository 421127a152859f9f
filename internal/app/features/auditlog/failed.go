// internal/app/features/auditlog/failed.go
package auditlog

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

const (
	defaultFailedWindow = 24 * time.Hour
	maxFailedWindow     = 30 * 24 * time.Hour
	failedLoginLimit    = 500
)

// failedGroup sums the failed attempts made with one login ID.
type failedGroup struct {
	LoginID  string
	Attempts int
	Last     time.Time
	IPs      []string
	Reasons  []string
}

type failedData struct {
	viewdata.BaseVM
	Hours    int
	Groups   []failedGroup
	Attempts int

	// Truncated is set when the store hit failedLoginLimit.
	Truncated bool
}

// failedWindow reads ?hours=; missing or invalid values mean 24h and the
// window never exceeds 30 days.
func failedWindow(r *http.Request) time.Duration {
	h, err := strconv.Atoi(query.Get(r, "hours"))
	if err != nil || h <= 0 {
		return defaultFailedWindow
	}
	d := time.Duration(h) * time.Hour
	if d > maxFailedWindow {
		return maxFailedWindow
	}
	return d
}

// groupFailed folds events by login ID, most attempts first.
func groupFailed(events []audit.Event) []failedGroup {
	idx := make(map[string]int)
	var groups []failedGroup
	for _, e := range events {
		id := e.LoginID
		if id == "" {
			id = "(sin correo)"
		}
		i, ok := idx[id]
		if !ok {
			i = len(groups)
			idx[id] = i
			groups = append(groups, failedGroup{LoginID: id})
		}
		g := &groups[i]
		g.Attempts++
		if e.Timestamp.After(g.Last) {
			g.Last = e.Timestamp
		}
		g.IPs = appendUnique(g.IPs, e.IP)
		g.Reasons = appendUnique(g.Reasons, e.FailureReason)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Attempts != groups[j].Attempts {
			return groups[i].Attempts > groups[j].Attempts
		}
		return groups[i].Last.After(groups[j].Last)
	})
	return groups
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// ServeFailedLogins handles GET /audit/failed-logins.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	window := failedWindow(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "audit failed logins")
	defer cancel()

	events, err := h.Store.GetFailedLogins(ctx, time.Now().Add(-window), failedLoginLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit log: failed logins query failed", err, "No se pudieron cargar los accesos fallidos.", "/audit")
		return
	}

	data := failedData{
		BaseVM:    viewdata.NewBaseVM(r, "Accesos fallidos", "/audit"),
		Hours:     int(window / time.Hour),
		Groups:    groupFailed(events),
		Attempts:  len(events),
		Truncated: len(events) >= failedLoginLimit,
	}
	templates.Render(w, r, "audit_failed_logins", data)
}
