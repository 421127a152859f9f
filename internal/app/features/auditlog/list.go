// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"github.com/dalemusser/pharmahub/internal/app/system/normalize"
	"github.com/dalemusser/pharmahub/internal/app/system/timeouts"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"golang.org/x/sync/errgroup"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// filterForm is the query string as the user typed it.
type filterForm struct {
	Category  string
	EventType string
	UserID    string
	StartDate string
	EndDate   string
	Page      int
}

func readForm(r *http.Request) filterForm {
	f := filterForm{
		Category:  normalize.QueryParam(query.Get(r, "category")),
		EventType: normalize.QueryParam(query.Get(r, "event_type")),
		UserID:    normalize.QueryParam(query.Get(r, "user_id")),
		StartDate: normalize.QueryParam(query.Get(r, "start_date")),
		EndDate:   normalize.QueryParam(query.Get(r, "end_date")),
		Page:      1,
	}
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		f.Page = p
	}
	if f.Category != audit.CategoryAuth && f.Category != audit.CategoryImport {
		f.Category = ""
	}
	if f.EventType != "" && !knownEventType(f.Category, f.EventType) {
		f.EventType = ""
	}
	return f
}

// filter turns the form into a store query. Unparseable dates are dropped;
// the end date covers its whole day.
func (f filterForm) filter() audit.QueryFilter {
	qf := audit.QueryFilter{
		Category:  f.Category,
		EventType: f.EventType,
		UserID:    f.UserID,
		Limit:     pageSize,
		Offset:    int64((f.Page - 1) * pageSize),
	}
	if t, err := time.Parse(dateLayout, f.StartDate); err == nil {
		qf.StartTime = &t
	}
	if t, err := time.Parse(dateLayout, f.EndDate); err == nil {
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		qf.EndTime = &endOfDay
	}
	return qf
}

func (f filterForm) pageURL(page int) string {
	v := url.Values{}
	for k, s := range map[string]string{
		"category":   f.Category,
		"event_type": f.EventType,
		"user_id":    f.UserID,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	} {
		if s != "" {
			v.Set(k, s)
		}
	}
	v.Set("page", strconv.Itoa(page))
	return "/audit?" + v.Encode()
}

// ServeList handles GET /audit - displays the audit log list with filtering.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	qf := form.filter()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "audit log list")
	defer cancel()

	var (
		events []audit.Event
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = h.Store.Query(gctx, qf)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.Store.CountByFilter(gctx, qf)
		return err
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.LogServerError(w, r, "audit log: query failed", err, "No se pudo cargar la bitácora.", "/")
		return
	}

	items := make([]listItem, len(events))
	for i, e := range events {
		items[i] = listItem{
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			LoginID:   e.LoginID,
			UserID:    e.UserID,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
	}

	data := buildListData(form, items, total)
	data.BaseVM = viewdata.NewBaseVM(r, "Bitácora de auditoría", "/")
	templates.Render(w, r, "audit_list", data)
}

func buildListData(form filterForm, items []listItem, total int64) listData {
	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	data := listData{
		Items:      items,
		Category:   form.Category,
		EventType:  form.EventType,
		UserID:     form.UserID,
		StartDate:  form.StartDate,
		EndDate:    form.EndDate,
		Categories: allCategories(form.Category),
		EventTypes: eventTypesForCategory(form.Category),
		Page:       form.Page,
		TotalPages: totalPages,
		Total:      total,
		Shown:      len(items),
		HasPrev:    form.Page > 1,
		HasNext:    form.Page < totalPages,
	}
	if data.HasPrev {
		data.PrevURL = form.pageURL(form.Page - 1)
	}
	if data.HasNext {
		data.NextURL = form.pageURL(form.Page + 1)
	}
	return data
}

// compile-time check that the store satisfies Querier.
var _ Querier = (*audit.Store)(nil)
