package home

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"go.uber.org/zap"
)

func TestServeRoot_AnonymousGoesToLogin(t *testing.T) {
	h := NewHandler(bulkimport.NewRegistry(nil), zap.NewNop())

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	h.ServeRoot(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestEntityCards(t *testing.T) {
	reg := bulkimport.NewRegistry(map[bulkimport.Entity]bulkimport.Tuning{
		bulkimport.Pharmacies: {BatchSize: 5, BatchDelay: time.Second},
	})
	cards := entityCards(reg)
	if len(cards) != 4 {
		t.Fatalf("got %d cards, want 4", len(cards))
	}

	byURL := make(map[string]entityCard)
	for _, c := range cards {
		byURL[c.ImportURL] = c
	}

	sub, ok := byURL["/import/sub-pharmacies"]
	if !ok {
		t.Fatal("missing sub-pharmacies card")
	}
	if sub.TemplateURL != "/import/sub-pharmacies/template" {
		t.Errorf("TemplateURL = %q", sub.TemplateURL)
	}
	if len(sub.Requires) == 0 {
		t.Error("sub-pharmacies should list its required selectors")
	}
	if ph := byURL["/import/pharmacies"]; ph.BatchSize != 5 {
		t.Errorf("tuned batch size = %d, want 5", ph.BatchSize)
	}
}
