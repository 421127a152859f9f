package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/store/audit"
	"github.com/dalemusser/pharmahub/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    "17",
		LoginID:   "ana@farmared.com",
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: "17", Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].LoginID != "ana@farmared.com" {
		t.Errorf("LoginID = %q", events[0].LoginID)
	}
}

func TestStore_Log_AutoSetsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Timestamp.Before(before) || events[0].Timestamp.After(after) {
		t.Errorf("expected timestamp to be set to current time, got %v", events[0].Timestamp)
	}
}

func TestStore_Query_ByCategoryAndType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true},
		{Category: audit.CategoryImport, EventType: audit.EventImportStarted, Success: true,
			Details: map[string]string{"entity": "municipalities", "rows": "125"}},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	auth, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(auth) != 2 {
		t.Errorf("expected 2 auth events, got %d", len(auth))
	}

	imports, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventImportStarted})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(imports) != 1 || imports[0].Details["entity"] != "municipalities" {
		t.Errorf("import events = %+v", imports)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil || n != 3 {
		t.Errorf("CountByFilter = %d, %v", n, err)
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := time.Now().Add(-2 * time.Hour)
	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, LoginID: "x@y.com", FailureReason: "credenciales inválidas"},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, Timestamp: old},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetFailedLogins(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(events) != 1 || events[0].LoginID != "x@y.com" {
		t.Errorf("failed logins = %+v", events)
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes is not repeatable: %v", err)
	}
}
