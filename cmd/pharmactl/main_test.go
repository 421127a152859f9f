package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(envAPIURL, "")
	t.Setenv(envAPIToken, "")

	var out bytes.Buffer
	cmd := newRootCmd(&out, &out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// municipalityTemplate writes the municipality template, which carries
// three sample rows, and returns its path.
func municipalityTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := run(t, "template", "municipalities", "-o", dir)
	if err != nil {
		t.Fatalf("template: %v\n%s", err, out)
	}
	return strings.TrimSpace(out)
}

func TestEntities(t *testing.T) {
	out, err := run(t, "entities")
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	for _, want := range []string{"municipalities", "states", "pharmacies", "sub-pharmacies", "--state-id"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTemplate_WritesNamedFile(t *testing.T) {
	path := municipalityTemplate(t)
	if filepath.Base(path) != "plantilla_municipios.xlsx" {
		t.Errorf("template path = %q", path)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Errorf("template not written: %v", err)
	}
}

func TestTemplate_SubPharmacyName(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "template", "sub-pharmacies", "-o", dir, "--pharmacy-name", "Farmacia Central")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "plantilla_sucursales_farmacia_central.xlsx") {
		t.Errorf("template path = %q", out)
	}
}

func TestTemplate_UnknownEntity(t *testing.T) {
	if _, err := run(t, "template", "hospitals", "-o", t.TempDir()); err == nil {
		t.Fatal("expected an error for an unknown entity")
	}
}

func TestImport_DryRun(t *testing.T) {
	path := municipalityTemplate(t)

	out, err := run(t, "import", "municipalities", path, "--state-id", "7", "--dry-run")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "3 rows mapped, nothing sent") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Libertador") {
		t.Errorf("preview missing sample row:\n%s", out)
	}
}

func TestImport_MissingContext(t *testing.T) {
	path := municipalityTemplate(t)

	_, err := run(t, "import", "municipalities", path, "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "--state-id") {
		t.Fatalf("err = %v, want it to name --state-id", err)
	}
}

func TestImport_RequiresToken(t *testing.T) {
	path := municipalityTemplate(t)

	_, err := run(t, "import", "municipalities", path, "--state-id", "7", "--api-url", "http://127.0.0.1:1")
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("err = %v, want a missing token error", err)
	}
}

func TestImport_Submits(t *testing.T) {
	path := municipalityTemplate(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/municipalities/bulk" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Municipalities []struct {
				StateID string `json:"state_id"`
				Name    string `json:"name"`
			} `json:"municipalities"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, m := range body.Municipalities {
			if m.StateID != "7" {
				http.Error(w, "wrong state", http.StatusUnprocessableEntity)
				return
			}
		}
		n := len(body.Municipalities)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"summary": map[string]int{"total": n, "created": n, "failed": 0},
			"errors":  []any{},
		})
	}))
	defer srv.Close()

	out, err := run(t, "import", "municipalities", path,
		"--state-id", "7",
		"--api-url", srv.URL+"/api",
		"--token", "tok-123")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if calls.Load() != 1 {
		t.Errorf("API called %d times, want 1", calls.Load())
	}
	if !strings.Contains(out, "created 3  failed 0") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestImport_FailedBatchIsAnError(t *testing.T) {
	path := municipalityTemplate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"database unavailable"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := run(t, "import", "municipalities", path,
		"--state-id", "7",
		"--api-url", srv.URL,
		"--token", "tok")
	if err == nil || !strings.Contains(err.Error(), "3 of 3 records failed") {
		t.Fatalf("err = %v\n%s", err, out)
	}
}
