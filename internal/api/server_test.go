package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aldenhart/dungeon-balance-go/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	return NewServer(db).Routes()
}

const simulateBody = `{
	"seed": "api-test",
	"trials": 20,
	"turn_cap": 100,
	"board_width": 10,
	"board_height": 10,
	"player_class": "human",
	"player_level": 1,
	"monsters": [{"type": "goblin", "level": 1, "count": 2}]
}`

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["archive"] != true {
		t.Errorf("health body = %v", body)
	}
}

func TestSimulateAndArchive(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(simulateBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /simulate = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		RunID    string `json:"run_id"`
		Rendered string `json:"rendered"`
		Report   struct {
			Trials int64 `json:"Trials"`
		} `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RunID == "" {
		t.Error("simulate did not archive a run")
	}
	if resp.Report.Trials != 20 {
		t.Errorf("report trials = %d", resp.Report.Trials)
	}
	if !strings.Contains(resp.Rendered, "Balance Report") {
		t.Errorf("rendered report missing header:\n%s", resp.Rendered)
	}

	// The archived run is retrievable.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+resp.RunID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs/{id} = %d", rec.Code)
	}
	var run store.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatal(err)
	}
	if run.Seed != "api-test" || run.Trials != 20 {
		t.Errorf("archived run = %+v", run)
	}

	// And listed.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs = %d", rec.Code)
	}
	var list store.RunsList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.TotalCount != 1 {
		t.Errorf("list total = %d", list.TotalCount)
	}

	// Delete, then confirm it is gone.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+resp.RunID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE /runs/{id} = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+resp.RunID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted run = %d, want 404", rec.Code)
	}
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	h := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing seed", `{"trials": 10, "monsters": [{"type": "goblin", "level": 1, "count": 1}]}`},
		{"no monsters", `{"seed": "s", "trials": 10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewReader([]byte(tc.body))))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST /simulate = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing run = %d, want 404", rec.Code)
	}
}

func TestArchiveDisabled(t *testing.T) {
	h := NewServer(nil).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("GET /runs without archive = %d, want 501", rec.Code)
	}

	// Simulation still works; the run simply is not archived.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(simulateBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /simulate without archive = %d", rec.Code)
	}
	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RunID != "" {
		t.Error("run_id set despite archive being disabled")
	}
}
