package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avendel/reqstress/internal/app"
	"github.com/avendel/reqstress/internal/server"
	"github.com/avendel/reqstress/internal/testutil"
)

const sampleDoc = "The system should respond quickly to user actions.\nUsers can log in to their account.\n"

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	appCfg := app.DefaultConfig()
	appCfg.DatabasePath = filepath.Join(t.TempDir(), "reqstress.db")
	appCfg.Workers = 2

	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		AppConfig:  appCfg,
		Logger:     &testutil.DummyLogger{},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func createUpload(t *testing.T, s http.Handler, filename, content string) string {
	t.Helper()
	body := fmt.Sprintf(`{"filename": %q, "content": %q}`, filename, content)
	rec := doJSON(t, s, "POST", "/uploads", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create upload: status %d, body %s", rec.Code, rec.Body.String())
	}
	var up struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &up)
	return up.ID
}

// startAnalysis starts a job and polls until it leaves the running states.
func startAnalysis(t *testing.T, s http.Handler, uploadID string) string {
	t.Helper()
	rec := doJSON(t, s, "POST", "/uploads/"+uploadID+"/analyses", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start analysis: status %d, body %s", rec.Code, rec.Body.String())
	}
	var job struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &job)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, s, "GET", "/analyses/"+job.ID, "")
		var got struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		decodeJSON(t, rec, &got)
		switch got.Status {
		case "done":
			return job.ID
		case "failed", "canceled":
			t.Fatalf("job ended %s: %s", got.Status, got.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return ""
}

func TestServer_CORSHeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/uploads", "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_UploadLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	id := createUpload(t, s, "reqs.md", sampleDoc)

	rec := doJSON(t, s, "GET", "/uploads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list uploads: status %d", rec.Code)
	}
	var list []struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
	}
	decodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != id || list[0].Filename != "reqs.md" {
		t.Fatalf("unexpected listing: %+v", list)
	}

	if rec := doJSON(t, s, "GET", "/uploads/"+id, ""); rec.Code != http.StatusOK {
		t.Errorf("get upload: status %d", rec.Code)
	}
	if rec := doJSON(t, s, "DELETE", "/uploads/"+id, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete upload: status %d", rec.Code)
	}
	if rec := doJSON(t, s, "GET", "/uploads/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted upload: status %d, want 404", rec.Code)
	}
}

func TestServer_UploadValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if rec := doJSON(t, s, "POST", "/uploads", `{"filename": "x.md"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing content: status %d, want 400", rec.Code)
	}
	if rec := doJSON(t, s, "POST", "/uploads", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: status %d, want 400", rec.Code)
	}
}

func TestServer_AnalysisJobAndReportFormats(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	uploadID := createUpload(t, s, "reqs.md", sampleDoc)
	jobID := startAnalysis(t, s, uploadID)

	// Default format is JSON.
	rec := doJSON(t, s, "GET", "/analyses/"+jobID+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get report: status %d, body %s", rec.Code, rec.Body.String())
	}
	var rep struct {
		SourceFile string `json:"source_file"`
		Risks      map[string][]json.RawMessage
	}
	decodeJSON(t, rec, &rep)
	if rep.SourceFile != "reqs.md" {
		t.Errorf("source_file = %q", rep.SourceFile)
	}

	rec = doJSON(t, s, "GET", "/analyses/"+jobID+"/report?format=markdown", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown") {
		t.Errorf("markdown report: status %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "# Requirements Risk Report") {
		t.Errorf("markdown body missing heading:\n%s", rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/analyses/"+jobID+"/report?format=csv", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("csv report: status %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = doJSON(t, s, "GET", "/analyses/"+jobID+"/report?format=pdf", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status %d, want 400", rec.Code)
	}
}

func TestServer_JobNotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if rec := doJSON(t, s, "GET", "/analyses/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get job: status %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, "DELETE", "/analyses/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("cancel job: status %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, "GET", "/analyses/nope/report", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get report: status %d, want 404", rec.Code)
	}
}

func TestServer_StartAnalysisUnknownUpload(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if rec := doJSON(t, s, "POST", "/uploads/nope/analyses", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestServer_RulesEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/rules", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get rules: status %d", rec.Code)
	}
	var rules struct {
		Detectors map[string]struct {
			Enabled bool `json:"enabled"`
		} `json:"detectors"`
	}
	decodeJSON(t, rec, &rules)
	if len(rules.Detectors) != 8 {
		t.Fatalf("got %d detectors, want 8", len(rules.Detectors))
	}
	if !rules.Detectors["ambiguity"].Enabled {
		t.Error("ambiguity should start enabled")
	}

	rec = doJSON(t, s, "PATCH", "/rules/categories/ambiguity", `{"enabled": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d, body %s", rec.Code, rec.Body.String())
	}
	decodeJSON(t, rec, &rules)
	if rules.Detectors["ambiguity"].Enabled {
		t.Error("ambiguity still enabled after toggle")
	}

	if rec := doJSON(t, s, "PATCH", "/rules/categories/sentiment", `{"enabled": true}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown category: status %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, "PATCH", "/rules/categories/ambiguity", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing enabled flag: status %d, want 400", rec.Code)
	}
}
