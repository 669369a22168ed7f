package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/levelforge/pkg/cache"
	"github.com/matzehuels/levelforge/pkg/config"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/pipeline"
	"github.com/matzehuels/levelforge/pkg/report"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func ndjson(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// fixtureLevels builds a source level with a placed chain (rock), an
// orphaned chain (barrel), and a brush chain (oak) kept live by the
// forest placement file, plus a near-empty target level.
func fixtureLevels(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "west_gate")

	writeFile(t, src, "info.json", `{"title":"West Gate"}`)
	writeFile(t, src, "main/items.level.json", ndjson(
		`{"class":"TSStatic","name":"rock1","persistentId":"p-rock1","shapeName":"/levels/west_gate/art/shapes/rocks/boulder.dae"}`,
		`{"class":"SimGroup","name":"MissionGroup","persistentId":"p-grp"}`,
	))
	writeFile(t, src, "art/shapes/rocks/boulder.dae", "boulder geometry")
	writeFile(t, src, "art/shapes/rocks/main.materials.json",
		`{"boulder_mat":{"class":"Material","persistentId":"m-boulder","colorMap":"/levels/west_gate/art/shapes/rocks/boulder_d.dds"}}`)
	writeFile(t, src, "art/shapes/rocks/boulder_d.dds", "boulder diffuse")

	writeFile(t, src, "art/shapes/props/barrel.dae", "barrel geometry")
	writeFile(t, src, "art/shapes/props/main.materials.json",
		`{"barrel_mat":{"class":"Material","persistentId":"m-barrel","colorMap":"/levels/west_gate/art/shapes/props/barrel_d.dds"}}`)
	writeFile(t, src, "art/shapes/props/barrel_d.dds", "barrel diffuse")

	writeFile(t, src, "art/shapes/trees/oak.dae", "oak geometry")
	writeFile(t, src, "art/shapes/trees/main.materials.json",
		`{"oak_mat":{"class":"Material","persistentId":"m-oak","colorMap":"/levels/west_gate/art/shapes/trees/oak_d.dds"}}`)
	writeFile(t, src, "art/shapes/trees/oak_d.dds", "oak diffuse")
	writeFile(t, src, "art/forest/managedItemData.json",
		`{"oak_small":{"class":"TSForestItemData","internalName":"oak_small","persistentId":"f-oak","shapeFile":"/levels/west_gate/art/shapes/trees/oak.dae"}}`)
	writeFile(t, src, "art/forest/forestBrushes.json", ndjson(
		`{"class":"ForestBrushGroup","name":"ForestBrushGroup","persistentId":"g-1"}`,
		`{"class":"ForestBrush","name":"oak_brush","persistentId":"b-oak","__parent":"ForestBrushGroup"}`,
		`{"class":"ForestBrushElement","name":"oak_elem","persistentId":"e-oak","__parent":"oak_brush","forestItemData":"oak_small"}`,
	))
	writeFile(t, src, "forest/trees.forest4.json", ndjson(
		`{"type":"oak_small","pos":[1,2,0]}`,
	))

	tgt := filepath.Join(root, "sandbox")
	writeFile(t, tgt, "info.json", `{"title":"Sandbox"}`)
	writeFile(t, tgt, "main/items.level.json", ndjson(
		`{"class":"SimGroup","name":"MissionGroup","persistentId":"p-sg"}`,
	))
	return root
}

type testServer struct {
	handler http.Handler
	root    string
	store   report.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	root := fixtureLevels(t)
	store, err := report.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, nil, store, testLogger())
	t.Cleanup(func() { runner.Close() })

	cfg := config.Default()
	cfg.LevelsRoot = root
	return &testServer{
		handler: New(runner, store, cfg, testLogger()).Router(),
		root:    root,
		store:   store,
	}
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func mustDecode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	var resp healthResponse
	mustDecode(t, w, &resp)
	if resp.Status != "ok" || resp.Service != "levelforge" {
		t.Errorf("health = %+v", resp)
	}
}

func TestListLevels(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/levels", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var entries []levelEntry
	mustDecode(t, w, &entries)
	if len(entries) != 2 {
		t.Fatalf("got %d levels, want 2", len(entries))
	}
	if entries[0].Name != "sandbox" || entries[1].Name != "west_gate" {
		t.Errorf("levels = %q, %q, want name order", entries[0].Name, entries[1].Name)
	}
	if entries[1].Title != "West Gate" {
		t.Errorf("title = %q", entries[1].Title)
	}
	if entries[1].SizeBytes == 0 {
		t.Error("level size missing")
	}
}

func TestListLevelsMissingRoot(t *testing.T) {
	cfg := config.Default()
	cfg.LevelsRoot = filepath.Join(t.TempDir(), "nope")
	srv := New(pipeline.NewRunner(nil, nil, nil, testLogger()), nil, cfg, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/levels", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for a misconfigured root", w.Code)
	}
	var resp errorResponse
	mustDecode(t, w, &resp)
	if resp.Code != errors.ErrCodeRootNotFound {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestScanLevel(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/levels/west_gate/scan", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp scanResponse
	mustDecode(t, w, &resp)
	if resp.Graph == nil || len(resp.Graph.Nodes) == 0 {
		t.Fatal("scan returned no graph")
	}
	if resp.Summary.Nodes != len(resp.Graph.Nodes) {
		t.Errorf("summary nodes = %d, graph has %d", resp.Summary.Nodes, len(resp.Graph.Nodes))
	}
	if resp.Graph.Level != "west_gate" {
		t.Errorf("graph level = %q", resp.Graph.Level)
	}
	if resp.ReportID == "" {
		t.Fatal("no report id")
	}

	rw := ts.do(t, http.MethodGet, "/api/reports/"+resp.ReportID, "")
	if rw.Code != http.StatusOK {
		t.Fatalf("report status = %d", rw.Code)
	}
	var rep report.Report
	mustDecode(t, rw, &rep)
	if rep.Kind != report.KindScan || !rep.Success {
		t.Errorf("report = kind %q success %v", rep.Kind, rep.Success)
	}
}

func TestScanErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   errors.Code
	}{
		{"unknown level", "/api/levels/ghost/scan", http.StatusNotFound, errors.ErrCodeLevelNotFound},
		{"traversal name", "/api/levels/../scan", http.StatusBadRequest, errors.ErrCodeInvalidLevel},
		{"hidden name", "/api/levels/.hidden/scan", http.StatusBadRequest, errors.ErrCodeInvalidLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body)
			}
			var resp errorResponse
			mustDecode(t, w, &resp)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestSummaryCaching(t *testing.T) {
	ts := newTestServer(t)

	var first summaryResponse
	w := ts.do(t, http.MethodGet, "/api/levels/west_gate/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	mustDecode(t, w, &first)
	if first.Cached {
		t.Error("first request served from an empty cache")
	}

	var second summaryResponse
	mustDecode(t, ts.do(t, http.MethodGet, "/api/levels/west_gate/summary", ""), &second)
	if !second.Cached {
		t.Error("unchanged level missed the cache")
	}
	if second.Summary.Signature != first.Summary.Signature {
		t.Errorf("signature changed between identical scans")
	}

	var refreshed summaryResponse
	mustDecode(t, ts.do(t, http.MethodGet, "/api/levels/west_gate/summary?refresh=true", ""), &refreshed)
	if refreshed.Cached {
		t.Error("refresh served from cache")
	}
}

func TestShrinkPlan(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/levels/west_gate/shrink", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp shrinkResponse
	mustDecode(t, w, &resp)

	want := []string{
		"art/shapes/props/barrel.dae",
		"art/shapes/props/barrel_d.dds",
		"art/shapes/props/main.materials.json",
	}
	if !reflect.DeepEqual(resp.Candidates, want) {
		t.Errorf("candidates = %v, want %v", resp.Candidates, want)
	}
	if resp.Deleted != 0 {
		t.Errorf("plan deleted %d files", resp.Deleted)
	}
	if resp.ReportID == "" {
		t.Error("plan left no report")
	}
	for _, rel := range want {
		if _, err := os.Stat(filepath.Join(ts.root, "west_gate", filepath.FromSlash(rel))); err != nil {
			t.Errorf("plan-only request removed %s: %v", rel, err)
		}
	}
}

func TestShrinkApply(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/levels/west_gate/shrink", `{"apply":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp shrinkResponse
	mustDecode(t, w, &resp)
	if resp.Deleted != 3 || resp.Failed != 0 {
		t.Fatalf("deleted = %d, failed = %d, want 3 deletions", resp.Deleted, resp.Failed)
	}
	for _, rel := range resp.Candidates {
		if _, err := os.Stat(filepath.Join(ts.root, "west_gate", filepath.FromSlash(rel))); !os.IsNotExist(err) {
			t.Errorf("%s still on disk after apply", rel)
		}
	}
}

func TestShrinkKeepList(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/levels/west_gate/shrink",
		`{"keep_missing":["art/shapes/props/barrel.dae"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp shrinkResponse
	mustDecode(t, w, &resp)
	for _, rel := range resp.Candidates {
		if rel == "art/shapes/props/barrel.dae" {
			t.Error("keep-listed path still in delete set")
		}
	}
}

func TestShrinkBadBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/levels/west_gate/shrink", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp errorResponse
	mustDecode(t, w, &resp)
	if resp.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestCopyBrushes(t *testing.T) {
	ts := newTestServer(t)
	body := `{"level":"west_gate","target_level":"sandbox","brushes":["oak_brush"]}`

	w := ts.do(t, http.MethodPost, "/api/copy", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp copyResponse
	mustDecode(t, w, &resp)
	if resp.Copied != 6 || resp.Failed != 0 || resp.Partial {
		t.Fatalf("result = %+v, want 6 copied", resp)
	}
	for _, rel := range []string{
		"art/shapes/trees/oak.dae",
		"art/forest/forestBrushes.json",
	} {
		if _, err := os.Stat(filepath.Join(ts.root, "sandbox", filepath.FromSlash(rel))); err != nil {
			t.Errorf("target missing %s: %v", rel, err)
		}
	}

	// The same request again copies nothing new.
	var again copyResponse
	mustDecode(t, ts.do(t, http.MethodPost, "/api/copy", body), &again)
	if again.Copied != 0 || again.Duplicates != 6 {
		t.Errorf("second run = %+v, want 6 duplicates", again)
	}
}

func TestCopyValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode errors.Code
	}{
		{"target equals source", `{"level":"west_gate","target_level":"west_gate","all_brushes":true}`, errors.ErrCodeInvalidInput},
		{"no brush selection", `{"level":"west_gate","target_level":"sandbox"}`, errors.ErrCodeInvalidInput},
		{"unknown brush", `{"level":"west_gate","target_level":"sandbox","brushes":["no_such_brush"]}`, errors.ErrCodeInvalidInput},
		{"empty body", "", errors.ErrCodeInvalidLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/copy", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body)
			}
			var resp errorResponse
			mustDecode(t, w, &resp)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}

	// The route only accepts POST.
	if w := ts.do(t, http.MethodGet, "/api/copy", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/copy = %d, want 405", w.Code)
	}
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)

	// A scan produces exactly one report.
	if w := ts.do(t, http.MethodGet, "/api/levels/west_gate/scan", ""); w.Code != http.StatusOK {
		t.Fatalf("scan status = %d", w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var reports []*report.Report
	mustDecode(t, w, &reports)
	if len(reports) != 1 || reports[0].Kind != report.KindScan {
		t.Fatalf("reports = %+v, want one scan report", reports)
	}

	t.Run("unknown id", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/reports/"+uuid.NewString(), "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		var resp errorResponse
		mustDecode(t, w, &resp)
		if resp.Code != errors.ErrCodeReportNotFound {
			t.Errorf("code = %q", resp.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/reports/not-a-uuid", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed limit", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/reports?limit=abc", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestReportsWithoutStore(t *testing.T) {
	cfg := config.Default()
	cfg.LevelsRoot = t.TempDir()
	srv := New(pipeline.NewRunner(nil, nil, nil, testLogger()), nil, cfg, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var reports []*report.Report
	mustDecode(t, w, &reports)
	if len(reports) != 0 {
		t.Errorf("reports = %+v, want empty list", reports)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeParse, http.StatusBadRequest},
		{errors.ErrCodeLevelNotFound, http.StatusNotFound},
		{errors.ErrCodeReportNotFound, http.StatusNotFound},
		{errors.ErrCodeRootNotFound, http.StatusInternalServerError},
		{errors.ErrCodeIO, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodOptions, "/api/levels", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
