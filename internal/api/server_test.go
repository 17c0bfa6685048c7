package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shardlens/shardlens/internal/config"
	"github.com/shardlens/shardlens/internal/preset"
	"github.com/shardlens/shardlens/internal/query"
	"github.com/shardlens/shardlens/internal/session"
	"github.com/shardlens/shardlens/internal/source"
)

type fakeExecutor struct {
	result *query.Result
	count  int64
	fail   error
}

func (f *fakeExecutor) Execute(_ context.Context, _ string, _ int) (*query.Result, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.result, nil
}

func (f *fakeExecutor) Count(_ context.Context, _ string) (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	return f.count, nil
}

func (f *fakeExecutor) Close() error { return nil }

func newTestServer(t *testing.T, exec query.Executor) *Server {
	t.Helper()
	cfg, err := config.Load("", t.TempDir())
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := query.Source{Dir: "/data/sales", Delimiter: ",", Encoding: "utf-8"}
	schema := &source.Schema{
		Columns: []string{"id", "region", "amount"},
		Preview: [][]string{{"1", "EU", "100"}},
	}
	sess := session.New(src, schema.Columns, cfg.Query.DefaultLimit, exec, logger)
	store := preset.NewStore(filepath.Join(t.TempDir(), "presets.toml"))
	return NewServer(cfg, sess, schema, store, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSchemaEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeExecutor{result: &query.Result{}})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/schema", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	cols, _ := body["columns"].([]any)
	if len(cols) != 3 {
		t.Errorf("columns = %v", body["columns"])
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestServer(t, &fakeExecutor{result: &query.Result{}})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET state status = %d", rec.Code)
	}
	got := decode[StateResponse](t, rec)
	if !got.Stale {
		t.Error("fresh session should report stale (empty cache)")
	}

	update := FilterStateBody{
		Columns:  []string{"region", "amount"},
		Filters:  map[string][]string{"region": {"EU"}},
		RowLimit: 100,
	}
	rec = doJSON(t, s.Handler(), http.MethodPut, "/api/v1/state", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT state status = %d: %s", rec.Code, rec.Body.String())
	}
	got = decode[StateResponse](t, rec)
	if len(got.State.Columns) != 2 || got.State.RowLimit != 100 {
		t.Errorf("state not updated: %+v", got.State)
	}
}

func TestPutStateRejectsUnknownColumn(t *testing.T) {
	s := newTestServer(t, &fakeExecutor{result: &query.Result{}})
	rec := doJSON(t, s.Handler(), http.MethodPut, "/api/v1/state", FilterStateBody{Columns: []string{"bogus"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Error != "schema_mismatch" {
		t.Errorf("error = %q, want schema_mismatch", resp.Error)
	}
}

func TestRefreshAndResult(t *testing.T) {
	exec := &fakeExecutor{result: &query.Result{
		Columns: []string{"shard_date", "id", "region", "amount"},
		Rows:    [][]string{{"2021-01-01", "1", "EU", "100"}},
	}}
	s := newTestServer(t, exec)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/result", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("result before refresh: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[ResultResponse](t, rec)
	if res.RowCount != 1 || !strings.HasPrefix(res.Query, "SELECT") {
		t.Errorf("unexpected refresh response: %+v", res)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/result", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("result after refresh: status = %d", rec.Code)
	}
	cached := decode[ResultResponse](t, rec)
	if cached.Fingerprint != res.Fingerprint {
		t.Error("cached result fingerprint differs from refresh")
	}
}

func TestRefreshEngineErrorSurfacesVerbatim(t *testing.T) {
	exec := &fakeExecutor{fail: &query.EngineError{Query: "q", Err: errors.New("out of memory scanning shard")}}
	s := newTestServer(t, exec)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/refresh", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if !strings.Contains(resp.Message, "out of memory scanning shard") {
		t.Errorf("engine message not surfaced: %q", resp.Message)
	}
}

func TestCountDegradesToUnknown(t *testing.T) {
	exec := &fakeExecutor{result: &query.Result{}, count: 12345}
	s := newTestServer(t, exec)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/count", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[CountResponse](t, rec)
	if resp.Rows == nil || *resp.Rows != 12345 || resp.Status != "ok" {
		t.Errorf("unexpected count response: %+v", resp)
	}

	exec.fail = errors.New("scan failed")
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/count", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded count status = %d, want 200", rec.Code)
	}
	resp = decode[CountResponse](t, rec)
	if resp.Rows != nil || resp.Status != "unknown" {
		t.Errorf("probe failure did not degrade to unknown: %+v", resp)
	}
}

func TestPresetLifecycle(t *testing.T) {
	s := newTestServer(t, &fakeExecutor{result: &query.Result{}})

	p := preset.Preset{Filters: map[string][]string{"region": {"EU"}}, DateStart: "2021-01-01", DateEnd: "2021-03-31"}
	rec := doJSON(t, s.Handler(), http.MethodPut, "/api/v1/presets/eu-q1", p)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/presets", nil)
	presets := decode[map[string]preset.Preset](t, rec)
	if _, ok := presets["eu-q1"]; !ok {
		t.Fatalf("saved preset missing from list: %v", presets)
	}

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/presets/eu-q1/apply", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decode[StateResponse](t, rec)
	if state.State.DateStart != "2021-01-01" || len(state.State.Filters["region"]) != 1 {
		t.Errorf("preset not applied: %+v", state.State)
	}

	rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/v1/presets/eu-q1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/v1/presets/eu-q1/apply", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("apply after delete: status = %d, want 404", rec.Code)
	}
}

func TestExportStreamsCSV(t *testing.T) {
	exec := &fakeExecutor{result: &query.Result{
		Columns: []string{"shard_date", "region"},
		Rows:    [][]string{{"2021-01-01", "EU"}},
	}}
	s := newTestServer(t, exec)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/export", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("export before refresh: status = %d, want 409", rec.Code)
	}

	if rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/refresh", nil); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/export?format=csv&limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "shard_date,region\n") {
		t.Errorf("unexpected CSV body:\n%s", rec.Body.String())
	}
}

func TestClearEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeExecutor{result: &query.Result{}})

	if rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/refresh", nil); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	rec := doJSON(t, s.Handler(), http.MethodDelete, "/api/v1/result", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	state := decode[StateResponse](t, rec)
	if !state.Stale {
		t.Error("cleared session should be stale")
	}
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/result", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("result after clear: status = %d, want 404", rec.Code)
	}
}
