package thesis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GyroZepelix/thesis-archive/internal/schema"
	"github.com/GyroZepelix/thesis-archive/internal/searchlog"
)

const testID = "7d4f3c1e-9b2a-4c61-8f0e-2a5b6c7d8e9f"

type recorderFunc func(ctx context.Context, event searchlog.Event)

func (f recorderFunc) Log(ctx context.Context, event searchlog.Event) { f(ctx, event) }

func newTestRouter(t *testing.T, store *fakeStore, requireCriteria bool) chi.Router {
	t.Helper()
	return newRecordingRouter(t, store, requireCriteria, nil)
}

func newRecordingRouter(t *testing.T, store *fakeStore, requireCriteria bool, rec Recorder) chi.Router {
	t.Helper()
	h := NewHandler("books", NewService(store, Options{
		RequireCriteria:  requireCriteria,
		CoverPlaceholder: "/cover.png",
	}), rec)

	r := chi.NewRouter()
	r.Post("/api/books/search", h.Search)
	r.Get("/api/books/{id}", h.Get)
	r.Post("/api/books/{id}/recommend", h.Recommend)
	return r
}

func serve(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	_ = json.NewDecoder(w.Body).Decode(&resp)
	return w, resp
}

func TestHandler_Search(t *testing.T) {
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: sampleRecords()}
	r := newTestRouter(t, store, false)

	w, resp := serve(r, http.MethodPost, "/api/books/search", `{"filterAndSearchQuery":"machine","year":2024}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	data, ok := resp["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one result, got %v", resp["data"])
	}
	if resp["count"] != float64(1) {
		t.Errorf("count = %v", resp["count"])
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, string(StrategyFullText)) {
		t.Errorf("message = %q", msg)
	}
	item := data[0].(map[string]any)
	if item["degreeAwardedYear"] != float64(2024) || item["coverImage"] != "/cover.png" {
		t.Errorf("unexpected item: %v", item)
	}
}

func TestHandler_Search_FullTextFailureStill200(t *testing.T) {
	store := &fakeStore{
		layout:      mustLayout(t, schema.LayoutFlat),
		records:     sampleRecords(),
		fullTextErr: errors.New("function websearch_to_tsquery does not exist"),
	}
	r := newTestRouter(t, store, false)

	w, resp := serve(r, http.MethodPost, "/api/books/search", `{"filterAndSearchQuery":"machine"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["count"] != float64(2) {
		t.Errorf("count = %v", resp["count"])
	}
	if strings.Contains(w.Body.String(), "websearch_to_tsquery") {
		t.Error("full-text failure leaked to the client")
	}
}

func TestHandler_Search_EmptyBody(t *testing.T) {
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: sampleRecords()}

	w, resp := serve(newTestRouter(t, store, false), http.MethodPost, "/api/books/search", "")
	if w.Code != http.StatusOK || resp["count"] != float64(3) {
		t.Errorf("expected all records, got %d %v", w.Code, resp["count"])
	}

	w, resp = serve(newTestRouter(t, store, true), http.MethodPost, "/api/books/search", "{}")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp["success"] != false || resp["details"] == nil {
		t.Errorf("unexpected error body: %v", resp)
	}
}

func TestHandler_Search_BadInput(t *testing.T) {
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: sampleRecords()}
	r := newTestRouter(t, store, false)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"year":`},
		{"non-numeric year", `{"year":"abc"}`},
		{"fractional year", `{"year":2023.5}`},
		{"query not a string", `{"filterAndSearchQuery":42}`},
		{"departments not strings", `{"departments":[1,2]}`},
		{"trailing data", `{"year":2023} garbage`},
		{"two objects", `{} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serve(r, http.MethodPost, "/api/books/search", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if resp["success"] != false {
				t.Errorf("success = %v", resp["success"])
			}
		})
	}
	if store.findCalls+store.fullTextCalls != 0 {
		t.Error("no query should be issued for invalid input")
	}
}

func TestHandler_Search_YearForms(t *testing.T) {
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: sampleRecords()}
	r := newTestRouter(t, store, false)

	for _, body := range []string{`{"year":2023}`, `{"year":"2023"}`, `{"year":2023.0}`} {
		t.Run(body, func(t *testing.T) {
			w, resp := serve(r, http.MethodPost, "/api/books/search", body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %v", w.Code, resp)
			}
			if resp["count"] != float64(1) {
				t.Errorf("count = %v, want 1", resp["count"])
			}
		})
	}
}

func TestHandler_Search_StorageFailureIs500(t *testing.T) {
	store := &fakeStore{
		layout:  mustLayout(t, schema.LayoutFlat),
		findErr: errors.New("dial tcp: connection refused"),
	}

	w, resp := serve(newTestRouter(t, store, false), http.MethodPost, "/api/books/search", `{"departments":"CCS"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if _, ok := resp["details"]; ok {
		t.Errorf("500 must not carry details: %v", resp)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("storage error leaked to the client")
	}
}

func TestHandler_Get(t *testing.T) {
	records := sampleRecords()
	records[0].ID = testID
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: records}
	r := newTestRouter(t, store, false)

	w, resp := serve(r, http.MethodGet, "/api/books/"+testID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if data := resp["data"].(map[string]any); data["id"] != testID {
		t.Errorf("id = %v", data["id"])
	}

	w, _ = serve(r, http.MethodGet, "/api/books/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Code)
	}

	w, _ = serve(r, http.MethodGet, "/api/books/00000000-0000-0000-0000-000000000000", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing record, got %d", w.Code)
	}
}

func TestHandler_Recommend(t *testing.T) {
	records := sampleRecords()
	records[0].ID = testID
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: records}
	r := newTestRouter(t, store, false)

	w, resp := serve(r, http.MethodPost, "/api/books/"+testID+"/recommend", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if data := resp["data"].(map[string]any); data["recommendations"] != float64(1) {
		t.Errorf("recommendations = %v", data["recommendations"])
	}
}

func TestHandler_Search_RecordsEvent(t *testing.T) {
	store := &fakeStore{layout: mustLayout(t, schema.LayoutFlat), records: sampleRecords()}
	var events []searchlog.Event
	r := newRecordingRouter(t, store, false, recorderFunc(func(ctx context.Context, e searchlog.Event) {
		events = append(events, e)
	}))

	serve(r, http.MethodPost, "/api/books/search", `{"filterAndSearchQuery":" machine ","departments":["College of Engineering"]}`)
	serve(r, http.MethodPost, "/api/books/search", `{"year":"abc"}`)

	if len(events) != 1 {
		t.Fatalf("expected one event for the successful search, got %d", len(events))
	}
	e := events[0]
	if e.Catalog != "books" || e.Query != "machine" || e.Strategy != string(StrategyFullText) || e.Results != 1 {
		t.Errorf("unexpected event: %+v", e)
	}
	if len(e.Departments) != 1 || e.Departments[0] != "College of Engineering" {
		t.Errorf("departments = %v", e.Departments)
	}
}
