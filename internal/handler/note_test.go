package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmaclean/jot/internal/database"
	"github.com/dmaclean/jot/internal/store"
)

func setupNoteHandler(t *testing.T) (*NoteHandler, *store.NoteStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ns := store.NewNoteStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNoteHandler(ns, nil, logger), ns
}

func doCreate(t *testing.T, h *NoteHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func doUpdate(t *testing.T, h *NoteHandler, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/notes/"+id, strings.NewReader(body))
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	return rec
}

func doDelete(t *testing.T, h *NoteHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, "/notes/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	return rec
}

func doSearch(t *testing.T, h *NoteHandler, q string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/notes/search?q="+url.QueryEscape(q), nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func decodeNote(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestCreateRequiresTitleAndContent(t *testing.T) {
	h, ns := setupNoteHandler(t)

	for _, body := range []string{
		`{}`,
		`{"title": "only title"}`,
		`{"content": "only content"}`,
		`{"title": "", "content": "x"}`,
		`{"title": "x", "content": "   "}`,
		`{"title": null, "content": "x"}`,
	} {
		rec := doCreate(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("create %s: status = %d, want 400", body, rec.Code)
		}
	}

	// Nothing was persisted.
	notes, err := ns.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected no rows, got %d", len(notes))
	}
}

func TestCreateAndGet(t *testing.T) {
	h, _ := setupNoteHandler(t)

	rec := doCreate(t, h, `{
		"title": "Dentist",
		"content": "remember appointment",
		"location": "Main St clinic",
		"tags": "health",
		"event_date": "2024-01-15",
		"event_time": "14:30"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got := decodeNote(t, rec)
	if got["title"] != "Dentist" || got["content"] != "remember appointment" {
		t.Errorf("note = %v", got)
	}
	if got["location"] != "Main St clinic" || got["tags"] != "health" {
		t.Errorf("metadata = %v / %v", got["location"], got["tags"])
	}
	if got["event_date"] != "2024-01-15" {
		t.Errorf("event_date = %v", got["event_date"])
	}
	if got["event_time"] != "14:30:00" {
		t.Errorf("event_time = %v", got["event_time"])
	}
	if got["id"] == nil || got["created_at"] == nil || got["updated_at"] == nil {
		t.Errorf("missing assigned fields: %v", got)
	}

	id := int64(got["id"].(float64))
	req := httptest.NewRequest(http.MethodGet, "/notes/1", nil)
	req.SetPathValue("id", "1")
	getRec := httptest.NewRecorder()
	h.Get(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d", getRec.Code)
	}
	fetched := decodeNote(t, getRec)
	if int64(fetched["id"].(float64)) != id {
		t.Errorf("fetched id = %v, want %d", fetched["id"], id)
	}
}

func TestCreateMetadataLength(t *testing.T) {
	h, _ := setupNoteHandler(t)

	ok := strings.Repeat("a", 200)
	rec := doCreate(t, h, `{"title": "t", "content": "c", "location": "`+ok+`", "tags": "`+ok+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("200-char metadata rejected: %d %s", rec.Code, rec.Body.String())
	}

	tooLong := strings.Repeat("a", 201)
	rec = doCreate(t, h, `{"title": "t", "content": "c", "location": "`+tooLong+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("201-char location: status = %d, want 400", rec.Code)
	}

	rec = doCreate(t, h, `{"title": "t", "content": "c", "tags": "`+tooLong+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("201-char tags: status = %d, want 400", rec.Code)
	}

	rec = doCreate(t, h, `{"title": "t", "content": "c", "location": 42}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("numeric location: status = %d, want 400", rec.Code)
	}
}

func TestCreateBadDateAndTimeIgnored(t *testing.T) {
	h, _ := setupNoteHandler(t)

	rec := doCreate(t, h, `{"title": "t", "content": "c", "event_date": "2024-13-45", "event_time": "not-a-time"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (bad date/time must not reject)", rec.Code)
	}
	got := decodeNote(t, rec)
	if got["event_date"] != nil {
		t.Errorf("event_date = %v, want null", got["event_date"])
	}
	if got["event_time"] != nil {
		t.Errorf("event_time = %v, want null", got["event_time"])
	}
}

func TestUpdateEmptyBody(t *testing.T) {
	h, _ := setupNoteHandler(t)
	doCreate(t, h, `{"title": "t", "content": "c"}`)

	for _, body := range []string{`{}`, `null`, ``} {
		rec := doUpdate(t, h, "1", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("update with body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdatePartial(t *testing.T) {
	h, _ := setupNoteHandler(t)
	doCreate(t, h, `{"title": "t", "content": "c", "location": "office", "tags": "work", "event_date": "2024-01-15", "event_time": "14:30"}`)

	rec := doUpdate(t, h, "1", `{"title": "x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decodeNote(t, rec)
	if got["title"] != "x" {
		t.Errorf("title = %v", got["title"])
	}
	if got["content"] != "c" || got["location"] != "office" || got["tags"] != "work" {
		t.Errorf("other fields changed: %v", got)
	}
	if got["event_date"] != "2024-01-15" || got["event_time"] != "14:30:00" {
		t.Errorf("event fields changed: %v / %v", got["event_date"], got["event_time"])
	}
}

func TestUpdateTriState(t *testing.T) {
	h, _ := setupNoteHandler(t)
	doCreate(t, h, `{"title": "t", "content": "c", "location": "office", "tags": "work"}`)

	// Explicit null clears.
	rec := doUpdate(t, h, "1", `{"location": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeNote(t, rec)
	if got["location"] != nil {
		t.Errorf("location = %v, want null", got["location"])
	}
	if got["tags"] != "work" {
		t.Errorf("tags = %v, want untouched", got["tags"])
	}

	// Omitted key leaves the prior value.
	rec = doUpdate(t, h, "1", `{"title": "again"}`)
	got = decodeNote(t, rec)
	if got["location"] != nil {
		t.Errorf("location resurrected: %v", got["location"])
	}
	if got["tags"] != "work" {
		t.Errorf("tags = %v, want untouched", got["tags"])
	}
}

func TestUpdateBadTimeLeavesValue(t *testing.T) {
	h, _ := setupNoteHandler(t)
	doCreate(t, h, `{"title": "t", "content": "c", "event_time": "14:30"}`)

	rec := doUpdate(t, h, "1", `{"event_time": "not-a-time"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (bad time is not an error)", rec.Code)
	}
	got := decodeNote(t, rec)
	if got["event_time"] != "14:30:00" {
		t.Errorf("event_time = %v, want unchanged 14:30:00", got["event_time"])
	}

	// But an explicit empty string clears it.
	rec = doUpdate(t, h, "1", `{"event_time": ""}`)
	got = decodeNote(t, rec)
	if got["event_time"] != nil {
		t.Errorf("event_time = %v, want cleared", got["event_time"])
	}
}

func TestUpdateNotFound(t *testing.T) {
	h, _ := setupNoteHandler(t)

	rec := doUpdate(t, h, "42", `{"title": "x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateLengthRejectedWithoutMutation(t *testing.T) {
	h, ns := setupNoteHandler(t)
	doCreate(t, h, `{"title": "t", "content": "c"}`)

	tooLong := strings.Repeat("a", 201)
	rec := doUpdate(t, h, "1", `{"title": "changed", "location": "`+tooLong+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	note, err := ns.GetByID(1)
	if err != nil || note == nil {
		t.Fatalf("get: %v", err)
	}
	if note.Title != "t" {
		t.Errorf("title = %q, partial mutation leaked", note.Title)
	}
}

func TestDelete(t *testing.T) {
	h, _ := setupNoteHandler(t)
	doCreate(t, h, `{"title": "t", "content": "c"}`)

	rec := doDelete(t, h, "1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}

	// Deleting again is a 404, as is deleting an id that never existed.
	rec = doDelete(t, h, "1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
	rec = doDelete(t, h, "999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	h, _ := setupNoteHandler(t)
	doCreate(t, h, `{"title": "Groceries", "content": "milk and eggs"}`)
	doCreate(t, h, `{"title": "Budget milk report", "content": "numbers"}`)
	doCreate(t, h, `{"title": "Unrelated", "content": "nothing"}`)

	// Empty query returns an empty list even though notes exist.
	rec := doSearch(t, h, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty query body = %q, want []", rec.Body.String())
	}

	rec = doSearch(t, h, "milk")
	var results []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, n := range results {
		if n["title"] == "Unrelated" {
			t.Errorf("non-matching note returned")
		}
	}
}

func TestListReturnsEmptyArray(t *testing.T) {
	h, _ := setupNoteHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rec.Body.String())
	}
}

func TestGetNotFound(t *testing.T) {
	h, _ := setupNoteHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/notes/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
