package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dmaclean/jot/internal/model"
	"github.com/dmaclean/jot/internal/store"
	"github.com/dmaclean/jot/internal/websocket"
)

// maxMetaLen caps the location and tags fields, counted in characters.
const maxMetaLen = 200

type NoteHandler struct {
	store  *store.NoteStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewNoteHandler(s *store.NoteStore, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{store: s, hub: hub, logger: logger}
}

func (h *NoteHandler) broadcast(action string, id int64) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.Message{Action: action, ID: id})
	}
}

type noteRequest struct {
	Title     *string             `json:"title"`
	Content   *string             `json:"content"`
	Location  model.Field[string] `json:"location"`
	Tags      model.Field[string] `json:"tags"`
	EventDate model.Field[string] `json:"event_date"`
	EventTime model.Field[string] `json:"event_time"`
}

// patchFromRequest turns a decoded request into a NotePatch. Location and
// tags violations reject the whole request; event_date and event_time are
// best effort and never do. The returned message is empty on success.
func (h *NoteHandler) patchFromRequest(req *noteRequest) (model.NotePatch, string) {
	var p model.NotePatch

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		p.Title = &t
	}
	if req.Content != nil {
		c := strings.TrimSpace(*req.Content)
		p.Content = &c
	}

	if req.Location.Present() {
		switch {
		case req.Location.Null():
			p.Location = model.FieldClear[string]()
		case req.Location.Err() != nil:
			return p, "location must be a string"
		case utf8.RuneCountInString(req.Location.Value()) > maxMetaLen:
			return p, "location must not exceed 200 characters"
		default:
			p.Location = model.FieldValue(req.Location.Value())
		}
	}

	if req.Tags.Present() {
		switch {
		case req.Tags.Null():
			p.Tags = model.FieldClear[string]()
		case req.Tags.Err() != nil:
			return p, "tags must be a string"
		case utf8.RuneCountInString(req.Tags.Value()) > maxMetaLen:
			return p, "tags must not exceed 200 characters"
		default:
			p.Tags = model.FieldValue(req.Tags.Value())
		}
	}

	if req.EventDate.Present() {
		switch {
		case req.EventDate.Null(), req.EventDate.Err() == nil && req.EventDate.Value() == "":
			p.EventDate = model.FieldClear[model.Date]()
		case req.EventDate.Err() != nil:
			h.logger.Warn("ignoring non-string event_date")
		default:
			if d, ok := model.ParseDate(req.EventDate.Value()); ok {
				p.EventDate = model.FieldValue(d)
			} else {
				h.logger.Warn("ignoring unparseable event_date", "value", clip(req.EventDate.Value()))
			}
		}
	}

	if req.EventTime.Present() {
		switch {
		case req.EventTime.Null(), req.EventTime.Err() == nil && req.EventTime.Value() == "":
			p.EventTime = model.FieldClear[model.TimeOfDay]()
		case req.EventTime.Err() != nil:
			h.logger.Warn("ignoring non-string event_time")
		default:
			if t, ok := model.ParseTimeOfDay(req.EventTime.Value()); ok {
				p.EventTime = model.FieldValue(t)
			} else {
				h.logger.Warn("ignoring unparseable event_time", "value", clip(req.EventTime.Value()))
			}
		}
	}

	return p, ""
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	var title, content string
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		content = strings.TrimSpace(*req.Content)
	}
	if title == "" || content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and content are required"})
		return
	}

	patch, msg := h.patchFromRequest(&req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	var n model.Note
	patch.Apply(&n)

	note, err := h.store.Create(n)
	if err != nil {
		h.logger.Error("create note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast("created", note.ID)

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.List()
	if err != nil {
		h.logger.Error("list notes", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	note, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	// A body that decodes to zero members ({}, null, empty) is rejected;
	// the update must name at least one field.
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if len(members) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no data provided"})
		return
	}

	var req noteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title cannot be empty"})
		return
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content cannot be empty"})
		return
	}

	patch, msg := h.patchFromRequest(&req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	note, err := h.store.Update(id, patch)
	if err != nil {
		h.logger.Error("update note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	h.broadcast("updated", id)

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.broadcast("deleted", id)

	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, []model.Note{})
		return
	}

	notes, err := h.store.Search(q)
	if err != nil {
		h.logger.Error("search notes", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}
