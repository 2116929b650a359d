package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmaclean/jot/internal/backup"
	"github.com/dmaclean/jot/internal/handler"
	"github.com/dmaclean/jot/internal/middleware"
	"github.com/dmaclean/jot/internal/store"
	ws "github.com/dmaclean/jot/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	noteH         *handler.NoteHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger

	writesPerMinute int
}

func New(db *sql.DB, backupMgr *backup.Manager, writesPerMinute int, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	noteStore := store.NewNoteStore(db)

	return &Server{
		db:              db,
		hub:             hub,
		noteH:           handler.NewNoteHandler(noteStore, hub, logger.With("component", "note")),
		rateLimiter:     middleware.NewRateLimiter(),
		backupManager:   backupMgr,
		logger:          logger,
		writesPerMinute: writesPerMinute,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /notes", s.noteH.List)
	mux.HandleFunc("POST /notes", s.limited(s.noteH.Create))
	mux.HandleFunc("GET /notes/search", s.noteH.Search)
	mux.HandleFunc("GET /notes/{id}", s.noteH.Get)
	mux.HandleFunc("PUT /notes/{id}", s.limited(s.noteH.Update))
	mux.HandleFunc("DELETE /notes/{id}", s.limited(s.noteH.Delete))

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
	mux.HandleFunc("GET /health", s.healthHandler)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.backupManager != nil && s.backupManager.Enabled() {
		resp["backup"] = s.backupManager.Status()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// limited wraps mutating handlers with the per-IP rate limiter. A zero
// writes-per-minute setting disables limiting.
func (s *Server) limited(h http.HandlerFunc) http.HandlerFunc {
	if s.writesPerMinute <= 0 {
		return h
	}
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.writesPerMinute, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
