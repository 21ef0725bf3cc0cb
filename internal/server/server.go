package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gamecenter/internal/catalog"
	"gamecenter/internal/game"
	"gamecenter/internal/game/numberguess"
	"gamecenter/internal/logger"
	"gamecenter/internal/session"
	"gamecenter/internal/stats"
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	catalog  *catalog.Catalog
	registry *game.Registry
	manager  *session.Manager
	stats    stats.Store
}

// New creates a server with all routes and hooks session changes up to
// WebSocket push.
func New(cat *catalog.Catalog, registry *game.Registry, manager *session.Manager, statsStore stats.Store) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		catalog:  cat,
		registry: registry,
		manager:  manager,
		stats:    statsStore,
	}
	manager.OnChange = s.broadcastState
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("GET /api/games/{id}/stats", s.handleGameStats)
	s.mux.HandleFunc("GET /api/catalog/summary", s.handleSummary)

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("POST /api/sessions/{code}/actions", s.handleAction)
	s.mux.HandleFunc("DELETE /api/sessions/{code}", s.handleFinishSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)

	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is required by the WebSocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f catalog.Filter
	var err error
	if v := q.Get("category"); v != "" {
		if f.Category, err = catalog.ParseCategory(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if v := q.Get("difficulty"); v != "" {
		if f.Difficulty, err = catalog.ParseDifficulty(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if v := q.Get("status"); v != "" {
		if f.Status, err = catalog.ParseStatus(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	f.SearchTerm = q.Get("q")
	writeJSON(w, http.StatusOK, s.catalog.Filter(f))
}

type gameResponse struct {
	catalog.GameDescriptor
	Playable bool `json:"playable"`
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	desc, ok := s.catalog.GetByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	_, err := s.manager.Resolve(id)
	writeJSON(w, http.StatusOK, gameResponse{GameDescriptor: desc, Playable: err == nil})
}

func (s *Server) handleGameStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.catalog.GetByID(id); !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	g, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no stats for this game")
		return
	}
	writeJSON(w, http.StatusOK, g.LoadStats(r.Context(), s.stats))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Summary())
}

type createSessionRequest struct {
	GameID string `json:"gameId"`
}

type createSessionResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, "gameId required")
		return
	}

	sess, err := s.manager.Create(r.Context(), req.GameID)
	switch {
	case errors.Is(err, session.ErrUnknownGame):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, session.ErrUnavailable), errors.Is(err, session.ErrNoEngine):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		logger.Error("create session", "game", req.GameID, "err", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

// actionError is the body of a rejected action.
type actionError struct {
	Error   string             `json:"error"`
	Kind    string             `json:"kind,omitempty"`
	Range   *numberguess.Range `json:"range,omitempty"`
	Session session.Info       `json:"session"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var action game.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil || action.Type == "" {
		writeError(w, http.StatusBadRequest, "invalid action")
		return
	}

	info, err := sess.Apply(r.Context(), action)
	if err == nil || errors.Is(err, game.ErrNotAcceptingInput) {
		writeJSON(w, http.StatusOK, info)
		return
	}
	status, body := actionFailure(err, info)
	writeJSON(w, status, body)
}

// actionFailure maps a rejected action to a status and body. Input is
// never accepted silently: format and range problems carry their detail.
func actionFailure(err error, info session.Info) (int, actionError) {
	body := actionError{Error: err.Error(), Session: info}
	var ve *numberguess.ValidationError
	if errors.As(err, &ve) {
		rng := ve.Range
		body.Range = &rng
	}
	switch {
	case errors.Is(err, game.ErrInvalidFormat):
		body.Kind = "invalid-format"
	case errors.Is(err, game.ErrOutOfRange):
		body.Kind = "out-of-range"
	case errors.Is(err, game.ErrUnknownAction):
		body.Kind = "unknown-action"
	case errors.Is(err, session.ErrFinished):
		return http.StatusConflict, body
	}
	return http.StatusBadRequest, body
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	if !s.manager.Finish(r.Context(), r.PathValue("code")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
