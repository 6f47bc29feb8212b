package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fbraun/melodia/internal/domain"
	"github.com/fbraun/melodia/internal/repository"
	"github.com/fbraun/melodia/internal/search"
)

// Handler holds the HTTP handlers for the search API
type Handler struct {
	searcher search.Service
	log      zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(searcher search.Service, log zerolog.Logger) *Handler {
	return &Handler{
		searcher: searcher,
		log:      log.With().Str("component", "http").Logger(),
	}
}

// Search handles POST /api/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	results, err := h.searcher.Search(r.Context(), req.UserID, req.Query)
	if err != nil {
		h.writeError(w, r, err, "search failed")
		return
	}

	h.writeJSON(w, r, domain.SearchResponse{Results: results})
}

// ActiveSearch handles GET /api/search/active
func (h *Handler) ActiveSearch(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	busy, results := h.searcher.Active(userID)
	h.writeJSON(w, r, domain.ActiveSearchResponse{Busy: busy, Results: results})
}

// History handles GET /api/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	raw, err := h.searcher.History(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "history lookup failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// ClearHistory handles DELETE /api/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.searcher.ClearHistory(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "clear history failed")
		return
	}

	h.writeJSON(w, r, domain.ClearHistoryResponse{Deleted: deleted})
}

// Playlists handles GET /api/playlists
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	raw, err := h.searcher.Playlists(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "playlist lookup failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("failed to encode response")
	}
}

// writeError maps the service error taxonomy onto HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.log.Error().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg(msg)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrTransport):
		status = http.StatusBadGateway
	}
	http.Error(w, msg, status)
}
