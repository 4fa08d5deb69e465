// Package web exposes the store's operations over a JSON HTTP API. It
// renders nothing: every handler decodes a request, calls the store,
// and writes the result back as JSON.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Pleko-script/CardCrafter/internal/domain"
	"github.com/Pleko-script/CardCrafter/internal/storage"
	"github.com/Pleko-script/CardCrafter/internal/sync"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	store    *storage.Store
	reposDir string
	router   *http.ServeMux
	validate *validator.Validate
}

// NewServer creates and configures a new server over the given store.
// reposDir is where sync checks out git card sources.
func NewServer(store *storage.Store, reposDir string) *Server {
	s := &Server{
		store:    store,
		reposDir: reposDir,
		router:   http.NewServeMux(),
		validate: validator.New(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /api/decks", s.handleListDecks())
	s.router.HandleFunc("POST /api/decks", s.handleCreateDeck())
	s.router.HandleFunc("POST /api/decks/{id}/move", s.handleMoveDeck())
	s.router.HandleFunc("DELETE /api/decks/{id}", s.handleDeleteDeck())
	s.router.HandleFunc("GET /api/decks/{id}/delete-preview", s.handleDeletePreview())

	s.router.HandleFunc("GET /api/cards", s.handleListCards())
	s.router.HandleFunc("POST /api/cards", s.handleCreateCard())
	s.router.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard())
	s.router.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard())
	s.router.HandleFunc("POST /api/cards/{id}/review", s.handleReviewCard())
	s.router.HandleFunc("POST /api/cards/{id}/snooze", s.handleSnoozeCard())

	s.router.HandleFunc("GET /api/review/next", s.handleDueCard())
	s.router.HandleFunc("POST /api/review/next", s.handleDueCardWithPriority())
	s.router.HandleFunc("GET /api/review/upcoming", s.handleNextReviewInfo())

	s.router.HandleFunc("GET /api/stats", s.handleStats())

	s.router.HandleFunc("POST /api/sessions", s.handleStartSession())
	s.router.HandleFunc("POST /api/sessions/{id}/end", s.handleEndSession())
	s.router.HandleFunc("POST /api/sessions/{id}/cards", s.handleRecordSessionCard())

	s.router.HandleFunc("GET /api/sources", s.handleListSources())
	s.router.HandleFunc("POST /api/sources", s.handleAddSource())
	s.router.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /api/sync", s.handleSync())
}

func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.store.ListDecks()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, decks)
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CreateDeckInput
		if !s.decode(w, r, &in) {
			return
		}
		deck, err := s.store.CreateDeck(in)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, deck)
	}
}

func (s *Server) handleMoveDeck() http.HandlerFunc {
	type request struct {
		NewParentID string `json:"newParentId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		deck, err := s.store.MoveDeck(r.PathValue("id"), req.NewParentID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := domain.DeleteMode(r.URL.Query().Get("mode"))
		if err := s.store.DeleteDeck(r.PathValue("id"), mode); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeletePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preview, err := s.store.DeckDeletePreview(r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, preview)
	}
}

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := r.URL.Query().Get("deckId")
		if deckID == "" {
			s.writeError(w, domain.ErrValidation)
			return
		}
		cards, err := s.store.ListCards(deckID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	type request struct {
		DeckID    string   `json:"deckId" validate:"required"`
		Type      string   `json:"type" validate:"omitempty,oneof=basic cloze image"`
		Front     string   `json:"front"`
		Back      string   `json:"back"`
		ClozeText string   `json:"clozeText"`
		Tags      []string `json:"tags"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		card, err := s.store.CreateCard(domain.CreateCardInput{
			DeckID:    req.DeckID,
			Type:      domain.CardType(req.Type),
			Front:     req.Front,
			Back:      req.Back,
			ClozeText: req.ClozeText,
			Tags:      req.Tags,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handleUpdateCard() http.HandlerFunc {
	type request struct {
		Front string   `json:"front"`
		Back  string   `json:"back"`
		Tags  []string `json:"tags"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		card, err := s.store.UpdateCard(r.PathValue("id"), req.Front, req.Back, req.Tags)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.DeleteCard(r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleReviewCard() http.HandlerFunc {
	type request struct {
		Q          int    `json:"q"`
		DurationMs *int64 `json:"durationMs" validate:"omitempty,gte=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		sched, err := s.store.ReviewCard(r.PathValue("id"), domain.Rating(req.Q), req.DurationMs)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sched)
	}
}

func (s *Server) handleSnoozeCard() http.HandlerFunc {
	type request struct {
		Minutes float64 `json:"minutes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{Minutes: 10}
		if !s.decode(w, r, &req) {
			return
		}
		sched, err := s.store.SnoozeCard(r.PathValue("id"), req.Minutes)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sched)
	}
}

func (s *Server) handleDueCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.store.DueCard(r.URL.Query().Get("deckId"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if card == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDueCardWithPriority() http.HandlerFunc {
	type request struct {
		DeckID          string   `json:"deckId"`
		PriorityCardIDs []string `json:"priorityCardIds"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		card, err := s.store.DueCardWithPriority(req.DeckID, req.PriorityCardIDs)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if card == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleNextReviewInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := s.store.NextReviewInfo(r.URL.Query().Get("deckId"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, info)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.store.GetStats(r.URL.Query().Get("deckId"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) handleStartSession() http.HandlerFunc {
	type request struct {
		DeckID string `json:"deckId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		session, err := s.store.StartSession(req.DeckID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, session)
	}
}

func (s *Server) handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.store.EndSession(r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) handleRecordSessionCard() http.HandlerFunc {
	type request struct {
		Repeated bool `json:"repeated"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.store.RecordSessionCard(r.PathValue("id"), req.Repeated); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.store.ListSources()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sources)
	}
}

func (s *Server) handleAddSource() http.HandlerFunc {
	type request struct {
		Path string `json:"path" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(w, r, &req) {
			return
		}
		source, err := s.store.AddSource(req.Path)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, source)
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.DeleteSource(r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSync runs a full source sync in the foreground.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sync.Run(s.store, s.reposDir); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// decode reads a JSON body into dst and validates it, writing the
// error response itself when either step fails. An absent body leaves
// dst at its zero value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain error kinds onto HTTP statuses: validation
// 400, not found 404, cycle 409, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCycle):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
