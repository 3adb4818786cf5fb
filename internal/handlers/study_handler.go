package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flashcards/internal/models"
)

// StudyHandler handles session and history requests
type StudyHandler struct {
	BaseHandler
	study   StudyService
	history HistoryService
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(study StudyService, history HistoryService, logger *zap.Logger) *StudyHandler {
	return &StudyHandler{
		BaseHandler: BaseHandler{Logger: logger},
		study:       study,
		history:     history,
	}
}

type startSessionResponse struct {
	Session *models.StudySession `json:"session"`
	CardIDs []string             `json:"card_ids"`
}

type completeSessionRequest struct {
	CardsStudied int `json:"cards_studied"`
	CardsCorrect int `json:"cards_correct"`
}

// StartSession handles POST /api/v1/decks/{deckID}/sessions
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, ids, err := h.study.StartSession(r.Context(), chi.URLParam(r, "deckID"))
	if err != nil {
		h.handleServiceError(w, r, "failed to start session", err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, startSessionResponse{Session: session, CardIDs: ids})
}

// ReviewCard handles POST /api/v1/cards/{cardID}/review
func (h *StudyHandler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.study.ReviewCard(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		h.handleServiceError(w, r, "failed to review card", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, card)
}

// CompleteSession handles POST /api/v1/sessions/{sessionID}/complete
func (h *StudyHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	session, err := h.study.CompleteSession(r.Context(), chi.URLParam(r, "sessionID"), req.CardsStudied, req.CardsCorrect)
	if err != nil {
		h.handleServiceError(w, r, "failed to complete session", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, session)
}

// ListSessions handles GET /api/v1/sessions
func (h *StudyHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dates, err := models.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := models.SessionFilter{
		DeckID:            q.Get("deck_id"),
		DateRange:         dates,
		IncludeIncomplete: q.Get("all") == "true",
	}
	sessions, err := h.history.Sessions(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, "failed to list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.StudySession{}
	}
	h.RespondJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/sessions/{sessionID}
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.history.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.handleServiceError(w, r, "failed to get session", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, session)
}

// DeckStats handles GET /api/v1/decks/{deckID}/stats
func (h *StudyHandler) DeckStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dates, err := models.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.history.DeckStats(r.Context(), chi.URLParam(r, "deckID"), dates)
	if err != nil {
		h.handleServiceError(w, r, "failed to get deck stats", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, stats)
}
