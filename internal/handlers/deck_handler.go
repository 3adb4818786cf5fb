package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flashcards/internal/service"
)

// DeckHandler handles deck, card and generation requests
type DeckHandler struct {
	BaseHandler
	decks DeckService
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(decks DeckService, logger *zap.Logger) *DeckHandler {
	return &DeckHandler{
		BaseHandler: BaseHandler{Logger: logger},
		decks:       decks,
	}
}

type deckRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type cardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Topic    string `json:"topic,omitempty"`
}

// ListDecks handles GET /api/v1/decks
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "failed to list decks", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, decks)
}

// CreateDeck handles POST /api/v1/decks
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req deckRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	deck, err := h.decks.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.handleServiceError(w, r, "failed to create deck", err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, deck)
}

// GetDeck handles GET /api/v1/decks/{deckID}
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.decks.Get(r.Context(), chi.URLParam(r, "deckID"))
	if err != nil {
		h.handleServiceError(w, r, "failed to get deck", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, deck)
}

// UpdateDeck handles PUT /api/v1/decks/{deckID}
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	var req deckRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	deck, err := h.decks.Update(r.Context(), chi.URLParam(r, "deckID"), req.Name, req.Description)
	if err != nil {
		h.handleServiceError(w, r, "failed to update deck", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, deck)
}

// DeleteDeck handles DELETE /api/v1/decks/{deckID}
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := h.decks.Delete(r.Context(), chi.URLParam(r, "deckID")); err != nil {
		h.handleServiceError(w, r, "failed to delete deck", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCard handles POST /api/v1/decks/{deckID}/cards
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	card, err := h.decks.AddCard(r.Context(), chi.URLParam(r, "deckID"), req.Question, req.Answer, req.Topic)
	if err != nil {
		h.handleServiceError(w, r, "failed to add card", err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, card)
}

// RecentCards handles GET /api/v1/cards/recent
func (h *DeckHandler) RecentCards(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.RespondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	cards, err := h.decks.RecentCards(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, r, "failed to get recent cards", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, cards)
}

// EditCard handles PUT /api/v1/cards/{cardID}
func (h *DeckHandler) EditCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	card, err := h.decks.EditCard(r.Context(), chi.URLParam(r, "cardID"), req.Question, req.Answer)
	if err != nil {
		h.handleServiceError(w, r, "failed to edit card", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/v1/cards/{cardID}
func (h *DeckHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.decks.DeleteCard(r.Context(), chi.URLParam(r, "cardID")); err != nil {
		h.handleServiceError(w, r, "failed to delete card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generate handles POST /api/v1/generate
func (h *DeckHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	deck, err := h.decks.Generate(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, "failed to generate flashcards", err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, deck)
}

// Ping handles GET /api/v1/generate/ping
func (h *DeckHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]bool{"ok": h.decks.TestConnection(r.Context())})
}
