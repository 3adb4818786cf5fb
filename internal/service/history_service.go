package service

import (
	"context"

	"go.uber.org/zap"

	"flashcards/internal/models"
)

// HistoryService reports past study sessions and per-deck statistics
type HistoryService struct {
	decks    DeckRepository
	sessions SessionRepository
	logger   *zap.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(decks DeckRepository, sessions SessionRepository, logger *zap.Logger) *HistoryService {
	return &HistoryService{decks: decks, sessions: sessions, logger: logger}
}

// DeckSummary pairs a deck with its statistics
type DeckSummary struct {
	Deck  models.Deck      `json:"deck"`
	Stats models.DeckStats `json:"stats"`
}

// Sessions lists sessions newest first, completed ones only unless the
// filter asks for all
func (s *HistoryService) Sessions(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	return s.sessions.List(ctx, filter)
}

// Session returns a single session
func (s *HistoryService) Session(ctx context.Context, id string) (*models.StudySession, error) {
	return s.sessions.Get(ctx, id)
}

// DeckStats returns statistics for one deck. The range only limits which
// sessions are counted.
func (s *HistoryService) DeckStats(ctx context.Context, deckID string, dates models.DateRange) (*models.DeckStats, error) {
	if _, err := s.decks.Get(ctx, deckID); err != nil {
		return nil, err
	}
	return s.sessions.DeckStats(ctx, deckID, dates)
}

// Overview returns statistics for every deck
func (s *HistoryService) Overview(ctx context.Context, dates models.DateRange) ([]DeckSummary, error) {
	decks, err := s.decks.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]DeckSummary, 0, len(decks))
	for _, deck := range decks {
		stats, err := s.sessions.DeckStats(ctx, deck.ID, dates)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, DeckSummary{Deck: deck, Stats: *stats})
	}

	s.logger.Debug("Built history overview", zap.Int("decks", len(summaries)))
	return summaries, nil
}
