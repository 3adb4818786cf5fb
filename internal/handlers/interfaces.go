package handlers

import (
	"context"

	"flashcards/internal/models"
	"flashcards/internal/service"
	"flashcards/internal/settings"
)

// DeckService is the deck, card and generation logic behind the API
type DeckService interface {
	List(ctx context.Context) ([]models.Deck, error)
	Get(ctx context.Context, id string) (*models.Deck, error)
	Create(ctx context.Context, name, description string) (*models.Deck, error)
	Update(ctx context.Context, id, name, description string) (*models.Deck, error)
	Delete(ctx context.Context, id string) error
	AddCard(ctx context.Context, deckID, question, answer, topic string) (*models.Flashcard, error)
	EditCard(ctx context.Context, id, question, answer string) (*models.Flashcard, error)
	DeleteCard(ctx context.Context, id string) error
	RecentCards(ctx context.Context, limit int) ([]models.Flashcard, error)
	Generate(ctx context.Context, in service.GenerateInput) (*models.Deck, error)
	TestConnection(ctx context.Context) bool
}

// StudyService is the stateless session flow used by API clients
type StudyService interface {
	StartSession(ctx context.Context, deckID string) (*models.StudySession, []string, error)
	ReviewCard(ctx context.Context, cardID string) (*models.Flashcard, error)
	CompleteSession(ctx context.Context, sessionID string, studied, correct int) (*models.StudySession, error)
}

// HistoryService reports sessions and statistics
type HistoryService interface {
	Sessions(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error)
	Session(ctx context.Context, id string) (*models.StudySession, error)
	DeckStats(ctx context.Context, deckID string, dates models.DateRange) (*models.DeckStats, error)
}

// SettingsStore reads and changes user preferences
type SettingsStore interface {
	Current() settings.Settings
	Set(key, value string) error
	Reset() error
}
