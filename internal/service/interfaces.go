package service

import (
	"context"
	"time"

	"flashcards/internal/client"
	"flashcards/internal/models"
	"flashcards/internal/settings"
)

// DeckRepository is the deck storage used by the services
type DeckRepository interface {
	List(ctx context.Context) ([]models.Deck, error)
	Get(ctx context.Context, id string) (*models.Deck, error)
	Save(ctx context.Context, deck *models.Deck) error
	Delete(ctx context.Context, id string) (bool, error)
	MarkStudied(ctx context.Context, id string, at time.Time) error
	RecentCards(ctx context.Context, limit int) ([]models.Flashcard, error)
}

// CardRepository is the card storage used by the services
type CardRepository interface {
	Get(ctx context.Context, id string) (*models.Flashcard, error)
	Save(ctx context.Context, card *models.Flashcard) error
	MarkReviewed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}

// SessionRepository is the study session storage used by the services
type SessionRepository interface {
	Save(ctx context.Context, session *models.StudySession) error
	Get(ctx context.Context, id string) (*models.StudySession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error)
	DeckStats(ctx context.Context, deckID string, dates models.DateRange) (*models.DeckStats, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Generator produces flashcards for a topic
type Generator interface {
	Generate(ctx context.Context, topic string, numQuestions int) (*client.GenerateResponse, error)
	Ping(ctx context.Context) bool
}

// SettingsProvider exposes the active user preferences
type SettingsProvider interface {
	Current() settings.Settings
}
