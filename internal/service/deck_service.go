package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"flashcards/internal/models"
	"flashcards/internal/validation"
)

// DefaultRecentLimit is used when RecentCards is asked for a non-positive limit
const DefaultRecentLimit = 50

// DeckService handles deck and card management and flashcard generation
type DeckService struct {
	decks     DeckRepository
	cards     CardRepository
	generator Generator
	logger    *zap.Logger
}

// NewDeckService creates a new deck service
func NewDeckService(decks DeckRepository, cards CardRepository, generator Generator, logger *zap.Logger) *DeckService {
	return &DeckService{
		decks:     decks,
		cards:     cards,
		generator: generator,
		logger:    logger,
	}
}

// List returns every deck with its card count
func (s *DeckService) List(ctx context.Context) ([]models.Deck, error) {
	return s.decks.List(ctx)
}

// Get returns a deck with its cards
func (s *DeckService) Get(ctx context.Context, id string) (*models.Deck, error) {
	return s.decks.Get(ctx, id)
}

// Create adds an empty deck
func (s *DeckService) Create(ctx context.Context, name, description string) (*models.Deck, error) {
	if err := validation.ValidateDeckName(name); err != nil {
		return nil, err
	}

	deck := models.NewDeck(strings.TrimSpace(name), strings.TrimSpace(description))
	if err := s.decks.Save(ctx, deck); err != nil {
		return nil, err
	}

	s.logger.Info("Created deck", zap.String("deck_id", deck.ID), zap.String("name", deck.Name))
	return deck, nil
}

// Update renames a deck and replaces its description
func (s *DeckService) Update(ctx context.Context, id, name, description string) (*models.Deck, error) {
	if err := validation.ValidateDeckName(name); err != nil {
		return nil, err
	}

	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deck.Name = strings.TrimSpace(name)
	deck.Description = strings.TrimSpace(description)

	if err := s.decks.Save(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// Delete removes a deck together with its cards and sessions
func (s *DeckService) Delete(ctx context.Context, id string) error {
	removed, err := s.decks.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", models.ErrDeckNotFound, id)
	}

	s.logger.Info("Deleted deck", zap.String("deck_id", id))
	return nil
}

// AddCard creates a card in a deck. An empty topic falls back to the deck name.
func (s *DeckService) AddCard(ctx context.Context, deckID, question, answer, topic string) (*models.Flashcard, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(topic) == "" {
		topic = deck.Name
	}
	if err := validation.Join(
		validation.ValidateCard(question, answer),
		validation.ValidateTopic(topic),
	); err != nil {
		return nil, err
	}

	card := models.NewFlashcard(strings.TrimSpace(question), strings.TrimSpace(answer), strings.TrimSpace(topic))
	card.DeckID = deck.ID
	if err := s.cards.Save(ctx, &card); err != nil {
		return nil, err
	}

	s.logger.Info("Added card", zap.String("deck_id", deck.ID), zap.String("card_id", card.ID))
	return &card, nil
}

// EditCard replaces a card's question and answer
func (s *DeckService) EditCard(ctx context.Context, id, question, answer string) (*models.Flashcard, error) {
	if err := validation.ValidateCard(question, answer); err != nil {
		return nil, err
	}

	card, err := s.cards.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	card.Question = strings.TrimSpace(question)
	card.Answer = strings.TrimSpace(answer)

	if err := s.cards.Save(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard removes a single card
func (s *DeckService) DeleteCard(ctx context.Context, id string) error {
	removed, err := s.cards.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", models.ErrCardNotFound, id)
	}
	return nil
}

// RecentCards returns the newest cards across all decks
func (s *DeckService) RecentCards(ctx context.Context, limit int) ([]models.Flashcard, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.decks.RecentCards(ctx, limit)
}
