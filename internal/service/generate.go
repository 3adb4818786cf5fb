package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"flashcards/internal/models"
	"flashcards/internal/validation"
)

// ErrGenerationFailed wraps every failure reported by the generation service
var ErrGenerationFailed = errors.New("flashcard generation failed")

// GenerateInput describes a generation request
type GenerateInput struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	Notes        string `json:"notes,omitempty"`
}

// GenerateResult is delivered by GenerateAsync
type GenerateResult struct {
	Deck *models.Deck
	Err  error
}

// Prompt is the topic sent to the service, with any notes appended
func (in GenerateInput) Prompt() string {
	topic := strings.TrimSpace(in.Topic)
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return topic
	}
	return topic + "\n\nAdditional focus areas: " + notes
}

// Validate checks the topic and question count
func (in GenerateInput) Validate() error {
	return validation.Join(
		validation.ValidateTopic(in.Topic),
		validation.ValidateNumQuestions(in.NumQuestions),
	)
}

// Generate asks the service for cards and stores them as a new deck named
// after the topic the service reports
func (s *DeckService) Generate(ctx context.Context, in GenerateInput) (*models.Deck, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Generating flashcards",
		zap.String("topic", in.Topic), zap.Int("num_questions", in.NumQuestions),
		zap.Bool("has_notes", strings.TrimSpace(in.Notes) != ""))

	resp, err := s.generator.Generate(ctx, in.Prompt(), in.NumQuestions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(resp.Cards) == 0 {
		return nil, models.ErrNoCardsGenerated
	}
	if resp.SourceInfo != nil {
		s.logger.Debug("Generation source", zap.String("source_info", *resp.SourceInfo))
	}

	topic := strings.TrimSpace(resp.Topic)
	if topic == "" {
		topic = strings.TrimSpace(in.Topic)
	}

	deck := models.NewDeck(topic, "Flashcards about "+topic)
	for _, pair := range resp.Cards {
		deck.AddCard(models.NewFlashcard(pair.Question, pair.Answer, topic))
	}

	if err := s.decks.Save(ctx, deck); err != nil {
		return nil, err
	}

	s.logger.Info("Saved generated deck",
		zap.String("deck_id", deck.ID), zap.String("name", deck.Name), zap.Int("cards", len(deck.Cards)))
	return deck, nil
}

// GenerateAsync runs Generate on its own goroutine. The returned channel
// yields exactly one result and is then closed.
func (s *DeckService) GenerateAsync(ctx context.Context, in GenerateInput) <-chan GenerateResult {
	results := make(chan GenerateResult, 1)
	go func() {
		defer close(results)
		deck, err := s.Generate(ctx, in)
		results <- GenerateResult{Deck: deck, Err: err}
	}()
	return results
}

// TestConnection reports whether the generation service is reachable
func (s *DeckService) TestConnection(ctx context.Context) bool {
	return s.generator.Ping(ctx)
}
