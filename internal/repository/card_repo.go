package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"flashcards/internal/database"
	"flashcards/internal/models"
)

// CardRepository handles flashcard database operations
type CardRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *database.DB, logger *zap.Logger) *CardRepository {
	return &CardRepository{db: db, logger: logger}
}

// Get returns a single card
func (r *CardRepository) Get(ctx context.Context, id string) (*models.Flashcard, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM flashcards WHERE id = ?", id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrCardNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to get card", zap.String("card_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// Save inserts a new card or updates question, answer and last_reviewed of an
// existing one. card.DeckID must reference an existing deck.
func (r *CardRepository) Save(ctx context.Context, card *models.Flashcard) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		return saveCard(ctx, tx, card)
	})
	if err != nil {
		r.logger.Error("failed to save card",
			zap.String("card_id", card.ID), zap.String("deck_id", card.DeckID), zap.Error(err))
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

func saveCard(ctx context.Context, q database.DBTX, card *models.Flashcard) error {
	found, err := exists(ctx, q, "flashcards", card.ID)
	if err != nil {
		return err
	}

	if found {
		_, err = q.ExecContext(ctx, `
			UPDATE flashcards
			SET question = ?, answer = ?, last_reviewed = ?
			WHERE id = ?
		`, card.Question, card.Answer, nullTime(card.LastReviewed), card.ID)
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO flashcards (id, deck_id, question, answer, topic, created_at, last_reviewed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, card.ID, card.DeckID, card.Question, card.Answer, card.Topic, card.CreatedAt.UTC(), nullTime(card.LastReviewed))
	return err
}

// MarkReviewed sets a card's last reviewed time
func (r *CardRepository) MarkReviewed(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, "UPDATE flashcards SET last_reviewed = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		r.logger.Error("failed to mark card reviewed", zap.String("card_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark card reviewed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrCardNotFound, id)
	}
	return nil
}

// Delete removes a card, reporting whether it existed
func (r *CardRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM flashcards WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete card", zap.String("card_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete card: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
