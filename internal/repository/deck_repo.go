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

// DeckRepository handles deck database operations
type DeckRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDeckRepository creates a new deck repository
func NewDeckRepository(db *database.DB, logger *zap.Logger) *DeckRepository {
	return &DeckRepository{db: db, logger: logger}
}

// List returns every deck, newest first, with card counts but without cards
func (r *DeckRepository) List(ctx context.Context) ([]models.Deck, error) {
	query := `
		SELECT d.id, d.name, d.description, d.created_at, d.last_studied,
		       (SELECT COUNT(*) FROM flashcards f WHERE f.deck_id = d.id) AS card_count
		FROM decks d
		ORDER BY d.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list decks", zap.Error(err))
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		var deck models.Deck
		var lastStudied sql.NullTime
		if err := rows.Scan(
			&deck.ID,
			&deck.Name,
			&deck.Description,
			&deck.CreatedAt,
			&lastStudied,
			&deck.CardCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		deck.LastStudied = timePtr(lastStudied)
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decks: %w", err)
	}
	return decks, nil
}

// Get returns a deck with its cards ordered by creation time
func (r *DeckRepository) Get(ctx context.Context, id string) (*models.Deck, error) {
	query := `
		SELECT id, name, description, created_at, last_studied
		FROM decks
		WHERE id = ?
	`

	var deck models.Deck
	var lastStudied sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID,
		&deck.Name,
		&deck.Description,
		&deck.CreatedAt,
		&lastStudied,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrDeckNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to get deck", zap.String("deck_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	deck.LastStudied = timePtr(lastStudied)

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM flashcards WHERE deck_id = ? ORDER BY created_at", id)
	if err != nil {
		r.logger.Error("failed to get deck cards", zap.String("deck_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get deck cards: %w", err)
	}
	cards, err := scanCards(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan deck cards: %w", err)
	}

	deck.Cards = cards
	deck.CardCount = len(cards)
	return &deck, nil
}

// Save inserts or updates the deck and all of its cards in one transaction.
// Updates touch only name, description and last_studied.
func (r *DeckRepository) Save(ctx context.Context, deck *models.Deck) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		return saveDeck(ctx, tx, deck)
	})
	if err != nil {
		r.logger.Error("failed to save deck", zap.String("deck_id", deck.ID), zap.Error(err))
		return fmt.Errorf("failed to save deck: %w", err)
	}

	r.logger.Debug("deck saved", zap.String("deck_id", deck.ID), zap.Int("cards", len(deck.Cards)))
	return nil
}

func saveDeck(ctx context.Context, q database.DBTX, deck *models.Deck) error {
	found, err := exists(ctx, q, "decks", deck.ID)
	if err != nil {
		return err
	}

	if found {
		_, err = q.ExecContext(ctx, `
			UPDATE decks
			SET name = ?, description = ?, last_studied = ?
			WHERE id = ?
		`, deck.Name, deck.Description, nullTime(deck.LastStudied), deck.ID)
	} else {
		_, err = q.ExecContext(ctx, `
			INSERT INTO decks (id, name, description, created_at, last_studied)
			VALUES (?, ?, ?, ?, ?)
		`, deck.ID, deck.Name, deck.Description, deck.CreatedAt.UTC(), nullTime(deck.LastStudied))
	}
	if err != nil {
		return err
	}

	for i := range deck.Cards {
		deck.Cards[i].DeckID = deck.ID
		if err := saveCard(ctx, q, &deck.Cards[i]); err != nil {
			return err
		}
	}
	deck.CardCount = len(deck.Cards)
	return nil
}

// Delete removes a deck; cards and sessions cascade
func (r *DeckRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM decks WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete deck", zap.String("deck_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete deck: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkStudied sets the deck's last studied time
func (r *DeckRepository) MarkStudied(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, "UPDATE decks SET last_studied = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		r.logger.Error("failed to mark deck studied", zap.String("deck_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark deck studied: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDeckNotFound, id)
	}
	return nil
}

// RecentCards returns the most recently created cards across all decks
func (r *DeckRepository) RecentCards(ctx context.Context, limit int) ([]models.Flashcard, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM flashcards ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		r.logger.Error("failed to get recent cards", zap.Error(err))
		return nil, fmt.Errorf("failed to get recent cards: %w", err)
	}

	cards, err := scanCards(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent cards: %w", err)
	}
	return cards, nil
}
