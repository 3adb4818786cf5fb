package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"flashcards/internal/database"
	"flashcards/internal/models"
)

// SessionRepository handles study session database operations
type SessionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new study session repository
func NewSessionRepository(db *database.DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// Save inserts a session or updates its end time and counters. Saving a
// completed session also stamps the deck's last_studied.
func (r *SessionRepository) Save(ctx context.Context, session *models.StudySession) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		return saveSession(ctx, tx, session)
	})
	if err != nil {
		r.logger.Error("failed to save study session",
			zap.String("session_id", session.ID), zap.String("deck_id", session.DeckID), zap.Error(err))
		return fmt.Errorf("failed to save study session: %w", err)
	}
	return nil
}

func saveSession(ctx context.Context, q database.DBTX, session *models.StudySession) error {
	found, err := exists(ctx, q, "study_sessions", session.ID)
	if err != nil {
		return err
	}

	if found {
		_, err = q.ExecContext(ctx, `
			UPDATE study_sessions
			SET end_time = ?, cards_studied = ?, cards_correct = ?
			WHERE id = ?
		`, nullTime(session.EndTime), session.CardsStudied, session.CardsCorrect, session.ID)
	} else {
		_, err = q.ExecContext(ctx, `
			INSERT INTO study_sessions (id, deck_id, start_time, end_time, cards_studied, cards_correct)
			VALUES (?, ?, ?, ?, ?, ?)
		`, session.ID, session.DeckID, session.StartTime.UTC(), nullTime(session.EndTime),
			session.CardsStudied, session.CardsCorrect)
	}
	if err != nil {
		return err
	}

	if session.EndTime != nil {
		if _, err := q.ExecContext(ctx, "UPDATE decks SET last_studied = ? WHERE id = ?",
			session.EndTime.UTC(), session.DeckID); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a single session
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.StudySession, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM study_sessions WHERE id = ?", id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to get study session", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get study session: %w", err)
	}
	return session, nil
}

// List returns sessions matching the filter, newest first, with deck names
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	where, args := sessionConditions("s.", filter.DeckID, filter.DateRange, !filter.IncludeIncomplete)
	query := `
		SELECT s.id, s.deck_id, s.start_time, s.end_time, s.cards_studied, s.cards_correct, d.name
		FROM study_sessions s
		JOIN decks d ON d.id = s.deck_id` + where + `
		ORDER BY s.start_time DESC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list study sessions", zap.String("deck_id", filter.DeckID), zap.Error(err))
		return nil, fmt.Errorf("failed to list study sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		var deckName string
		session, err := scanSession(rows, &deckName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study session: %w", err)
		}
		session.DeckName = deckName
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate study sessions: %w", err)
	}
	return sessions, nil
}

// DeckStats aggregates card coverage for the deck and results of its
// completed sessions within the range
func (r *SessionRepository) DeckStats(ctx context.Context, deckID string, dates models.DateRange) (*models.DeckStats, error) {
	stats := &models.DeckStats{DeckID: deckID}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN last_reviewed IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM flashcards
		WHERE deck_id = ?
	`, deckID).Scan(&stats.TotalCards, &stats.ReviewedCards)
	if err != nil {
		r.logger.Error("failed to count deck cards", zap.String("deck_id", deckID), zap.Error(err))
		return nil, fmt.Errorf("failed to get deck stats: %w", err)
	}

	where, args := sessionConditions("", deckID, dates, true)
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(cards_studied), 0), COALESCE(SUM(cards_correct), 0)
		FROM study_sessions`+where, args...).Scan(&stats.SessionCount, &stats.TotalStudied, &stats.TotalCorrect)
	if err != nil {
		r.logger.Error("failed to aggregate deck sessions", zap.String("deck_id", deckID), zap.Error(err))
		return nil, fmt.Errorf("failed to get deck stats: %w", err)
	}

	stats.Accuracy = models.Accuracy(stats.TotalCorrect, stats.TotalStudied)
	return stats, nil
}

// Prune deletes the oldest completed sessions beyond the newest keep.
// keep <= 0 keeps everything.
func (r *SessionRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	var deleted int64
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM study_sessions
			WHERE end_time IS NOT NULL
			ORDER BY start_time DESC
		`)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(ids) <= keep {
			return nil
		}
		for _, id := range ids[keep:] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM study_sessions WHERE id = ?", id); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to prune study sessions", zap.Int("keep", keep), zap.Error(err))
		return 0, fmt.Errorf("failed to prune study sessions: %w", err)
	}

	if deleted > 0 {
		r.logger.Info("pruned study history", zap.Int64("deleted", deleted), zap.Int("keep", keep))
	}
	return deleted, nil
}

func sessionConditions(prefix, deckID string, dates models.DateRange, completedOnly bool) (string, []any) {
	var conds []string
	var args []any

	if deckID != "" {
		conds = append(conds, prefix+"deck_id = ?")
		args = append(args, deckID)
	}
	if completedOnly {
		conds = append(conds, prefix+"end_time IS NOT NULL")
	}
	if dates.From != nil {
		conds = append(conds, prefix+"start_time >= ?")
		args = append(args, dates.From.UTC())
	}
	if dates.To != nil {
		conds = append(conds, prefix+"start_time < ?")
		args = append(args, dates.To.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}
