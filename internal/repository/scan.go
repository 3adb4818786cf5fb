package repository

import (
	"context"
	"database/sql"
	"time"

	"flashcards/internal/database"
	"flashcards/internal/models"
)

const cardColumns = "id, deck_id, question, answer, topic, created_at, last_reviewed"

const sessionColumns = "id, deck_id, start_time, end_time, cards_studied, cards_correct"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Flashcard, error) {
	var card models.Flashcard
	var lastReviewed sql.NullTime
	if err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.Question,
		&card.Answer,
		&card.Topic,
		&card.CreatedAt,
		&lastReviewed,
	); err != nil {
		return nil, err
	}
	card.LastReviewed = timePtr(lastReviewed)
	return &card, nil
}

func scanCards(rows *sql.Rows) ([]models.Flashcard, error) {
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

func scanSession(row rowScanner, extra ...any) (*models.StudySession, error) {
	var s models.StudySession
	var endTime sql.NullTime
	dest := append([]any{
		&s.ID,
		&s.DeckID,
		&s.StartTime,
		&endTime,
		&s.CardsStudied,
		&s.CardsCorrect,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.EndTime = timePtr(endTime)
	return &s, nil
}

// exists reports whether a row with the id is present in table. table is
// always one of the package's own constants.
func exists(ctx context.Context, q database.DBTX, table, id string) (bool, error) {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
