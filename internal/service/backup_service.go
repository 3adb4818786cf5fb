package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"flashcards/internal/database"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Decks        []DeckBackup    `json:"decks"`
	Sessions     []SessionBackup `json:"sessions"`
}

// DeckBackup represents a deck and its cards for backup
type DeckBackup struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	LastStudied *time.Time   `json:"last_studied"`
	Cards       []CardBackup `json:"cards"`
}

// CardBackup represents a flashcard for backup
type CardBackup struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Topic        string     `json:"topic"`
	CreatedAt    time.Time  `json:"created_at"`
	LastReviewed *time.Time `json:"last_reviewed"`
}

// SessionBackup represents a study session for backup
type SessionBackup struct {
	ID           string     `json:"id"`
	DeckID       string     `json:"deck_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	CardsStudied int        `json:"cards_studied"`
	CardsCorrect int        `json:"cards_correct"`
}

// ImportSummary counts the records restored by Import
type ImportSummary struct {
	Decks    int `json:"decks"`
	Cards    int `json:"cards"`
	Sessions int `json:"sessions"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// Export writes every deck, card and session to w as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	s.logger.Info("Starting database export")

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	if err := s.exportDecks(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export decks: %w", err)
	}
	if err := s.exportSessions(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	cards := 0
	for _, d := range backup.Decks {
		cards += len(d.Cards)
	}
	s.logger.Info("Database exported",
		zap.Int("decks", len(backup.Decks)), zap.Int("cards", cards), zap.Int("sessions", len(backup.Sessions)))
	return backup, nil
}

// Import restores a backup read from r in a single transaction. With clear
// set, existing data is removed first; otherwise records are upserted by id.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}

	s.logger.Info("Starting database import",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
		zap.String("source_database", backup.DatabaseType),
		zap.Bool("clear", clear))

	summary := &ImportSummary{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearAll(ctx, tx); err != nil {
				return fmt.Errorf("failed to clear existing data: %w", err)
			}
		}

		for _, d := range backup.Decks {
			if err := importDeck(ctx, tx, d); err != nil {
				return fmt.Errorf("failed to import deck %s: %w", d.ID, err)
			}
			summary.Decks++
			summary.Cards += len(d.Cards)
		}
		for _, sess := range backup.Sessions {
			if err := importSession(ctx, tx, sess); err != nil {
				return fmt.Errorf("failed to import session %s: %w", sess.ID, err)
			}
			summary.Sessions++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Database import failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Database import completed",
		zap.Int("decks", summary.Decks), zap.Int("cards", summary.Cards), zap.Int("sessions", summary.Sessions))
	return summary, nil
}

func (s *BackupService) exportDecks(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description, created_at, last_studied FROM decks ORDER BY created_at, id")
	if err != nil {
		return err
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var d DeckBackup
		var lastStudied sql.NullTime
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &lastStudied); err != nil {
			return err
		}
		d.LastStudied = nullTimePtr(lastStudied)
		d.Cards = []CardBackup{}
		index[d.ID] = len(backup.Decks)
		backup.Decks = append(backup.Decks, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	cardRows, err := s.db.QueryContext(ctx, "SELECT id, deck_id, question, answer, topic, created_at, last_reviewed FROM flashcards ORDER BY created_at, id")
	if err != nil {
		return err
	}
	defer cardRows.Close()

	for cardRows.Next() {
		var c CardBackup
		var deckID string
		var lastReviewed sql.NullTime
		if err := cardRows.Scan(&c.ID, &deckID, &c.Question, &c.Answer, &c.Topic, &c.CreatedAt, &lastReviewed); err != nil {
			return err
		}
		c.LastReviewed = nullTimePtr(lastReviewed)
		if i, ok := index[deckID]; ok {
			backup.Decks[i].Cards = append(backup.Decks[i].Cards, c)
		}
	}
	return cardRows.Err()
}

func (s *BackupService) exportSessions(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, deck_id, start_time, end_time, cards_studied, cards_correct FROM study_sessions ORDER BY start_time, id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sess SessionBackup
		var endTime sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.DeckID, &sess.StartTime, &endTime, &sess.CardsStudied, &sess.CardsCorrect); err != nil {
			return err
		}
		sess.EndTime = nullTimePtr(endTime)
		backup.Sessions = append(backup.Sessions, sess)
	}
	return rows.Err()
}

func clearAll(ctx context.Context, tx *database.Tx) error {
	for _, table := range []string{"study_sessions", "flashcards", "decks"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func rowExists(ctx context.Context, tx *database.Tx, table, id string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func importDeck(ctx context.Context, tx *database.Tx, d DeckBackup) error {
	found, err := rowExists(ctx, tx, "decks", d.ID)
	if err != nil {
		return err
	}
	if found {
		_, err = tx.ExecContext(ctx, "UPDATE decks SET name = ?, description = ?, created_at = ?, last_studied = ? WHERE id = ?",
			d.Name, d.Description, d.CreatedAt.UTC(), nullTimeValue(d.LastStudied), d.ID)
	} else {
		_, err = tx.ExecContext(ctx, "INSERT INTO decks (id, name, description, created_at, last_studied) VALUES (?, ?, ?, ?, ?)",
			d.ID, d.Name, d.Description, d.CreatedAt.UTC(), nullTimeValue(d.LastStudied))
	}
	if err != nil {
		return err
	}

	for _, c := range d.Cards {
		if err := importCard(ctx, tx, d.ID, c); err != nil {
			return fmt.Errorf("card %s: %w", c.ID, err)
		}
	}
	return nil
}

func importCard(ctx context.Context, tx *database.Tx, deckID string, c CardBackup) error {
	found, err := rowExists(ctx, tx, "flashcards", c.ID)
	if err != nil {
		return err
	}
	if found {
		_, err = tx.ExecContext(ctx, "UPDATE flashcards SET deck_id = ?, question = ?, answer = ?, topic = ?, created_at = ?, last_reviewed = ? WHERE id = ?",
			deckID, c.Question, c.Answer, c.Topic, c.CreatedAt.UTC(), nullTimeValue(c.LastReviewed), c.ID)
		return err
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO flashcards (id, deck_id, question, answer, topic, created_at, last_reviewed) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, deckID, c.Question, c.Answer, c.Topic, c.CreatedAt.UTC(), nullTimeValue(c.LastReviewed))
	return err
}

func importSession(ctx context.Context, tx *database.Tx, sess SessionBackup) error {
	found, err := rowExists(ctx, tx, "study_sessions", sess.ID)
	if err != nil {
		return err
	}
	if found {
		_, err = tx.ExecContext(ctx, "UPDATE study_sessions SET deck_id = ?, start_time = ?, end_time = ?, cards_studied = ?, cards_correct = ? WHERE id = ?",
			sess.DeckID, sess.StartTime.UTC(), nullTimeValue(sess.EndTime), sess.CardsStudied, sess.CardsCorrect, sess.ID)
		return err
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO study_sessions (id, deck_id, start_time, end_time, cards_studied, cards_correct) VALUES (?, ?, ?, ?, ?, ?)",
		sess.ID, sess.DeckID, sess.StartTime.UTC(), nullTimeValue(sess.EndTime), sess.CardsStudied, sess.CardsCorrect)
	return err
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTimeValue(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
