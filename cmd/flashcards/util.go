package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"flashcards/internal/models"
)

func trimLine(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\r\n"))
}

// truncate collapses whitespace and shortens s to at most n runes
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(s *models.StudySession) string {
	d, ok := s.Duration()
	if !ok {
		return "in progress"
	}
	return d.Round(time.Second).String()
}

// resolveDeck finds a deck by id, then by exact name (case-insensitive),
// then by unique id prefix
func (c *cli) resolveDeck(ctx context.Context, ref string) (*models.Deck, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("-deck is required")
	}

	deck, err := c.app.Decks.Get(ctx, ref)
	if err == nil {
		return deck, nil
	}
	if !errors.Is(err, models.ErrDeckNotFound) {
		return nil, err
	}

	decks, err := c.app.Decks.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []models.Deck
	for _, d := range decks {
		if strings.EqualFold(d.Name, ref) {
			return c.app.Decks.Get(ctx, d.ID)
		}
		if strings.HasPrefix(d.ID, ref) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", models.ErrDeckNotFound, ref)
	case 1:
		return c.app.Decks.Get(ctx, matches[0].ID)
	default:
		return nil, fmt.Errorf("deck reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}
