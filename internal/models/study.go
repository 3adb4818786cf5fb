package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StudySession is one pass over a deck's cards with correctness counters
type StudySession struct {
	ID           string     `json:"id"`
	DeckID       string     `json:"deck_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	CardsStudied int        `json:"cards_studied"`
	CardsCorrect int        `json:"cards_correct"`

	// DeckName is filled by history listings
	DeckName string `json:"deck_name,omitempty"`
}

// NewStudySession starts a session for the deck now
func NewStudySession(deckID string) *StudySession {
	return &StudySession{
		ID:        uuid.NewString(),
		DeckID:    deckID,
		StartTime: Now(),
	}
}

// Complete ends the session with the given results
func (s *StudySession) Complete(studied, correct int) {
	now := Now()
	s.EndTime = &now
	s.CardsStudied = studied
	s.CardsCorrect = correct
}

// IsComplete reports whether the session has ended
func (s *StudySession) IsComplete() bool {
	return s.EndTime != nil
}

// Duration returns how long the session ran; ok is false while it is open
func (s *StudySession) Duration() (d time.Duration, ok bool) {
	if s.EndTime == nil {
		return 0, false
	}
	return s.EndTime.Sub(s.StartTime), true
}

// Accuracy is the percentage of studied cards answered correctly
func (s *StudySession) Accuracy() float64 {
	return Accuracy(s.CardsCorrect, s.CardsStudied)
}

// Accuracy returns correct/studied as a percentage, 0 when nothing was studied
func Accuracy(correct, studied int) float64 {
	if studied <= 0 {
		return 0
	}
	return float64(correct) / float64(studied) * 100
}

// AccuracyBucket groups an accuracy percentage for display
func AccuracyBucket(accuracy float64) string {
	switch {
	case accuracy >= 80:
		return "good"
	case accuracy >= 60:
		return "fair"
	default:
		return "poor"
	}
}

// DeckStats aggregates card review coverage and completed-session results
type DeckStats struct {
	DeckID        string  `json:"deck_id"`
	TotalCards    int     `json:"total_cards"`
	ReviewedCards int     `json:"reviewed_cards"`
	SessionCount  int     `json:"session_count"`
	TotalStudied  int     `json:"total_studied"`
	TotalCorrect  int     `json:"total_correct"`
	Accuracy      float64 `json:"accuracy"`
}

// DateRange bounds session start times. From is inclusive, To exclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// SessionFilter narrows session listings
type SessionFilter struct {
	DeckID string
	DateRange
	IncludeIncomplete bool
}

const dateLayout = "2006-01-02"

// ParseDateRange parses optional YYYY-MM-DD bounds. The to day is inclusive
// and becomes an exclusive bound at the following midnight UTC.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange

	if from = strings.TrimSpace(from); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return r, fmt.Errorf("invalid from date %q: expected YYYY-MM-DD", from)
		}
		r.From = &t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return r, fmt.Errorf("invalid to date %q: expected YYYY-MM-DD", to)
		}
		end := t.AddDate(0, 0, 1)
		r.To = &end
	}
	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return DateRange{}, fmt.Errorf("from date %s is after to date %s", from, to)
	}
	return r, nil
}
