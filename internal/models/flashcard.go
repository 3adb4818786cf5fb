package models

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is a single question/answer pair owned by exactly one deck
type Flashcard struct {
	ID           string     `json:"id"`
	DeckID       string     `json:"deck_id"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Topic        string     `json:"topic"`
	CreatedAt    time.Time  `json:"created_at"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
}

// NewFlashcard creates a card with a fresh id and creation time
func NewFlashcard(question, answer, topic string) Flashcard {
	return Flashcard{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer,
		Topic:     topic,
		CreatedAt: Now(),
	}
}

// MarkReviewed stamps the card as reviewed now
func (c *Flashcard) MarkReviewed() {
	now := Now()
	c.LastReviewed = &now
}

// Deck is a named collection of flashcards
type Deck struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	LastStudied *time.Time  `json:"last_studied,omitempty"`
	Cards       []Flashcard `json:"cards,omitempty"`

	// CardCount is filled by listings that do not load cards
	CardCount int `json:"card_count"`
}

// NewDeck creates a deck with a fresh id. Cards are attached to the deck.
func NewDeck(name, description string, cards ...Flashcard) *Deck {
	d := &Deck{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   Now(),
	}
	for _, c := range cards {
		d.AddCard(c)
	}
	return d
}

// AddCard appends a card and assigns it to the deck
func (d *Deck) AddCard(card Flashcard) {
	card.DeckID = d.ID
	d.Cards = append(d.Cards, card)
	d.CardCount = len(d.Cards)
}

// RemoveCard drops the card with the given id, reporting whether it was present
func (d *Deck) RemoveCard(id string) bool {
	for i, c := range d.Cards {
		if c.ID == id {
			d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
			d.CardCount = len(d.Cards)
			return true
		}
	}
	return false
}

// MarkStudied stamps the deck as studied now
func (d *Deck) MarkStudied() {
	now := Now()
	d.LastStudied = &now
}

// Card returns the card with the given id
func (d *Deck) Card(id string) (Flashcard, bool) {
	for _, c := range d.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Flashcard{}, false
}

// Now is the clock used for every stored timestamp. Times are kept in UTC so
// range filters compare consistently across drivers.
func Now() time.Time {
	return time.Now().UTC()
}
