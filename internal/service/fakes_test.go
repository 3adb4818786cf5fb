package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flashcards/internal/client"
	"flashcards/internal/models"
	"flashcards/internal/settings"
)

// memStore is an in-memory stand-in for the three repositories
type memStore struct {
	mu       sync.Mutex
	decks    map[string]*models.Deck
	cards    map[string]*models.Flashcard
	sessions map[string]*models.StudySession

	pruneKeep []int
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{
		decks:    make(map[string]*models.Deck),
		cards:    make(map[string]*models.Flashcard),
		sessions: make(map[string]*models.StudySession),
	}
}

func (m *memStore) addDeck(deck *models.Deck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := *deck
	d.Cards = nil
	m.decks[d.ID] = &d
	for i := range deck.Cards {
		c := deck.Cards[i]
		m.cards[c.ID] = &c
	}
}

type memDecks struct{ *memStore }
type memCards struct{ *memStore }
type memSessions struct{ *memStore }

func (m memDecks) List(ctx context.Context) ([]models.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Deck
	for _, d := range m.decks {
		deck := *d
		for _, c := range m.cards {
			if c.DeckID == d.ID {
				deck.CardCount++
			}
		}
		out = append(out, deck)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memDecks) Get(ctx context.Context, id string) (*models.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDeckNotFound, id)
	}
	deck := *d
	for _, c := range m.cards {
		if c.DeckID == id {
			deck.Cards = append(deck.Cards, *c)
		}
	}
	sort.Slice(deck.Cards, func(i, j int) bool { return deck.Cards[i].CreatedAt.Before(deck.Cards[j].CreatedAt) })
	deck.CardCount = len(deck.Cards)
	return &deck, nil
}

func (m memDecks) Save(ctx context.Context, deck *models.Deck) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.addDeck(deck)
	return nil
}

func (m memDecks) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.decks[id]; !ok {
		return false, nil
	}
	delete(m.decks, id)
	for cid, c := range m.cards {
		if c.DeckID == id {
			delete(m.cards, cid)
		}
	}
	for sid, s := range m.sessions {
		if s.DeckID == id {
			delete(m.sessions, sid)
		}
	}
	return true, nil
}

func (m memDecks) MarkStudied(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decks[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrDeckNotFound, id)
	}
	d.LastStudied = &at
	return nil
}

func (m memDecks) RecentCards(ctx context.Context, limit int) ([]models.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Flashcard
	for _, c := range m.cards {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memCards) Get(ctx context.Context, id string) (*models.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCardNotFound, id)
	}
	card := *c
	return &card, nil
}

func (m memCards) Save(ctx context.Context, card *models.Flashcard) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cards[card.ID]; ok {
		existing.Question = card.Question
		existing.Answer = card.Answer
		existing.LastReviewed = card.LastReviewed
		return nil
	}
	c := *card
	m.cards[c.ID] = &c
	return nil
}

func (m memCards) MarkReviewed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrCardNotFound, id)
	}
	c.LastReviewed = &at
	return nil
}

func (m memCards) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return false, nil
	}
	delete(m.cards, id)
	return true, nil
}

func (m memSessions) Save(ctx context.Context, session *models.StudySession) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *session
	m.sessions[s.ID] = &s
	if s.EndTime != nil {
		if d, ok := m.decks[s.DeckID]; ok {
			end := *s.EndTime
			d.LastStudied = &end
		}
	}
	return nil
}

func (m memSessions) Get(ctx context.Context, id string) (*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	session := *s
	return &session, nil
}

func (m memSessions) List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudySession
	for _, s := range m.sessions {
		if filter.DeckID != "" && s.DeckID != filter.DeckID {
			continue
		}
		if !filter.IncludeIncomplete && !s.IsComplete() {
			continue
		}
		session := *s
		if d, ok := m.decks[s.DeckID]; ok {
			session.DeckName = d.Name
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m memSessions) DeckStats(ctx context.Context, deckID string, dates models.DateRange) (*models.DeckStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.DeckStats{DeckID: deckID}
	for _, c := range m.cards {
		if c.DeckID != deckID {
			continue
		}
		stats.TotalCards++
		if c.LastReviewed != nil {
			stats.ReviewedCards++
		}
	}
	for _, s := range m.sessions {
		if s.DeckID != deckID || !s.IsComplete() {
			continue
		}
		stats.SessionCount++
		stats.TotalStudied += s.CardsStudied
		stats.TotalCorrect += s.CardsCorrect
	}
	stats.Accuracy = models.Accuracy(stats.TotalCorrect, stats.TotalStudied)
	return stats, nil
}

func (m memSessions) Prune(ctx context.Context, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneKeep = append(m.pruneKeep, keep)
	return 0, nil
}

// fakeGenerator returns a canned response or error
type fakeGenerator struct {
	resp *client.GenerateResponse
	err  error
	ping bool

	gotTopic string
	gotN     int
	block    chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, topic string, n int) (*client.GenerateResponse, error) {
	g.gotTopic, g.gotN = topic, n
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

func (g *fakeGenerator) Ping(ctx context.Context) bool {
	return g.ping
}

type staticSettings struct {
	s settings.Settings
}

func (p *staticSettings) Current() settings.Settings {
	return p.s
}

func newTestSettings(mutate func(*settings.Settings)) *staticSettings {
	s := settings.Defaults()
	s.ShuffleCards = false
	if mutate != nil {
		mutate(&s)
	}
	return &staticSettings{s: s}
}

// seedDeck stores a deck with n cards created one second apart
func seedDeck(store *memStore, name string, n int) *models.Deck {
	deck := models.NewDeck(name, "")
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		card := models.NewFlashcard(fmt.Sprintf("Q%d", i+1), fmt.Sprintf("A%d", i+1), name)
		card.CreatedAt = base.Add(time.Duration(i) * time.Second)
		deck.AddCard(card)
	}
	store.addDeck(deck)
	return deck
}
