package service

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"flashcards/internal/models"
	"flashcards/internal/validation"
)

// StudyService runs study sessions over a deck's cards
type StudyService struct {
	decks    DeckRepository
	cards    CardRepository
	sessions SessionRepository
	settings SettingsProvider
	logger   *zap.Logger

	shuffle func([]models.Flashcard)
}

// NewStudyService creates a new study service
func NewStudyService(decks DeckRepository, cards CardRepository, sessions SessionRepository, settings SettingsProvider, logger *zap.Logger) *StudyService {
	return &StudyService{
		decks:    decks,
		cards:    cards,
		sessions: sessions,
		settings: settings,
		logger:   logger,
		shuffle: func(cards []models.Flashcard) {
			rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		},
	}
}

// prepare loads the deck and picks the cards for one pass over it
func (s *StudyService) prepare(ctx context.Context, deckID string) (*models.Deck, []models.Flashcard, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return nil, nil, err
	}
	if len(deck.Cards) == 0 {
		return nil, nil, models.ErrEmptyDeck
	}

	prefs := s.settings.Current()
	cards := append([]models.Flashcard(nil), deck.Cards...)
	if prefs.ShuffleCards {
		s.shuffle(cards)
	}
	if limit := prefs.StudySessionCards; limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}
	return deck, cards, nil
}

// Start begins an in-memory study run. The session is stored straight away
// when history is enabled.
func (s *StudyService) Start(ctx context.Context, deckID string) (*Study, error) {
	deck, cards, err := s.prepare(ctx, deckID)
	if err != nil {
		return nil, err
	}

	st := &Study{
		svc:         s,
		deck:        deck,
		session:     models.NewStudySession(deck.ID),
		cards:       cards,
		saveHistory: s.settings.Current().SaveHistory,
	}
	if st.saveHistory {
		if err := s.sessions.Save(ctx, st.session); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Started study session",
		zap.String("deck_id", deck.ID), zap.String("deck", deck.Name),
		zap.String("session_id", st.session.ID), zap.Int("cards", len(cards)))
	return st, nil
}

// StartSession stores a new session for the deck and returns it with the
// ids of the cards to study, in order
func (s *StudyService) StartSession(ctx context.Context, deckID string) (*models.StudySession, []string, error) {
	deck, cards, err := s.prepare(ctx, deckID)
	if err != nil {
		return nil, nil, err
	}

	session := models.NewStudySession(deck.ID)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return session, ids, nil
}

// ReviewCard stamps a card as reviewed now
func (s *StudyService) ReviewCard(ctx context.Context, cardID string) (*models.Flashcard, error) {
	if err := s.cards.MarkReviewed(ctx, cardID, models.Now()); err != nil {
		return nil, err
	}
	return s.cards.Get(ctx, cardID)
}

// CompleteSession ends a stored session with the reported counters
func (s *StudyService) CompleteSession(ctx context.Context, sessionID string, studied, correct int) (*models.StudySession, error) {
	if err := validation.ValidateSessionCounts(studied, correct); err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete() {
		return nil, fmt.Errorf("%w: %s", models.ErrStudyFinished, sessionID)
	}

	session.Complete(studied, correct)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.prune(ctx)
	return session, nil
}

func (s *StudyService) prune(ctx context.Context) {
	keep := s.settings.Current().MaxHistorySessions
	if keep <= 0 {
		return
	}
	deleted, err := s.sessions.Prune(ctx, keep)
	if err != nil {
		s.logger.Warn("Failed to prune study history", zap.Int("keep", keep), zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("Pruned study history", zap.Int64("deleted", deleted), zap.Int("keep", keep))
	}
}

// StudyResult summarises a finished run
type StudyResult struct {
	Session      *models.StudySession `json:"session"`
	DeckName     string               `json:"deck_name"`
	TotalCards   int                  `json:"total_cards"`
	CardsStudied int                  `json:"cards_studied"`
	CardsCorrect int                  `json:"cards_correct"`
	Accuracy     float64              `json:"accuracy"`
}

// Study is a cursor over one pass of a deck. It is not safe for concurrent use.
type Study struct {
	svc         *StudyService
	deck        *models.Deck
	session     *models.StudySession
	cards       []models.Flashcard
	index       int
	studied     int
	correct     int
	saveHistory bool
	finished    bool
}

// Deck returns the deck being studied
func (st *Study) Deck() *models.Deck { return st.deck }

// Session returns the run's session
func (st *Study) Session() *models.StudySession { return st.session }

// Cards returns the cards in study order
func (st *Study) Cards() []models.Flashcard {
	return append([]models.Flashcard(nil), st.cards...)
}

// Current returns the card under the cursor
func (st *Study) Current() models.Flashcard {
	return st.cards[st.index]
}

// Position returns the 1-based cursor position and the number of cards
func (st *Study) Position() (int, int) {
	return st.index + 1, len(st.cards)
}

// Counts returns the cards marked so far and how many were correct
func (st *Study) Counts() (studied, correct int) {
	return st.studied, st.correct
}

// Finished reports whether Finish has run
func (st *Study) Finished() bool {
	return st.finished
}

// Next moves to the following card, reporting whether the cursor moved
func (st *Study) Next() bool {
	if st.index >= len(st.cards)-1 {
		return false
	}
	st.index++
	return true
}

// Previous moves to the preceding card, reporting whether the cursor moved
func (st *Study) Previous() bool {
	if st.index == 0 {
		return false
	}
	st.index--
	return true
}

// GoTo moves the cursor to the card with the given id
func (st *Study) GoTo(cardID string) bool {
	for i, c := range st.cards {
		if c.ID == cardID {
			st.index = i
			return true
		}
	}
	return false
}

// Mark records an answer for the current card and advances. done is true
// once the last card has been marked.
func (st *Study) Mark(ctx context.Context, correct bool) (done bool, err error) {
	if st.finished {
		return true, models.ErrStudyFinished
	}

	card := &st.cards[st.index]
	at := models.Now()
	if err := st.svc.cards.MarkReviewed(ctx, card.ID, at); err != nil {
		return false, err
	}
	card.LastReviewed = &at

	st.studied++
	if correct {
		st.correct++
	}

	if st.index < len(st.cards)-1 {
		st.index++
		return false, nil
	}
	return true, nil
}

// Finish completes the run. With history enabled the session is saved and
// old sessions are pruned; otherwise only the deck's last studied time moves.
func (st *Study) Finish(ctx context.Context) (*StudyResult, error) {
	if st.finished {
		return nil, models.ErrStudyFinished
	}

	st.session.Complete(st.studied, st.correct)
	if st.saveHistory {
		if err := st.svc.sessions.Save(ctx, st.session); err != nil {
			return nil, err
		}
		st.svc.prune(ctx)
	} else if err := st.svc.decks.MarkStudied(ctx, st.deck.ID, *st.session.EndTime); err != nil {
		return nil, err
	}
	st.deck.LastStudied = st.session.EndTime
	st.finished = true

	result := &StudyResult{
		Session:      st.session,
		DeckName:     st.deck.Name,
		TotalCards:   len(st.cards),
		CardsStudied: st.studied,
		CardsCorrect: st.correct,
		Accuracy:     st.session.Accuracy(),
	}
	st.svc.logger.Info("Study session completed",
		zap.String("session_id", st.session.ID),
		zap.Int("cards_studied", result.CardsStudied),
		zap.Int("cards_correct", result.CardsCorrect),
		zap.Float64("accuracy", result.Accuracy))
	return result, nil
}

// Restart begins a fresh run over the same deck
func (st *Study) Restart(ctx context.Context) (*Study, error) {
	return st.svc.Start(ctx, st.deck.ID)
}
