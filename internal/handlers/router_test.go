package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flashcards/internal/models"
	"flashcards/internal/service"
	"flashcards/internal/settings"
	"flashcards/internal/validation"
)

type stubDeckService struct {
	decks     map[string]*models.Deck
	cards     map[string]*models.Flashcard
	generated *models.Deck
	genErr    error
	ping      bool

	gotGenerate service.GenerateInput
	gotLimit    int
}

func newStubDeckService() *stubDeckService {
	deck := &models.Deck{ID: "d1", Name: "Biology"}
	card := &models.Flashcard{ID: "c1", DeckID: "d1", Question: "Q", Answer: "A", Topic: "Biology"}
	deck.Cards = []models.Flashcard{*card}
	return &stubDeckService{
		decks: map[string]*models.Deck{"d1": deck},
		cards: map[string]*models.Flashcard{"c1": card},
	}
}

func (s *stubDeckService) List(ctx context.Context) ([]models.Deck, error) {
	var out []models.Deck
	for _, d := range s.decks {
		out = append(out, *d)
	}
	return out, nil
}

func (s *stubDeckService) Get(ctx context.Context, id string) (*models.Deck, error) {
	d, ok := s.decks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDeckNotFound, id)
	}
	return d, nil
}

func (s *stubDeckService) Create(ctx context.Context, name, description string) (*models.Deck, error) {
	if err := validation.ValidateDeckName(name); err != nil {
		return nil, err
	}
	d := &models.Deck{ID: "new", Name: name, Description: description}
	s.decks[d.ID] = d
	return d, nil
}

func (s *stubDeckService) Update(ctx context.Context, id, name, description string) (*models.Deck, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name, d.Description = name, description
	return d, nil
}

func (s *stubDeckService) Delete(ctx context.Context, id string) error {
	if _, ok := s.decks[id]; !ok {
		return models.ErrDeckNotFound
	}
	delete(s.decks, id)
	return nil
}

func (s *stubDeckService) AddCard(ctx context.Context, deckID, question, answer, topic string) (*models.Flashcard, error) {
	if _, err := s.Get(ctx, deckID); err != nil {
		return nil, err
	}
	if err := validation.ValidateCard(question, answer); err != nil {
		return nil, err
	}
	return &models.Flashcard{ID: "c2", DeckID: deckID, Question: question, Answer: answer, Topic: topic}, nil
}

func (s *stubDeckService) EditCard(ctx context.Context, id, question, answer string) (*models.Flashcard, error) {
	c, ok := s.cards[id]
	if !ok {
		return nil, models.ErrCardNotFound
	}
	c.Question, c.Answer = question, answer
	return c, nil
}

func (s *stubDeckService) DeleteCard(ctx context.Context, id string) error {
	if _, ok := s.cards[id]; !ok {
		return models.ErrCardNotFound
	}
	delete(s.cards, id)
	return nil
}

func (s *stubDeckService) RecentCards(ctx context.Context, limit int) ([]models.Flashcard, error) {
	s.gotLimit = limit
	return []models.Flashcard{*s.cards["c1"]}, nil
}

func (s *stubDeckService) Generate(ctx context.Context, in service.GenerateInput) (*models.Deck, error) {
	s.gotGenerate = in
	if s.genErr != nil {
		return nil, s.genErr
	}
	return s.generated, nil
}

func (s *stubDeckService) TestConnection(ctx context.Context) bool {
	return s.ping
}

type stubStudyService struct {
	completed map[string]bool
}

func (s *stubStudyService) StartSession(ctx context.Context, deckID string) (*models.StudySession, []string, error) {
	switch deckID {
	case "d1":
		return &models.StudySession{ID: "s1", DeckID: deckID, StartTime: models.Now()}, []string{"c1"}, nil
	case "empty":
		return nil, nil, models.ErrEmptyDeck
	default:
		return nil, nil, models.ErrDeckNotFound
	}
}

func (s *stubStudyService) ReviewCard(ctx context.Context, cardID string) (*models.Flashcard, error) {
	if cardID != "c1" {
		return nil, models.ErrCardNotFound
	}
	now := models.Now()
	return &models.Flashcard{ID: cardID, LastReviewed: &now}, nil
}

func (s *stubStudyService) CompleteSession(ctx context.Context, sessionID string, studied, correct int) (*models.StudySession, error) {
	if err := validation.ValidateSessionCounts(studied, correct); err != nil {
		return nil, err
	}
	if s.completed[sessionID] {
		return nil, models.ErrStudyFinished
	}
	s.completed[sessionID] = true
	session := &models.StudySession{ID: sessionID, DeckID: "d1", StartTime: models.Now()}
	session.Complete(studied, correct)
	return session, nil
}

type stubHistoryService struct {
	gotFilter models.SessionFilter
	gotRange  models.DateRange
}

func (s *stubHistoryService) Sessions(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	s.gotFilter = filter
	return nil, nil
}

func (s *stubHistoryService) Session(ctx context.Context, id string) (*models.StudySession, error) {
	if id != "s1" {
		return nil, models.ErrSessionNotFound
	}
	return &models.StudySession{ID: id}, nil
}

func (s *stubHistoryService) DeckStats(ctx context.Context, deckID string, dates models.DateRange) (*models.DeckStats, error) {
	s.gotRange = dates
	if deckID != "d1" {
		return nil, models.ErrDeckNotFound
	}
	return &models.DeckStats{DeckID: deckID, TotalCards: 1, Accuracy: 50}, nil
}

type testAPI struct {
	handler  http.Handler
	decks    *stubDeckService
	study    *stubStudyService
	history  *stubHistoryService
	settings *settings.Store
}

func newTestAPI(t *testing.T, rateLimit int) *testAPI {
	t.Helper()
	store, err := settings.Open(t.TempDir()+"/settings.json", zap.NewNop())
	require.NoError(t, err)

	api := &testAPI{
		decks:    newStubDeckService(),
		study:    &stubStudyService{completed: map[string]bool{}},
		history:  &stubHistoryService{},
		settings: store,
	}
	api.handler = NewRouter(Services{
		Decks:    api.decks,
		Study:    api.study,
		History:  api.history,
		Settings: store,
	}, RouterOptions{GenerateRateLimit: rateLimit}, zap.NewNop())
	return api
}

func (api *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestRouterStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"list decks", http.MethodGet, "/api/v1/decks", "", http.StatusOK},
		{"create deck", http.MethodPost, "/api/v1/decks", `{"name":"Chemistry"}`, http.StatusCreated},
		{"create deck blank name", http.MethodPost, "/api/v1/decks", `{"name":" "}`, http.StatusBadRequest},
		{"create deck unknown field", http.MethodPost, "/api/v1/decks", `{"title":"x"}`, http.StatusBadRequest},
		{"create deck empty body", http.MethodPost, "/api/v1/decks", "", http.StatusBadRequest},
		{"get deck", http.MethodGet, "/api/v1/decks/d1", "", http.StatusOK},
		{"get missing deck", http.MethodGet, "/api/v1/decks/nope", "", http.StatusNotFound},
		{"update deck", http.MethodPut, "/api/v1/decks/d1", `{"name":"Bio","description":"cells"}`, http.StatusOK},
		{"delete missing deck", http.MethodDelete, "/api/v1/decks/nope", "", http.StatusNotFound},
		{"delete deck", http.MethodDelete, "/api/v1/decks/d1", "", http.StatusNoContent},
		{"add card", http.MethodPost, "/api/v1/decks/d1/cards", `{"question":"Q","answer":"A"}`, http.StatusCreated},
		{"add invalid card", http.MethodPost, "/api/v1/decks/d1/cards", `{"question":"","answer":""}`, http.StatusBadRequest},
		{"edit card", http.MethodPut, "/api/v1/cards/c1", `{"question":"Q2","answer":"A2"}`, http.StatusOK},
		{"edit missing card", http.MethodPut, "/api/v1/cards/zz", `{"question":"Q2","answer":"A2"}`, http.StatusNotFound},
		{"delete card", http.MethodDelete, "/api/v1/cards/c1", "", http.StatusNoContent},
		{"recent cards bad limit", http.MethodGet, "/api/v1/cards/recent?limit=abc", "", http.StatusBadRequest},
		{"start session", http.MethodPost, "/api/v1/decks/d1/sessions", "", http.StatusCreated},
		{"start session empty deck", http.MethodPost, "/api/v1/decks/empty/sessions", "", http.StatusBadRequest},
		{"review card", http.MethodPost, "/api/v1/cards/c1/review", "", http.StatusOK},
		{"review missing card", http.MethodPost, "/api/v1/cards/zz/review", "", http.StatusNotFound},
		{"complete session bad counts", http.MethodPost, "/api/v1/sessions/s1/complete", `{"cards_studied":1,"cards_correct":3}`, http.StatusBadRequest},
		{"get session", http.MethodGet, "/api/v1/sessions/s1", "", http.StatusOK},
		{"get missing session", http.MethodGet, "/api/v1/sessions/s9", "", http.StatusNotFound},
		{"list sessions bad date", http.MethodGet, "/api/v1/sessions?from=yesterday", "", http.StatusBadRequest},
		{"stats", http.MethodGet, "/api/v1/decks/d1/stats", "", http.StatusOK},
		{"stats missing deck", http.MethodGet, "/api/v1/decks/zz/stats", "", http.StatusNotFound},
		{"ping", http.MethodGet, "/api/v1/generate/ping", "", http.StatusOK},
		{"settings", http.MethodGet, "/api/v1/settings", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, 0)
			rr := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestCompleteSessionTwiceConflicts(t *testing.T) {
	api := newTestAPI(t, 0)

	rr := api.do(http.MethodPost, "/api/v1/sessions/s1/complete", `{"cards_studied":4,"cards_correct":3}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var session models.StudySession
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.Equal(t, 4, session.CardsStudied)
	assert.NotNil(t, session.EndTime)

	rr = api.do(http.MethodPost, "/api/v1/sessions/s1/complete", `{"cards_studied":4,"cards_correct":3}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestStartSessionReturnsCardOrder(t *testing.T) {
	api := newTestAPI(t, 0)

	rr := api.do(http.MethodPost, "/api/v1/decks/d1/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var body startSessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "s1", body.Session.ID)
	assert.Equal(t, []string{"c1"}, body.CardIDs)
}

func TestListSessionsParsesFilter(t *testing.T) {
	api := newTestAPI(t, 0)

	rr := api.do(http.MethodGet, "/api/v1/sessions?deck_id=d1&from=2024-01-01&to=2024-01-31&all=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	f := api.history.gotFilter
	assert.Equal(t, "d1", f.DeckID)
	assert.True(t, f.IncludeIncomplete)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, "2024-02-01", f.To.Format("2006-01-02"))
}

func TestRecentCardsLimit(t *testing.T) {
	api := newTestAPI(t, 0)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/cards/recent", "").Code)
	assert.Equal(t, service.DefaultRecentLimit, api.decks.gotLimit)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/cards/recent?limit=5", "").Code)
	assert.Equal(t, 5, api.decks.gotLimit)
}

func TestGenerate(t *testing.T) {
	api := newTestAPI(t, 0)
	api.decks.generated = &models.Deck{ID: "g1", Name: "Photosynthesis"}

	rr := api.do(http.MethodPost, "/api/v1/generate", `{"topic":"photosynthesis","num_questions":5,"notes":"light reactions"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assert.Equal(t, service.GenerateInput{Topic: "photosynthesis", NumQuestions: 5, Notes: "light reactions"}, api.decks.gotGenerate)

	var deck models.Deck
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deck))
	assert.Equal(t, "Photosynthesis", deck.Name)
}

func TestGenerateUpstreamFailureIsBadGateway(t *testing.T) {
	api := newTestAPI(t, 0)
	api.decks.genErr = fmt.Errorf("%w: connection refused", service.ErrGenerationFailed)

	rr := api.do(http.MethodPost, "/api/v1/generate", `{"topic":"x","num_questions":1}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, errorBody(t, rr), "generation failed")
}

func TestGenerateRateLimited(t *testing.T) {
	api := newTestAPI(t, 2)
	api.decks.generated = &models.Deck{ID: "g1", Name: "x"}

	for i := 0; i < 2; i++ {
		rr := api.do(http.MethodPost, "/api/v1/generate", `{"topic":"x","num_questions":1}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := api.do(http.MethodPost, "/api/v1/generate", `{"topic":"x","num_questions":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "too many generation requests", errorBody(t, rr))

	// Ping is outside the limiter
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/generate/ping", "").Code)
}

func TestSettingsEndpoints(t *testing.T) {
	api := newTestAPI(t, 0)

	tests := []struct {
		name string
		key  string
		body string
		want int
	}{
		{"number value", "api_timeout", `{"value": 30}`, http.StatusOK},
		{"string value", "theme", `{"value": "dark"}`, http.StatusOK},
		{"bool value", "auto_flip", `{"value": true}`, http.StatusOK},
		{"invalid value", "api_timeout", `{"value": "forever"}`, http.StatusBadRequest},
		{"missing value", "theme", `{}`, http.StatusBadRequest},
		{"unknown key", "colour", `{"value": "red"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(http.MethodPut, "/api/v1/settings/"+tt.key, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}

	current := api.settings.Current()
	assert.Equal(t, 30, current.APITimeout)
	assert.Equal(t, "dark", current.Theme)
	assert.True(t, current.AutoFlip)

	rr := api.do(http.MethodPost, "/api/v1/settings/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, settings.Defaults(), api.settings.Current())
}

func TestRecoveryReturnsJSON(t *testing.T) {
	handler := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	api := newTestAPI(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()

	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestRequestSizeLimit(t *testing.T) {
	api := newTestAPI(t, 0)
	big := `{"name":"` + strings.Repeat("x", MaxRequestSize) + `"}`

	rr := api.do(http.MethodPost, "/api/v1/decks", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
