package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"flashcards/internal/config"
	"flashcards/internal/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	home := t.TempDir()
	cfg := &config.Config{
		HomeDir:           home,
		DatabaseType:      "sqlite",
		DatabasePath:      filepath.Join(home, "data", "flashcards.db"),
		SettingsPath:      filepath.Join(home, "settings.json"),
		LogDir:            filepath.Join(home, "logs"),
		LogLevel:          "error",
		GenerateRateLimit: 10,
	}

	a, err := New(context.Background(), cfg, Options{Console: zapcore.AddSync(&strings.Builder{})})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewWiresSettingsIntoClient(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, "http://localhost:8000", a.Client.BaseURL())

	require.NoError(t, a.Settings.Set("api_url", "http://gen.internal:9000/"))
	assert.Equal(t, "http://gen.internal:9000", a.Client.BaseURL())
}

func TestServicesShareStorage(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	deck, err := a.Decks.Create(ctx, "Astronomy", "")
	require.NoError(t, err)
	_, err = a.Decks.AddCard(ctx, deck.ID, "Closest star?", "The Sun", "")
	require.NoError(t, err)

	study, err := a.Study.Start(ctx, deck.ID)
	require.NoError(t, err)
	done, err := study.Mark(ctx, true)
	require.NoError(t, err)
	require.True(t, done)
	_, err = study.Finish(ctx)
	require.NoError(t, err)

	sessions, err := a.History.Sessions(ctx, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Astronomy", sessions[0].DeckName)
	assert.Equal(t, 100.0, sessions[0].Accuracy())
}

func TestRouterServesHealth(t *testing.T) {
	a := newTestApp(t)

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
