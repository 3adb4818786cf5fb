package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services bundles what the router serves
type Services struct {
	Decks    DeckService
	Study    StudyService
	History  HistoryService
	Settings SettingsStore
}

// RouterOptions tunes the router
type RouterOptions struct {
	// GenerateRateLimit is the number of generation requests allowed per
	// client IP per minute; 0 disables the limit
	GenerateRateLimit int
}

// NewRouter builds the HTTP API
func NewRouter(svcs Services, opts RouterOptions, logger *zap.Logger) http.Handler {
	deckHandler := NewDeckHandler(svcs.Decks, logger)
	studyHandler := NewStudyHandler(svcs.Study, svcs.History, logger)
	settingsHandler := NewSettingsHandler(svcs.Settings, logger)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Recovery(logger))
	r.Use(Metrics)
	r.Use(RequestSizeLimit(MaxRequestSize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		deckHandler.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.ListDecks)
			r.Post("/", deckHandler.CreateDeck)
			r.Route("/{deckID}", func(r chi.Router) {
				r.Get("/", deckHandler.GetDeck)
				r.Put("/", deckHandler.UpdateDeck)
				r.Delete("/", deckHandler.DeleteDeck)
				r.Get("/stats", studyHandler.DeckStats)
				r.Post("/cards", deckHandler.AddCard)
				r.Post("/sessions", studyHandler.StartSession)
			})
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/recent", deckHandler.RecentCards)
			r.Put("/{cardID}", deckHandler.EditCard)
			r.Delete("/{cardID}", deckHandler.DeleteCard)
			r.Post("/{cardID}/review", studyHandler.ReviewCard)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", studyHandler.ListSessions)
			r.Get("/{sessionID}", studyHandler.GetSession)
			r.Post("/{sessionID}/complete", studyHandler.CompleteSession)
		})

		r.Route("/generate", func(r chi.Router) {
			r.Get("/ping", deckHandler.Ping)
			r.Group(func(r chi.Router) {
				if opts.GenerateRateLimit > 0 {
					r.Use(httprate.Limit(opts.GenerateRateLimit, time.Minute,
						httprate.WithKeyFuncs(httprate.KeyByIP),
						httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
							deckHandler.RespondError(w, http.StatusTooManyRequests, "too many generation requests")
						}),
					))
				}
				r.Post("/", deckHandler.Generate)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)
			r.Post("/reset", settingsHandler.ResetSettings)
			r.Put("/{key}", settingsHandler.SetSetting)
		})
	})

	return r
}
