// Package app wires configuration, logging, storage and services into a
// running application shared by the CLI and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"flashcards/internal/client"
	"flashcards/internal/config"
	"flashcards/internal/database"
	"flashcards/internal/handlers"
	"flashcards/internal/logger"
	"flashcards/internal/repository"
	"flashcards/internal/service"
	"flashcards/internal/settings"
)

// App owns every long-lived component
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Settings *settings.Store
	DB       *database.DB
	Client   *client.Client

	Decks   *service.DeckService
	Study   *service.StudyService
	History *service.HistoryService
	Backup  *service.BackupService
}

// Options adjusts how New builds the app
type Options struct {
	// Console overrides the console log sink
	Console zapcore.WriteSyncer
}

// New loads settings, opens and migrates the database and builds the services
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Console: opts.Console})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := settings.Open(cfg.SettingsPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	prefs := store.Current()
	gen := client.New(prefs.APIURL, seconds(prefs.APITimeout), log.Named("client"))
	store.OnChange(func(s settings.Settings) {
		gen.Configure(s.APIURL, seconds(s.APITimeout))
		log.Debug("Generation client reconfigured", zap.String("api_url", s.APIURL), zap.Int("api_timeout", s.APITimeout))
	})

	storeLog := log.Named("storage")
	deckRepo := repository.NewDeckRepository(db, storeLog)
	cardRepo := repository.NewCardRepository(db, storeLog)
	sessionRepo := repository.NewSessionRepository(db, storeLog)
	svcLog := log.Named("service")

	a := &App{
		Config:   cfg,
		Logger:   log,
		Settings: store,
		DB:       db,
		Client:   gen,
		Decks:    service.NewDeckService(deckRepo, cardRepo, gen, svcLog),
		Study:    service.NewStudyService(deckRepo, cardRepo, sessionRepo, store, svcLog),
		History:  service.NewHistoryService(deckRepo, sessionRepo, svcLog),
		Backup:   service.NewBackupService(db, svcLog.Named("backup")),
	}

	log.Info("Application initialized",
		zap.String("database", db.Dialect.Name()),
		zap.String("settings", store.Path()),
		zap.String("api_url", prefs.APIURL))
	return a, nil
}

// Router builds the HTTP API over the app's services
func (a *App) Router() http.Handler {
	return handlers.NewRouter(handlers.Services{
		Decks:    a.Decks,
		Study:    a.Study,
		History:  a.History,
		Settings: a.Settings,
	}, handlers.RouterOptions{GenerateRateLimit: a.Config.GenerateRateLimit}, a.Logger.Named("http"))
}

// Close releases the database and flushes the logger
func (a *App) Close() error {
	err := a.DB.Close()
	if err != nil {
		a.Logger.Error("Failed to close database", zap.Error(err))
	}
	_ = a.Logger.Sync()
	return err
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
