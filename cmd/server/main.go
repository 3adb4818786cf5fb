package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"flashcards/internal/app"
	"flashcards/internal/config"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	application, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer application.Close()
	logger := application.Logger

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        addr,
		Handler:     application.Router(),
		ReadTimeout: 15 * time.Second,
		// Generation can take as long as the configured api_timeout
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", "http://localhost"+addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	if ok := application.Decks.TestConnection(ctx); !ok {
		logger.Warn("Generation service is not reachable", zap.String("api_url", application.Client.BaseURL()))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
