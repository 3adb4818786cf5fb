// Package client talks to the remote flashcard generation service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	generatePath = "/generate_flashcards"
	pingPath     = "/docs"

	// DefaultTimeout bounds a generation request when none is configured
	DefaultTimeout = 60 * time.Second
	pingTimeout    = 5 * time.Second

	maxErrorBody = 512
)

// GenerateRequest is the body sent to the generation endpoint
type GenerateRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
}

// CardPair is one generated question and answer
type CardPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GenerateResponse is the generation endpoint's reply
type GenerateResponse struct {
	Topic      string     `json:"topic"`
	Cards      []CardPair `json:"cards"`
	SourceInfo *string    `json:"source_info"`
}

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation service returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls the generation service. Configure may be called while
// requests are in flight.
type Client struct {
	logger *zap.Logger

	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	c := &Client{logger: logger}
	c.Configure(baseURL, timeout)
	return c
}

// Configure swaps the base URL and request timeout
func (c *Client) Configure(baseURL string, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.httpClient = &http.Client{Timeout: timeout}
}

// BaseURL returns the configured service address
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) snapshot() (string, *http.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.httpClient
}

// Generate asks the service for numQuestions cards about topic
func (c *Client) Generate(ctx context.Context, topic string, numQuestions int) (*GenerateResponse, error) {
	baseURL, httpClient := c.snapshot()
	url := baseURL + generatePath

	start := time.Now()
	resp, err := c.generate(ctx, httpClient, url, GenerateRequest{Topic: topic, NumQuestions: numQuestions})
	RecordGeneration(statusLabel(err), time.Since(start))
	if err != nil {
		c.logger.Error("Generation request failed",
			zap.String("url", url), zap.String("topic", topic), zap.Error(err))
		return nil, err
	}

	c.logger.Info("Received generated flashcards",
		zap.String("topic", resp.Topic), zap.Int("cards", len(resp.Cards)),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func (c *Client) generate(ctx context.Context, httpClient *http.Client, url string, body GenerateRequest) (*GenerateResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Sending generation request", zap.String("url", url), zap.Int("num_questions", body.NumQuestions))
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &genResp, nil
}

// Ping reports whether the service answers its docs page with 200
func (c *Client) Ping(ctx context.Context) bool {
	baseURL, _ := c.snapshot()
	url := baseURL + pingPath

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Connection test failed", zap.String("url", url), zap.Error(err))
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.logger.Error("Connection test failed", zap.String("url", url), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode == http.StatusOK
	c.logger.Debug("Connection test", zap.String("url", url), zap.Int("status", resp.StatusCode), zap.Bool("ok", ok))
	return ok
}
