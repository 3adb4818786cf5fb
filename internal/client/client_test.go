package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateSendsRequestAndDecodesResponse(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate_flashcards", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"topic":"Photosynthesis","cards":[{"question":"Q1","answer":"A1"},{"question":"Q2","answer":"A2"}],"source_info":"textbook"}`))
	}))
	defer server.Close()

	c := New(server.URL+"/", time.Second, zap.NewNop())
	before := testutil.ToFloat64(generationRequestsTotal.WithLabelValues("success"))

	resp, err := c.Generate(context.Background(), "photosynthesis", 2)
	require.NoError(t, err)

	assert.Equal(t, GenerateRequest{Topic: "photosynthesis", NumQuestions: 2}, got)
	assert.Equal(t, "Photosynthesis", resp.Topic)
	require.Len(t, resp.Cards, 2)
	assert.Equal(t, CardPair{Question: "Q2", Answer: "A2"}, resp.Cards[1])
	require.NotNil(t, resp.SourceInfo)
	assert.Equal(t, "textbook", *resp.SourceInfo)
	assert.Equal(t, before+1, testutil.ToFloat64(generationRequestsTotal.WithLabelValues("success")))
}

func TestGenerateNullSourceInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topic":"T","cards":[],"source_info":null}`))
	}))
	defer server.Close()

	resp, err := New(server.URL, time.Second, zap.NewNop()).Generate(context.Background(), "T", 1)
	require.NoError(t, err)
	assert.Nil(t, resp.SourceInfo)
	assert.Empty(t, resp.Cards)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name: "server error carries status and body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "model overloaded",
		},
		{
			name: "validation rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"detail":"num_questions"}`))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"detail":"num_questions"}`,
		},
		{
			name: "body excerpt is truncated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(strings.Repeat("x", 4096)))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   strings.Repeat("x", maxErrorBody),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := New(server.URL, time.Second, zap.NewNop()).Generate(context.Background(), "topic", 5)
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
			assert.Equal(t, tt.wantBody, statusErr.Body)
		})
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topic":`))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second, zap.NewNop()).Generate(context.Background(), "topic", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestGenerateHonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(server.URL, 10*time.Second, zap.NewNop()).Generate(ctx, "slow", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfigureSwapsBaseURL(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topic":"first","cards":[]}`))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topic":"second","cards":[]}`))
	}))
	defer second.Close()

	c := New(first.URL, 0, zap.NewNop())
	resp, err := c.Generate(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Topic)

	c.Configure(second.URL+"/", 5*time.Second)
	assert.Equal(t, second.URL, c.BaseURL())

	resp, err = c.Generate(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Topic)
}

func TestPing(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"docs available", http.StatusOK, true},
		{"docs missing", http.StatusNotFound, false},
		{"no content is not ok", http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/docs", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			assert.Equal(t, tt.want, New(server.URL, time.Second, zap.NewNop()).Ping(context.Background()))
		})
	}
}

func TestPingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.False(t, New(url, time.Second, zap.NewNop()).Ping(context.Background()))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "success", statusLabel(nil))
	assert.Equal(t, "http_error", statusLabel(&StatusError{StatusCode: 500}))
	assert.Equal(t, "timeout", statusLabel(context.DeadlineExceeded))
	assert.Equal(t, "error", statusLabel(errors.New("boom")))
}
