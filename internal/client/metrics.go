package client

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashcards_generation_requests_total",
			Help: "Total number of calls to the generation service",
		},
		[]string{"status"},
	)

	generationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flashcards_generation_duration_seconds",
			Help:    "Generation service call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
)

// RecordGeneration records one generation call
func RecordGeneration(status string, duration time.Duration) {
	generationRequestsTotal.WithLabelValues(status).Inc()
	generationDuration.Observe(duration.Seconds())
}

func statusLabel(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
