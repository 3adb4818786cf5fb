package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"flashcards/internal/models"
	"flashcards/internal/service"
	"flashcards/internal/settings"
	"flashcards/internal/validation"
)

// respondWithError logs err (when set) under logMsg and writes userMsg as
// the JSON error body
func (h *BaseHandler) respondWithError(w http.ResponseWriter, r *http.Request, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			h.Logger.Error(logMsg, fields...)
		} else {
			h.Logger.Warn(logMsg, fields...)
		}
	}

	h.RespondError(w, status, userMsg)
}

// handleServiceError maps a service error to its HTTP status. Client errors
// echo the error text; server errors hide it.
func (h *BaseHandler) handleServiceError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	status := statusFor(err)
	userMsg := err.Error()
	if status == http.StatusInternalServerError {
		userMsg = "internal server error"
	}
	h.respondWithError(w, r, status, userMsg, logMsg, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrDeckNotFound),
		errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, settings.ErrUnknownKey):
		return http.StatusNotFound
	case validation.IsValidationError(err), errors.Is(err, models.ErrEmptyDeck):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStudyFinished):
		return http.StatusConflict
	case errors.Is(err, service.ErrGenerationFailed), errors.Is(err, models.ErrNoCardsGenerated):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
