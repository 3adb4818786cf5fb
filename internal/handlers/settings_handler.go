package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flashcards/internal/settings"
)

// SettingsHandler exposes the preference store
type SettingsHandler struct {
	BaseHandler
	store SettingsStore
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store SettingsStore, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: BaseHandler{Logger: logger},
		store:       store,
	}
}

type setSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, h.store.Current())
}

// SetSetting handles PUT /api/v1/settings/{key}. The value may be sent as a
// JSON string, number or boolean.
func (h *SettingsHandler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req setSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if len(req.Value) == 0 {
		h.RespondError(w, http.StatusBadRequest, "value is required")
		return
	}

	raw := strings.TrimSpace(string(req.Value))
	var s string
	if err := json.Unmarshal(req.Value, &s); err == nil {
		raw = s
	}

	key := chi.URLParam(r, "key")
	if err := h.store.Set(key, raw); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, settings.ErrUnknownKey) {
			status = http.StatusNotFound
		}
		h.respondWithError(w, r, status, err.Error(), "failed to update setting", err)
		return
	}

	h.Logger.Info("Setting updated", zap.String("key", key))
	h.RespondJSON(w, http.StatusOK, h.store.Current())
}

// ResetSettings handles POST /api/v1/settings/reset
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(); err != nil {
		h.handleServiceError(w, r, "failed to reset settings", err)
		return
	}
	h.RespondJSON(w, http.StatusOK, h.store.Current())
}
