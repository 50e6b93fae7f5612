package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/posturewatch/internal/store"
)

// SettingsService reads and applies the tunables of a running session.
type SettingsService interface {
	Settings() store.Settings
	ApplySettings(store.Settings) error
}

// SettingsHandler handles HTTP requests for /api/settings.
type SettingsHandler struct {
	svc SettingsService
}

// NewSettingsHandler creates a new SettingsHandler backed by svc.
func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// ServeHTTP implements the http.Handler interface.
//
//	GET    returns the settings in effect
//	PUT    merges the body into them and applies the result
//	DELETE restores the defaults
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.svc.Settings())
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.apply(w, store.DefaultSettings())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	settings := h.svc.Settings()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.apply(w, settings)
}

func (h *SettingsHandler) apply(w http.ResponseWriter, settings store.Settings) {
	if err := h.svc.ApplySettings(settings); err != nil {
		if errors.Is(err, store.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply settings")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Settings())
}
