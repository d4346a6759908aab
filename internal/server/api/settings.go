package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/store"
)

// SettingsHandler lists and clears persisted settings. Clearing a setting
// only affects the next start; the live display and orientation are unchanged.
type SettingsHandler struct {
	store *store.Store
	log   logrus.FieldLogger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(s *store.Store, log logrus.FieldLogger) *SettingsHandler {
	return &SettingsHandler{store: s, log: log}
}

type settingsResponse struct {
	Settings []store.Setting `json:"settings"`
}

// List handles GET /api/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings().All()
	if err != nil {
		h.log.WithError(err).Error("failed to list settings")
		writeError(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	if settings == nil {
		settings = []store.Setting{}
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings})
}

// Delete handles DELETE /api/settings/{key}.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		h.log.WithError(err).WithField("key", key).Error("failed to delete setting")
		writeError(w, http.StatusInternalServerError, "failed to delete setting")
		return
	}

	h.log.WithField("key", key).Info("setting cleared")
	w.WriteHeader(http.StatusNoContent)
}
