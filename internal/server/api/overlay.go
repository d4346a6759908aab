package api

import (
	"net/http"

	"github.com/ayusman/facetrack/internal/overlay"
)

// OverlayHandler serves the latest overlay state.
type OverlayHandler struct {
	latest *overlay.Latest
}

// NewOverlayHandler creates an OverlayHandler.
func NewOverlayHandler(latest *overlay.Latest) *OverlayHandler {
	return &OverlayHandler{latest: latest}
}

type overlayResponse struct {
	overlay.Update
	Updates uint64 `json:"updates"`
}

// Get handles GET /api/overlay.
func (h *OverlayHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, n := h.latest.Get()
	writeJSON(w, http.StatusOK, overlayResponse{Update: u, Updates: n})
}
