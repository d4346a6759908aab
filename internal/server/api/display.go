package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/store"
	"github.com/ayusman/facetrack/internal/tracker"
)

// DisplayHandler reads and updates the display surface the overlay is mapped onto.
type DisplayHandler struct {
	surface   *tracker.Surface
	store     *store.Store
	validator *validator.Validate
	log       logrus.FieldLogger
}

// NewDisplayHandler creates a DisplayHandler. A nil store disables persistence.
func NewDisplayHandler(surface *tracker.Surface, s *store.Store, v *validator.Validate, log logrus.FieldLogger) *DisplayHandler {
	return &DisplayHandler{surface: surface, store: s, validator: v, log: log}
}

type displayRequest struct {
	Width  float64 `json:"width" validate:"gt=0,lte=100000"`
	Height float64 `json:"height" validate:"gt=0,lte=100000"`
}

type displayResponse struct {
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	VideoBox *geometry.Rect `json:"video_box,omitempty"`
}

// Get handles GET /api/display.
func (h *DisplayHandler) Get(w http.ResponseWriter, r *http.Request) {
	size := h.surface.Get()
	writeJSON(w, http.StatusOK, displayResponse{Width: size.Width, Height: size.Height})
}

// Put handles PUT /api/display.
func (h *DisplayHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	size := geometry.Size{Width: req.Width, Height: req.Height}
	if err := h.surface.Set(size); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SetDisplaySize(size); err != nil {
			h.log.WithError(err).Error("failed to persist display size")
			writeError(w, http.StatusInternalServerError, "failed to persist display size")
			return
		}
	}

	h.log.WithFields(logrus.Fields{"width": size.Width, "height": size.Height}).Info("display surface updated")
	writeJSON(w, http.StatusOK, displayResponse{Width: size.Width, Height: size.Height})
}

// VideoBox handles GET /api/display/videobox?width=&height=, returning the
// letterbox of a sensor aperture on the current surface.
func (h *DisplayHandler) VideoBox(w http.ResponseWriter, r *http.Request) {
	var aperture geometry.Size
	if err := parseSize(r, &aperture); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	size := h.surface.Get()
	box, err := geometry.VideoBox(size, aperture)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, displayResponse{Width: size.Width, Height: size.Height, VideoBox: &box})
}
