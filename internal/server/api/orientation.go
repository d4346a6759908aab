package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/orientation"
	"github.com/ayusman/facetrack/internal/store"
)

// OrientationHandler receives device orientation readings.
type OrientationHandler struct {
	tracker   *orientation.Tracker
	store     *store.Store
	validator *validator.Validate
	log       logrus.FieldLogger
}

// NewOrientationHandler creates an OrientationHandler. A nil store disables persistence.
func NewOrientationHandler(t *orientation.Tracker, s *store.Store, v *validator.Validate, log logrus.FieldLogger) *OrientationHandler {
	return &OrientationHandler{tracker: t, store: s, validator: v, log: log}
}

type orientationRequest struct {
	Orientation string `json:"orientation" validate:"required"`
}

type orientationResponse struct {
	Orientation orientation.Orientation `json:"orientation"`
	Code        orientation.Code        `json:"code"`
	Rotation    orientation.Rotation    `json:"rotation"`
}

func newOrientationResponse(o orientation.Orientation) orientationResponse {
	code := orientation.PixelCode(o)
	return orientationResponse{Orientation: o, Code: code, Rotation: code.Rotation()}
}

// Get handles GET /api/orientation.
func (h *OrientationHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newOrientationResponse(h.tracker.Current()))
}

// Put handles PUT /api/orientation.
func (h *OrientationHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req orientationRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	o, err := orientation.Parse(req.Orientation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.tracker.Set(o)

	if h.store != nil {
		if err := h.store.Settings().SetOrientation(o); err != nil {
			h.log.WithError(err).Error("failed to persist orientation")
			writeError(w, http.StatusInternalServerError, "failed to persist orientation")
			return
		}
	}

	h.log.WithField("orientation", o).Debug("orientation updated")
	writeJSON(w, http.StatusOK, newOrientationResponse(o))
}
