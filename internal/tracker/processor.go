// Package tracker turns camera frames into face overlay updates.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/capture"
	"github.com/ayusman/facetrack/internal/detector"
	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/logging"
	"github.com/ayusman/facetrack/internal/orientation"
	"github.com/ayusman/facetrack/internal/overlay"
)

// detectOptions asks the detector for every classification the overlay shows.
var detectOptions = detector.Options{Smile: true, EyeBlink: true}

// Detection is a face mapped into display coordinates.
type Detection struct {
	Rect geometry.Rect `json:"rect"`
	Text string        `json:"text"`
}

// Result describes what Process did with a frame.
type Result struct {
	FrameID    ulid.ULID
	Code       orientation.Code
	Detections []Detection
	Hidden     bool
}

// frameTagger is implemented by presenters that label updates with a frame id.
type frameTagger interface {
	SetFrame(id ulid.ULID)
}

// Processor runs detection on single frames and drives a presenter.
type Processor struct {
	mu        sync.RWMutex
	detector  detector.Detector
	source    orientation.Source
	presenter overlay.Presenter
	log       *logrus.Entry
}

// NewProcessor creates a Processor.
func NewProcessor(d detector.Detector, source orientation.Source, presenter overlay.Presenter, logger logrus.FieldLogger) *Processor {
	return &Processor{
		detector:  d,
		source:    source,
		presenter: presenter,
		log:       logging.Component(logger, "tracker"),
	}
}

// SetDetector swaps the detector used for subsequent frames and returns the
// previous one.
func (p *Processor) SetDetector(d detector.Detector) detector.Detector {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.detector
	p.detector = d
	return prev
}

// Detector returns the detector in use.
func (p *Processor) Detector() detector.Detector {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.detector
}

// Process detects faces in frame and updates the presenter for a display of
// the given surface size.
//
// A frame with no faces hides the overlay. Otherwise every face is mapped
// before anything is shown, then ShowFace is called once per face in detector
// order. When the frame is skipped (invalid geometry, detector failure or a
// cancelled ctx) the presenter is left untouched and an error is returned.
func (p *Processor) Process(ctx context.Context, frame capture.Frame, surface geometry.Size) (Result, error) {
	res := Result{FrameID: frame.ID}

	if err := frame.Aperture.Validate(); err != nil {
		return res, fmt.Errorf("frame aperture: %w", err)
	}
	if err := surface.Validate(); err != nil {
		return res, fmt.Errorf("display surface: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Code = orientation.PixelCode(p.source.Current())

	faces, err := p.Detector().Detect(frame.Mat, res.Code, detectOptions)
	if err != nil {
		return res, fmt.Errorf("%w: %w", detector.ErrUnavailable, err)
	}

	if tagger, ok := p.presenter.(frameTagger); ok {
		tagger.SetFrame(frame.ID)
	}

	if len(faces) == 0 {
		res.Hidden = true
		p.presenter.HideFace()
		return res, nil
	}

	detections := make([]Detection, 0, len(faces))
	for i, face := range faces {
		rect, err := geometry.MapToDisplay(face.Bounds, surface, frame.Aperture)
		if err != nil {
			return res, fmt.Errorf("face %d: %w", i, err)
		}
		detections = append(detections, Detection{Rect: rect, Text: FormatDetails(face)})
	}

	for _, d := range detections {
		p.presenter.ShowFace(d.Rect, d.Text)
	}
	res.Detections = detections

	p.log.WithFields(logrus.Fields{
		"frame_id": frame.ID,
		"faces":    len(detections),
		"code":     res.Code,
	}).Trace("faces mapped")

	return res, nil
}
