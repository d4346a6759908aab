// Package app wires camera capture, face detection and overlay presentation
// into the facetrack tracking pipeline.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/capture"
	"github.com/ayusman/facetrack/internal/detector"
	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/logging"
	"github.com/ayusman/facetrack/internal/orientation"
	"github.com/ayusman/facetrack/internal/overlay"
	"github.com/ayusman/facetrack/internal/store"
	"github.com/ayusman/facetrack/internal/tracker"
)

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store

	// Camera overrides the device selected by CameraConfig.
	Camera       capture.Camera
	CameraConfig capture.Config

	// Detector overrides the backend selected by DetectorConfig.
	Detector       detector.Detector
	DetectorConfig detector.Config

	// Display and Orientation are used until the store or the HTTP API
	// provides newer values.
	Display     geometry.Size
	Orientation orientation.Orientation

	OverlayBuffer int

	// Presenters receive every overlay update after the built-in Latest.
	Presenters []overlay.Presenter

	Logger logrus.FieldLogger
}

// Stats counts pipeline activity.
type Stats struct {
	FramesRead     uint64 `json:"frames_read"`
	FramesDropped  uint64 `json:"frames_dropped"`
	Processed      uint64 `json:"processed"`
	Skipped        uint64 `json:"skipped"`
	OverlayDropped uint64 `json:"overlay_dropped"`
}

// App is the face tracking application.
type App struct {
	config      Config
	log         *logrus.Entry
	camera      capture.Camera
	stream      *capture.Stream
	preview     *capture.Preview
	processor   *tracker.Processor
	dispatcher  *overlay.Dispatcher
	latest      *overlay.Latest
	surface     *tracker.Surface
	orientation *orientation.Tracker

	enabled   atomic.Bool
	frameMu   sync.Mutex // held while a frame is processed
	processed atomic.Uint64
	skipped   atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new App. A detector backend that cannot be loaded falls back
// to the mock detector so the rest of the application stays usable.
func New(config Config) *App {
	log := logging.Component(config.Logger, "app")

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraConfig)
	}

	det := config.Detector
	if det == nil {
		var err error
		det, err = detector.New(config.DetectorConfig)
		if err != nil {
			log.WithError(err).WithField("backend", config.DetectorConfig.Backend).
				Warn("face detector not available, using mock detector")
			det = detector.NewMockDetector()
		}
	}

	a := &App{
		config:      config,
		log:         log,
		camera:      camera,
		stream:      capture.NewStream(camera, config.Logger),
		preview:     capture.NewPreview(),
		latest:      overlay.NewLatest(),
		surface:     tracker.NewSurface(config.Display),
		orientation: orientation.NewTracker(config.Orientation),
	}

	presenters := append(overlay.Multi{a.latest}, config.Presenters...)
	a.dispatcher = overlay.NewDispatcher(presenters, config.OverlayBuffer, config.Logger)
	a.processor = tracker.NewProcessor(det, a.orientation, a.dispatcher, config.Logger)
	a.enabled.Store(true)

	a.restoreSettings()
	return a
}

// restoreSettings loads the persisted display surface and orientation.
func (a *App) restoreSettings() {
	if a.config.Store == nil {
		return
	}
	settings := a.config.Store.Settings()

	if size, err := settings.DisplaySize(); err == nil {
		if err := a.surface.Set(size); err != nil {
			a.log.WithError(err).Warn("ignoring stored display size")
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		a.log.WithError(err).Warn("failed to load display size")
	}

	if o, err := settings.Orientation(); err == nil {
		a.orientation.Set(o)
	} else if !errors.Is(err, store.ErrNotFound) {
		a.log.WithError(err).Warn("failed to load orientation")
	}
}

// SetEnabled enables or disables face tracking. Disabling hides the overlay.
func (a *App) SetEnabled(enabled bool) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if prev := a.enabled.Swap(enabled); prev && !enabled {
		a.dispatcher.HideFace()
	}
	a.log.WithField("enabled", enabled).Info("face tracking toggled")
}

// IsEnabled returns whether face tracking is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetDetector replaces the face detector. The previous detector is returned
// and not closed.
func (a *App) SetDetector(d detector.Detector) detector.Detector {
	return a.processor.SetDetector(d)
}

// Start opens the camera and begins the tracking pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	a.dispatcher.Start()
	a.stream.Start()
	go a.runPipeline(ctx, a.stream.Frames(), a.done)

	a.log.WithFields(logrus.Fields{
		"fps":     a.camera.FPS(),
		"surface": a.surface.Get(),
	}).Info("tracking pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
		<-a.done
		a.cancel, a.done = nil, nil
	}

	a.stream.Stop()
	// Release a frame left in the hand-off slot.
	if frames := a.stream.Frames(); frames != nil {
		for frame := range frames {
			frame.Close()
		}
	}

	a.dispatcher.Stop()

	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Error("error closing camera")
	}
	if d := a.processor.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.log.WithError(err).Error("error closing detector")
		}
	}
	if err := a.preview.Close(); err != nil {
		a.log.WithError(err).Error("error releasing preview")
	}

	a.log.WithFields(a.Stats().fields()).Info("tracking pipeline stopped")
}

// Stats returns pipeline counters.
func (a *App) Stats() Stats {
	return Stats{
		FramesRead:     a.stream.Read(),
		FramesDropped:  a.stream.Dropped(),
		Processed:      a.processed.Load(),
		Skipped:        a.skipped.Load(),
		OverlayDropped: a.dispatcher.Dropped(),
	}
}

func (s Stats) fields() logging.Fields {
	return logging.Fields{
		"frames_read":     s.FramesRead,
		"frames_dropped":  s.FramesDropped,
		"processed":       s.Processed,
		"skipped":         s.Skipped,
		"overlay_dropped": s.OverlayDropped,
	}
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the face detector.
func (a *App) Detector() detector.Detector {
	return a.processor.Detector()
}

// Latest returns the most recent overlay update holder.
func (a *App) Latest() *overlay.Latest {
	return a.latest
}

// Preview returns the preview frame holder.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Surface returns the display surface holder.
func (a *App) Surface() *tracker.Surface {
	return a.surface
}

// Orientation returns the device orientation tracker.
func (a *App) Orientation() *orientation.Tracker {
	return a.orientation
}
