// Package detector provides face detection interfaces and backends.
//
// Detectors receive raw camera frames in sensor orientation together with the
// pixel orientation code of the device, and report face bounding boxes in
// sensor coordinates.
package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

// ErrUnavailable is returned when a detector backend cannot serve a request.
var ErrUnavailable = errors.New("detector unavailable")

// Face is a single detected face in sensor coordinates.
type Face struct {
	Bounds           geometry.Rect  `json:"bounds"`
	MouthPosition    geometry.Point `json:"mouth_position"`
	HasMouthPosition bool           `json:"has_mouth_position"`
	HasSmile         bool           `json:"has_smile"`
	LeftEyeClosed    bool           `json:"left_eye_closed"`
	RightEyeClosed   bool           `json:"right_eye_closed"`
	Score            float64        `json:"score"`
}

// Options selects the auxiliary classifications a detector should run.
type Options struct {
	Smile    bool
	EyeBlink bool
}

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the faces found in it.
	// Returns an empty slice if no faces are detected.
	Detect(frame *gocv.Mat, code orientation.Code, opts Options) ([]Face, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Backend names a detector implementation.
type Backend string

const (
	BackendCascade Backend = "cascade"
	BackendPigo    Backend = "pigo"
	BackendService Backend = "service"
	BackendMock    Backend = "mock"
)

// Accuracy trades detection quality for speed. It selects the image pyramid
// step, the cascade grouping threshold and the pigo window shift unless
// ScaleFactor or MinNeighbors are set explicitly. The zero value is low.
type Accuracy string

const (
	AccuracyLow  Accuracy = "low"
	AccuracyHigh Accuracy = "high"
)

type tuning struct {
	scaleFactor  float64
	minNeighbors int
	shiftFactor  float64
}

func (a Accuracy) tuning() tuning {
	if a == AccuracyHigh {
		return tuning{scaleFactor: 1.05, minNeighbors: 5, shiftFactor: 0.05}
	}
	return tuning{scaleFactor: 1.2, minNeighbors: 3, shiftFactor: 0.15}
}

// Config holds configuration options for face detection.
type Config struct {
	Backend  Backend
	Accuracy Accuracy

	// FaceCascade, SmileCascade and EyeCascade are OpenCV Haar cascade files
	// for the cascade backend. Smile and eye cascades are optional.
	FaceCascade  string
	SmileCascade string
	EyeCascade   string

	// PigoCascade is the pigo facefinder cascade for the pigo backend.
	PigoCascade string

	// ServiceScript is the face service script for the service backend.
	// ServicePython overrides the interpreter.
	ServiceScript string
	ServicePython string

	// MinFaceSize is the smallest face, in pixels, worth reporting.
	MinFaceSize int

	// ScaleFactor is the image pyramid step for cascade and pigo backends.
	// Values <= 1 use the Accuracy default.
	ScaleFactor float64

	// MinNeighbors is the cascade backend's detection grouping threshold.
	// Values <= 0 use the Accuracy default.
	MinNeighbors int

	// MinQuality drops pigo detections below this score.
	MinQuality float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendCascade,
		Accuracy:    AccuracyLow,
		FaceCascade: "haarcascade_frontalface_default.xml",
		MinFaceSize: 40,
		MinQuality:  5.0,
	}
}

func (c Config) scaleFactor() float64 {
	if c.ScaleFactor > 1 {
		return c.ScaleFactor
	}
	return c.Accuracy.tuning().scaleFactor
}

func (c Config) minNeighbors() int {
	if c.MinNeighbors > 0 {
		return c.MinNeighbors
	}
	return c.Accuracy.tuning().minNeighbors
}

func (c Config) shiftFactor() float64 {
	return c.Accuracy.tuning().shiftFactor
}

// New creates the detector selected by cfg.Backend.
func New(cfg Config) (Detector, error) {
	switch cfg.Accuracy {
	case "", AccuracyLow, AccuracyHigh:
	default:
		return nil, fmt.Errorf("unknown detector accuracy %q", cfg.Accuracy)
	}

	switch cfg.Backend {
	case BackendCascade, "":
		return NewCascadeDetector(cfg)
	case BackendPigo:
		return NewPigoDetector(cfg)
	case BackendService:
		return NewServiceDetector(cfg)
	case BackendMock:
		return NewMockDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

// rectFromMinMax converts integer pixel bounds into a geometry.Rect.
func rectFromMinMax(minX, minY, maxX, maxY int) geometry.Rect {
	return geometry.Rect{
		X:      float64(minX),
		Y:      float64(minY),
		Width:  float64(maxX - minX),
		Height: float64(maxY - minY),
	}
}

// estimateMouth places the mouth in the lower part of a face box, used by
// backends that have no landmark model.
func estimateMouth(face geometry.Rect) geometry.Point {
	return geometry.Point{
		X: face.X + face.Width/2,
		Y: face.Y + face.Height*0.78,
	}
}
