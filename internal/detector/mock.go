package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

// Call records the arguments of one Detect call on a MockDetector.
type Call struct {
	Code    orientation.Code
	Options Options
}

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces []Face
	err   error
	calls []Call
	mu    sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat, code orientation.Code, opts Options) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Code: code, Options: opts})

	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Calls returns a copy of the recorded Detect calls.
func (m *MockDetector) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SmilingFace returns a preset Face for a smiling subject with the right eye
// closed, sized for a 640x480 sensor frame.
func SmilingFace() Face {
	return Face{
		Bounds:           geometry.Rect{X: 200, Y: 120, Width: 180, Height: 200},
		MouthPosition:    geometry.Point{X: 290, Y: 276},
		HasMouthPosition: true,
		HasSmile:         true,
		LeftEyeClosed:    false,
		RightEyeClosed:   true,
		Score:            0.95,
	}
}

// NeutralFace returns a preset Face with no smile and both eyes open.
func NeutralFace() Face {
	return Face{
		Bounds:           geometry.Rect{X: 60, Y: 40, Width: 120, Height: 140},
		MouthPosition:    geometry.Point{X: 120, Y: 150},
		HasMouthPosition: true,
		Score:            0.9,
	}
}
