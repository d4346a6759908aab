package detector

import (
	"fmt"
	"os"
	"sync"

	pigo "github.com/esimov/pigo/core"
	"gocv.io/x/gocv"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

// Pigo detection parameters
const (
	pigoMaxSize      = 1000
	pigoIoUThreshold = 0.2
)

// PigoDetector implements Detector with the pure-Go pigo cascade.
// Pigo only finds faces; smile and blink flags are always false.
type PigoDetector struct {
	config     Config
	classifier *pigo.Pigo
	mu         sync.Mutex
}

// NewPigoDetector unpacks the pigo facefinder cascade from config.PigoCascade.
func NewPigoDetector(config Config) (*PigoDetector, error) {
	if config.PigoCascade == "" {
		return nil, fmt.Errorf("%w: no pigo cascade configured", ErrUnavailable)
	}

	cascadeFile, err := os.ReadFile(config.PigoCascade)
	if err != nil {
		return nil, fmt.Errorf("%w: read cascade file: %w", ErrUnavailable, err)
	}

	return newPigoDetector(config, cascadeFile)
}

func newPigoDetector(config Config, cascade []byte) (*PigoDetector, error) {
	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack cascade: %w", ErrUnavailable, err)
	}

	return &PigoDetector{
		config:     config,
		classifier: classifier,
	}, nil
}

// Detect runs the pigo cascade over the upright grayscale frame.
func (d *PigoDetector) Detect(frame *gocv.Mat, code orientation.Code, opts Options) ([]Face, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrUnavailable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.classifier == nil {
		return nil, fmt.Errorf("%w: detector closed", ErrUnavailable)
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	upright := newUprightFrame(gray, code)
	defer upright.Close()

	rows, cols := upright.Mat.Rows(), upright.Mat.Cols()
	pixels := upright.Mat.ToBytes()

	params := pigo.CascadeParams{
		MinSize:     d.minSize(),
		MaxSize:     pigoMaxSize,
		ShiftFactor: d.config.shiftFactor(),
		ScaleFactor: d.config.scaleFactor(),
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoUThreshold)

	return d.toFaces(dets, upright), nil
}

// toFaces converts pigo detections (center row/col and diameter) into faces
// in sensor coordinates.
func (d *PigoDetector) toFaces(dets []pigo.Detection, upright *uprightFrame) []Face {
	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if float64(det.Q) < d.config.MinQuality {
			continue
		}

		half := float64(det.Scale) / 2
		bounds := geometry.Rect{
			X:      float64(det.Col) - half,
			Y:      float64(det.Row) - half,
			Width:  float64(det.Scale),
			Height: float64(det.Scale),
		}

		faces = append(faces, Face{
			Bounds:           upright.toSensorRect(bounds),
			MouthPosition:    upright.toSensorPoint(estimateMouth(bounds)),
			HasMouthPosition: true,
			Score:            float64(det.Q),
		})
	}
	return faces
}

func (d *PigoDetector) minSize() int {
	if d.config.MinFaceSize <= 0 {
		return 20
	}
	return d.config.MinFaceSize
}

// Close drops the classifier.
func (d *PigoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classifier = nil
	return nil
}
