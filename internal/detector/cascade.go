package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

// CascadeDetector implements Detector with OpenCV Haar cascades.
//
// Faces come from the face cascade. When configured, a smile cascade runs on
// the lower half of each face and an eye cascade on the upper half. An eye is
// reported closed when no open eye is found on its side of the face, where
// "left" is the left side of the upright image.
type CascadeDetector struct {
	config Config
	face   gocv.CascadeClassifier
	smile  *gocv.CascadeClassifier
	eye    *gocv.CascadeClassifier
	mu     sync.Mutex
}

// NewCascadeDetector loads the configured cascade files.
func NewCascadeDetector(config Config) (*CascadeDetector, error) {
	if config.FaceCascade == "" {
		return nil, fmt.Errorf("%w: no face cascade configured", ErrUnavailable)
	}

	d := &CascadeDetector{
		config: config,
		face:   gocv.NewCascadeClassifier(),
	}

	if !d.face.Load(config.FaceCascade) {
		d.face.Close()
		return nil, fmt.Errorf("%w: load face cascade %s", ErrUnavailable, config.FaceCascade)
	}

	if config.SmileCascade != "" {
		c, err := loadCascade(config.SmileCascade)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.smile = c
	}

	if config.EyeCascade != "" {
		c, err := loadCascade(config.EyeCascade)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.eye = c
	}

	return d, nil
}

func loadCascade(path string) (*gocv.CascadeClassifier, error) {
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, fmt.Errorf("%w: load cascade %s", ErrUnavailable, path)
	}
	return &c, nil
}

// Detect finds faces in the frame after rotating it upright.
func (d *CascadeDetector) Detect(frame *gocv.Mat, code orientation.Code, opts Options) ([]Face, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrUnavailable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	upright := newUprightFrame(gray, code)
	defer upright.Close()

	gocv.EqualizeHist(upright.Mat, &upright.Mat)

	minSize := image.Pt(d.config.MinFaceSize, d.config.MinFaceSize)
	rects := d.face.DetectMultiScaleWithParams(upright.Mat, d.config.scaleFactor(), d.config.minNeighbors(), 0, minSize, image.Point{})

	faces := make([]Face, 0, len(rects))
	for _, r := range rects {
		bounds := rectFromMinMax(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
		mouth := estimateMouth(bounds)

		face := Face{Score: 1}

		if opts.Smile && d.smile != nil {
			if smile, ok := d.findSmile(upright.Mat, r); ok {
				face.HasSmile = true
				mouth = smile.Center()
			}
		}

		if opts.EyeBlink && d.eye != nil {
			face.LeftEyeClosed, face.RightEyeClosed = d.eyesClosed(upright.Mat, r)
		}

		face.Bounds = upright.toSensorRect(bounds)
		face.MouthPosition = upright.toSensorPoint(mouth)
		face.HasMouthPosition = true

		faces = append(faces, face)
	}

	return faces, nil
}

// findSmile looks for a smile in the lower half of the face.
func (d *CascadeDetector) findSmile(img gocv.Mat, face image.Rectangle) (geometry.Rect, bool) {
	lower := image.Rect(face.Min.X, face.Min.Y+face.Dy()/2, face.Max.X, face.Max.Y)

	roi := img.Region(lower)
	defer roi.Close()

	minSize := image.Pt(face.Dx()/4, face.Dy()/8)
	smiles := d.smile.DetectMultiScaleWithParams(roi, 1.7, 20, 0, minSize, image.Point{})
	if len(smiles) == 0 {
		return geometry.Rect{}, false
	}

	s := smiles[0]
	return rectFromMinMax(lower.Min.X+s.Min.X, lower.Min.Y+s.Min.Y, lower.Min.X+s.Max.X, lower.Min.Y+s.Max.Y), true
}

// eyesClosed reports, per side of the upper half of the face, whether no
// open eye was found.
func (d *CascadeDetector) eyesClosed(img gocv.Mat, face image.Rectangle) (left, right bool) {
	upper := image.Rect(face.Min.X, face.Min.Y, face.Max.X, face.Min.Y+face.Dy()/2)

	roi := img.Region(upper)
	defer roi.Close()

	minSize := image.Pt(face.Dx()/8, face.Dy()/8)
	eyes := d.eye.DetectMultiScaleWithParams(roi, 1.1, 6, 0, minSize, image.Point{})

	left, right = true, true
	mid := upper.Dx() / 2
	for _, e := range eyes {
		cx := (e.Min.X + e.Max.X) / 2
		if cx < mid {
			left = false
		} else {
			right = false
		}
	}
	return left, right
}

// Close releases the loaded cascades.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.face.Close()
	if d.smile != nil {
		d.smile.Close()
		d.smile = nil
	}
	if d.eye != nil {
		d.eye.Close()
		d.eye = nil
	}
	return nil
}
