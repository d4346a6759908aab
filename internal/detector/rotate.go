package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

// uprightFrame holds a frame rotated so faces appear upright, plus what is
// needed to map results back into the original sensor coordinates.
type uprightFrame struct {
	Mat      gocv.Mat
	rotation orientation.Rotation
	width    float64 // sensor frame width
	height   float64 // sensor frame height
}

// newUprightFrame rotates src according to the pixel orientation code.
// The caller must Close the result.
func newUprightFrame(src gocv.Mat, code orientation.Code) *uprightFrame {
	u := &uprightFrame{
		Mat:      gocv.NewMat(),
		rotation: code.Rotation(),
		width:    float64(src.Cols()),
		height:   float64(src.Rows()),
	}

	switch u.rotation {
	case 90:
		gocv.Rotate(src, &u.Mat, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(src, &u.Mat, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(src, &u.Mat, gocv.Rotate90CounterClockwise)
	default:
		src.CopyTo(&u.Mat)
	}

	return u
}

// Close releases the rotated Mat.
func (u *uprightFrame) Close() error {
	return u.Mat.Close()
}

// toSensorRect maps a rectangle found in the upright frame back into sensor
// coordinates.
func (u *uprightFrame) toSensorRect(r geometry.Rect) geometry.Rect {
	return unrotateRect(r, u.rotation, u.width, u.height)
}

// toSensorPoint maps a point found in the upright frame back into sensor
// coordinates.
func (u *uprightFrame) toSensorPoint(p geometry.Point) geometry.Point {
	return unrotatePoint(p, u.rotation, u.width, u.height)
}

// unrotateRect inverts a clockwise rotation of a width x height frame.
func unrotateRect(r geometry.Rect, rotation orientation.Rotation, width, height float64) geometry.Rect {
	switch rotation {
	case 90:
		return geometry.Rect{X: r.Y, Y: height - r.MaxX(), Width: r.Height, Height: r.Width}
	case 180:
		return geometry.Rect{X: width - r.MaxX(), Y: height - r.MaxY(), Width: r.Width, Height: r.Height}
	case 270:
		return geometry.Rect{X: width - r.MaxY(), Y: r.X, Width: r.Height, Height: r.Width}
	default:
		return r
	}
}

func unrotatePoint(p geometry.Point, rotation orientation.Rotation, width, height float64) geometry.Point {
	switch rotation {
	case 90:
		return geometry.Point{X: p.Y, Y: height - p.X}
	case 180:
		return geometry.Point{X: width - p.X, Y: height - p.Y}
	case 270:
		return geometry.Point{X: width - p.Y, Y: p.X}
	default:
		return p
	}
}
