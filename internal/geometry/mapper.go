package geometry

import "fmt"

// MapToDisplay converts a detector bounding box from sensor space into the
// coordinate space of the display surface, mirrored horizontally for a
// front-facing camera.
//
// The sensor is mounted rotated 90 degrees relative to the display, so the
// box's axes are swapped before being scaled into the video box. This is a
// fixed property of the capture pipeline and does not depend on the current
// device orientation.
func MapToDisplay(raw Rect, surfaceSize, apertureSize Size) (Rect, error) {
	if err := raw.Validate(); err != nil {
		return Rect{}, fmt.Errorf("raw bounds: %w", err)
	}

	box, err := VideoBox(surfaceSize, apertureSize)
	if err != nil {
		return Rect{}, err
	}

	face := raw
	face.Width, face.Height = face.Height, face.Width
	face.X, face.Y = face.Y, face.X

	widthScale := box.Width / apertureSize.Height
	heightScale := box.Height / apertureSize.Width

	face.Width *= widthScale
	face.Height *= heightScale
	face.X *= widthScale
	face.Y *= heightScale

	// Only the vertical letterbox offset is applied here; the horizontal one
	// enters through the mirror below.
	face.Y += box.Y

	return Rect{
		X:      surfaceSize.Width - face.X - face.Width/2 - box.X/2,
		Y:      face.Y,
		Width:  face.Width,
		Height: face.Height,
	}, nil
}
