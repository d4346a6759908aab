package geometry

import "fmt"

// VideoBox computes the rectangle of a display surface that the camera image
// actually occupies when it is aspect-filled into the surface.
//
// The aperture is given in sensor orientation, which is rotated 90 degrees
// relative to the display, so its width is compared against the surface height
// and vice versa. Exactly one axis of the result equals the matching surface
// dimension. The other axis is derived from the aperture's aspect ratio and may
// be larger than the surface (overscan).
//
// Algorithm:
// 1. apertureRatio = aperture.H / aperture.W, viewRatio = frame.W / frame.H
// 2. If viewRatio > apertureRatio fit the surface width, otherwise fit its height
// 3. Offset each axis by half the difference between the box and the surface
func VideoBox(frameSize, apertureSize Size) (Rect, error) {
	if err := frameSize.Validate(); err != nil {
		return Rect{}, fmt.Errorf("frame size: %w", err)
	}
	if err := apertureSize.Validate(); err != nil {
		return Rect{}, fmt.Errorf("aperture size: %w", err)
	}

	apertureRatio := apertureSize.Height / apertureSize.Width
	viewRatio := frameSize.Width / frameSize.Height

	var size Size
	if viewRatio > apertureRatio {
		size.Width = frameSize.Width
		size.Height = apertureSize.Width * (frameSize.Width / apertureSize.Height)
	} else {
		size.Width = apertureSize.Height * (frameSize.Height / apertureSize.Width)
		size.Height = frameSize.Height
	}

	box := Rect{Width: size.Width, Height: size.Height}

	if size.Width < frameSize.Width {
		box.X = (frameSize.Width - size.Width) / 2
	} else {
		box.X = (size.Width - frameSize.Width) / 2
	}

	if size.Height < frameSize.Height {
		box.Y = (frameSize.Height - size.Height) / 2
	} else {
		box.Y = (size.Height - frameSize.Height) / 2
	}

	return box, nil
}
