// Package geometry maps face bounding boxes from camera sensor space into the
// coordinate space of a letterboxed preview surface.
//
// All coordinates are real-valued with a top-left origin, x increasing to the
// right and y increasing downward.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when a size or rectangle cannot be used for
// a transform (zero, negative or non-finite dimensions).
var ErrInvalidGeometry = errors.New("invalid geometry")

// Size is a width/height pair, used for display surfaces and frame apertures.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Point is a location in some coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate returns an error wrapping ErrInvalidGeometry unless both
// dimensions are finite and strictly positive.
func (s Size) Validate() error {
	if !finite(s.Width) || !finite(s.Height) {
		return fmt.Errorf("%w: non-finite size %vx%v", ErrInvalidGeometry, s.Width, s.Height)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size %vx%v must be positive", ErrInvalidGeometry, s.Width, s.Height)
	}
	return nil
}

// Validate checks that every field is finite and the dimensions are not
// negative. Origins may be negative.
func (r Rect) Validate() error {
	if !finite(r.X) || !finite(r.Y) || !finite(r.Width) || !finite(r.Height) {
		return fmt.Errorf("%w: non-finite rect %+v", ErrInvalidGeometry, r)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: rect %+v has negative size", ErrInvalidGeometry, r)
	}
	return nil
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 {
	return r.X + r.Width
}

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 {
	return r.Y + r.Height
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
