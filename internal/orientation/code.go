package orientation

// Code is a pixel orientation code (EXIF numbering) telling a detector how
// the raw frame is rotated relative to upright.
type Code int

// Codes produced by PixelCode.
const (
	CodeUp            Code = 1
	CodeDown          Code = 3
	CodeRotatedRight  Code = 6
	CodeRotatedLeft   Code = 8
	DefaultPixelCode       = CodeRotatedRight
)

// PixelCode maps a device orientation to the detector's pixel orientation
// code. Portrait, face up, face down and unknown readings all map to 6.
func PixelCode(o Orientation) Code {
	switch o {
	case PortraitUpsideDown:
		return CodeRotatedLeft
	case LandscapeLeft:
		return CodeDown
	case LandscapeRight:
		return CodeUp
	default:
		return DefaultPixelCode
	}
}

// Rotation is the clockwise rotation, in degrees, that brings a frame tagged
// with this code upright.
type Rotation int

// Rotation returns how a detector must rotate a raw frame before looking for
// faces. Codes outside the four produced by PixelCode need no rotation.
func (c Code) Rotation() Rotation {
	switch c {
	case CodeDown:
		return 180
	case CodeRotatedRight:
		return 90
	case CodeRotatedLeft:
		return 270
	default:
		return 0
	}
}
