// Package orientation converts physical device orientation readings into the
// pixel orientation codes understood by face detectors.
package orientation

import (
	"fmt"
	"strings"
)

// Orientation is a physical device orientation reading.
type Orientation int

// Device orientations, in the order reported by the device collaborator.
const (
	Unknown Orientation = iota
	Portrait
	PortraitUpsideDown
	// LandscapeLeft is the device rotated so that its top faces left.
	LandscapeLeft
	// LandscapeRight is the device rotated so that its top faces right.
	LandscapeRight
	FaceUp
	FaceDown
)

var names = map[Orientation]string{
	Unknown:            "unknown",
	Portrait:           "portrait",
	PortraitUpsideDown: "portrait-upside-down",
	LandscapeLeft:      "landscape-left",
	LandscapeRight:     "landscape-right",
	FaceUp:             "face-up",
	FaceDown:           "face-down",
}

// String returns the orientation's wire name.
func (o Orientation) String() string {
	if name, ok := names[o]; ok {
		return name
	}
	return fmt.Sprintf("orientation(%d)", int(o))
}

// Parse returns the Orientation for a wire name such as "landscape-left".
// Matching is case-insensitive and accepts underscores in place of dashes.
func Parse(s string) (Orientation, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for o, name := range names {
		if name == key {
			return o, nil
		}
	}
	return Unknown, fmt.Errorf("unknown orientation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
