package tracker

import (
	"fmt"

	"github.com/ayusman/facetrack/internal/detector"
)

// detailsFormat is the overlay label layout. The space before each newline is
// part of the format.
const detailsFormat = "has smile :%t \nhas closed left eye :%t \nhas closed right eye :%t"

// FormatDetails renders the smile and blink flags of face as overlay text.
func FormatDetails(face detector.Face) string {
	return fmt.Sprintf(detailsFormat, face.HasSmile, face.LeftEyeClosed, face.RightEyeClosed)
}
