package server

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ayusman/facetrack/internal/capture"
)

// Default MJPEG preview settings.
const (
	DefaultStreamFPS   = 10
	DefaultJPEGQuality = 80
)

// StreamHandler serves the latest processed frame as MJPEG.
type StreamHandler struct {
	preview *capture.Preview
	fps     float64
	quality int
}

// NewStreamHandler creates a StreamHandler. Zero fps or quality use the defaults.
func NewStreamHandler(preview *capture.Preview, fps float64, quality int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	return &StreamHandler{preview: preview, fps: fps, quality: quality}
}

// ServeHTTP streams MJPEG frames until the client goes away. Each client
// gets its own limiter; frames are only written when the preview changed.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	limiter := rate.NewLimiter(rate.Limit(h.fps), 1)
	flusher, _ := w.(http.Flusher)
	var last string

	for {
		if err := limiter.Wait(r.Context()); err != nil {
			return
		}

		data, id, err := h.preview.JPEG(h.quality)
		if err != nil || id.String() == last {
			continue
		}
		last = id.String()

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if flusher != nil {
			flusher.Flush()
		}
	}
}
