package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ayusman/facetrack/internal/geometry"
)

// parseSize reads width and height query parameters into size.
func parseSize(r *http.Request, size *geometry.Size) error {
	q := r.URL.Query()
	w, err := strconv.ParseFloat(q.Get("width"), 64)
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	h, err := strconv.ParseFloat(q.Get("height"), 64)
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	size.Width, size.Height = w, h
	return nil
}
