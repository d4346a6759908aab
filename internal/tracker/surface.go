package tracker

import (
	"fmt"
	"sync"

	"github.com/ayusman/facetrack/internal/geometry"
)

// Surface holds the current display surface size. It is written by the HTTP
// API and read once per frame by the pipeline.
type Surface struct {
	mu   sync.RWMutex
	size geometry.Size
}

// NewSurface returns a Surface starting at size.
func NewSurface(size geometry.Size) *Surface {
	return &Surface{size: size}
}

// Get returns the current surface size.
func (s *Surface) Get() geometry.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Set replaces the surface size. Invalid sizes are rejected.
func (s *Surface) Set(size geometry.Size) error {
	if err := size.Validate(); err != nil {
		return fmt.Errorf("display surface: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
	return nil
}
