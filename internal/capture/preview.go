package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"gocv.io/x/gocv"
)

// ErrNoPreview is returned when no frame has been published yet.
var ErrNoPreview = errors.New("no preview frame")

// Preview keeps a copy of the most recently processed frame for the MJPEG
// preview. It is safe for concurrent use.
type Preview struct {
	mu  sync.Mutex
	mat gocv.Mat
	id  ulid.ULID
	has bool
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Publish stores a copy of frame. The caller keeps ownership of frame.
func (p *Preview) Publish(frame Frame) {
	if frame.Mat == nil || frame.Mat.Empty() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.has {
		frame.Mat.CopyTo(&p.mat)
	} else {
		p.mat = frame.Mat.Clone()
		p.has = true
	}
	p.id = frame.ID
}

// JPEG encodes the latest frame. quality is clamped to 1..100.
func (p *Preview) JPEG(quality int) ([]byte, ulid.ULID, error) {
	quality = max(1, min(quality, 100))

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.has {
		return nil, ulid.ULID{}, ErrNoPreview
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, p.mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, ulid.ULID{}, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, p.id, nil
}

// Close releases the stored frame.
func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.has {
		return nil
	}
	p.has = false
	return p.mat.Close()
}
