package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/logging"
)

// readRetryDelay is how long the stream waits after a failed camera read.
const readRetryDelay = 100 * time.Millisecond

// Stream reads frames from a camera on its own goroutine and hands them to a
// single consumer.
//
// The hand-off slot holds one frame. A frame read while the slot is still
// occupied is discarded (and its Mat closed) instead of queued, so a slow
// consumer always sees a recent frame and never a backlog.
type Stream struct {
	camera  Camera
	log     *logrus.Entry
	frames  chan Frame
	stopCh  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	read    atomic.Uint64
	dropped atomic.Uint64
}

// NewStream creates a Stream over camera. The camera must already be open
// when Start is called.
func NewStream(camera Camera, logger logrus.FieldLogger) *Stream {
	return &Stream{
		camera: camera,
		log:    logging.Component(logger, "capture"),
	}
}

// Start begins reading frames. It is a no-op if the stream is running.
func (s *Stream) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return
	}

	s.frames = make(chan Frame, 1)
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.frames, s.stopCh, s.done)
}

// Stop halts the reader goroutine and waits for it to exit. The Frames
// channel is closed once the reader is gone.
func (s *Stream) Stop() {
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh, s.done = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	<-done
}

// Frames returns the channel frames are delivered on. The consumer owns each
// received frame and must Close it.
func (s *Stream) Frames() <-chan Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Read returns the number of frames read from the camera.
func (s *Stream) Read() uint64 {
	return s.read.Load()
}

// Dropped returns the number of frames discarded because the consumer was busy.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Stream) run(frames chan Frame, stopCh, done chan struct{}) {
	defer close(done)
	defer close(frames)

	fps := s.camera.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		mat, err := s.camera.ReadFrame()
		if err != nil {
			s.log.WithError(err).Debug("camera read failed")
			select {
			case <-stopCh:
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		s.read.Add(1)
		frame := NewFrame(mat, time.Now())

		select {
		case frames <- frame:
		default:
			frame.Close()
			if n := s.dropped.Add(1); n%100 == 1 {
				s.log.WithField("dropped", n).Debug("discarding late frame")
			}
		}
	}
}
