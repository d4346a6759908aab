package overlay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/logging"
)

// DefaultBuffer is the number of updates a Dispatcher queues before dropping.
const DefaultBuffer = 16

// Dispatcher moves presenter calls off the processing goroutine. ShowFace and
// HideFace enqueue without blocking; a single goroutine applies the queued
// updates to the downstream presenter in order. When the queue is full the
// oldest queued update is evicted, so the newest update always survives.
type Dispatcher struct {
	target  Presenter
	log     *logrus.Entry
	updates chan Update
	stopCh  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	sendMu  sync.Mutex
	frameID atomic.Value
	dropped atomic.Uint64
}

// NewDispatcher creates a Dispatcher for target. A buffer of zero or less
// uses DefaultBuffer.
func NewDispatcher(target Presenter, buffer int, logger logrus.FieldLogger) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Dispatcher{
		target:  target,
		log:     logging.Component(logger, "overlay"),
		updates: make(chan Update, buffer),
	}
}

// Start launches the presentation goroutine. It is a no-op when running.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopCh != nil {
		return
	}
	d.stopCh = make(chan struct{})
	d.done = make(chan struct{})
	go d.run(d.stopCh, d.done)
}

// Stop applies whatever is still queued, then stops the presentation goroutine.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	stopCh, done := d.stopCh, d.done
	d.stopCh, d.done = nil, nil
	d.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

// SetFrame tags subsequent updates with the frame they were computed from.
func (d *Dispatcher) SetFrame(id ulid.ULID) {
	d.frameID.Store(id)
}

func (d *Dispatcher) ShowFace(rect geometry.Rect, text string) {
	d.enqueue(Update{Visible: true, Rect: rect, Text: text})
}

func (d *Dispatcher) HideFace() {
	d.enqueue(Update{})
}

// Dropped returns the number of queued updates evicted to make room for newer ones.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) enqueue(u Update) {
	u.At = time.Now()
	if id, ok := d.frameID.Load().(ulid.ULID); ok {
		u.FrameID = id
	}

	// sendMu pairs each eviction with the send that needed the room.
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	for {
		select {
		case d.updates <- u:
			return
		default:
		}

		select {
		case <-d.updates:
			if n := d.dropped.Add(1); n%50 == 1 {
				d.log.WithField("dropped", n).Warn("overlay queue full, evicting oldest update")
			}
		default:
		}
	}
}

func (d *Dispatcher) run(stopCh, done chan struct{}) {
	defer close(done)

	for {
		select {
		case u := <-d.updates:
			d.apply(u)
		case <-stopCh:
			for {
				select {
				case u := <-d.updates:
					d.apply(u)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) apply(u Update) {
	present(d.target, u)
}

// FramePresenter is implemented by presenters that want the full Update,
// including frame id and timestamp, instead of ShowFace/HideFace calls.
type FramePresenter interface {
	Present(u Update)
}
