package orientation

import "sync/atomic"

// Source reports the current device orientation. It is polled once per frame.
type Source interface {
	Current() Orientation
}

// Fixed is a Source that always reports the same orientation.
type Fixed Orientation

// Current returns the fixed orientation.
func (f Fixed) Current() Orientation {
	return Orientation(f)
}

// Tracker is a Source whose reading is updated by the device collaborator.
// It is safe for concurrent use.
type Tracker struct {
	current atomic.Int32
}

// NewTracker creates a Tracker starting at the given orientation.
func NewTracker(initial Orientation) *Tracker {
	t := &Tracker{}
	t.Set(initial)
	return t
}

// Set records a new orientation reading.
func (t *Tracker) Set(o Orientation) {
	t.current.Store(int32(o))
}

// Current returns the latest reading.
func (t *Tracker) Current() Orientation {
	return Orientation(t.current.Load())
}
