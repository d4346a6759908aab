// Package overlay carries face overlay updates from the frame processor to
// whatever draws them.
package overlay

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ayusman/facetrack/internal/geometry"
)

// Presenter draws the face overlay. Implementations are driven from a single
// goroutine by the Dispatcher and need no locking of their own unless they
// are also read from elsewhere.
type Presenter interface {
	ShowFace(rect geometry.Rect, text string)
	HideFace()
}

// Update is one overlay state change.
type Update struct {
	Visible bool          `json:"visible"`
	Rect    geometry.Rect `json:"rect"`
	Text    string        `json:"text,omitempty"`
	FrameID ulid.ULID     `json:"frame_id"`
	At      time.Time     `json:"at"`
}

// Apply replays u onto p.
func (u Update) Apply(p Presenter) {
	if u.Visible {
		p.ShowFace(u.Rect, u.Text)
		return
	}
	p.HideFace()
}

// Latest remembers the most recent update. It is safe for concurrent use.
type Latest struct {
	mu     sync.RWMutex
	update Update
	count  uint64
}

// NewLatest returns a Latest holding a hidden overlay.
func NewLatest() *Latest {
	return &Latest{}
}

func (l *Latest) ShowFace(rect geometry.Rect, text string) {
	l.Present(Update{Visible: true, Rect: rect, Text: text, At: time.Now()})
}

func (l *Latest) HideFace() {
	l.Present(Update{At: time.Now()})
}

// Present stores u as the latest update.
func (l *Latest) Present(u Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.update = u
	l.count++
}

// Get returns the last applied update and how many updates have been applied.
func (l *Latest) Get() (Update, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.update, l.count
}

// Multi fans every call out to its presenters in order.
type Multi []Presenter

func (m Multi) ShowFace(rect geometry.Rect, text string) {
	for _, p := range m {
		p.ShowFace(rect, text)
	}
}

func (m Multi) HideFace() {
	for _, p := range m {
		p.HideFace()
	}
}

// Present hands u to every presenter, keeping the frame id for those that
// accept full updates.
func (m Multi) Present(u Update) {
	for _, p := range m {
		present(p, u)
	}
}

func present(p Presenter, u Update) {
	if fp, ok := p.(FramePresenter); ok {
		fp.Present(u)
		return
	}
	u.Apply(p)
}
