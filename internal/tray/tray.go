// Package tray shows face tracking state in the system tray.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/facetrack/internal/geometry"
)

// detailSlots is the number of detail lines shown under the face status.
const detailSlots = 3

// Tray is the system tray menu. It is also an overlay presenter: the face
// status and detail lines follow the tracked face.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	status     string
	details    [detailSlots]string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuDetails [detailSlots]*systray.MenuItem
}

// New creates a new Tray with tracking enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  faceStatus(false, geometry.Rect{}),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("facetrack")
	systray.SetTooltip("facetrack face tracking")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle face tracking")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Tracked face")
	t.menuStatus.Disable()
	for i := range t.menuDetails {
		t.menuDetails[i] = systray.AddMenuItem(t.details[i], "")
		t.menuDetails[i].Disable()
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit facetrack")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// ShowFace updates the face status and detail lines.
func (t *Tray) ShowFace(rect geometry.Rect, text string) {
	t.set(faceStatus(true, rect), detailLines(text))
}

// HideFace resets the face status and clears the detail lines.
func (t *Tray) HideFace() {
	t.set(faceStatus(false, geometry.Rect{}), [detailSlots]string{})
}

func (t *Tray) set(status string, details [detailSlots]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	t.details = details

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(status)
	}
	for i, item := range t.menuDetails {
		if item == nil {
			continue
		}
		if details[i] == "" {
			item.Hide()
			continue
		}
		item.SetTitle(details[i])
		item.Show()
	}
}

// Status returns the face status line and detail lines currently shown.
func (t *Tray) Status() (string, []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, append([]string(nil), t.details[:]...)
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func faceStatus(visible bool, rect geometry.Rect) string {
	if !visible {
		return "Face: none"
	}
	size := rect.Size()
	return fmt.Sprintf("Face: %.0fx%.0f at (%.0f, %.0f)", size.Width, size.Height, rect.X, rect.Y)
}

// detailLines splits overlay text into at most detailSlots trimmed lines.
func detailLines(text string) [detailSlots]string {
	var lines [detailSlots]string
	i := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i == detailSlots {
			break
		}
		lines[i] = line
		i++
	}
	return lines
}
