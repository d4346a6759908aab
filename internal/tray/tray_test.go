package tray

import (
	"testing"

	"github.com/ayusman/facetrack/internal/geometry"
)

func TestDetailLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [detailSlots]string
	}{
		{
			name: "overlay details",
			text: "has smile :true \nhas closed left eye :false \nhas closed right eye :true",
			want: [detailSlots]string{"has smile :true", "has closed left eye :false", "has closed right eye :true"},
		},
		{
			name: "empty",
			text: "",
			want: [detailSlots]string{},
		},
		{
			name: "extra lines are dropped",
			text: "a\n\nb\nc\nd",
			want: [detailSlots]string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detailLines(tt.text); got != tt.want {
				t.Errorf("detailLines(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTray_Presenter(t *testing.T) {
	tr := New()

	status, details := tr.Status()
	if status != "Face: none" || details[0] != "" {
		t.Fatalf("unexpected initial status %q %q", status, details)
	}

	tr.ShowFace(geometry.Rect{X: 187.5, Y: 125, Width: 200, Height: 250}, "has smile :true \nhas closed left eye :false \nhas closed right eye :true")

	status, details = tr.Status()
	if status != "Face: 200x250 at (188, 125)" {
		t.Errorf("status = %q", status)
	}
	if details[0] != "has smile :true" || details[2] != "has closed right eye :true" {
		t.Errorf("details = %q", details)
	}

	tr.HideFace()
	status, details = tr.Status()
	if status != "Face: none" || details[1] != "" {
		t.Errorf("status after hide = %q %q", status, details)
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	if !tr.IsEnabled() {
		t.Fatal("tray should start enabled")
	}

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("tray should be enabled after two toggles")
	}
}

func TestTray_SettingsCallback(t *testing.T) {
	tr := New()

	called := false
	tr.OnSettings(func() { called = true })
	tr.handleSettings()

	if !called {
		t.Error("settings callback not called")
	}
}
