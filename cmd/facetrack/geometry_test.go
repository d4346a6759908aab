package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ayusman/facetrack/internal/geometry"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    geometry.Size
		wantErr bool
	}{
		{"400x800", geometry.Size{Width: 400, Height: 800}, false},
		{"640X480", geometry.Size{Width: 640, Height: 480}, false},
		{"1.5x2", geometry.Size{Width: 1.5, Height: 2}, false},
		{"400", geometry.Size{}, true},
		{"axb", geometry.Size{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSize(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRect(t *testing.T) {
	got, err := parseRect("100, 50,200,160")
	if err != nil {
		t.Fatalf("parseRect() error = %v", err)
	}
	if got != (geometry.Rect{X: 100, Y: 50, Width: 200, Height: 160}) {
		t.Errorf("parseRect() = %+v", got)
	}

	if _, err := parseRect("1,2,3"); err == nil {
		t.Error("expected error for three values")
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVideoboxCommand(t *testing.T) {
	out, err := runCommand(t, "videobox", "400x800", "640x480")
	if err != nil {
		t.Fatalf("videobox error = %v", err)
	}
	if strings.TrimSpace(out) != "x=100 y=0 width=600 height=800" {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := runCommand(t, "videobox", "0x800", "640x480"); err == nil {
		t.Error("expected error for zero surface")
	}
}

func TestMapCommand(t *testing.T) {
	out, err := runCommand(t, "map", "100,50,200,160", "400x800", "640x480")
	if err != nil {
		t.Fatalf("map error = %v", err)
	}
	if strings.TrimSpace(out) != "x=187.5 y=125 width=200 height=250" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMapCommand_NegativeOrigin(t *testing.T) {
	out, err := runCommand(t, "map", "--", "-5,-5,10,10", "400x800", "640x480")
	if err != nil {
		t.Fatalf("map error = %v", err)
	}
	if strings.TrimSpace(out) != "x=350 y=-6.25 width=12.5 height=12.5" {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := runCommand(t, "map", "-5,-5,10,10", "400x800", "640x480"); err == nil {
		t.Error("expected a flag error without --")
	}

	if !strings.Contains(mapCmd.Long, "facetrack map -- -5,-5,10,10") {
		t.Error("map help does not show the -- form")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "facetrack dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPreviewURL(t *testing.T) {
	if got := previewURL(":8080"); got != "http://localhost:8080/" {
		t.Errorf("previewURL(:8080) = %q", got)
	}
	if got := previewURL("127.0.0.1:9000"); got != "http://127.0.0.1:9000/" {
		t.Errorf("previewURL(127.0.0.1:9000) = %q", got)
	}
}
