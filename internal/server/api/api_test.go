package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/logging"
	"github.com/ayusman/facetrack/internal/orientation"
	"github.com/ayusman/facetrack/internal/overlay"
	"github.com/ayusman/facetrack/internal/store"
	"github.com/ayusman/facetrack/internal/tracker"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func TestDisplayHandler_Get(t *testing.T) {
	h := NewDisplayHandler(tracker.NewSurface(geometry.Size{Width: 400, Height: 800}), nil, newValidator(), logging.Discard())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/display", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response displayResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Width != 400 || response.Height != 800 || response.VideoBox != nil {
		t.Errorf("unexpected response %+v", response)
	}
}

func TestDisplayHandler_Put(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantSize   geometry.Size
	}{
		{
			name:       "valid size",
			body:       `{"width": 1080, "height": 1920}`,
			wantStatus: http.StatusOK,
			wantSize:   geometry.Size{Width: 1080, Height: 1920},
		},
		{
			name:       "zero width",
			body:       `{"width": 0, "height": 1920}`,
			wantStatus: http.StatusBadRequest,
			wantSize:   geometry.Size{Width: 400, Height: 800},
		},
		{
			name:       "negative height",
			body:       `{"width": 100, "height": -1}`,
			wantStatus: http.StatusBadRequest,
			wantSize:   geometry.Size{Width: 400, Height: 800},
		},
		{
			name:       "invalid json",
			body:       `{"width": `,
			wantStatus: http.StatusBadRequest,
			wantSize:   geometry.Size{Width: 400, Height: 800},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			surface := tracker.NewSurface(geometry.Size{Width: 400, Height: 800})
			h := NewDisplayHandler(surface, s, newValidator(), logging.Discard())

			req := httptest.NewRequest(http.MethodPut, "/api/display", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Put(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if got := surface.Get(); got != tt.wantSize {
				t.Errorf("surface = %+v, want %+v", got, tt.wantSize)
			}

			stored, err := s.Settings().DisplaySize()
			if tt.wantStatus == http.StatusOK {
				if err != nil || stored != tt.wantSize {
					t.Errorf("stored = %+v, %v; want %+v", stored, err, tt.wantSize)
				}
			} else if err == nil {
				t.Error("rejected request should not be persisted")
			}
		})
	}
}

func TestDisplayHandler_ValidationFields(t *testing.T) {
	h := NewDisplayHandler(tracker.NewSurface(geometry.Size{Width: 1, Height: 1}), nil, newValidator(), logging.Discard())

	rec := httptest.NewRecorder()
	h.Put(rec, httptest.NewRequest(http.MethodPut, "/api/display", bytes.NewBufferString(`{"width": -5, "height": 10}`)))

	var response errorResponse
	json.NewDecoder(rec.Body).Decode(&response)

	if len(response.Fields) != 1 || response.Fields[0] != "width: gt" {
		t.Errorf("unexpected validation fields %v", response.Fields)
	}
}

func TestDisplayHandler_VideoBox(t *testing.T) {
	h := NewDisplayHandler(tracker.NewSurface(geometry.Size{Width: 400, Height: 800}), nil, nil, logging.Discard())

	t.Run("scenario from portrait surface", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.VideoBox(rec, httptest.NewRequest(http.MethodGet, "/api/display/videobox?width=640&height=480", nil))

		var response displayResponse
		json.NewDecoder(rec.Body).Decode(&response)

		want := geometry.Rect{X: 100, Y: 0, Width: 600, Height: 800}
		if response.VideoBox == nil || *response.VideoBox != want {
			t.Errorf("video box = %v, want %+v", response.VideoBox, want)
		}
	})

	t.Run("bad query", func(t *testing.T) {
		for _, q := range []string{"", "?width=640", "?width=0&height=480", "?width=abc&height=1"} {
			rec := httptest.NewRecorder()
			h.VideoBox(rec, httptest.NewRequest(http.MethodGet, "/api/display/videobox"+q, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("query %q: expected 400, got %d", q, rec.Code)
			}
		}
	})
}

func TestOrientationHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       orientation.Orientation
		wantCode   orientation.Code
	}{
		{"upside down", `{"orientation": "portrait-upside-down"}`, http.StatusOK, orientation.PortraitUpsideDown, orientation.CodeRotatedLeft},
		{"underscores", `{"orientation": "LANDSCAPE_RIGHT"}`, http.StatusOK, orientation.LandscapeRight, orientation.CodeUp},
		{"face up", `{"orientation": "face-up"}`, http.StatusOK, orientation.FaceUp, orientation.CodeRotatedRight},
		{"unknown name", `{"orientation": "sideways"}`, http.StatusBadRequest, orientation.Portrait, orientation.CodeRotatedRight},
		{"missing", `{}`, http.StatusBadRequest, orientation.Portrait, orientation.CodeRotatedRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			tr := orientation.NewTracker(orientation.Portrait)
			h := NewOrientationHandler(tr, s, newValidator(), logging.Discard())

			rec := httptest.NewRecorder()
			h.Put(rec, httptest.NewRequest(http.MethodPut, "/api/orientation", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tr.Current() != tt.want {
				t.Errorf("tracker = %v, want %v", tr.Current(), tt.want)
			}

			rec = httptest.NewRecorder()
			h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))

			var response struct {
				Orientation string `json:"orientation"`
				Code        int    `json:"code"`
			}
			json.NewDecoder(rec.Body).Decode(&response)
			if response.Orientation != tt.want.String() || response.Code != int(tt.wantCode) {
				t.Errorf("GET response = %+v, want %s/%d", response, tt.want, tt.wantCode)
			}
		})
	}
}

func TestOverlayHandler(t *testing.T) {
	latest := overlay.NewLatest()
	h := NewOverlayHandler(latest)

	latest.ShowFace(geometry.Rect{X: 1, Y: 2, Width: 3, Height: 4}, "has smile :true")

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/overlay", nil))

	var response struct {
		Visible bool          `json:"visible"`
		Rect    geometry.Rect `json:"rect"`
		Text    string        `json:"text"`
		Updates int           `json:"updates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Visible || response.Text != "has smile :true" || response.Updates != 1 {
		t.Errorf("unexpected response %+v", response)
	}
	if response.Rect != (geometry.Rect{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Errorf("rect = %+v", response.Rect)
	}
}

func TestSettingsHandler(t *testing.T) {
	st := newTestStore(t)
	if err := st.Settings().SetDisplaySize(geometry.Size{Width: 1080, Height: 1920}); err != nil {
		t.Fatalf("SetDisplaySize() error = %v", err)
	}
	if err := st.Settings().SetOrientation(orientation.LandscapeLeft); err != nil {
		t.Fatalf("SetOrientation() error = %v", err)
	}

	h := NewSettingsHandler(st, logging.Discard())
	r := chi.NewRouter()
	r.Get("/api/settings", h.List)
	r.Delete("/api/settings/{key}", h.Delete)

	list := func() []store.Setting {
		t.Helper()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var response struct {
			Settings []store.Setting `json:"settings"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return response.Settings
	}

	settings := list()
	if len(settings) != 2 {
		t.Fatalf("expected 2 settings, got %+v", settings)
	}
	if settings[0].Key != store.KeyOrientation || settings[0].Value != "landscape-left" {
		t.Errorf("first setting = %+v", settings[0])
	}
	if settings[1].Key != store.KeyDisplaySize || settings[1].UpdatedAt.IsZero() {
		t.Errorf("second setting = %+v", settings[1])
	}

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"existing key", store.KeyOrientation, http.StatusNoContent},
		{"already deleted", store.KeyOrientation, http.StatusNotFound},
		{"unknown key", "camera.zoom", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/settings/"+tt.key, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	settings = list()
	if len(settings) != 1 || settings[0].Key != store.KeyDisplaySize {
		t.Errorf("expected only the display size to remain, got %+v", settings)
	}
}
