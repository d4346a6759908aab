// Package config loads facetrack settings from a YAML file, a .env file and
// FACETRACK_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/facetrack/internal/detector"
	"github.com/ayusman/facetrack/internal/geometry"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "FACETRACK_"

type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Display  DisplayConfig  `yaml:"display"`
	Detector DetectorConfig `yaml:"detector"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Overlay  OverlayConfig  `yaml:"overlay"`
}

type CameraConfig struct {
	DeviceID int `yaml:"device_id" validate:"gte=0"`
	Width    int `yaml:"width" validate:"gt=0"`
	Height   int `yaml:"height" validate:"gt=0"`
	FPS      int `yaml:"fps" validate:"gt=0,lte=240"`
}

// DisplayConfig is the preview surface the overlay is drawn on, and the
// device orientation used until the device reports one.
type DisplayConfig struct {
	Width       float64 `yaml:"width" validate:"gt=0"`
	Height      float64 `yaml:"height" validate:"gt=0"`
	Orientation string  `yaml:"orientation" validate:"omitempty,oneof=unknown portrait portrait-upside-down landscape-left landscape-right face-up face-down"`
}

// Size returns the display surface as a geometry.Size.
func (d DisplayConfig) Size() geometry.Size {
	return geometry.Size{Width: d.Width, Height: d.Height}
}

type DetectorConfig struct {
	Backend       string  `yaml:"backend" validate:"oneof=cascade pigo service mock"`
	Accuracy      string  `yaml:"accuracy" validate:"oneof=low high"`
	FaceCascade   string  `yaml:"face_cascade"`
	SmileCascade  string  `yaml:"smile_cascade"`
	EyeCascade    string  `yaml:"eye_cascade"`
	PigoCascade   string  `yaml:"pigo_cascade"`
	ServiceScript string  `yaml:"service_script"`
	ServicePython string  `yaml:"service_python"`
	MinFaceSize   int     `yaml:"min_face_size" validate:"gte=0"`
	ScaleFactor   float64 `yaml:"scale_factor" validate:"omitempty,gt=1"`
	MinNeighbors  int     `yaml:"min_neighbors" validate:"gte=0"`
	MinQuality    float64 `yaml:"min_quality" validate:"gte=0"`
}

// Detector converts the section into a detector.Config.
func (d DetectorConfig) Detector() detector.Config {
	return detector.Config{
		Backend:       detector.Backend(d.Backend),
		Accuracy:      detector.Accuracy(d.Accuracy),
		FaceCascade:   d.FaceCascade,
		SmileCascade:  d.SmileCascade,
		EyeCascade:    d.EyeCascade,
		PigoCascade:   d.PigoCascade,
		ServiceScript: d.ServiceScript,
		ServicePython: d.ServicePython,
		MinFaceSize:   d.MinFaceSize,
		ScaleFactor:   d.ScaleFactor,
		MinNeighbors:  d.MinNeighbors,
		MinQuality:    d.MinQuality,
	}
}

type ServerConfig struct {
	Addr        string        `yaml:"addr" validate:"required"`
	StaticDir   string        `yaml:"static_dir"`
	StreamFPS   float64       `yaml:"stream_fps" validate:"gt=0"`
	JPEGQuality int           `yaml:"jpeg_quality" validate:"gte=1,lte=100"`
	Shutdown    time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level    string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	File     string `yaml:"file"`
	NoColors bool   `yaml:"no_colors"`
}

type OverlayConfig struct {
	Buffer int  `yaml:"buffer" validate:"gte=1"`
	Tray   bool `yaml:"tray"`
}

// Default returns the built-in configuration.
func Default() Config {
	det := detector.DefaultConfig()
	return Config{
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    640,
			Height:   480,
			FPS:      30,
		},
		Display: DisplayConfig{
			Width:       720,
			Height:      1280,
			Orientation: "portrait",
		},
		Detector: DetectorConfig{
			Backend:       string(det.Backend),
			Accuracy:      string(det.Accuracy),
			FaceCascade:   det.FaceCascade,
			SmileCascade:  det.SmileCascade,
			EyeCascade:    det.EyeCascade,
			PigoCascade:   det.PigoCascade,
			ServiceScript: det.ServiceScript,
			ServicePython: det.ServicePython,
			MinFaceSize:   det.MinFaceSize,
			ScaleFactor:   det.ScaleFactor,
			MinNeighbors:  det.MinNeighbors,
			MinQuality:    det.MinQuality,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8080",
			StreamFPS:   10,
			JPEGQuality: 80,
			Shutdown:    5 * time.Second,
		},
		Store: StoreConfig{
			Path: "facetrack.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Overlay: OverlayConfig{
			Buffer: 16,
		},
	}
}

// NewValidator returns the validator used for config and API payloads.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Load builds the configuration. A missing path or .env file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := NewValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overrides cfg from FACETRACK_* variables.
func applyEnv(cfg *Config) error {
	var errs []error

	envInt("CAMERA_DEVICE_ID", &cfg.Camera.DeviceID, &errs)
	envInt("CAMERA_WIDTH", &cfg.Camera.Width, &errs)
	envInt("CAMERA_HEIGHT", &cfg.Camera.Height, &errs)
	envInt("CAMERA_FPS", &cfg.Camera.FPS, &errs)

	envFloat("DISPLAY_WIDTH", &cfg.Display.Width, &errs)
	envFloat("DISPLAY_HEIGHT", &cfg.Display.Height, &errs)
	envString("DISPLAY_ORIENTATION", &cfg.Display.Orientation)

	envString("DETECTOR_BACKEND", &cfg.Detector.Backend)
	envString("DETECTOR_ACCURACY", &cfg.Detector.Accuracy)
	envString("DETECTOR_FACE_CASCADE", &cfg.Detector.FaceCascade)
	envString("DETECTOR_SMILE_CASCADE", &cfg.Detector.SmileCascade)
	envString("DETECTOR_EYE_CASCADE", &cfg.Detector.EyeCascade)
	envString("DETECTOR_PIGO_CASCADE", &cfg.Detector.PigoCascade)
	envString("DETECTOR_SERVICE_SCRIPT", &cfg.Detector.ServiceScript)
	envString("DETECTOR_SERVICE_PYTHON", &cfg.Detector.ServicePython)

	envString("SERVER_ADDR", &cfg.Server.Addr)
	envString("SERVER_STATIC_DIR", &cfg.Server.StaticDir)
	envFloat("SERVER_STREAM_FPS", &cfg.Server.StreamFPS, &errs)

	envString("STORE_PATH", &cfg.Store.Path)

	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FILE", &cfg.Log.File)
	envBool("LOG_NO_COLORS", &cfg.Log.NoColors, &errs)

	envInt("OVERLAY_BUFFER", &cfg.Overlay.Buffer, &errs)
	envBool("OVERLAY_TRAY", &cfg.Overlay.Tray, &errs)

	return errors.Join(errs...)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int, errs *[]error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64, errs *[]error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = f
}

func envBool(key string, dst *bool, errs *[]error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = b
}
