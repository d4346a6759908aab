package detector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gocv.io/x/gocv"

	"github.com/ayusman/facetrack/internal/geometry"
	"github.com/ayusman/facetrack/internal/orientation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// serviceIdleTimeout stops the face service after this long without requests.
const serviceIdleTimeout = 30 * time.Second

// ServiceDetector implements Detector using an external face service process.
//
// Each request is a length-prefixed JSON header followed by a length-prefixed
// JPEG of the raw frame (both lengths 4 bytes big-endian). The service
// answers with one JSON line listing faces in sensor coordinates.
type ServiceDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewServiceDetector creates a new service detector.
// The service process is started lazily on first detection.
func NewServiceDetector(config Config) (*ServiceDetector, error) {
	script := config.ServiceScript
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, fmt.Errorf("%w: face_service.py not found", ErrUnavailable)
	}

	return &ServiceDetector{
		config: config,
		script: script,
	}, nil
}

type serviceRequest struct {
	Orientation int  `json:"orientation"`
	Smile       bool `json:"smile"`
	EyeBlink    bool `json:"eye_blink"`
}

// Detect sends a frame to the service and returns the faces it reports.
func (d *ServiceDetector) Detect(frame *gocv.Mat, code orientation.Code, opts Options) ([]Face, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrUnavailable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	header, err := json.Marshal(serviceRequest{
		Orientation: int(code),
		Smile:       opts.Smile,
		EyeBlink:    opts.EyeBlink,
	})
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeChunk(d.stdin, header); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("%w: write header: %w", ErrUnavailable, err)
	}
	if err := writeChunk(d.stdin, buf.GetBytes()); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("%w: write frame: %w", ErrUnavailable, err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.shutdown()
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	faces, err := parseServiceResponse(line)
	if err != nil {
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return faces, nil
}

// Close shuts down the service process.
func (d *ServiceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func writeChunk(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func (d *ServiceDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := d.config.ServicePython
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.script)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start face service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *ServiceDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *ServiceDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/face_service.py",
		"../scripts/face_service.py",
		filepath.Join(execDir, "scripts/face_service.py"),
		filepath.Join(os.Getenv("HOME"), ".facetrack/scripts/face_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".facetrack/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonFace represents the JSON structure from the face service.
type jsonFace struct {
	Bounds         geometry.Rect   `json:"bounds"`
	Mouth          *geometry.Point `json:"mouth"`
	HasSmile       bool            `json:"has_smile"`
	LeftEyeClosed  bool            `json:"left_eye_closed"`
	RightEyeClosed bool            `json:"right_eye_closed"`
	Score          float64         `json:"score"`
}

func (f jsonFace) toFace() Face {
	face := Face{
		Bounds:         f.Bounds,
		HasSmile:       f.HasSmile,
		LeftEyeClosed:  f.LeftEyeClosed,
		RightEyeClosed: f.RightEyeClosed,
		Score:          f.Score,
	}
	if f.Mouth != nil {
		face.MouthPosition = *f.Mouth
		face.HasMouthPosition = true
	}
	return face
}

func parseServiceResponse(line []byte) ([]Face, error) {
	var response struct {
		Faces []jsonFace `json:"faces"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, response.Error)
	}

	faces := make([]Face, len(response.Faces))
	for i, f := range response.Faces {
		faces[i] = f.toFace()
	}
	return faces, nil
}
