package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// readyTimeout bounds how long the service gets to load the MediaPipe
	// graph and report ready. The first load downloads model files and can
	// take several seconds.
	readyTimeout = 15 * time.Second

	// idleShutdownAfter is how long the service may sit unused before its
	// process is stopped. Detect restarts it on demand.
	idleShutdownAfter = 30 * time.Second
)

// MediaPipeDetector implements Detector over a Python MediaPipe subprocess.
// Frames go down its stdin as length-prefixed JPEG, landmark sets come back
// as JSON lines.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	pythonPath string

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector locates the hand service script and starts it,
// waiting until the service reports ready. A missing script or a Python
// environment without MediaPipe fails here rather than on the first frame,
// so callers can fall back to another detector.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findHandServiceScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("hand_service.py not found")
	}

	d := &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: findPython(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.start(); err != nil {
		return nil, err
	}
	return d, nil
}

// Detect analyzes a frame and returns the most confident detected hand,
// or nil when the frame contains none.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		// The service was stopped after sitting idle.
		if err := d.start(); err != nil {
			return nil, err
		}
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := d.writeFrame(buf.GetBytes()); err != nil {
		return nil, err
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []serviceHand `json:"hands"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	d.resetIdleTimer()

	if len(response.Hands) == 0 {
		return nil, nil
	}

	// The service orders hands by score; the cursor follows the first.
	hand := response.Hands[0].toHandLandmarks()
	return &hand, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// writeFrame sends one request: a 4-byte big-endian length, then the JPEG
// bytes.
func (d *MediaPipeDetector) writeFrame(data []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))
	if _, err := d.stdin.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return fmt.Errorf("write frame data: %w", err)
	}
	return nil
}

// start spawns the service and blocks until its ready event arrives.
// Callers hold d.mu.
func (d *MediaPipeDetector) start() error {
	cmd := exec.Command(d.pythonPath, d.scriptPath,
		fmt.Sprintf("--model-complexity=%d", d.config.ModelComplexity),
		fmt.Sprintf("--max-hands=%d", d.config.MaxHands),
		fmt.Sprintf("--min-detection-confidence=%g", d.config.MinDetectionConfidence),
		fmt.Sprintf("--min-tracking-confidence=%g", d.config.MinTrackingConfidence),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start hand service: %w", err)
	}

	reader := bufio.NewReader(stdout)
	if err := waitReady(reader); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = reader
	d.started = true
	d.resetIdleTimer()
	return nil
}

// waitReady consumes the service's first line, which must be the ready
// event.
func waitReady(reader *bufio.Reader) error {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("hand service exited before ready: %w", r.err)
		}
		var event struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal([]byte(r.line), &event); err != nil || event.Event != "ready" {
			return fmt.Errorf("unexpected hand service greeting %q", r.line)
		}
		return nil
	case <-time.After(readyTimeout):
		return fmt.Errorf("hand service not ready after %s", readyTimeout)
	}
}

// shutdown closes the service's stdin and waits for it to exit. The service
// exits cleanly on EOF. Callers hold d.mu.
func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()

	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdownAfter, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// findHandServiceScript looks for scripts/hand_service.py near the working
// directory, next to the executable, and under the data directory.
func findHandServiceScript() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/hand_service.py",
		"../scripts/hand_service.py",
		filepath.Join(execDir, "scripts/hand_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/hand_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findPython picks the interpreter for the service: the MUDRA_PYTHON
// override first, then a project or data-directory virtualenv, then
// whatever python3 is on PATH.
func findPython() string {
	if p := os.Getenv("MUDRA_PYTHON"); p != "" {
		return p
	}

	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return "python3"
}

// serviceHand is one hand in the service's JSON response.
type serviceHand struct {
	Points     []servicePoint `json:"points"`
	Handedness string         `json:"handedness"`
	Score      float64        `json:"score"`
}

type servicePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h serviceHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		lm.Points[i] = Point3D{
			X: h.Points[i].X,
			Y: h.Points[i].Y,
			Z: h.Points[i].Z,
		}
	}
	return lm
}
