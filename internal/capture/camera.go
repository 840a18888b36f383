// Package capture provides threaded camera frame acquisition using GoCV (OpenCV).
package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for camera device implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetResolution(width, height int)
	Resolution() (width, height int)
	IsOpen() bool
}

// webcam manages video capture from a camera device using GoCV.
type webcam struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewWebcam creates a Camera for the given device ID.
func NewWebcam(deviceID int) Camera {
	return &webcam{
		deviceID: deviceID,
	}
}

// Open opens the camera device. The capture size stays at the device
// default until SetResolution is called.
func (c *webcam) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return err
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *webcam) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *webcam) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetResolution requests a capture size from the device. Devices are free
// to ignore or adjust the request; Resolution reports what was granted.
func (c *webcam) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return
	}

	c.capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	c.capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
}

// Resolution returns the capture size the device is currently producing.
func (c *webcam) Resolution() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return 0, 0
	}

	return int(c.capture.Get(gocv.VideoCaptureFrameWidth)),
		int(c.capture.Get(gocv.VideoCaptureFrameHeight))
}

// IsOpen returns true if the camera is currently open and running.
func (c *webcam) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
