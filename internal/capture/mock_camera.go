package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera synthesizes frames at its current resolution for testing.
// Whether it honors resolution requests is configurable, as is failure
// injection for Open and ReadFrame.
type MockCamera struct {
	mu      sync.Mutex
	running bool

	width  int
	height int
	honor  bool

	requestedW int
	requestedH int

	openErr error
	readErr error
	reads   int
}

// NewMockCamera creates a mock device with the given native resolution.
// When honorRequests is false the device keeps its native size no matter
// what SetResolution asks for, like a webcam with a fixed sensor mode.
func NewMockCamera(width, height int, honorRequests bool) *MockCamera {
	return &MockCamera{
		width:  width,
		height: height,
		honor:  honorRequests,
	}
}

// SetOpenError makes the next Open calls fail with err.
func (c *MockCamera) SetOpenError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// SetReadError makes ReadFrame fail with err until cleared.
func (c *MockCamera) SetReadError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// Reads returns how many frames have been read successfully.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// LastRequested returns the most recent SetResolution arguments.
func (c *MockCamera) LastRequested() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestedW, c.requestedH
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openErr != nil {
		return c.openErr
	}

	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// ReadFrame returns a synthesized frame at the current resolution.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.readErr != nil {
		return nil, c.readErr
	}

	mat := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
	c.reads++

	return &mat, nil
}

func (c *MockCamera) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestedW = width
	c.requestedH = height

	if c.honor {
		c.width = width
		c.height = height
	}
}

func (c *MockCamera) Resolution() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
