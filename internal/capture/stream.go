package capture

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// QueueCapacity bounds the frames held between producer and consumer.
	// When the queue is full the producer idles; frames are never dropped
	// once queued.
	QueueCapacity = 5

	readTimeout   = 50 * time.Millisecond
	queueFullWait = 1 * time.Millisecond
	grabRetryWait = 100 * time.Millisecond
	stopJoinWait  = 1 * time.Second

	// resolutionTolerance is the relative deviation from the requested
	// capture size above which the device default is used instead.
	resolutionTolerance = 0.5
)

// ErrDeviceUnavailable is returned by Start when the camera cannot deliver
// usable frames.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// ErrNoFrame is returned by Read when no frame arrives within the read
// timeout. It is transient; callers retry on their next tick.
var ErrNoFrame = errors.New("no frame available")

// Frame is one captured image. The consumer owns the Mat and must Close it.
type Frame struct {
	Mat       *gocv.Mat
	Width     int
	Height    int
	Timestamp time.Time
}

// Close releases the underlying Mat.
func (f *Frame) Close() {
	if f.Mat != nil {
		f.Mat.Close()
		f.Mat = nil
	}
}

// Stream reads frames from a Camera on a producer goroutine and hands them
// to a single consumer through a bounded FIFO queue.
type Stream struct {
	camera Camera

	mu      sync.Mutex
	running bool
	width   int
	height  int
	frames  chan Frame
	stop    chan struct{}
	done    chan struct{}
}

// NewStream creates a stream over the given camera. Start launches it.
func NewStream(camera Camera) *Stream {
	return &Stream{camera: camera}
}

// Start opens the device, negotiates the capture resolution and launches
// the producer goroutine. Calling Start on a running stream is a no-op.
func (s *Stream) Start(requestedW, requestedH int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("%w: open: %v", ErrDeviceUnavailable, err)
	}

	defaultW, defaultH := s.camera.Resolution()

	s.camera.SetResolution(requestedW, requestedH)
	actualW, actualH := s.camera.Resolution()

	if !resolutionUsable(actualW, actualH, requestedW, requestedH) {
		log.Printf("Camera negotiated %dx%d for requested %dx%d, reverting to device default %dx%d",
			actualW, actualH, requestedW, requestedH, defaultW, defaultH)
		s.camera.SetResolution(defaultW, defaultH)
		actualW, actualH = s.camera.Resolution()
	}

	if actualW <= 0 || actualH <= 0 {
		s.camera.Close()
		return fmt.Errorf("%w: no usable resolution (got %dx%d)", ErrDeviceUnavailable, actualW, actualH)
	}

	first, err := s.camera.ReadFrame()
	if err != nil {
		s.camera.Close()
		return fmt.Errorf("%w: initial frame: %v", ErrDeviceUnavailable, err)
	}

	s.width = actualW
	s.height = actualH
	s.frames = make(chan Frame, QueueCapacity)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.frames <- Frame{Mat: first, Width: actualW, Height: actualH, Timestamp: time.Now()}
	s.running = true

	go s.produce(s.frames, s.stop, s.done)

	return nil
}

// produce grabs frames as fast as the device yields them. A full queue
// means the consumer is behind, so the producer idles rather than reading
// frames it would have to throw away.
func (s *Stream) produce(frames chan Frame, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if len(frames) == cap(frames) {
			time.Sleep(queueFullWait)
			continue
		}

		mat, err := s.camera.ReadFrame()
		if err != nil {
			log.Printf("Frame grab failed: %v", err)
			time.Sleep(grabRetryWait)
			continue
		}

		frames <- Frame{Mat: mat, Width: s.width, Height: s.height, Timestamp: time.Now()}
	}
}

// Read returns the oldest queued frame. A stopped stream only drains what
// remains; a running stream waits up to the read timeout before returning
// ErrNoFrame.
func (s *Stream) Read() (Frame, error) {
	s.mu.Lock()
	frames := s.frames
	running := s.running
	s.mu.Unlock()

	if frames == nil {
		return Frame{}, ErrNoFrame
	}

	if !running {
		select {
		case f := <-frames:
			return f, nil
		default:
			return Frame{}, ErrNoFrame
		}
	}

	timer := time.NewTimer(readTimeout)
	defer timer.Stop()

	select {
	case f := <-frames:
		return f, nil
	case <-timer.C:
		return Frame{}, ErrNoFrame
	}
}

// Stop signals the producer, waits for it to exit, closes the device and
// releases any queued frames. Safe to call on a stopped stream, and Start
// may be called again afterwards.
func (s *Stream) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	frames := s.frames
	s.mu.Unlock()

	select {
	case <-done:
	case <-time.After(stopJoinWait):
		log.Printf("Capture producer did not stop within %v", stopJoinWait)
	}

	if err := s.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	for {
		select {
		case f := <-frames:
			f.Close()
		default:
			return
		}
	}
}

// Running reports whether the producer is active.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ActualResolution reports the negotiated capture size.
func (s *Stream) ActualResolution() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func resolutionUsable(actualW, actualH, requestedW, requestedH int) bool {
	if actualW <= 0 || actualH <= 0 {
		return false
	}
	return deviation(actualW, requestedW) <= resolutionTolerance &&
		deviation(actualH, requestedH) <= resolutionTolerance
}

// deviation is the relative difference between granted and requested size.
// A non-positive request reads as "use whatever the device gives".
func deviation(actual, requested int) float64 {
	if requested <= 0 {
		return 0
	}
	return math.Abs(float64(actual-requested)) / float64(requested)
}
