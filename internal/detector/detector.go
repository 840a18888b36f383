package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the most confident hand.
	// Returns nil when no hand is detected.
	Detect(frame *gocv.Mat) (*HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// ModelComplexity selects the MediaPipe model variant (0 or 1).
	ModelComplexity int

	// MaxHands is the maximum number of hands to track.
	MaxHands int

	// MinDetectionConfidence is the detection confidence threshold (0.0-1.0).
	MinDetectionConfidence float64

	// MinTrackingConfidence is the tracking confidence threshold (0.0-1.0).
	MinTrackingConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity:        0,
		MaxHands:               1,
		MinDetectionConfidence: 0.6,
		MinTrackingConfidence:  0.5,
	}
}
