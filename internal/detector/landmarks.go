// Package detector provides hand landmark detection from video frames.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a single landmark position. X and Y are normalized to
// the frame (0.0-1.0), Z is relative depth with the wrist as origin.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// PinchInfo describes the thumb-index pinch geometry for one frame, in
// frame pixel coordinates.
type PinchInfo struct {
	IndexX   float64
	IndexY   float64
	ThumbX   float64
	ThumbY   float64
	Distance float64
}

// FingertipNormalized returns the normalized position of the given landmark.
// ok is false when the receiver is nil or the joint index is out of range.
func (h *HandLandmarks) FingertipNormalized(jointID int) (x, y float64, ok bool) {
	if h == nil || jointID < 0 || jointID >= NumLandmarks {
		return 0, 0, false
	}
	p := h.Points[jointID]
	return p.X, p.Y, true
}

// FingertipPixel returns the landmark position scaled to frame pixels.
func (h *HandLandmarks) FingertipPixel(frameW, frameH, jointID int) (x, y float64, ok bool) {
	nx, ny, ok := h.FingertipNormalized(jointID)
	if !ok {
		return 0, 0, false
	}
	return nx * float64(frameW), ny * float64(frameH), true
}

// PinchInfo measures the thumb-index gap in frame pixels. A nil receiver
// reports an infinite distance, which no pinch threshold can satisfy.
func (h *HandLandmarks) PinchInfo(frameW, frameH int) PinchInfo {
	ix, iy, ok := h.FingertipPixel(frameW, frameH, IndexTip)
	if !ok {
		return PinchInfo{Distance: math.Inf(1)}
	}
	tx, ty, _ := h.FingertipPixel(frameW, frameH, ThumbTip)
	return PinchInfo{
		IndexX:   ix,
		IndexY:   iy,
		ThumbX:   tx,
		ThumbY:   ty,
		Distance: math.Hypot(tx-ix, ty-iy),
	}
}
