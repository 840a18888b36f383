package app

import (
	"time"

	"github.com/ayusman/mudra/internal/calibration"
)

// Status is a point-in-time snapshot of the orchestrator for the HTTP and
// websocket surfaces.
type Status struct {
	ControlActive   bool                `json:"control_active"`
	CalibrationOpen bool                `json:"calibration_open"`
	Calibration     *calibration.Status `json:"calibration,omitempty"`
	HandDetected    bool                `json:"hand_detected"`
	Pinching        bool                `json:"pinching"`
	LastEvent       string              `json:"last_event"`
	LastEventAt     *time.Time          `json:"last_event_at,omitempty"`
	FPS             float64             `json:"fps"`
	FrameWidth      int                 `json:"frame_width"`
	FrameHeight     int                 `json:"frame_height"`
	Message         string              `json:"message"`
	Profile         Profile             `json:"profile"`
}

// Profile holds the per-stage durations of the last processed tick, in
// milliseconds.
type Profile struct {
	ReadMs      float64 `json:"read_ms"`
	FlipMs      float64 `json:"flip_ms"`
	DetectMs    float64 `json:"detect_ms"`
	CalibrateMs float64 `json:"calibrate_ms"`
	MapMs       float64 `json:"map_ms"`
	SmoothMs    float64 `json:"smooth_ms"`
	ActuateMs   float64 `json:"actuate_ms"`
	DrawMs      float64 `json:"draw_ms"`
	TotalMs     float64 `json:"total_ms"`
}
