// Package calibration guides the operator through corner and pinch capture
// and derives the active region and pinch threshold from the samples.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/cursor"
)

const (
	// RegionCaptureSeconds is how long a corner must be held before the
	// fingertip position is captured.
	RegionCaptureSeconds = 2
	// DistanceCaptureSeconds is how long open-hand and pinch distances
	// are accumulated before averaging.
	DistanceCaptureSeconds = 3

	// thresholdBias places the derived threshold between the pinch and
	// open averages, closer to the pinch.
	thresholdBias = 0.35
	// minThreshold is the smallest derivable pinch threshold in pixels.
	minThreshold = 5.0
	// minSeparation is the least the open average must exceed the pinch
	// average for a threshold to be derivable.
	minSeparation = 1.0
)

// Calibration errors.
var (
	ErrCaptureInProgress   = errors.New("calibration: capture already in progress")
	ErrTopLeftNotSet       = errors.New("calibration: top-left corner not captured yet")
	ErrOpenHandNotSampled  = errors.New("calibration: open-hand distance not sampled yet")
	ErrNoSamples           = errors.New("calibration: no samples collected")
	ErrDistancesTooClose   = errors.New("calibration: open and pinch distances too close")
	ErrRegionIncomplete    = errors.New("calibration: both corners are required")
	ErrRegionDegenerate    = errors.New("calibration: captured region is too small")
	ErrThresholdNotDerived = errors.New("calibration: no threshold derived")
	ErrNothingToApply      = errors.New("calibration: nothing captured to apply")
)

// State identifies what the session is currently waiting for.
type State int

const (
	// StateIdle means no capture is armed.
	StateIdle State = iota
	// StateWaitingTopLeft is the top-left corner hold.
	StateWaitingTopLeft
	// StateWaitingBottomRight is the bottom-right corner hold.
	StateWaitingBottomRight
	// StateWaitingOpenHand is the open-hand distance sampling window.
	StateWaitingOpenHand
	// StateWaitingPinch is the pinch distance sampling window.
	StateWaitingPinch
)

func (s State) String() string {
	switch s {
	case StateWaitingTopLeft:
		return "waiting-top-left"
	case StateWaitingBottomRight:
		return "waiting-bottom-right"
	case StateWaitingOpenHand:
		return "waiting-open-hand"
	case StateWaitingPinch:
		return "waiting-pinch"
	default:
		return "idle"
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Step identifies one capture phase by its wire name.
type Step string

// Capture steps accepted by StartStep.
const (
	StepTopLeft     Step = "top-left"
	StepBottomRight Step = "bottom-right"
	StepOpenHand    Step = "open-hand"
	StepPinch       Step = "pinch"
)

// Observation is the per-tick input the control loop feeds an open session.
type Observation struct {
	// Fingertip is the normalized index fingertip, nil when no hand was
	// detected this tick.
	Fingertip *cursor.Point
	// PinchDistance is the thumb-index distance in frame pixels, +Inf
	// when undetected.
	PinchDistance float64
}

// Status is a value snapshot of session progress for operator surfaces.
type Status struct {
	State            State         `json:"state"`
	Remaining        int           `json:"remaining_ticks"`
	RemainingSeconds int           `json:"remaining_seconds"`
	TopLeft          *cursor.Point `json:"top_left,omitempty"`
	BottomRight      *cursor.Point `json:"bottom_right,omitempty"`
	OpenAvg          *float64      `json:"open_avg,omitempty"`
	PinchAvg         *float64      `json:"pinch_avg,omitempty"`
	NewThreshold     *float64      `json:"new_threshold,omitempty"`
	Message          string        `json:"message"`
}

// Session is the calibration state machine. It is driven one Update per
// control-loop tick. Not safe for concurrent use; the orchestrator owns it.
type Session struct {
	state     State
	countdown int
	targetFPS int

	topLeft     *cursor.Point
	bottomRight *cursor.Point

	openSamples  []float64
	pinchSamples []float64
	openAvg      *float64
	pinchAvg     *float64

	newThreshold *float64
	deriveErr    error

	message string
}

// NewSession creates an idle session. targetFPS sizes the capture
// countdowns in ticks; values below 1 are treated as 1.
func NewSession(targetFPS int) *Session {
	if targetFPS < 1 {
		targetFPS = 1
	}
	return &Session{state: StateIdle, targetFPS: targetFPS, message: "ready"}
}

// StartTopLeft arms the top-left corner capture.
func (s *Session) StartTopLeft() error {
	if s.state != StateIdle {
		return ErrCaptureInProgress
	}
	s.state = StateWaitingTopLeft
	s.countdown = RegionCaptureSeconds * s.targetFPS
	s.topLeft = nil
	s.message = "hold top-left corner"
	return nil
}

// StartBottomRight arms the bottom-right corner capture. The top-left
// corner must be captured first.
func (s *Session) StartBottomRight() error {
	if s.state != StateIdle {
		return ErrCaptureInProgress
	}
	if s.topLeft == nil {
		return ErrTopLeftNotSet
	}
	s.state = StateWaitingBottomRight
	s.countdown = RegionCaptureSeconds * s.targetFPS
	s.bottomRight = nil
	s.message = "hold bottom-right corner"
	return nil
}

// StartOpenHand arms open-hand distance sampling.
func (s *Session) StartOpenHand() error {
	if s.state != StateIdle {
		return ErrCaptureInProgress
	}
	s.state = StateWaitingOpenHand
	s.countdown = DistanceCaptureSeconds * s.targetFPS
	s.openSamples = s.openSamples[:0]
	s.openAvg = nil
	s.message = "hold hand open, fingers spread"
	return nil
}

// StartStep begins the capture phase named by step.
func (s *Session) StartStep(step Step) error {
	switch step {
	case StepTopLeft:
		return s.StartTopLeft()
	case StepBottomRight:
		return s.StartBottomRight()
	case StepOpenHand:
		return s.StartOpenHand()
	case StepPinch:
		return s.StartPinch()
	default:
		return fmt.Errorf("calibration: unknown step %q", step)
	}
}

// StartPinch arms pinch distance sampling. Open-hand sampling must have
// produced an average first.
func (s *Session) StartPinch() error {
	if s.state != StateIdle {
		return ErrCaptureInProgress
	}
	if s.openAvg == nil {
		return ErrOpenHandNotSampled
	}
	s.state = StateWaitingPinch
	s.countdown = DistanceCaptureSeconds * s.targetFPS
	s.pinchSamples = s.pinchSamples[:0]
	s.pinchAvg = nil
	s.newThreshold = nil
	s.deriveErr = nil
	s.message = "hold thumb and index pinched"
	return nil
}

// Confirm short-circuits a corner hold: the next valid tick drops the
// countdown to zero and the one after captures.
func (s *Session) Confirm() {
	if s.state == StateWaitingTopLeft || s.state == StateWaitingBottomRight {
		s.countdown = 1
	}
}

// Cancel aborts the capture in flight. Captured corners and averages are
// kept.
func (s *Session) Cancel() {
	s.state = StateIdle
	s.countdown = 0
	s.message = "capture cancelled"
}

// Update advances the state machine by one tick. The countdown moves only
// on ticks with usable input: corner states capture a single point on the
// first valid tick after the countdown expires, while sampling states
// accumulate a distance sample with every decrement and average at expiry.
func (s *Session) Update(obs Observation) Status {
	switch s.state {
	case StateWaitingTopLeft, StateWaitingBottomRight:
		s.updateCorner(obs)
	case StateWaitingOpenHand, StateWaitingPinch:
		s.updateDistance(obs)
	}
	return s.Status()
}

func (s *Session) updateCorner(obs Observation) {
	if obs.Fingertip == nil {
		s.message = "hand not detected"
		return
	}
	if s.countdown > 0 {
		s.countdown--
		s.message = fmt.Sprintf("hold position, capturing in %ds", s.remainingSeconds())
		return
	}

	p := *obs.Fingertip
	if s.state == StateWaitingTopLeft {
		s.topLeft = &p
		s.message = fmt.Sprintf("top-left captured (%.3f, %.3f)", p.X, p.Y)
	} else {
		s.bottomRight = &p
		s.message = fmt.Sprintf("bottom-right captured (%.3f, %.3f)", p.X, p.Y)
	}
	s.state = StateIdle
	s.countdown = 0
}

func (s *Session) updateDistance(obs Observation) {
	if math.IsInf(obs.PinchDistance, 1) {
		s.message = "hand or pinch not clear"
		return
	}
	if s.countdown > 0 {
		s.countdown--
		if s.state == StateWaitingOpenHand {
			s.openSamples = append(s.openSamples, obs.PinchDistance)
		} else {
			s.pinchSamples = append(s.pinchSamples, obs.PinchDistance)
		}
		s.message = fmt.Sprintf("sampling, %ds left", s.remainingSeconds())
		return
	}

	if s.state == StateWaitingOpenHand {
		avg, err := mean(s.openSamples)
		if err != nil {
			s.message = "open-hand capture failed: no samples"
		} else {
			s.openAvg = &avg
			s.message = fmt.Sprintf("open-hand distance %.1fpx", avg)
		}
	} else {
		avg, err := mean(s.pinchSamples)
		if err != nil {
			s.message = "pinch capture failed: no samples"
		} else {
			s.pinchAvg = &avg
			s.message = fmt.Sprintf("pinch distance %.1fpx", avg)
			s.derive()
		}
	}
	s.state = StateIdle
	s.countdown = 0
}

func (s *Session) derive() {
	threshold, err := DeriveThreshold(*s.openAvg, *s.pinchAvg)
	if err != nil {
		s.deriveErr = err
		s.newThreshold = nil
		s.message = "distances too close, redo the open-hand and pinch captures"
		return
	}
	s.newThreshold = &threshold
	s.message = fmt.Sprintf("new pinch threshold %.2fpx", threshold)
}

func (s *Session) remainingSeconds() int {
	return s.countdown/s.targetFPS + 1
}

// Status returns a value snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		State:     s.state,
		Remaining: s.countdown,
		Message:   s.message,
	}
	if s.state != StateIdle {
		st.RemainingSeconds = s.remainingSeconds()
	}
	if s.topLeft != nil {
		p := *s.topLeft
		st.TopLeft = &p
	}
	if s.bottomRight != nil {
		p := *s.bottomRight
		st.BottomRight = &p
	}
	if s.openAvg != nil {
		v := *s.openAvg
		st.OpenAvg = &v
	}
	if s.pinchAvg != nil {
		v := *s.pinchAvg
		st.PinchAvg = &v
	}
	if s.newThreshold != nil {
		v := *s.newThreshold
		st.NewThreshold = &v
	}
	return st
}

// Region returns the sorted region built from the captured corners.
func (s *Session) Region() (cursor.ActiveRegion, error) {
	if s.topLeft == nil || s.bottomRight == nil {
		return cursor.ActiveRegion{}, ErrRegionIncomplete
	}
	r := cursor.RegionFromCorners(*s.topLeft, *s.bottomRight)
	if !r.Valid() {
		return cursor.ActiveRegion{}, fmt.Errorf("%w: spans %.3f x %.3f",
			ErrRegionDegenerate, r.XMax-r.XMin, r.YMax-r.YMin)
	}
	return r, nil
}

// Threshold returns the derived pinch threshold.
func (s *Session) Threshold() (float64, error) {
	if s.deriveErr != nil {
		return 0, s.deriveErr
	}
	if s.newThreshold == nil {
		return 0, ErrThresholdNotDerived
	}
	return *s.newThreshold, nil
}

// ClearCaptures wipes captured corners, samples, and derived values.
func (s *Session) ClearCaptures() {
	s.state = StateIdle
	s.countdown = 0
	s.topLeft = nil
	s.bottomRight = nil
	s.openSamples = nil
	s.pinchSamples = nil
	s.openAvg = nil
	s.pinchAvg = nil
	s.newThreshold = nil
	s.deriveErr = nil
	s.message = "captures cleared"
}

// DeriveThreshold computes the pinch threshold from the averaged open and
// pinch distances. The open average must exceed the pinch average by more
// than 1px; the result sits 35% of the way from pinch to open, floored at
// 5px.
func DeriveThreshold(openAvg, pinchAvg float64) (float64, error) {
	if openAvg <= pinchAvg+minSeparation {
		return 0, fmt.Errorf("%w: open %.1fpx, pinch %.1fpx",
			ErrDistancesTooClose, openAvg, pinchAvg)
	}
	threshold := pinchAvg + (openAvg-pinchAvg)*thresholdBias
	if threshold < minThreshold {
		threshold = minThreshold
	}
	return threshold, nil
}

func mean(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples)), nil
}
