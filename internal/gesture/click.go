// Package gesture turns pinch distances into click events.
package gesture

import "time"

// Event is the action produced by one pinch observation.
type Event int

const (
	// EventNone means no click this tick.
	EventNone Event = iota
	// EventClick is a single left click.
	EventClick
	// EventDoubleClick is a double left click.
	EventDoubleClick
)

func (e Event) String() string {
	switch e {
	case EventClick:
		return "click"
	case EventDoubleClick:
		return "double-click"
	default:
		return "none"
	}
}

// PinchClicker is an edge-triggered click state machine. A pinch begins
// when the thumb-index distance drops below the threshold; only the rising
// edge produces an event. Two rising edges inside the double-click window
// pair into a double click.
type PinchClicker struct {
	threshold float64
	window    time.Duration

	pinching  bool
	lastClick time.Time
}

// NewPinchClicker creates a clicker with the given pinch distance threshold
// (frame pixels) and double-click pairing window.
func NewPinchClicker(threshold float64, window time.Duration) *PinchClicker {
	return &PinchClicker{threshold: threshold, window: window}
}

// Update observes one distance sample. An infinite distance (hand absent)
// is never below the threshold.
func (c *PinchClicker) Update(distance float64, now time.Time) Event {
	pinching := distance < c.threshold

	ev := EventNone
	if pinching && !c.pinching {
		if !c.lastClick.IsZero() && now.Sub(c.lastClick) < c.window {
			ev = EventDoubleClick
			// A third rapid pinch must not pair against this one.
			c.lastClick = time.Time{}
		} else {
			ev = EventClick
			c.lastClick = now
		}
	}
	c.pinching = pinching
	return ev
}

// Reset clears the edge tracker; a pinch held across a detection gap reads
// as a fresh edge. The click timestamp survives the gap.
func (c *PinchClicker) Reset() {
	c.pinching = false
}

// Pinching reports whether the last observation was below the threshold.
func (c *PinchClicker) Pinching() bool {
	return c.pinching
}

// SetThreshold updates the pinch distance threshold.
func (c *PinchClicker) SetThreshold(v float64) {
	c.threshold = v
}

// SetWindow updates the double-click pairing window.
func (c *PinchClicker) SetWindow(d time.Duration) {
	c.window = d
}
