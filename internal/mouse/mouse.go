// Package mouse moves and clicks the OS cursor.
package mouse

// Button identifies a mouse button. Values match what the underlying
// automation layer expects.
type Button string

const (
	// ButtonLeft is the primary button.
	ButtonLeft Button = "left"
	// ButtonRight is the secondary button.
	ButtonRight Button = "right"
	// ButtonMiddle is the wheel button.
	ButtonMiddle Button = "center"
)

// Actuator abstracts the pointer device so the control loop can run against
// a fake in tests.
type Actuator interface {
	// ScreenSize returns the primary display dimensions in pixels.
	ScreenSize() (width, height int)
	// Position returns the current cursor location.
	Position() (x, y int, err error)
	// MoveTo places the cursor at the given screen coordinates.
	MoveTo(x, y int) error
	// Click presses the given button; count 2 sends a double click.
	Click(button Button, count int) error
}
