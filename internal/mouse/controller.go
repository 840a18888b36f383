package mouse

import "github.com/go-vgo/robotgo"

// Controller drives the real cursor through robotgo.
type Controller struct {
	screenW int
	screenH int
}

// NewController reads the primary display size once and returns a
// controller clamped to it.
func NewController() *Controller {
	w, h := robotgo.GetScreenSize()
	return &Controller{screenW: w, screenH: h}
}

// ScreenSize returns the primary display dimensions.
func (c *Controller) ScreenSize() (int, int) {
	return c.screenW, c.screenH
}

// Position returns the current cursor location.
func (c *Controller) Position() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

// MoveTo clamps the target into the physical screen and moves the cursor.
func (c *Controller) MoveTo(x, y int) error {
	robotgo.Move(clampInt(x, 0, c.screenW-1), clampInt(y, 0, c.screenH-1))
	return nil
}

// Click presses button; count 2 sends a double click.
func (c *Controller) Click(button Button, count int) error {
	robotgo.Click(string(button), count == 2)
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
