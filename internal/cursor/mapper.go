package cursor

// Mapper converts normalized fingertip positions into screen coordinates
// through the effective active region.
type Mapper struct {
	ScreenWidth  int
	ScreenHeight int
}

// Map clamps the fingertip's frame-pixel position into the effective
// region's pixel bounds and interpolates those bounds onto the full screen.
// The result is float screen space and may land on the far edge; the
// actuator clamps to the physical screen.
func (m Mapper) Map(fingertip Point, region ActiveRegion, sensitivity float64, frameW, frameH int) Point {
	eff := region.Effective(sensitivity)

	x1 := eff.XMin * float64(frameW)
	x2 := eff.XMax * float64(frameW)
	y1 := eff.YMin * float64(frameH)
	y2 := eff.YMax * float64(frameH)

	px := clamp(fingertip.X*float64(frameW), x1, x2)
	py := clamp(fingertip.Y*float64(frameH), y1, y2)

	return Point{
		X: (px - x1) / (x2 - x1) * float64(m.ScreenWidth),
		Y: (py - y1) / (y2 - y1) * float64(m.ScreenHeight),
	}
}
