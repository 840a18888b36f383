// Package cursor maps fingertip positions onto the screen and smooths the
// resulting cursor path.
package cursor

import "math"

// MinSpan is the smallest usable active region extent on either axis.
const MinSpan = 0.01

// Point is a 2D position. Detector output is normalized to [0,1]; mapped
// output is in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ActiveRegion is the normalized sub-area of the camera frame that maps to
// the full screen. Hand movement outside it pins the cursor to the screen
// edges.
type ActiveRegion struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// RegionFromCorners builds a region from two opposite corners captured in
// any order.
func RegionFromCorners(a, b Point) ActiveRegion {
	return ActiveRegion{
		XMin: math.Min(a.X, b.X),
		XMax: math.Max(a.X, b.X),
		YMin: math.Min(a.Y, b.Y),
		YMax: math.Max(a.Y, b.Y),
	}
}

// Valid reports whether both axes span more than MinSpan.
func (r ActiveRegion) Valid() bool {
	return r.XMax-r.XMin > MinSpan && r.YMax-r.YMin > MinSpan
}

// Effective scales the region around its center by 1/sensitivity and clips
// it to [0,1]. Sensitivity above 1 shrinks the area the hand has to cover;
// values at or below zero behave like 1. A collapsed axis is reopened to
// MinSpan so interpolation never divides by zero.
func (r ActiveRegion) Effective(sensitivity float64) ActiveRegion {
	if sensitivity <= 0 {
		sensitivity = 1
	}

	cx := (r.XMin + r.XMax) / 2
	cy := (r.YMin + r.YMax) / 2
	halfW := (r.XMax - r.XMin) / sensitivity / 2
	halfH := (r.YMax - r.YMin) / sensitivity / 2

	eff := ActiveRegion{
		XMin: clamp(cx-halfW, 0, 1),
		XMax: clamp(cx+halfW, 0, 1),
		YMin: clamp(cy-halfH, 0, 1),
		YMax: clamp(cy+halfH, 0, 1),
	}
	if eff.XMin >= eff.XMax {
		eff.XMax = eff.XMin + MinSpan
	}
	if eff.YMin >= eff.YMax {
		eff.YMax = eff.YMin + MinSpan
	}
	return eff
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
