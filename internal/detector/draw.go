package detector

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// HandConnections lists the landmark index pairs forming the hand skeleton,
// matching the MediaPipe HAND_CONNECTIONS set.
var HandConnections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

var (
	boneColor  = color.RGBA{R: 0, G: 200, B: 0, A: 0}
	jointColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	indexColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	thumbColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	pinchColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// DrawLandmarks renders the hand skeleton and joints onto frame.
func DrawLandmarks(frame *gocv.Mat, hand *HandLandmarks) {
	if frame == nil || frame.Empty() || hand == nil {
		return
	}

	w := float64(frame.Cols())
	h := float64(frame.Rows())

	for _, conn := range HandConnections {
		a := hand.Points[conn[0]]
		b := hand.Points[conn[1]]
		gocv.Line(frame,
			image.Pt(int(a.X*w), int(a.Y*h)),
			image.Pt(int(b.X*w), int(b.Y*h)),
			boneColor, 2)
	}

	for i := 0; i < NumLandmarks; i++ {
		p := hand.Points[i]
		gocv.Circle(frame, image.Pt(int(p.X*w), int(p.Y*h)), 3, jointColor, -1)
	}
}

// DrawPinch marks the thumb and index fingertips, the line between them
// and the measured gap in pixels.
func DrawPinch(frame *gocv.Mat, info PinchInfo) {
	if frame == nil || frame.Empty() || math.IsInf(info.Distance, 1) {
		return
	}

	indexPt := image.Pt(int(info.IndexX), int(info.IndexY))
	thumbPt := image.Pt(int(info.ThumbX), int(info.ThumbY))

	gocv.Circle(frame, indexPt, 6, indexColor, -1)
	gocv.Circle(frame, thumbPt, 6, thumbColor, -1)
	gocv.Line(frame, thumbPt, indexPt, pinchColor, 2)
	gocv.PutText(frame, fmt.Sprintf("%.1fpx", info.Distance),
		image.Pt(indexPt.X+10, indexPt.Y-10),
		gocv.FontHersheySimplex, 0.5, textColor, 1)
}
