package app

import (
	"image"
	"image/color"
	"log"
	"math"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/calibration"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/mouse"
)

// Tick scheduling constants.
const (
	// minTickDelay keeps the loop from spinning when a tick overruns its
	// frame budget.
	minTickDelay = 1 * time.Millisecond
	// emptyFrameRetry is the reschedule delay after a tick that got no
	// frame within the stream's read timeout.
	emptyFrameRetry = 5 * time.Millisecond
)

var (
	regionColor = color.RGBA{R: 255, G: 128, B: 0, A: 0}
	statusColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// runLoop drives the tick pipeline with a self-rescheduling timer. Each
// tick targets 1000/targetFPS ms; after the work is done the timer is reset
// to the remainder of the frame budget so slow ticks do not pile up.
func (a *App) runLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(minTickDelay)
	defer timer.Stop()

	var lastTick time.Time

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		now := time.Now()
		var fps float64
		if !lastTick.IsZero() {
			if dt := now.Sub(lastTick).Seconds(); dt > 0 {
				fps = 1 / dt
			}
		}
		lastTick = now

		delay, ok := a.tick(fps)
		if !ok {
			return
		}
		timer.Reset(delay)
	}
}

// tick processes one frame end to end. It returns the delay before the
// next tick and false when the loop should terminate because nothing
// consumes frames anymore.
func (a *App) tick(measuredFPS float64) (time.Duration, bool) {
	tickStart := time.Now()

	a.mu.Lock()
	if !a.controlActive && a.session == nil {
		a.loopRunning = false
		a.stream.Stop()
		a.mu.Unlock()
		log.Println("Hand control loop idle, capture stopped")
		return 0, false
	}
	interval := tickInterval(a.settings.TargetFPS)
	a.mu.Unlock()

	var profile Profile

	readStart := time.Now()
	frame, err := a.stream.Read()
	if err != nil {
		return emptyFrameRetry, true
	}
	profile.ReadMs = msSince(readStart)

	// Mirror the frame so moving the hand right moves the cursor right.
	flipStart := time.Now()
	mirrored := gocv.NewMat()
	gocv.Flip(*frame.Mat, &mirrored, 1)
	frame.Close()
	defer mirrored.Close()
	profile.FlipMs = msSince(flipStart)

	detectStart := time.Now()
	hand, err := a.det.Detect(&mirrored)
	if err != nil {
		log.Printf("Error detecting hand: %v", err)
		hand = nil
	}
	profile.DetectMs = msSince(detectStart)

	info := hand.PinchInfo(frame.Width, frame.Height)

	a.mu.Lock()

	calStart := time.Now()
	var calStatus *calibration.Status
	if a.session != nil {
		obs := calibration.Observation{PinchDistance: info.Distance}
		if x, y, ok := hand.FingertipNormalized(detector.IndexTip); ok {
			obs.Fingertip = &cursor.Point{X: x, Y: y}
		}
		st := a.session.Update(obs)
		calStatus = &st
	}
	profile.CalibrateMs = msSince(calStart)

	message := "idle"
	if a.controlActive {
		message = "control active"
	}
	if calStatus != nil {
		message = calStatus.Message
	}

	if a.controlActive {
		if hand == nil {
			// Reacquisition must not average against stale points or
			// misread a held pinch as a fresh edge.
			a.smoother.ClearHistory()
			a.clicker.Reset()
			message = "hand lost"
		} else {
			mapStart := time.Now()
			nx, ny, _ := hand.FingertipNormalized(detector.IndexTip)
			raw := a.mapper.Map(cursor.Point{X: nx, Y: ny}, a.region,
				a.settings.Sensitivity, frame.Width, frame.Height)
			profile.MapMs = msSince(mapStart)

			smoothStart := time.Now()
			target := a.smoother.Next(raw)
			profile.SmoothMs = msSince(smoothStart)

			actuateStart := time.Now()
			a.actuateLocked(target, info.Distance)
			profile.ActuateMs = msSince(actuateStart)
		}
	}

	pinching := a.clicker.Pinching()
	lastEvent := a.lastEvent
	lastEventAt := a.lastEventAt
	region := a.region
	sensitivity := a.settings.Sensitivity

	a.mu.Unlock()

	drawStart := time.Now()
	drawOverlay(&mirrored, hand, info, region, sensitivity, message)
	jpeg := encodePreview(&mirrored)
	profile.DrawMs = msSince(drawStart)

	profile.TotalMs = msSince(tickStart)

	a.snapMu.Lock()
	a.status = Status{
		HandDetected: hand != nil,
		Pinching:     pinching,
		LastEvent:    lastEvent.String(),
		FPS:          math.Round(measuredFPS*10) / 10,
		FrameWidth:   frame.Width,
		FrameHeight:  frame.Height,
		Message:      message,
		Profile:      profile,
	}
	if !lastEventAt.IsZero() {
		at := lastEventAt
		a.status.LastEventAt = &at
	}
	if jpeg != nil {
		a.preview = jpeg
	}
	a.snapMu.Unlock()

	delay := interval - time.Since(tickStart)
	if delay < minTickDelay {
		delay = minTickDelay
	}
	return delay, true
}

// actuateLocked moves the cursor when the smoothed target strays past the
// move threshold and fires clicks on pinch edges. Actuator failures log
// and leave the tick running. Callers hold mu.
func (a *App) actuateLocked(target cursor.Point, pinchDistance float64) {
	threshold := float64(a.settings.MouseMoveThreshold)
	if math.Abs(target.X-a.lastMoved.X) > threshold ||
		math.Abs(target.Y-a.lastMoved.Y) > threshold {
		if err := a.actuator.MoveTo(int(target.X), int(target.Y)); err != nil {
			log.Printf("Error moving cursor: %v", err)
		} else {
			a.lastMoved = target
		}
	}

	event := a.clicker.Update(pinchDistance, time.Now())
	if event == gesture.EventNone {
		return
	}
	a.lastEvent = event
	a.lastEventAt = time.Now()

	count := 1
	if event == gesture.EventDoubleClick {
		count = 2
	}
	if err := a.actuator.Click(mouse.ButtonLeft, count); err != nil {
		log.Printf("Error clicking (%s): %v", event, err)
	}
}

// drawOverlay renders the operator preview: the effective active region,
// the hand skeleton, the pinch markers, and a status line.
func drawOverlay(frame *gocv.Mat, hand *detector.HandLandmarks, info detector.PinchInfo,
	region cursor.ActiveRegion, sensitivity float64, message string) {
	if frame == nil || frame.Empty() {
		return
	}

	w := float64(frame.Cols())
	h := float64(frame.Rows())

	eff := region.Effective(sensitivity)
	gocv.Rectangle(frame, image.Rect(
		int(eff.XMin*w), int(eff.YMin*h),
		int(eff.XMax*w), int(eff.YMax*h),
	), regionColor, 2)

	detector.DrawLandmarks(frame, hand)
	detector.DrawPinch(frame, info)

	gocv.PutText(frame, message, image.Pt(10, 25),
		gocv.FontHersheySimplex, 0.6, statusColor, 2)
}

// encodePreview JPEG-encodes the annotated frame into a fresh buffer.
func encodePreview(frame *gocv.Mat) []byte {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.Printf("Error encoding preview frame: %v", err)
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func tickInterval(targetFPS int) time.Duration {
	if targetFPS < 1 {
		targetFPS = 1
	}
	return time.Second / time.Duration(targetFPS)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
