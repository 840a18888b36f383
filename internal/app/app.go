// Package app provides the main orchestration logic for the mudra hand mouse.
package app

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/calibration"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/mouse"
	"github.com/ayusman/mudra/internal/store"
)

// Orchestration errors.
var (
	ErrNoSession   = errors.New("no calibration session open")
	ErrSessionOpen = errors.New("calibration session already open")
)

// Config holds the collaborators the orchestrator drives.
type Config struct {
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Actuator mouse.Actuator
}

// App orchestrates frame capture, landmark detection, cursor control and
// calibration. The HTTP layer and the tray talk to the tick loop only
// through App methods; they never touch the frame queue.
type App struct {
	store    *store.Store
	stream   *capture.Stream
	det      detector.Detector
	actuator mouse.Actuator
	mapper   cursor.Mapper

	mu       sync.RWMutex
	settings store.Settings
	region   cursor.ActiveRegion
	smoother *cursor.Smoother
	clicker  *gesture.PinchClicker

	controlActive bool
	session       *calibration.Session

	loopRunning bool
	stopCh      chan struct{}
	loopDone    chan struct{}

	lastMoved   cursor.Point
	lastEvent   gesture.Event
	lastEventAt time.Time

	snapMu  sync.RWMutex
	status  Status
	preview []byte
}

// New creates the orchestrator. Settings come from the store, with factory
// defaults filling anything missing.
func New(config Config) (*App, error) {
	a := &App{
		store:    config.Store,
		stream:   capture.NewStream(config.Camera),
		det:      config.Detector,
		actuator: config.Actuator,
	}

	settings, err := config.Store.Settings().Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	a.applySettingsLocked(settings)

	screenW, screenH := config.Actuator.ScreenSize()
	a.mapper = cursor.Mapper{ScreenWidth: screenW, ScreenHeight: screenH}

	a.status = Status{LastEvent: gesture.EventNone.String(), Message: "idle"}

	return a, nil
}

// applySettingsLocked installs settings as the loop's working parameters.
// Callers hold mu (or have exclusive access during construction).
func (a *App) applySettingsLocked(s store.Settings) {
	a.settings = s
	a.region = cursor.ActiveRegion{
		XMin: s.ActiveRegionXMin,
		XMax: s.ActiveRegionXMax,
		YMin: s.ActiveRegionYMin,
		YMax: s.ActiveRegionYMax,
	}

	window := time.Duration(s.DoubleClickWindow * float64(time.Second))
	if a.smoother == nil {
		a.smoother = cursor.NewSmoother(s.SmoothingFactor, s.TargetBufferSize)
		a.clicker = gesture.NewPinchClicker(s.PinchThreshold, window)
		return
	}
	a.smoother.SetAlpha(s.SmoothingFactor)
	a.smoother.Resize(s.TargetBufferSize)
	a.clicker.SetThreshold(s.PinchThreshold)
	a.clicker.SetWindow(window)
}

// StartControl begins moving the cursor from hand tracking. The capture
// stream starts lazily with the configured camera resolution; the smoother
// is seeded from the current cursor position so control picks up where the
// pointer already is.
func (a *App) StartControl() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.controlActive {
		return nil
	}

	if err := a.stream.Start(a.settings.CameraWidth, a.settings.CameraHeight); err != nil {
		return err
	}

	seed := a.screenCenter()
	if x, y, err := a.actuator.Position(); err == nil {
		seed = cursor.Point{X: float64(x), Y: float64(y)}
	} else {
		log.Printf("Cursor position unavailable (%v), seeding from screen center", err)
	}
	a.smoother.Seed(seed)
	a.smoother.ClearHistory()
	a.clicker.Reset()
	a.lastMoved = seed

	a.controlActive = true
	a.ensureLoopLocked()

	log.Println("Hand control started")
	return nil
}

// StopControl stops cursor actuation. The loop and the capture stream wind
// down on their own once calibration does not need frames either.
func (a *App) StopControl() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.controlActive {
		return
	}
	a.controlActive = false
	log.Println("Hand control stopped")
}

// ControlActive reports whether cursor control is on.
func (a *App) ControlActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.controlActive
}

// StartCalibration opens the single calibration session and makes sure the
// loop is feeding it observations.
func (a *App) StartCalibration() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return ErrSessionOpen
	}

	if err := a.stream.Start(a.settings.CameraWidth, a.settings.CameraHeight); err != nil {
		return err
	}

	a.session = calibration.NewSession(a.settings.TargetFPS)
	a.ensureLoopLocked()

	log.Println("Calibration session opened")
	return nil
}

// CloseCalibration drops the session. Settings are reloaded from the store
// so captures that were never applied leave the loop untouched.
func (a *App) CloseCalibration() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return ErrNoSession
	}
	a.session = nil

	settings, err := a.store.Settings().Load()
	if err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	a.applySettingsLocked(settings)

	log.Println("Calibration session closed")
	return nil
}

// CalibrationCapture arms the named capture step on the open session.
func (a *App) CalibrationCapture(step calibration.Step) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return ErrNoSession
	}
	return a.session.StartStep(step)
}

// CalibrationConfirm short-circuits a corner hold.
func (a *App) CalibrationConfirm() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return ErrNoSession
	}
	a.session.Confirm()
	return nil
}

// CalibrationCancel aborts the capture in flight, keeping prior captures.
func (a *App) CalibrationCancel() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return ErrNoSession
	}
	a.session.Cancel()
	return nil
}

// CalibrationStatus returns the open session's snapshot.
func (a *App) CalibrationStatus() (calibration.Status, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.session == nil {
		return calibration.Status{}, ErrNoSession
	}
	return a.session.Status(), nil
}

// Applied reports which calibration parts a successful apply committed.
// RegionError carries the validation failure when a captured region was
// skipped while the threshold still committed.
type Applied struct {
	Region      bool   `json:"region"`
	Threshold   bool   `json:"threshold"`
	RegionError string `json:"region_error,omitempty"`
}

// ApplyCalibration persists whichever of the captured region and derived
// threshold the session holds, records a history row, and retunes the
// running loop. A region that fails validation is skipped without blocking
// the threshold; a session with nothing committable leaves persisted
// settings untouched.
func (a *App) ApplyCalibration() (Applied, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return Applied{}, ErrNoSession
	}

	var applied Applied
	var regionSkipped error
	settings := a.settings
	record := store.Calibration{}

	region, regionErr := a.session.Region()
	switch {
	case regionErr == nil:
		settings.ActiveRegionXMin = round3(region.XMin)
		settings.ActiveRegionXMax = round3(region.XMax)
		settings.ActiveRegionYMin = round3(region.YMin)
		settings.ActiveRegionYMax = round3(region.YMax)
		record.RegionApplied = true
		record.XMin = settings.ActiveRegionXMin
		record.XMax = settings.ActiveRegionXMax
		record.YMin = settings.ActiveRegionYMin
		record.YMax = settings.ActiveRegionYMax
		applied.Region = true
	case errors.Is(regionErr, calibration.ErrRegionIncomplete):
		// No region captured this session; nothing to commit for it.
	default:
		// A captured but invalid region aborts only the region part.
		// A derived threshold from the same session still commits.
		regionSkipped = regionErr
		applied.RegionError = regionErr.Error()
	}

	if threshold, err := a.session.Threshold(); err == nil {
		settings.PinchThreshold = round2(threshold)
		record.ThresholdApplied = true
		record.PinchThreshold = settings.PinchThreshold
		applied.Threshold = true
	}

	if !applied.Region && !applied.Threshold {
		if regionSkipped != nil {
			return Applied{}, regionSkipped
		}
		return Applied{}, calibration.ErrNothingToApply
	}

	st := a.session.Status()
	if st.OpenAvg != nil {
		record.OpenAvg = *st.OpenAvg
	}
	if st.PinchAvg != nil {
		record.PinchAvg = *st.PinchAvg
	}

	if err := a.store.Settings().Save(settings); err != nil {
		return Applied{}, fmt.Errorf("persist settings: %w", err)
	}
	if err := a.store.Calibrations().Record(&record); err != nil {
		log.Printf("Failed to record calibration history: %v", err)
	}

	a.applySettingsLocked(settings)

	log.Printf("Calibration applied (region=%t threshold=%t)", applied.Region, applied.Threshold)
	return applied, nil
}

// ResetCalibration restores the calibration-owned settings (active region
// and pinch threshold) to factory defaults, persists them, retunes the
// loop, and clears any session captures.
func (a *App) ResetCalibration() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	defaults := store.DefaultSettings()
	settings := a.settings
	settings.ActiveRegionXMin = defaults.ActiveRegionXMin
	settings.ActiveRegionXMax = defaults.ActiveRegionXMax
	settings.ActiveRegionYMin = defaults.ActiveRegionYMin
	settings.ActiveRegionYMax = defaults.ActiveRegionYMax
	settings.PinchThreshold = defaults.PinchThreshold

	if err := a.store.Settings().Save(settings); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}

	a.applySettingsLocked(settings)

	if a.session != nil {
		a.session.ClearCaptures()
	}

	log.Println("Calibration reset to defaults")
	return nil
}

// ReloadSettings re-reads the settings repository and retunes the loop.
func (a *App) ReloadSettings() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	settings, err := a.store.Settings().Load()
	if err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	a.applySettingsLocked(settings)
	return nil
}

// Settings returns the loop's current working settings.
func (a *App) Settings() store.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Status returns the latest loop snapshot with live control and
// calibration state folded in.
func (a *App) Status() Status {
	a.mu.RLock()
	control := a.controlActive
	var calStatus *calibration.Status
	if a.session != nil {
		st := a.session.Status()
		calStatus = &st
	}
	a.mu.RUnlock()

	a.snapMu.RLock()
	st := a.status
	a.snapMu.RUnlock()

	st.ControlActive = control
	st.CalibrationOpen = calStatus != nil
	st.Calibration = calStatus
	return st
}

// PreviewJPEG returns the latest annotated preview frame, nil before the
// first tick produces one. The returned bytes are never mutated.
func (a *App) PreviewJPEG() []byte {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	return a.preview
}

// Stop shuts the orchestrator down: flags cleared, loop joined, stream
// stopped, detector closed. Safe to call twice.
func (a *App) Stop() {
	a.mu.Lock()
	a.controlActive = false
	a.session = nil
	var done chan struct{}
	if a.loopRunning {
		close(a.stopCh)
		done = a.loopDone
		a.loopRunning = false
	}
	a.mu.Unlock()

	if done != nil {
		<-done
	}

	a.stream.Stop()

	if a.det != nil {
		if err := a.det.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Hand mouse pipeline stopped")
}

// ensureLoopLocked starts the tick loop if it is not running. Callers hold mu.
func (a *App) ensureLoopLocked() {
	if a.loopRunning {
		return
	}
	a.stopCh = make(chan struct{})
	a.loopDone = make(chan struct{})
	a.loopRunning = true
	go a.runLoop(a.stopCh, a.loopDone)
	log.Println("Hand control loop started")
}

func (a *App) screenCenter() cursor.Point {
	return cursor.Point{
		X: float64(a.mapper.ScreenWidth) / 2,
		Y: float64(a.mapper.ScreenHeight) / 2,
	}
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
