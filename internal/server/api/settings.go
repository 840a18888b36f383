package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/store"
)

// SettingsHandler handles HTTP requests for the settings document.
type SettingsHandler struct {
	store *store.Store
	app   *app.App
}

// NewSettingsHandler creates a new SettingsHandler. Updates are persisted
// through the store and then pushed into the running loop.
func NewSettingsHandler(s *store.Store, a *app.App) *SettingsHandler {
	return &SettingsHandler{store: s, app: a}
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type settingsDocument struct {
	CameraWidth  int `json:"camera_width"`
	CameraHeight int `json:"camera_height"`

	SmoothingFactor    float64 `json:"smoothing_factor"`
	TargetBufferSize   int     `json:"target_buffer_size"`
	MouseMoveThreshold int     `json:"mouse_move_threshold"`

	ActiveRegionXMin float64 `json:"active_region_x_min"`
	ActiveRegionXMax float64 `json:"active_region_x_max"`
	ActiveRegionYMin float64 `json:"active_region_y_min"`
	ActiveRegionYMax float64 `json:"active_region_y_max"`

	PinchThreshold    float64 `json:"pinch_threshold"`
	DoubleClickWindow float64 `json:"double_click_window"`
	Sensitivity       float64 `json:"sensitivity"`
	TargetFPS         int     `json:"target_fps"`

	ModelComplexity        int     `json:"model_complexity"`
	MinDetectionConfidence float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  float64 `json:"min_tracking_confidence"`
}

// updateSettingsRequest is a partial settings document; absent fields keep
// their current values.
type updateSettingsRequest struct {
	CameraWidth  *int `json:"camera_width"`
	CameraHeight *int `json:"camera_height"`

	SmoothingFactor    *float64 `json:"smoothing_factor"`
	TargetBufferSize   *int     `json:"target_buffer_size"`
	MouseMoveThreshold *int     `json:"mouse_move_threshold"`

	ActiveRegionXMin *float64 `json:"active_region_x_min"`
	ActiveRegionXMax *float64 `json:"active_region_x_max"`
	ActiveRegionYMin *float64 `json:"active_region_y_min"`
	ActiveRegionYMax *float64 `json:"active_region_y_max"`

	PinchThreshold    *float64 `json:"pinch_threshold"`
	DoubleClickWindow *float64 `json:"double_click_window"`
	Sensitivity       *float64 `json:"sensitivity"`
	TargetFPS         *int     `json:"target_fps"`

	ModelComplexity        *int     `json:"model_complexity"`
	MinDetectionConfidence *float64 `json:"min_detection_confidence"`
	MinTrackingConfidence  *float64 `json:"min_tracking_confidence"`
}

func toDocument(s store.Settings) settingsDocument {
	return settingsDocument{
		CameraWidth:            s.CameraWidth,
		CameraHeight:           s.CameraHeight,
		SmoothingFactor:        s.SmoothingFactor,
		TargetBufferSize:       s.TargetBufferSize,
		MouseMoveThreshold:     s.MouseMoveThreshold,
		ActiveRegionXMin:       s.ActiveRegionXMin,
		ActiveRegionXMax:       s.ActiveRegionXMax,
		ActiveRegionYMin:       s.ActiveRegionYMin,
		ActiveRegionYMax:       s.ActiveRegionYMax,
		PinchThreshold:         s.PinchThreshold,
		DoubleClickWindow:      s.DoubleClickWindow,
		Sensitivity:            s.Sensitivity,
		TargetFPS:              s.TargetFPS,
		ModelComplexity:        s.ModelComplexity,
		MinDetectionConfidence: s.MinDetectionConfidence,
		MinTrackingConfidence:  s.MinTrackingConfidence,
	}
}

// merge applies the provided fields onto s.
func (req *updateSettingsRequest) merge(s *store.Settings) {
	if req.CameraWidth != nil {
		s.CameraWidth = *req.CameraWidth
	}
	if req.CameraHeight != nil {
		s.CameraHeight = *req.CameraHeight
	}
	if req.SmoothingFactor != nil {
		s.SmoothingFactor = *req.SmoothingFactor
	}
	if req.TargetBufferSize != nil {
		s.TargetBufferSize = *req.TargetBufferSize
	}
	if req.MouseMoveThreshold != nil {
		s.MouseMoveThreshold = *req.MouseMoveThreshold
	}
	if req.ActiveRegionXMin != nil {
		s.ActiveRegionXMin = *req.ActiveRegionXMin
	}
	if req.ActiveRegionXMax != nil {
		s.ActiveRegionXMax = *req.ActiveRegionXMax
	}
	if req.ActiveRegionYMin != nil {
		s.ActiveRegionYMin = *req.ActiveRegionYMin
	}
	if req.ActiveRegionYMax != nil {
		s.ActiveRegionYMax = *req.ActiveRegionYMax
	}
	if req.PinchThreshold != nil {
		s.PinchThreshold = *req.PinchThreshold
	}
	if req.DoubleClickWindow != nil {
		s.DoubleClickWindow = *req.DoubleClickWindow
	}
	if req.Sensitivity != nil {
		s.Sensitivity = *req.Sensitivity
	}
	if req.TargetFPS != nil {
		s.TargetFPS = *req.TargetFPS
	}
	if req.ModelComplexity != nil {
		s.ModelComplexity = *req.ModelComplexity
	}
	if req.MinDetectionConfidence != nil {
		s.MinDetectionConfidence = *req.MinDetectionConfidence
	}
	if req.MinTrackingConfidence != nil {
		s.MinTrackingConfidence = *req.MinTrackingConfidence
	}
}

// validate checks the merged document, so a partial update cannot leave
// settings in a state the loop would refuse.
func validate(s store.Settings) error {
	if s.CameraWidth < 1 || s.CameraHeight < 1 {
		return fmt.Errorf("camera resolution must be positive, got %dx%d", s.CameraWidth, s.CameraHeight)
	}
	if s.SmoothingFactor <= 0 || s.SmoothingFactor > 1 {
		return fmt.Errorf("smoothing_factor must be in (0, 1], got %g", s.SmoothingFactor)
	}
	if s.TargetBufferSize < 1 {
		return fmt.Errorf("target_buffer_size must be at least 1, got %d", s.TargetBufferSize)
	}
	if s.MouseMoveThreshold < 0 {
		return fmt.Errorf("mouse_move_threshold must not be negative, got %d", s.MouseMoveThreshold)
	}
	for _, b := range []struct {
		name string
		v    float64
	}{
		{"active_region_x_min", s.ActiveRegionXMin},
		{"active_region_x_max", s.ActiveRegionXMax},
		{"active_region_y_min", s.ActiveRegionYMin},
		{"active_region_y_max", s.ActiveRegionYMax},
	} {
		if b.v < 0 || b.v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %g", b.name, b.v)
		}
	}
	if s.ActiveRegionXMax-s.ActiveRegionXMin <= cursor.MinSpan ||
		s.ActiveRegionYMax-s.ActiveRegionYMin <= cursor.MinSpan {
		return fmt.Errorf("active region must span more than %g on each axis, got x [%g, %g] y [%g, %g]",
			cursor.MinSpan, s.ActiveRegionXMin, s.ActiveRegionXMax, s.ActiveRegionYMin, s.ActiveRegionYMax)
	}
	if s.PinchThreshold <= 0 {
		return fmt.Errorf("pinch_threshold must be positive, got %g", s.PinchThreshold)
	}
	if s.DoubleClickWindow <= 0 {
		return fmt.Errorf("double_click_window must be positive, got %g", s.DoubleClickWindow)
	}
	if s.Sensitivity < 1 {
		return fmt.Errorf("sensitivity must be at least 1, got %g", s.Sensitivity)
	}
	if s.TargetFPS < 1 {
		return fmt.Errorf("target_fps must be at least 1, got %d", s.TargetFPS)
	}
	if s.ModelComplexity != 0 && s.ModelComplexity != 1 {
		return fmt.Errorf("model_complexity must be 0 or 1, got %d", s.ModelComplexity)
	}
	if s.MinDetectionConfidence < 0 || s.MinDetectionConfidence > 1 {
		return fmt.Errorf("min_detection_confidence must be in [0, 1], got %g", s.MinDetectionConfidence)
	}
	if s.MinTrackingConfidence < 0 || s.MinTrackingConfidence > 1 {
		return fmt.Errorf("min_tracking_confidence must be in [0, 1], got %g", s.MinTrackingConfidence)
	}
	return nil
}

// get handles GET /api/settings and returns the loop's working settings.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDocument(h.app.Settings()))
}

// update handles PUT /api/settings: merge, validate, persist, retune.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings := h.app.Settings()
	req.merge(&settings)

	if err := validate(settings); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.store.Settings().Save(settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist settings")
		return
	}
	if err := h.app.ReloadSettings(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload settings")
		return
	}

	writeJSON(w, http.StatusOK, toDocument(h.app.Settings()))
}
