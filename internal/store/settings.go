package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// SchemaVersion identifies the settings schema the defaults below describe.
const SchemaVersion = 1

// Settings holds every tunable the control loop and calibration use.
type Settings struct {
	CameraWidth  int
	CameraHeight int

	SmoothingFactor    float64
	TargetBufferSize   int
	MouseMoveThreshold int

	ActiveRegionXMin float64
	ActiveRegionXMax float64
	ActiveRegionYMin float64
	ActiveRegionYMax float64

	PinchThreshold    float64
	DoubleClickWindow float64
	Sensitivity       float64
	TargetFPS         int

	ModelComplexity        int
	MinDetectionConfidence float64
	MinTrackingConfidence  float64
}

// Setting keys as persisted in the settings table.
const (
	KeyCameraWidth            = "camera_resolution_width"
	KeyCameraHeight           = "camera_resolution_height"
	KeySmoothingFactor        = "smoothing_factor"
	KeyTargetBufferSize       = "raw_target_buffer_size"
	KeyMouseMoveThreshold     = "mouse_move_threshold"
	KeyActiveRegionXMin       = "active_region_x_min_percent"
	KeyActiveRegionXMax       = "active_region_x_max_percent"
	KeyActiveRegionYMin       = "active_region_y_min_percent"
	KeyActiveRegionYMax       = "active_region_y_max_percent"
	KeyPinchThreshold         = "pinch_threshold_distance"
	KeyDoubleClickWindow      = "double_click_window_sec"
	KeySensitivity            = "sensitivity"
	KeyTargetFPS              = "target_fps"
	KeyModelComplexity        = "model_complexity"
	KeyMinDetectionConfidence = "min_detection_confidence"
	KeyMinTrackingConfidence  = "min_tracking_confidence"
)

// DefaultSettings returns a fresh copy of the factory settings.
func DefaultSettings() Settings {
	return Settings{
		CameraWidth:  480,
		CameraHeight: 360,

		SmoothingFactor:    0.20,
		TargetBufferSize:   5,
		MouseMoveThreshold: 1,

		ActiveRegionXMin: 0.15,
		ActiveRegionXMax: 0.85,
		ActiveRegionYMin: 0.15,
		ActiveRegionYMax: 0.85,

		PinchThreshold:    25.0,
		DoubleClickWindow: 0.4,
		Sensitivity:       1.5,
		TargetFPS:         60,

		ModelComplexity:        0,
		MinDetectionConfidence: 0.6,
		MinTrackingConfidence:  0.5,
	}
}

// SettingsRepository reads and writes settings rows.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get retrieves the raw value for a key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set upserts a single key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// Load merges stored rows over the defaults. Unknown keys are ignored and
// a row that fails to parse falls back to the default for its key.
func (r *SettingsRepository) Load() (Settings, error) {
	s := DefaultSettings()

	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, err
		}
		applySetting(&s, key, value)
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	return s, nil
}

// Save upserts every setting in one transaction.
func (r *SettingsRepository) Save(s Settings) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, value := range settingsValues(s) {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	return tx.Commit()
}

func settingsValues(s Settings) map[string]string {
	return map[string]string{
		KeyCameraWidth:            strconv.Itoa(s.CameraWidth),
		KeyCameraHeight:           strconv.Itoa(s.CameraHeight),
		KeySmoothingFactor:        formatFloat(s.SmoothingFactor),
		KeyTargetBufferSize:       strconv.Itoa(s.TargetBufferSize),
		KeyMouseMoveThreshold:     strconv.Itoa(s.MouseMoveThreshold),
		KeyActiveRegionXMin:       formatFloat(s.ActiveRegionXMin),
		KeyActiveRegionXMax:       formatFloat(s.ActiveRegionXMax),
		KeyActiveRegionYMin:       formatFloat(s.ActiveRegionYMin),
		KeyActiveRegionYMax:       formatFloat(s.ActiveRegionYMax),
		KeyPinchThreshold:         formatFloat(s.PinchThreshold),
		KeyDoubleClickWindow:      formatFloat(s.DoubleClickWindow),
		KeySensitivity:            formatFloat(s.Sensitivity),
		KeyTargetFPS:              strconv.Itoa(s.TargetFPS),
		KeyModelComplexity:        strconv.Itoa(s.ModelComplexity),
		KeyMinDetectionConfidence: formatFloat(s.MinDetectionConfidence),
		KeyMinTrackingConfidence:  formatFloat(s.MinTrackingConfidence),
	}
}

func applySetting(s *Settings, key, value string) {
	switch key {
	case KeyCameraWidth:
		parseInt(&s.CameraWidth, value)
	case KeyCameraHeight:
		parseInt(&s.CameraHeight, value)
	case KeySmoothingFactor:
		parseFloat(&s.SmoothingFactor, value)
	case KeyTargetBufferSize:
		parseInt(&s.TargetBufferSize, value)
	case KeyMouseMoveThreshold:
		parseInt(&s.MouseMoveThreshold, value)
	case KeyActiveRegionXMin:
		parseFloat(&s.ActiveRegionXMin, value)
	case KeyActiveRegionXMax:
		parseFloat(&s.ActiveRegionXMax, value)
	case KeyActiveRegionYMin:
		parseFloat(&s.ActiveRegionYMin, value)
	case KeyActiveRegionYMax:
		parseFloat(&s.ActiveRegionYMax, value)
	case KeyPinchThreshold:
		parseFloat(&s.PinchThreshold, value)
	case KeyDoubleClickWindow:
		parseFloat(&s.DoubleClickWindow, value)
	case KeySensitivity:
		parseFloat(&s.Sensitivity, value)
	case KeyTargetFPS:
		parseInt(&s.TargetFPS, value)
	case KeyModelComplexity:
		parseInt(&s.ModelComplexity, value)
	case KeyMinDetectionConfidence:
		parseFloat(&s.MinDetectionConfidence, value)
	case KeyMinTrackingConfidence:
		parseFloat(&s.MinTrackingConfidence, value)
	}
}

func parseInt(dst *int, value string) {
	if v, err := strconv.Atoi(value); err == nil {
		*dst = v
	}
}

func parseFloat(dst *float64, value string) {
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		*dst = v
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
