package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Calibration is one applied calibration result.
type Calibration struct {
	ID               string
	AppliedAt        time.Time
	RegionApplied    bool
	ThresholdApplied bool
	XMin             float64
	XMax             float64
	YMin             float64
	YMax             float64
	PinchThreshold   float64
	OpenAvg          float64
	PinchAvg         float64
}

// CalibrationRepository records applied calibration results.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration history repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Record inserts a calibration result, assigning an ID and timestamp.
func (r *CalibrationRepository) Record(c *Calibration) error {
	c.ID = uuid.New().String()
	c.AppliedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO calibrations (id, applied_at, region_applied, threshold_applied,
		                           x_min, x_max, y_min, y_max,
		                           pinch_threshold, open_avg, pinch_avg)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AppliedAt, c.RegionApplied, c.ThresholdApplied,
		c.XMin, c.XMax, c.YMin, c.YMax,
		c.PinchThreshold, c.OpenAvg, c.PinchAvg,
	)
	return err
}

// GetByID retrieves a calibration by its ID.
func (r *CalibrationRepository) GetByID(id string) (*Calibration, error) {
	c := &Calibration{}
	err := r.db.QueryRow(
		`SELECT id, applied_at, region_applied, threshold_applied,
		        x_min, x_max, y_min, y_max, pinch_threshold, open_avg, pinch_avg
		 FROM calibrations WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.AppliedAt, &c.RegionApplied, &c.ThresholdApplied,
		&c.XMin, &c.XMax, &c.YMin, &c.YMax, &c.PinchThreshold, &c.OpenAvg, &c.PinchAvg)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return c, nil
}

// List retrieves all recorded calibrations, newest first.
func (r *CalibrationRepository) List() ([]*Calibration, error) {
	rows, err := r.db.Query(
		`SELECT id, applied_at, region_applied, threshold_applied,
		        x_min, x_max, y_min, y_max, pinch_threshold, open_avg, pinch_avg
		 FROM calibrations ORDER BY applied_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calibrations []*Calibration
	for rows.Next() {
		c := &Calibration{}
		err := rows.Scan(&c.ID, &c.AppliedAt, &c.RegionApplied, &c.ThresholdApplied,
			&c.XMin, &c.XMax, &c.YMin, &c.YMax, &c.PinchThreshold, &c.OpenAvg, &c.PinchAvg)
		if err != nil {
			return nil, err
		}
		calibrations = append(calibrations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return calibrations, nil
}
