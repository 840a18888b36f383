package store

import "fmt"

// migrations apply in order. schema_migrations records each applied version,
// so reopening an existing database only runs what is new.
var migrations = []struct {
	version int
	stmts   []string
}{
	{
		version: 1,
		stmts: []string{
			// Tunable parameters as key-value rows.
			`CREATE TABLE settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
	{
		version: 2,
		stmts: []string{
			// History of applied calibration results.
			`CREATE TABLE calibrations (
				id TEXT PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				region_applied INTEGER NOT NULL DEFAULT 0,
				threshold_applied INTEGER NOT NULL DEFAULT 0,
				x_min REAL NOT NULL DEFAULT 0,
				x_max REAL NOT NULL DEFAULT 0,
				y_min REAL NOT NULL DEFAULT 0,
				y_max REAL NOT NULL DEFAULT 0,
				pinch_threshold REAL NOT NULL DEFAULT 0,
				open_avg REAL NOT NULL DEFAULT 0,
				pinch_avg REAL NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX idx_calibrations_applied_at ON calibrations(applied_at)`,
		},
	},
}

func (s *Store) runMigrations() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRow(
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations",
	).Scan(&current); err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", m.version,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
