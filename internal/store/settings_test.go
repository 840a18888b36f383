package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestStore creates a new Store backed by a temp-dir database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mudra-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestSettingsRepository_LoadReturnsDefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	settings, err := repo.Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}

	if settings != DefaultSettings() {
		t.Errorf("empty store should load defaults, got %+v", settings)
	}
}

func TestSettingsRepository_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	want := DefaultSettings()
	want.Sensitivity = 2.25
	want.PinchThreshold = 18.73
	want.ActiveRegionXMin = 0.201
	want.ActiveRegionYMax = 0.912
	want.TargetFPS = 30
	want.TargetBufferSize = 8

	if err := repo.Save(want); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestSettingsRepository_LoadMergesPartialRows(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	// Only one key stored; everything else must come from defaults.
	if err := repo.Set(KeySensitivity, "2.5"); err != nil {
		t.Fatalf("failed to set key: %v", err)
	}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}

	if got.Sensitivity != 2.5 {
		t.Errorf("Sensitivity = %v, want stored 2.5", got.Sensitivity)
	}
	if got.PinchThreshold != DefaultSettings().PinchThreshold {
		t.Errorf("PinchThreshold = %v, want default %v", got.PinchThreshold, DefaultSettings().PinchThreshold)
	}
}

func TestSettingsRepository_LoadIgnoresUnknownAndMalformedRows(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if err := repo.Set("some_retired_key", "whatever"); err != nil {
		t.Fatalf("failed to set key: %v", err)
	}
	if err := repo.Set(KeyTargetFPS, "not-a-number"); err != nil {
		t.Fatalf("failed to set key: %v", err)
	}

	got, err := repo.Load()
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if got.TargetFPS != DefaultSettings().TargetFPS {
		t.Errorf("TargetFPS = %v, want default after parse failure", got.TargetFPS)
	}
}

func TestSettingsRepository_GetSet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Set(KeySensitivity, "1.75"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := repo.Set(KeySensitivity, "2.0"); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	got, err := repo.Get(KeySensitivity)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != "2.0" {
		t.Errorf("Get = %q, want %q", got, "2.0")
	}
}

func TestDefaultSettings_ReturnsFreshCopies(t *testing.T) {
	a := DefaultSettings()
	a.Sensitivity = 99

	if b := DefaultSettings(); b.Sensitivity == 99 {
		t.Error("mutating one DefaultSettings() result leaked into another")
	}
}
