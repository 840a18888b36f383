package mouse

import (
	"errors"
	"image"
	"testing"
)

func TestMockActuator_RecordsMovesAndClicks(t *testing.T) {
	m := NewMockActuator(1920, 1080)

	if x, y, err := m.Position(); err != nil || x != 960 || y != 540 {
		t.Fatalf("initial Position() = (%d, %d, %v), want screen center", x, y, err)
	}

	if err := m.MoveTo(10, 20); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if err := m.MoveTo(30, 40); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if err := m.Click(ButtonLeft, 2); err != nil {
		t.Fatalf("Click: %v", err)
	}

	moves := m.Moves()
	if len(moves) != 2 || moves[1] != image.Pt(30, 40) {
		t.Errorf("Moves() = %v, want two moves ending at (30, 40)", moves)
	}

	clicks := m.Clicks()
	if len(clicks) != 1 || clicks[0].Button != ButtonLeft || clicks[0].Count != 2 {
		t.Errorf("Clicks() = %v, want one left double click", clicks)
	}

	if x, y, _ := m.Position(); x != 30 || y != 40 {
		t.Errorf("Position() after moves = (%d, %d), want (30, 40)", x, y)
	}
}

func TestMockActuator_InjectedFailures(t *testing.T) {
	m := NewMockActuator(800, 600)

	wantErr := errors.New("device gone")
	m.MoveErr = wantErr
	m.ClickErr = wantErr
	m.PositionErr = wantErr

	if err := m.MoveTo(1, 1); !errors.Is(err, wantErr) {
		t.Errorf("MoveTo error = %v, want injected failure", err)
	}
	if err := m.Click(ButtonLeft, 1); !errors.Is(err, wantErr) {
		t.Errorf("Click error = %v, want injected failure", err)
	}
	if _, _, err := m.Position(); !errors.Is(err, wantErr) {
		t.Errorf("Position error = %v, want injected failure", err)
	}

	if len(m.Moves()) != 0 || len(m.Clicks()) != 0 {
		t.Error("failed calls must not be recorded")
	}
}

func TestController_Hardware(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping hardware test in short mode")
	}

	c := NewController()
	w, h := c.ScreenSize()
	if w <= 0 || h <= 0 {
		t.Fatalf("ScreenSize() = (%d, %d), want positive dimensions", w, h)
	}

	x, y, err := c.Position()
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if x < 0 || y < 0 {
		t.Errorf("Position() = (%d, %d), want non-negative", x, y)
	}
}
