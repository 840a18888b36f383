package mouse

import (
	"image"
	"sync"
)

// ClickRecord is one recorded click.
type ClickRecord struct {
	Button Button
	Count  int
}

// MockActuator records actuation in memory for testing
type MockActuator struct {
	mu sync.Mutex

	Width  int
	Height int

	PosX int
	PosY int

	PositionErr error
	MoveErr     error
	ClickErr    error

	moves  []image.Point
	clicks []ClickRecord
}

// NewMockActuator creates a mock screen of the given size with the cursor
// at its center.
func NewMockActuator(width, height int) *MockActuator {
	return &MockActuator{
		Width:  width,
		Height: height,
		PosX:   width / 2,
		PosY:   height / 2,
	}
}

func (m *MockActuator) ScreenSize() (int, int) {
	return m.Width, m.Height
}

func (m *MockActuator) Position() (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PositionErr != nil {
		return 0, 0, m.PositionErr
	}
	return m.PosX, m.PosY, nil
}

func (m *MockActuator) MoveTo(x, y int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MoveErr != nil {
		return m.MoveErr
	}
	m.PosX, m.PosY = x, y
	m.moves = append(m.moves, image.Pt(x, y))
	return nil
}

func (m *MockActuator) Click(button Button, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClickErr != nil {
		return m.ClickErr
	}
	m.clicks = append(m.clicks, ClickRecord{Button: button, Count: count})
	return nil
}

// Moves returns a copy of every recorded cursor move.
func (m *MockActuator) Moves() []image.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]image.Point, len(m.moves))
	copy(out, m.moves)
	return out
}

// Clicks returns a copy of every recorded click.
func (m *MockActuator) Clicks() []ClickRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ClickRecord, len(m.clicks))
	copy(out, m.clicks)
	return out
}
