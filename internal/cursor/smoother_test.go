package cursor

import (
	"math"
	"testing"
)

func TestSmoother_ConvergesWithinOnePercent(t *testing.T) {
	// With alpha 0.20 and a constant target, the residual from the seed
	// decays as 0.8^n: just over 1% after 20 ticks, under 1% after 21.
	s := NewSmoother(0.20, 5)
	s.Seed(Point{X: 0, Y: 0})
	target := Point{X: 1000, Y: 500}

	var out Point
	for i := 0; i < 20; i++ {
		out = s.Next(target)
	}
	if math.Abs(out.X-target.X) <= target.X*0.01 {
		t.Errorf("after 20 ticks X error %v, expected still above 1%%", math.Abs(out.X-target.X))
	}

	out = s.Next(target)
	if math.Abs(out.X-target.X) > target.X*0.01 {
		t.Errorf("after 21 ticks X error %v, want within 1%% (%v)", math.Abs(out.X-target.X), target.X*0.01)
	}
	if math.Abs(out.Y-target.Y) > target.Y*0.01 {
		t.Errorf("after 21 ticks Y error %v, want within 1%% (%v)", math.Abs(out.Y-target.Y), target.Y*0.01)
	}
}

func TestSmoother_SeedBlendsFirstTick(t *testing.T) {
	s := NewSmoother(0.5, 5)
	s.Seed(Point{X: 100, Y: 100})

	out := s.Next(Point{X: 200, Y: 200})
	if !almostEqual(out.X, 150) || !almostEqual(out.Y, 150) {
		t.Errorf("first tick = (%v, %v), want (150, 150)", out.X, out.Y)
	}
}

func TestSmoother_WindowEvictsOldest(t *testing.T) {
	// Alpha 1 disables the exponential stage so the output is exactly the
	// window mean.
	s := NewSmoother(1, 3)

	inputs := []float64{0, 3, 6, 9}
	want := []float64{0, 1.5, 3, 6}

	for i, x := range inputs {
		out := s.Next(Point{X: x, Y: 0})
		if !almostEqual(out.X, want[i]) {
			t.Errorf("tick %d: mean = %v, want %v", i, out.X, want[i])
		}
	}
}

func TestSmoother_ClearHistoryKeepsPrev(t *testing.T) {
	s := NewSmoother(1, 5)
	s.Seed(Point{X: 42, Y: 42})

	s.Next(Point{X: 10, Y: 10})
	s.Next(Point{X: 20, Y: 20})
	if s.HistoryLen() != 2 {
		t.Fatalf("history length = %d, want 2", s.HistoryLen())
	}

	s.ClearHistory()
	if s.HistoryLen() != 0 {
		t.Fatalf("history length after clear = %d, want 0", s.HistoryLen())
	}

	// With alpha 1 the next output is the mean of only the fresh point,
	// untouched by anything seen before the clear.
	out := s.Next(Point{X: 100, Y: 100})
	if !almostEqual(out.X, 100) || !almostEqual(out.Y, 100) {
		t.Errorf("after clear = (%v, %v), want (100, 100)", out.X, out.Y)
	}
	if s.HistoryLen() != 1 {
		t.Errorf("history length = %d, want 1", s.HistoryLen())
	}
}

func TestSmoother_ResizeDropsHistory(t *testing.T) {
	s := NewSmoother(0.2, 5)
	s.Next(Point{X: 1, Y: 1})
	s.Next(Point{X: 2, Y: 2})

	s.Resize(3)
	if s.HistoryLen() != 0 {
		t.Errorf("history length after resize = %d, want 0", s.HistoryLen())
	}

	// Same capacity is a no-op and keeps held points.
	s.Next(Point{X: 1, Y: 1})
	s.Resize(3)
	if s.HistoryLen() != 1 {
		t.Errorf("history length after same-size resize = %d, want 1", s.HistoryLen())
	}
}

func TestNewSmoother_MinimumCapacity(t *testing.T) {
	s := NewSmoother(0.2, 0)
	s.Next(Point{X: 1, Y: 1})
	s.Next(Point{X: 2, Y: 2})
	if s.HistoryLen() != 1 {
		t.Errorf("history length = %d, want 1 (capacity floored)", s.HistoryLen())
	}
}
