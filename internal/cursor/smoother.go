package cursor

// Smoother applies two smoothing stages to raw cursor targets: a windowed
// mean over the most recent raw points, then an exponential blend of that
// mean against the previous output.
type Smoother struct {
	alpha    float64
	capacity int
	history  []Point
	prev     Point
}

// NewSmoother creates a smoother with the given exponential factor and
// history window capacity. Capacities below 1 are treated as 1.
func NewSmoother(alpha float64, capacity int) *Smoother {
	if capacity < 1 {
		capacity = 1
	}
	return &Smoother{
		alpha:    alpha,
		capacity: capacity,
		history:  make([]Point, 0, capacity),
	}
}

// Seed sets the previous output without recording history. Called with the
// current cursor position when control starts so the first ticks blend from
// where the pointer already is.
func (s *Smoother) Seed(p Point) {
	s.prev = p
}

// Next records a raw target and returns the smoothed position.
func (s *Smoother) Next(raw Point) Point {
	if len(s.history) == s.capacity {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, raw)

	var sumX, sumY float64
	for _, p := range s.history {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(s.history))
	mean := Point{X: sumX / n, Y: sumY / n}

	s.prev = Point{
		X: s.prev.X*(1-s.alpha) + mean.X*s.alpha,
		Y: s.prev.Y*(1-s.alpha) + mean.Y*s.alpha,
	}
	return s.prev
}

// ClearHistory drops the windowed history but keeps the previous output, so
// a reacquired hand is not averaged against stale points.
func (s *Smoother) ClearHistory() {
	s.history = s.history[:0]
}

// HistoryLen reports how many raw points the window currently holds.
func (s *Smoother) HistoryLen() int {
	return len(s.history)
}

// SetAlpha updates the exponential factor.
func (s *Smoother) SetAlpha(alpha float64) {
	s.alpha = alpha
}

// Resize replaces the history window capacity, dropping any held points.
func (s *Smoother) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == s.capacity {
		return
	}
	s.capacity = capacity
	s.history = make([]Point, 0, capacity)
}
