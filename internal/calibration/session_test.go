package calibration

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/cursor"
)

func handAt(x, y, distance float64) Observation {
	return Observation{
		Fingertip:     &cursor.Point{X: x, Y: y},
		PinchDistance: distance,
	}
}

func noHand() Observation {
	return Observation{PinchDistance: math.Inf(1)}
}

func TestSession_CornerCaptureCountdown(t *testing.T) {
	s := NewSession(10)
	if err := s.StartTopLeft(); err != nil {
		t.Fatalf("StartTopLeft: %v", err)
	}

	// 2s at 10fps arms 20 ticks; each valid tick decrements, and the
	// capture lands on the first valid tick after expiry.
	for i := 0; i < RegionCaptureSeconds*10; i++ {
		st := s.Update(handAt(0.3, 0.3, 50))
		if st.TopLeft != nil {
			t.Fatalf("tick %d: corner captured early", i)
		}
		if st.State != StateWaitingTopLeft {
			t.Fatalf("tick %d: state = %v, want waiting-top-left", i, st.State)
		}
	}

	st := s.Update(handAt(0.21, 0.19, 50))
	if st.TopLeft == nil {
		t.Fatal("corner not captured after countdown expiry")
	}
	if st.TopLeft.X != 0.21 || st.TopLeft.Y != 0.19 {
		t.Errorf("captured (%v, %v), want the expiry tick's fingertip (0.21, 0.19)", st.TopLeft.X, st.TopLeft.Y)
	}
	if st.State != StateIdle {
		t.Errorf("state after capture = %v, want idle", st.State)
	}
}

func TestSession_CornerSkipsUndetectedTicks(t *testing.T) {
	s := NewSession(1)
	if err := s.StartTopLeft(); err != nil {
		t.Fatalf("StartTopLeft: %v", err)
	}

	before := s.Status().Remaining
	st := s.Update(noHand())
	if st.Remaining != before {
		t.Errorf("countdown moved on an undetected tick: %d -> %d", before, st.Remaining)
	}
	if !strings.Contains(st.Message, "not detected") {
		t.Errorf("message = %q, want a hand-not-detected notice", st.Message)
	}
}

func TestSession_ConfirmShortensCountdown(t *testing.T) {
	s := NewSession(30)
	if err := s.StartTopLeft(); err != nil {
		t.Fatalf("StartTopLeft: %v", err)
	}

	s.Confirm()
	if got := s.Status().Remaining; got != 1 {
		t.Fatalf("countdown after Confirm = %d, want 1", got)
	}

	if st := s.Update(handAt(0.5, 0.5, 50)); st.TopLeft != nil {
		t.Fatal("captured on the decrement tick")
	}
	if st := s.Update(handAt(0.5, 0.5, 50)); st.TopLeft == nil {
		t.Fatal("not captured on the tick after Confirm's decrement")
	}
}

func TestSession_StartOrdering(t *testing.T) {
	s := NewSession(1)

	if err := s.StartBottomRight(); !errors.Is(err, ErrTopLeftNotSet) {
		t.Errorf("StartBottomRight without top-left = %v, want ErrTopLeftNotSet", err)
	}
	if err := s.StartPinch(); !errors.Is(err, ErrOpenHandNotSampled) {
		t.Errorf("StartPinch without open-hand = %v, want ErrOpenHandNotSampled", err)
	}

	if err := s.StartTopLeft(); err != nil {
		t.Fatalf("StartTopLeft: %v", err)
	}
	if err := s.StartOpenHand(); !errors.Is(err, ErrCaptureInProgress) {
		t.Errorf("Start while active = %v, want ErrCaptureInProgress", err)
	}
}

func TestSession_DistanceSamplingAverages(t *testing.T) {
	s := NewSession(2)
	if err := s.StartOpenHand(); err != nil {
		t.Fatalf("StartOpenHand: %v", err)
	}

	// 3s at 2fps arms 6 ticks; each valid tick records one sample.
	for i, d := range []float64{10, 20, 30, 40, 50, 60} {
		st := s.Update(handAt(0.5, 0.5, d))
		if st.OpenAvg != nil {
			t.Fatalf("tick %d: averaged early", i)
		}
	}

	st := s.Update(handAt(0.5, 0.5, 999)) // expiry tick's distance is not sampled
	if st.OpenAvg == nil {
		t.Fatal("no average after sampling window expiry")
	}
	if *st.OpenAvg != 35 {
		t.Errorf("open average = %v, want 35", *st.OpenAvg)
	}
	if st.State != StateIdle {
		t.Errorf("state = %v, want idle", st.State)
	}
}

func TestSession_DistanceSamplingSkipsUnclearTicks(t *testing.T) {
	s := NewSession(1)
	if err := s.StartOpenHand(); err != nil {
		t.Fatalf("StartOpenHand: %v", err)
	}

	before := s.Status().Remaining
	st := s.Update(noHand())
	if st.Remaining != before {
		t.Errorf("countdown moved on an unclear tick: %d -> %d", before, st.Remaining)
	}
	if len(s.openSamples) != 0 {
		t.Errorf("samples recorded on an unclear tick: %d", len(s.openSamples))
	}
}

func TestSession_NoSamplesFailure(t *testing.T) {
	s := NewSession(1)
	s.state = StateWaitingOpenHand
	s.countdown = 0
	s.openSamples = nil

	st := s.Update(handAt(0.5, 0.5, 40))
	if st.OpenAvg != nil {
		t.Error("average set despite empty sample window")
	}
	if !strings.Contains(st.Message, "no samples") {
		t.Errorf("message = %q, want a no-samples failure", st.Message)
	}
	if st.State != StateIdle {
		t.Errorf("state = %v, want idle", st.State)
	}
}

func runDistanceCapture(t *testing.T, s *Session, start func() error, distance float64) {
	t.Helper()
	if err := start(); err != nil {
		t.Fatalf("start capture: %v", err)
	}
	for s.Status().State != StateIdle {
		s.Update(handAt(0.5, 0.5, distance))
	}
}

func TestSession_ThresholdDerivation(t *testing.T) {
	s := NewSession(1)

	runDistanceCapture(t, s, s.StartOpenHand, 40)
	runDistanceCapture(t, s, s.StartPinch, 10)

	got, err := s.Threshold()
	if err != nil {
		t.Fatalf("Threshold: %v", err)
	}
	if got != 20.5 {
		t.Errorf("derived threshold = %v, want 20.5", got)
	}
}

func TestSession_ThresholdTooClose(t *testing.T) {
	s := NewSession(1)

	runDistanceCapture(t, s, s.StartOpenHand, 11)
	runDistanceCapture(t, s, s.StartPinch, 10)

	if _, err := s.Threshold(); !errors.Is(err, ErrDistancesTooClose) {
		t.Errorf("Threshold = %v, want ErrDistancesTooClose", err)
	}
	if st := s.Status(); st.NewThreshold != nil {
		t.Error("NewThreshold set despite failed derivation")
	}
}

func TestDeriveThreshold(t *testing.T) {
	tests := []struct {
		name    string
		open    float64
		pinch   float64
		want    float64
		wantErr error
	}{
		{"typical spread", 40, 10, 20.5, nil},
		{"separation too small", 11, 10, 0, ErrDistancesTooClose},
		{"open below pinch", 10, 40, 0, ErrDistancesTooClose},
		{"floored at minimum", 6, 1, 5.0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveThreshold(tt.open, tt.pinch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DeriveThreshold(%v, %v) error = %v, want %v", tt.open, tt.pinch, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveThreshold(%v, %v) error = %v", tt.open, tt.pinch, err)
			}
			if got != tt.want {
				t.Errorf("DeriveThreshold(%v, %v) = %v, want %v", tt.open, tt.pinch, got, tt.want)
			}
		})
	}
}

func captureCorner(t *testing.T, s *Session, start func() error, x, y float64) {
	t.Helper()
	if err := start(); err != nil {
		t.Fatalf("start corner capture: %v", err)
	}
	s.Confirm()
	s.Update(handAt(x, y, 50))
	st := s.Update(handAt(x, y, 50))
	if st.State != StateIdle {
		t.Fatalf("corner capture did not complete, state %v", st.State)
	}
}

func TestSession_Region(t *testing.T) {
	t.Run("sorts swapped corners", func(t *testing.T) {
		s := NewSession(1)
		captureCorner(t, s, s.StartTopLeft, 0.8, 0.9)
		captureCorner(t, s, s.StartBottomRight, 0.2, 0.2)

		r, err := s.Region()
		if err != nil {
			t.Fatalf("Region: %v", err)
		}
		want := cursor.ActiveRegion{XMin: 0.2, XMax: 0.8, YMin: 0.2, YMax: 0.9}
		if r != want {
			t.Errorf("Region = %+v, want %+v", r, want)
		}
	})

	t.Run("degenerate span rejected", func(t *testing.T) {
		s := NewSession(1)
		captureCorner(t, s, s.StartTopLeft, 0.5, 0.2)
		captureCorner(t, s, s.StartBottomRight, 0.505, 0.8)

		if _, err := s.Region(); !errors.Is(err, ErrRegionDegenerate) {
			t.Errorf("Region = %v, want ErrRegionDegenerate", err)
		}
	})

	t.Run("incomplete corners rejected", func(t *testing.T) {
		s := NewSession(1)
		captureCorner(t, s, s.StartTopLeft, 0.2, 0.2)

		if _, err := s.Region(); !errors.Is(err, ErrRegionIncomplete) {
			t.Errorf("Region = %v, want ErrRegionIncomplete", err)
		}
	})
}

func TestSession_CancelKeepsCaptures(t *testing.T) {
	s := NewSession(1)
	captureCorner(t, s, s.StartTopLeft, 0.2, 0.2)

	if err := s.StartBottomRight(); err != nil {
		t.Fatalf("StartBottomRight: %v", err)
	}
	s.Cancel()

	st := s.Status()
	if st.State != StateIdle {
		t.Errorf("state after Cancel = %v, want idle", st.State)
	}
	if st.TopLeft == nil {
		t.Error("Cancel dropped the captured corner")
	}
}

func TestSession_ClearCaptures(t *testing.T) {
	s := NewSession(1)
	captureCorner(t, s, s.StartTopLeft, 0.2, 0.2)
	runDistanceCapture(t, s, s.StartOpenHand, 40)

	s.ClearCaptures()

	st := s.Status()
	if st.TopLeft != nil || st.OpenAvg != nil || st.NewThreshold != nil {
		t.Errorf("captures survived ClearCaptures: %+v", st)
	}
}
