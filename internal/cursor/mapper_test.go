package cursor

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRegionFromCorners_SortsCoordinates(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want ActiveRegion
	}{
		{
			name: "already ordered",
			a:    Point{X: 0.2, Y: 0.2},
			b:    Point{X: 0.8, Y: 0.9},
			want: ActiveRegion{XMin: 0.2, XMax: 0.8, YMin: 0.2, YMax: 0.9},
		},
		{
			name: "corners swapped",
			a:    Point{X: 0.8, Y: 0.9},
			b:    Point{X: 0.2, Y: 0.2},
			want: ActiveRegion{XMin: 0.2, XMax: 0.8, YMin: 0.2, YMax: 0.9},
		},
		{
			name: "mixed axes",
			a:    Point{X: 0.8, Y: 0.1},
			b:    Point{X: 0.3, Y: 0.7},
			want: ActiveRegion{XMin: 0.3, XMax: 0.8, YMin: 0.1, YMax: 0.7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionFromCorners(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("RegionFromCorners(%v, %v) = %+v, want %+v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestActiveRegion_Valid(t *testing.T) {
	tests := []struct {
		name   string
		region ActiveRegion
		want   bool
	}{
		{"default-sized region", ActiveRegion{0.15, 0.85, 0.15, 0.85}, true},
		{"narrow x span", ActiveRegion{0.5, 0.505, 0.2, 0.8}, false},
		{"narrow y span", ActiveRegion{0.2, 0.8, 0.5, 0.505}, false},
		{"exactly min span", ActiveRegion{0.2, 0.21, 0.2, 0.8}, false},
		{"just above min span", ActiveRegion{0.2, 0.211, 0.2, 0.8}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.Valid(); got != tt.want {
				t.Errorf("%+v.Valid() = %v, want %v", tt.region, got, tt.want)
			}
		})
	}
}

func TestActiveRegion_Effective(t *testing.T) {
	base := ActiveRegion{XMin: 0.2, XMax: 0.8, YMin: 0.2, YMax: 0.8}

	t.Run("sensitivity 1 keeps the region", func(t *testing.T) {
		eff := base.Effective(1)
		if !almostEqual(eff.XMin, 0.2) || !almostEqual(eff.XMax, 0.8) {
			t.Errorf("got %+v, want unchanged bounds", eff)
		}
	})

	t.Run("sensitivity 2 halves the span around the center", func(t *testing.T) {
		eff := base.Effective(2)
		if !almostEqual(eff.XMin, 0.35) || !almostEqual(eff.XMax, 0.65) {
			t.Errorf("x bounds = (%v, %v), want (0.35, 0.65)", eff.XMin, eff.XMax)
		}
		if !almostEqual(eff.YMin, 0.35) || !almostEqual(eff.YMax, 0.65) {
			t.Errorf("y bounds = (%v, %v), want (0.35, 0.65)", eff.YMin, eff.YMax)
		}
	})

	t.Run("sensitivity below 1 grows and clips to the frame", func(t *testing.T) {
		eff := base.Effective(0.5)
		if !almostEqual(eff.XMin, 0) || !almostEqual(eff.XMax, 1) {
			t.Errorf("x bounds = (%v, %v), want clipped to (0, 1)", eff.XMin, eff.XMax)
		}
	})

	t.Run("non-positive sensitivity behaves like 1", func(t *testing.T) {
		eff := base.Effective(0)
		if !almostEqual(eff.XMin, 0.2) || !almostEqual(eff.XMax, 0.8) {
			t.Errorf("got %+v, want unchanged bounds", eff)
		}
	})

	t.Run("collapsed axis is reopened to MinSpan", func(t *testing.T) {
		flat := ActiveRegion{XMin: 0.5, XMax: 0.5, YMin: 0.2, YMax: 0.8}
		eff := flat.Effective(1)
		if !almostEqual(eff.XMax-eff.XMin, MinSpan) {
			t.Errorf("x span = %v, want %v", eff.XMax-eff.XMin, MinSpan)
		}
	})
}

func TestMapper_CenterMapsToScreenMidpoint(t *testing.T) {
	m := Mapper{ScreenWidth: 1920, ScreenHeight: 1080}

	regions := []ActiveRegion{
		{XMin: 0.15, XMax: 0.85, YMin: 0.15, YMax: 0.85},
		{XMin: 0.2, XMax: 0.8, YMin: 0.2, YMax: 0.9},
		{XMin: 0.05, XMax: 0.3, YMin: 0.4, YMax: 0.6},
	}

	for _, region := range regions {
		for _, sensitivity := range []float64{1, 1.5, 2} {
			center := Point{
				X: (region.XMin + region.XMax) / 2,
				Y: (region.YMin + region.YMax) / 2,
			}
			got := m.Map(center, region, sensitivity, 480, 360)
			if !almostEqual(got.X, 960) || !almostEqual(got.Y, 540) {
				t.Errorf("region %+v sensitivity %v: center mapped to (%v, %v), want (960, 540)",
					region, sensitivity, got.X, got.Y)
			}
		}
	}
}

func TestMapper_ClampsOutsideRegion(t *testing.T) {
	m := Mapper{ScreenWidth: 1920, ScreenHeight: 1080}
	region := ActiveRegion{XMin: 0.2, XMax: 0.8, YMin: 0.2, YMax: 0.8}

	tests := []struct {
		name      string
		fingertip Point
		want      Point
	}{
		{"far top-left pins to origin", Point{X: 0, Y: 0}, Point{X: 0, Y: 0}},
		{"far bottom-right pins to screen extent", Point{X: 1, Y: 1}, Point{X: 1920, Y: 1080}},
		{"region min maps to origin", Point{X: 0.2, Y: 0.2}, Point{X: 0, Y: 0}},
		{"region max maps to screen extent", Point{X: 0.8, Y: 0.8}, Point{X: 1920, Y: 1080}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map(tt.fingertip, region, 1, 480, 360)
			if !almostEqual(got.X, tt.want.X) || !almostEqual(got.Y, tt.want.Y) {
				t.Errorf("Map(%v) = (%v, %v), want (%v, %v)", tt.fingertip, got.X, got.Y, tt.want.X, tt.want.Y)
			}
		})
	}
}

func TestMapper_SensitivityShrinksHandTravel(t *testing.T) {
	m := Mapper{ScreenWidth: 1000, ScreenHeight: 1000}
	full := ActiveRegion{XMin: 0, XMax: 1, YMin: 0, YMax: 1}

	// Sensitivity 2 narrows the effective region to (0.25, 0.75), so the
	// screen edges are reached with half the hand movement.
	tests := []struct {
		fingertip Point
		wantX     float64
	}{
		{Point{X: 0.25, Y: 0.5}, 0},
		{Point{X: 0.5, Y: 0.5}, 500},
		{Point{X: 0.75, Y: 0.5}, 1000},
		{Point{X: 0.1, Y: 0.5}, 0},
	}

	for _, tt := range tests {
		got := m.Map(tt.fingertip, full, 2, 480, 360)
		if !almostEqual(got.X, tt.wantX) {
			t.Errorf("fingertip %v: X = %v, want %v", tt.fingertip, got.X, tt.wantX)
		}
	}
}
