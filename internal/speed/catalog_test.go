package speed

import (
	"math"
	"testing"
)

func TestCatalog_SortedAndContainsAuto(t *testing.T) {
	c := Catalog()
	if len(c) != 18 {
		t.Fatalf("expected 18 speeds, got %d", len(c))
	}
	for i := 1; i < len(c); i++ {
		if c[i] <= c[i-1] {
			t.Fatalf("catalog not strictly ascending at %d: %v <= %v", i, c[i], c[i-1])
		}
	}
	if c[0] != MinSpeed || c[len(c)-1] != MaxSpeed {
		t.Fatalf("catalog bounds = [%v, %v], want [%v, %v]", c[0], c[len(c)-1], MinSpeed, MaxSpeed)
	}
	if !InCatalog(AutoSpeed) {
		t.Fatalf("catalog must contain %v", AutoSpeed)
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	c := Catalog()
	c[0] = 42
	if Catalog()[0] != MinSpeed {
		t.Fatalf("mutating the returned slice changed the catalog")
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		target float64
		want   float64
	}{
		{2.0, 2.0},
		{1.0, 1.0},
		{1.1, 1.0},
		{1.2, 1.25},
		{3.4, 3.0},
		{3.6, 4.0},
		{0.03125, 0.0625},
		{16, 8.0},
		// Exact midpoints resolve to the smaller neighbour.
		{2.75, 2.5},
		{3.5, 3.0},
		{0.625, 0.5},
		{1.375, 1.25},
	}
	for _, tt := range tests {
		if got := Nearest(tt.target); got != tt.want {
			t.Errorf("Nearest(%v) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestNearest_NaN(t *testing.T) {
	if got := Nearest(math.NaN()); got != AutoSpeed {
		t.Fatalf("Nearest(NaN) = %v, want %v", got, AutoSpeed)
	}
}

func TestNearestIn_EmptyFallsBackToAuto(t *testing.T) {
	if got := nearestIn(nil, 3.3); got != AutoSpeed {
		t.Fatalf("nearestIn(nil) = %v, want %v", got, AutoSpeed)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.01, MinSpeed},
		{MinSpeed, MinSpeed},
		{1.3, 1.3},
		{MaxSpeed, MaxSpeed},
		{100, MaxSpeed},
		{math.Inf(1), MaxSpeed},
		{math.Inf(-1), MinSpeed},
		{math.NaN(), AutoSpeed},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
