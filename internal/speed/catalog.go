// Package speed implements the dynamic playback speed controller.
//
// A Controller holds the current playback speed for one player session and
// moves it up, down or back to normal in response to press-and-hold gestures.
// Every value it produces is a member of the fixed speed catalog, clamped to
// [MinSpeed, MaxSpeed]. Operations never fail: a disabled feature or an
// unreadable setting simply leaves the speed where it is or falls back to the
// defaults.
package speed

import "math"

// Playback speed bounds. AutoSpeed is the "normal" rate the controller starts
// at and returns to on reset.
const (
	MinSpeed  = 0.0625
	MaxSpeed  = 8.0
	AutoSpeed = 1.0
)

// catalog is sorted ascending and always contains AutoSpeed.
var catalog = [...]float64{
	0.0625, 0.125, 0.25, 0.5, 0.75,
	1.0,
	1.25, 1.5, 1.75, 2.0, 2.25, 2.5, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0,
}

// Catalog returns a copy of the permitted playback speeds in ascending order.
func Catalog() []float64 {
	out := make([]float64, len(catalog))
	copy(out, catalog[:])
	return out
}

// InCatalog reports whether s is exactly one of the permitted speeds.
func InCatalog(s float64) bool {
	for _, c := range catalog {
		if c == s {
			return true
		}
	}
	return false
}

// Clamp limits s to [MinSpeed, MaxSpeed]. NaN maps to AutoSpeed.
func Clamp(s float64) float64 {
	if math.IsNaN(s) {
		return AutoSpeed
	}
	if s < MinSpeed {
		return MinSpeed
	}
	if s > MaxSpeed {
		return MaxSpeed
	}
	return s
}

// Nearest returns the catalog speed closest to target.
//
// When target sits exactly between two entries the smaller one wins: the scan
// runs in ascending order and only a strictly smaller distance replaces the
// current best.
func Nearest(target float64) float64 {
	return nearestIn(catalog[:], target)
}

func nearestIn(speeds []float64, target float64) float64 {
	if len(speeds) == 0 || math.IsNaN(target) {
		return AutoSpeed
	}
	best := speeds[0]
	bestDist := math.Abs(best - target)
	for _, s := range speeds[1:] {
		if d := math.Abs(s - target); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
