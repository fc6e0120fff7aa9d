package playback

import "math"

// SpeedSteps are the playback multipliers offered to the user.
var SpeedSteps = []float64{1, 2, 5, 10, 20, 50}

// NextSpeed cycles to the step after x. Values outside SpeedSteps restart
// the cycle.
func NextSpeed(x float64) float64 {
	for i, s := range SpeedSteps {
		if s == x {
			return SpeedSteps[(i+1)%len(SpeedSteps)]
		}
	}
	return SpeedSteps[0]
}

// SnapSpeed returns the step nearest to x. Non-positive values map to 1x.
func SnapSpeed(x float64) float64 {
	if x <= 0 || math.IsNaN(x) {
		return SpeedSteps[0]
	}

	best := SpeedSteps[0]
	for _, s := range SpeedSteps[1:] {
		if math.Abs(s-x) < math.Abs(best-x) {
			best = s
		}
	}
	return best
}
