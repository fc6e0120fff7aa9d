package export

import "github.com/planbiir/skitrack/internal/track"

// Downsample returns at most target points spread evenly over the track,
// always including the first and last. A non-positive target keeps every
// point.
func Downsample(points []track.Point, target int) []track.Point {
	if target <= 0 || len(points) <= target {
		return points
	}
	if target == 1 {
		return points[:1]
	}

	out := make([]track.Point, target)
	step := float64(len(points)-1) / float64(target-1)
	for i := range out {
		out[i] = points[int(float64(i)*step+0.5)]
	}
	return out
}
