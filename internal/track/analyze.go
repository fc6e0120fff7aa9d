package track

import (
	"fmt"
	"math"

	"github.com/planbiir/skitrack/internal/geo"
)

// Analyze enriches raw points with cumulative distance, instantaneous and
// smoothed speed, and computes the track summary. It returns nil when there
// are no points. Analyze is pure; any change of input or config requires a
// full re-run.
func Analyze(raw []RawPoint, cfg Config) *Analysis {
	if len(raw) == 0 {
		return nil
	}

	points := make([]Point, len(raw))
	totalDistance := 0.0
	maxEle := math.Inf(-1)
	minEle := math.Inf(1)

	for i, p := range raw {
		maxEle = math.Max(maxEle, p.Ele)
		minEle = math.Min(minEle, p.Ele)

		speed := 0.0
		if i > 0 {
			prev := raw[i-1]
			step := StepDistance(prev, p, cfg.Mode3D)
			totalDistance += step

			if dt := deltaSeconds(prev, p); dt > 0 {
				speed = step / dt * 3.6
			}
		}

		points[i] = Point{RawPoint: p, CumDist: totalDistance, Speed: speed}
	}

	maxSpeed := smoothSpeeds(points, cfg.SmoothingWindow)

	durationMs := spanMillis(raw[0], raw[len(raw)-1])
	durationHours := float64(durationMs) / 3.6e6
	avgSpeed := 0.0
	if durationHours > 0 {
		avgSpeed = totalDistance / 1000 / durationHours
	}

	return &Analysis{
		Points: points,
		Summary: Summary{
			TotalDistanceKm: math.Round(totalDistance/10) / 100,
			MaxEle:          maxEle,
			MinEle:          minEle,
			ElevationGain:   math.Round(maxEle - minEle),
			DurationMs:      durationMs,
			Duration:        FormatDuration(durationMs),
			AvgSpeedKmh:     avgSpeed,
			MaxSpeedKmh:     maxSpeed,
			PointCount:      len(points),
		},
	}
}

// StepDistance returns the distance in meters between consecutive samples,
// planar or including the elevation delta.
func StepDistance(a, b RawPoint, mode3D bool) float64 {
	if mode3D {
		return geo.Distance3D(a.Lat, a.Lon, a.Ele, b.Lat, b.Lon, b.Ele)
	}
	return geo.DistanceMeters(a.Lat, a.Lon, b.Lat, b.Lon)
}

// smoothSpeeds fills SmoothSpeed with a centered moving average clamped to
// the valid index range and returns the maximum smoothed speed.
func smoothSpeeds(points []Point, window int) float64 {
	maxSpeed := 0.0

	if window <= 0 {
		for i := range points {
			points[i].SmoothSpeed = points[i].Speed
			maxSpeed = math.Max(maxSpeed, points[i].Speed)
		}
		return maxSpeed
	}

	for i := range points {
		lo := max(0, i-window)
		hi := min(len(points)-1, i+window)

		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += points[j].Speed
		}
		points[i].SmoothSpeed = sum / float64(hi-lo+1)
		maxSpeed = math.Max(maxSpeed, points[i].SmoothSpeed)
	}
	return maxSpeed
}

// deltaSeconds is 0 when either sample lacks a timestamp.
func deltaSeconds(a, b RawPoint) float64 {
	if !a.HasTime() || !b.HasTime() {
		return 0
	}
	return b.Time.Sub(a.Time).Seconds()
}

// spanMillis returns the non-negative time span between two samples.
func spanMillis(a, b RawPoint) int64 {
	if !a.HasTime() || !b.HasTime() {
		return 0
	}
	return max(0, b.Time.Sub(a.Time).Milliseconds())
}

// FormatDuration renders milliseconds as HH:MM:SS, or MM:SS under an hour.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	hours := ms / (1000 * 60 * 60)

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Trim returns the inclusive sub-range between two indices of the raw input,
// in either order and clamped to bounds. Callers re-run Analyze afterwards.
func Trim(raw []RawPoint, a, b int) []RawPoint {
	if len(raw) == 0 {
		return nil
	}
	start := max(0, min(a, b))
	end := min(len(raw)-1, max(a, b))
	if start > end {
		return nil
	}
	return raw[start : end+1]
}
