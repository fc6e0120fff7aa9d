package clean

import (
	"math"
	"sort"

	"github.com/planbiir/skitrack/internal/geo"
	"github.com/planbiir/skitrack/internal/track"
)

// maxAnchorGap bounds how many rejected samples may separate a point from the
// anchor it is measured against. A bad anchor is abandoned after that.
const maxAnchorGap = 3

// velocityOutlierFilter returns the indices of points that pass the speed and
// geometry checks. Each point is measured from the last point kept, so the
// neighbours of a single spike survive.
func velocityOutlierFilter(points []track.RawPoint, maxSpeed float64, config Config) []int {
	if len(points) <= 2 {
		idx := make([]int, len(points))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	inRange := func(speed float64) bool {
		return speed >= config.MinSpeed && speed <= maxSpeed
	}

	validIndices := []int{0} // Always keep first point

	for i := 1; i < len(points)-1; i++ {
		anchor := validIndices[len(validIndices)-1]
		if i-anchor > maxAnchorGap {
			anchor = i - 1
		}
		prev := points[anchor]
		curr := points[i]
		next := points[i+1]

		distToPrev := track.StepDistance(prev, curr, true)
		distToNext := track.StepDistance(curr, next, true)

		timeToPrev := timeDelta(prev, curr)
		timeToNext := timeDelta(curr, next)

		turnAngle := calculateTurnAngle(prev, curr, next)
		directionOK := turnAngle <= config.MaxHairpinDegrees

		var speedOK bool
		if timeToPrev > 0 {
			speedOK = inRange(distToPrev / timeToPrev)
		} else {
			speedOK = distToPrev <= config.TeleportMeters
		}

		// Two-leg spike: the point sticks out and the track comes straight back
		if speedOK {
			base := geo.DistanceMeters(prev.Lat, prev.Lon, next.Lat, next.Lon)

			if distToPrev > 120 && distToNext > 120 && base < 40 && turnAngle > 100 {
				speedOK = false
			} else if ratio := (distToPrev + distToNext) / math.Max(base, 1); ratio > 6 && turnAngle > 90 {
				speedOK = false
			}
		}

		if speedOK && directionOK {
			validIndices = append(validIndices, i)
			continue
		}

		// Rescue pauses: GPS drift while standing still in a lift queue
		if timeToPrev > 0 && timeToNext > 0 &&
			distToPrev/timeToPrev <= config.PauseSpeed &&
			distToNext/timeToNext <= config.PauseSpeed {
			validIndices = append(validIndices, i)
		}
	}

	return append(validIndices, len(points)-1)
}

func timeDelta(a, b track.RawPoint) float64 {
	if !a.HasTime() || !b.HasTime() {
		return 0
	}
	return b.Time.Sub(a.Time).Seconds()
}

// detectActivityType classifies the track by its P95 speed and returns the
// matching speed limit
func detectActivityType(points []track.RawPoint) (string, float64, float64) {
	speeds := calculateAllSpeeds(points)
	if len(speeds) == 0 {
		return "unknown", 30.0, 0.0
	}

	p95 := percentile(speeds, 95)

	switch {
	case p95 <= 8.0: // 28.8 km/h
		return "touring/hiking", 12.0, p95
	case p95 <= 20.0: // 72 km/h
		return "skiing", 30.0, p95
	default:
		return "high-speed", 50.0, p95
	}
}

// calculateAllSpeeds computes speeds between consecutive points
func calculateAllSpeeds(points []track.RawPoint) []float64 {
	var speeds []float64
	for i := 1; i < len(points); i++ {
		dt := timeDelta(points[i-1], points[i])
		if dt <= 0 {
			continue
		}
		speed := track.StepDistance(points[i-1], points[i], true) / dt
		if speed > 0 && speed < 100 { // reasonable bounds
			speeds = append(speeds, speed)
		}
	}
	return speeds
}

// calculateAverageInterval computes average time interval between points
func calculateAverageInterval(points []track.RawPoint) float64 {
	var totalInterval float64
	validIntervals := 0

	for i := 1; i < len(points); i++ {
		interval := timeDelta(points[i-1], points[i])
		if interval > 0 && interval < 3600 {
			totalInterval += interval
			validIntervals++
		}
	}

	if validIntervals > 0 {
		return totalInterval / float64(validIntervals)
	}
	return 1.0
}

// calculateTurnAngle computes the turn angle between three consecutive points
func calculateTurnAngle(p1, p2, p3 track.RawPoint) float64 {
	bearing1 := geo.Bearing(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	bearing2 := geo.Bearing(p2.Lat, p2.Lon, p3.Lat, p3.Lon)

	turnAngle := math.Abs(bearing2 - bearing1)
	if turnAngle > 180.0 {
		turnAngle = 360.0 - turnAngle
	}
	return turnAngle
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
