// Package clean removes GPS spikes from a raw track before analysis.
package clean

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/planbiir/skitrack/internal/track"
)

// Filter drops samples with impossible speeds or boomerang-shaped jumps. The
// first and last samples are always kept. When filtering would remove more
// points or distance than the safety limits allow, the input is returned
// unchanged. The input slice is not modified.
func Filter(points []track.RawPoint, config Config, logger *slog.Logger) (Result, error) {
	if err := config.Validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if len(points) < 3 {
		return Result{
			Points: points,
			Stats: Stats{
				OriginalPoints: len(points),
				FinalPoints:    len(points),
			},
		}, nil
	}

	startTime := time.Now()
	originalDistance := calculateDistance(points)

	activityType, detectedMaxSpeed, p95Speed := detectActivityType(points)
	maxSpeed := detectedMaxSpeed
	if config.MaxSpeed > 0 {
		maxSpeed = config.MaxSpeed
	}

	logger.Debug("spike filter",
		"activity", activityType,
		"p95_ms", p95Speed,
		"avg_interval_s", calculateAverageInterval(points),
		"speed_limit_ms", maxSpeed)

	validIndices := velocityOutlierFilter(points, maxSpeed, config)
	finalPoints := extractPoints(points, validIndices)

	override, reason := exceedsSafetyLimits(originalDistance, points, finalPoints, config)
	if override {
		logger.Warn("spike filter safety override, keeping all points", "reason", reason)
		finalPoints = points
	}

	finalDistance := calculateDistance(finalPoints)
	stats := Stats{
		OriginalPoints:   len(points),
		OriginalDistance: originalDistance / 1000,
		FinalPoints:      len(finalPoints),
		PointsRemoved:    len(points) - len(finalPoints),
		PointsPercent:    float64(len(points)-len(finalPoints)) / float64(len(points)) * 100,
		FinalDistance:    finalDistance / 1000,
		DistanceReduced:  (originalDistance - finalDistance) / 1000,
		SafetyOverride:   override,
		ProcessingTime:   time.Since(startTime),
		ActivityType:     activityType,
		DetectedMaxSpeed: detectedMaxSpeed,
		P95Speed:         p95Speed,
	}
	if originalDistance > 0 {
		stats.DistancePercent = (originalDistance - finalDistance) / originalDistance * 100
	}

	logger.Info("spike filter done",
		"points_before", stats.OriginalPoints,
		"points_after", stats.FinalPoints,
		"removed_pct", stats.PointsPercent,
		"km_before", stats.OriginalDistance,
		"km_after", stats.FinalDistance,
		"elapsed", stats.ProcessingTime)

	return Result{
		Points: finalPoints,
		Stats:  stats,
	}, nil
}

// exceedsSafetyLimits reports whether the filtered track lost too many points
// or too much distance.
func exceedsSafetyLimits(originalDistance float64, input, filtered []track.RawPoint, config Config) (bool, string) {
	removalPercent := float64(len(input)-len(filtered)) / float64(len(input)) * 100
	if removalPercent > config.MaxRemovedPercent {
		return true, fmt.Sprintf("would remove %.1f%% > %.0f%% of points", removalPercent, config.MaxRemovedPercent)
	}

	if originalDistance <= 0 {
		return false, ""
	}
	distanceReduction := (originalDistance - calculateDistance(filtered)) / originalDistance * 100
	if distanceReduction > config.MaxDistanceReduced {
		return true, fmt.Sprintf("would drop %.1f%% > %.0f%% of distance", distanceReduction, config.MaxDistanceReduced)
	}
	return false, ""
}

func extractPoints(points []track.RawPoint, indices []int) []track.RawPoint {
	out := make([]track.RawPoint, len(indices))
	for i, idx := range indices {
		out[i] = points[idx]
	}
	return out
}

// calculateDistance computes total 3D distance of a track
func calculateDistance(points []track.RawPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += track.StepDistance(points[i-1], points[i], true)
	}
	return total
}
