package clean

import (
	"errors"
	"time"

	"github.com/planbiir/skitrack/internal/track"
)

// Config holds cleaning algorithm parameters
type Config struct {
	// Speed thresholds
	MinSpeed float64 // m/s - minimum valid speed
	MaxSpeed float64 // m/s - maximum valid speed (auto-detected if 0)

	// Pause detection
	PauseSpeed float64 // m/s - both legs at or below this keep the point

	// Geometric filters
	MaxHairpinDegrees float64 // degrees - allow sharp switchbacks and carved turns
	TeleportMeters    float64 // meters - jump guard for missing timestamps

	// Safety limits
	MaxRemovedPercent  float64 // never remove >X% of points
	MaxDistanceReduced float64 // never drop >X% of distance
}

// DefaultConfig returns the tuned configuration
func DefaultConfig() Config {
	return Config{
		MinSpeed:           0.1,   // 0.36 km/h - lift queues and stops
		MaxSpeed:           0,     // auto-detect based on activity type
		PauseSpeed:         0.7,   // slightly higher for robustness
		MaxHairpinDegrees:  160.0, // allow switchbacks on skin tracks
		TeleportMeters:     120.0,
		MaxRemovedPercent:  20.0, // safety: never remove >20% of points
		MaxDistanceReduced: 25.0, // safety: never drop >25% of distance
	}
}

// Validate rejects negative thresholds.
func (c Config) Validate() error {
	if c.MinSpeed < 0 || c.MaxSpeed < 0 || c.PauseSpeed < 0 {
		return errors.New("clean: speeds must not be negative")
	}
	if c.MaxHairpinDegrees <= 0 || c.TeleportMeters <= 0 {
		return errors.New("clean: hairpin and teleport limits must be positive")
	}
	if c.MaxRemovedPercent < 0 || c.MaxDistanceReduced < 0 {
		return errors.New("clean: safety limits must not be negative")
	}
	return nil
}

// Stats represents cleaning results and metrics
type Stats struct {
	// Input
	OriginalPoints   int     `json:"original_points"`
	OriginalDistance float64 `json:"original_distance_km"`

	// Results
	FinalPoints     int     `json:"final_points"`
	PointsRemoved   int     `json:"points_removed"`
	PointsPercent   float64 `json:"points_removed_percent"`
	FinalDistance   float64 `json:"final_distance_km"`
	DistanceReduced float64 `json:"distance_reduced_km"`
	DistancePercent float64 `json:"distance_reduced_percent"`
	SafetyOverride  bool    `json:"safety_override"`

	// Performance
	ProcessingTime time.Duration `json:"processing_time_ms"`

	// Activity detection
	ActivityType     string  `json:"activity_type"`
	DetectedMaxSpeed float64 `json:"detected_max_speed_ms"`
	P95Speed         float64 `json:"p95_speed_ms"`
}

// Result contains the filtered points and statistics
type Result struct {
	Points []track.RawPoint
	Stats  Stats
}
